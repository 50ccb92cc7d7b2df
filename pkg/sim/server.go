/*
 Licensed under the Apache License, Version 2.0 (the "License");
 you may not use this file except in compliance with the License.
 You may obtain a copy of the License at

     https://www.apache.org/licenses/LICENSE-2.0

 Unless required by applicable law or agreed to in writing, software
 distributed under the License is distributed on an "AS IS" BASIS,
 WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 See the License for the specific language governing permissions and
 limitations under the License.
*/

package sim

import (
	"context"
	"errors"
	"io"
	"net"

	"github.com/google/gopacket"
	"golang.org/x/sync/errgroup"

	"github.com/litex-hub/go-m2sdr/pkg/layers"
	"github.com/litex-hub/go-m2sdr/pkg/log"
)

// Server exposes a Board over the Etherbone wire protocol, UDP and
// TCP, so Ethernet-path clients can run against the simulator.
type Server struct {
	board *Board
	udp   *net.UDPConn
	tcp   *net.TCPListener
}

// NewServer binds the UDP socket and TCP listener on address. Use
// port 0 to pick free ports, then UDPAddr/TCPAddr to discover them.
func NewServer(board *Board, address string, port int) (*Server, error) {
	udp, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.ParseIP(address), Port: port})
	if err != nil {
		return nil, err
	}
	tcp, err := net.ListenTCP("tcp", &net.TCPAddr{IP: net.ParseIP(address), Port: port})
	if err != nil {
		udp.Close()
		return nil, err
	}
	return &Server{board: board, udp: udp, tcp: tcp}, nil
}

func (s *Server) UDPAddr() *net.UDPAddr { return s.udp.LocalAddr().(*net.UDPAddr) }
func (s *Server) TCPAddr() *net.TCPAddr { return s.tcp.Addr().(*net.TCPAddr) }

// Run serves until the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return s.serveUDP() })
	g.Go(func() error { return s.serveTCP() })
	g.Go(func() error {
		<-ctx.Done()
		s.Close()
		return ctx.Err()
	})
	err := g.Wait()
	if ctx.Err() != nil {
		return nil
	}
	return err
}

func (s *Server) Close() {
	s.udp.Close()
	s.tcp.Close()
}

func (s *Server) serveUDP() error {
	buf := make([]byte, 65536)
	for {
		n, addr, err := s.udp.ReadFromUDP(buf)
		if err != nil {
			if isClosed(err) {
				return nil
			}
			return err
		}
		reply, err := s.apply(buf[:n])
		if err != nil {
			log.Debug("sim: dropping datagram from %s: %v", addr, err)
			continue
		}
		if reply != nil {
			if _, err := s.udp.WriteToUDP(reply, addr); err != nil {
				return err
			}
		}
	}
}

func (s *Server) serveTCP() error {
	for {
		conn, err := s.tcp.AcceptTCP()
		if err != nil {
			if isClosed(err) {
				return nil
			}
			return err
		}
		conn.SetNoDelay(true)
		go s.serveConn(conn)
	}
}

func (s *Server) serveConn(conn *net.TCPConn) {
	defer conn.Close()
	frame := make([]byte, layers.EtherboneFrameLen)
	for {
		if _, err := io.ReadFull(conn, frame); err != nil {
			return
		}
		reply, err := s.apply(frame)
		if err != nil {
			log.Debug("sim: bad frame on %s: %v", conn.RemoteAddr(), err)
			return
		}
		if reply != nil {
			if _, err := conn.Write(reply); err != nil {
				return
			}
		}
	}
}

// apply decodes one frame, performs the access on the board, and
// builds the reply frame for reads. Writes are not acknowledged.
func (s *Server) apply(data []byte) ([]byte, error) {
	packet := gopacket.NewPacket(data, layers.EtherboneLayerType, gopacket.Default)
	if packet.ErrorLayer() != nil {
		return nil, packet.ErrorLayer().Error()
	}
	eb, ok := packet.Layer(layers.EtherboneLayerType).(*layers.EtherboneLayer)
	if !ok {
		return nil, layers.ErrShortFrame{Len: len(data)}
	}

	if !eb.Read {
		if err := s.board.Write32(eb.Addr, eb.Data); err != nil {
			return nil, err
		}
		return nil, nil
	}

	val, err := s.board.Read32(eb.Addr)
	if err != nil {
		return nil, err
	}
	reply := make([]byte, layers.EtherboneFrameLen)
	(&layers.EtherboneLayer{Addr: 0, Data: val}).Serialize(reply)
	return reply, nil
}

func isClosed(err error) bool {
	return errors.Is(err, net.ErrClosed)
}
