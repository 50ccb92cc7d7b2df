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

package transport

import (
	"fmt"
	"io"
	"net"
	"time"

	"github.com/google/gopacket"

	"github.com/litex-hub/go-m2sdr/pkg/errcode"
	"github.com/litex-hub/go-m2sdr/pkg/layers"
	"github.com/litex-hub/go-m2sdr/pkg/log"
)

const (
	DefaultEtherbonePort = 1234
)

// EtherboneUDP tunnels single-word CSR accesses in 20-byte datagrams.
// Writes are fire-and-forget; reads wait for the reply datagram.
type EtherboneUDP struct {
	conn        *net.UDPConn
	remote      *net.UDPAddr
	readTimeout time.Duration
}

var _ Transport = (*EtherboneUDP)(nil)

// DialEtherboneUDP binds the local receive socket to the same port
// number as the remote endpoint and connects to it.
func DialEtherboneUDP(address string, port int) (*EtherboneUDP, error) {
	if port == 0 {
		port = DefaultEtherbonePort
	}
	remote, err := net.ResolveUDPAddr("udp", fmt.Sprintf("%s:%d", address, port))
	if err != nil {
		return nil, errcode.Wrap(errcode.Invalid, err)
	}
	local := &net.UDPAddr{Port: port}
	conn, err := net.ListenUDP("udp", local)
	if err != nil {
		// The well-known port may be taken by another session on
		// this host; fall back to an ephemeral one.
		log.Debug("Etherbone: port %d busy, using ephemeral local port", port)
		conn, err = net.ListenUDP("udp", &net.UDPAddr{})
		if err != nil {
			return nil, errcode.Wrap(errcode.IO, err)
		}
	}
	log.Debug("Etherbone UDP: local %s remote %s", conn.LocalAddr(), remote)
	return &EtherboneUDP{
		conn:        conn,
		remote:      remote,
		readTimeout: DefaultReadTimeout,
	}, nil
}

func (t *EtherboneUDP) Write32(addr uint32, val uint32) error {
	frame := make([]byte, layers.EtherboneFrameLen)
	(&layers.EtherboneLayer{Addr: addr, Data: val}).Serialize(frame)
	n, err := t.conn.WriteToUDP(frame, t.remote)
	if err != nil {
		return errcode.Wrap(errcode.IO, err)
	}
	if n != len(frame) {
		return errcode.Wrap(errcode.IO, ErrShortDatagram{Len: n})
	}
	return nil
}

func (t *EtherboneUDP) Read32(addr uint32) (uint32, error) {
	frame := make([]byte, layers.EtherboneFrameLen)
	(&layers.EtherboneLayer{Read: true, Addr: addr}).Serialize(frame)
	if _, err := t.conn.WriteToUDP(frame, t.remote); err != nil {
		return 0, errcode.Wrap(errcode.IO, err)
	}

	if err := t.conn.SetReadDeadline(time.Now().Add(t.readTimeout)); err != nil {
		return 0, errcode.Wrap(errcode.IO, err)
	}
	reply := make([]byte, 65536)
	n, _, err := t.conn.ReadFromUDP(reply)
	if err != nil {
		if nerr, ok := err.(net.Error); ok && nerr.Timeout() {
			return 0, errcode.Wrap(errcode.Timeout, err)
		}
		return 0, errcode.Wrap(errcode.IO, err)
	}
	if n < layers.EtherboneFrameLen {
		return 0, errcode.Wrap(errcode.IO, ErrShortDatagram{Len: n})
	}
	return decodeReadReply(reply[:n])
}

func (t *EtherboneUDP) Close() error {
	return t.conn.Close()
}

// EtherboneTCP carries the same frames over a byte stream with
// TCP_NODELAY; the reader accumulates exactly one frame per access.
type EtherboneTCP struct {
	conn        *net.TCPConn
	readTimeout time.Duration
}

var _ Transport = (*EtherboneTCP)(nil)

func DialEtherboneTCP(address string, port int) (*EtherboneTCP, error) {
	if port == 0 {
		port = DefaultEtherbonePort
	}
	raddr, err := net.ResolveTCPAddr("tcp", fmt.Sprintf("%s:%d", address, port))
	if err != nil {
		return nil, errcode.Wrap(errcode.Invalid, err)
	}
	conn, err := net.DialTCP("tcp", nil, raddr)
	if err != nil {
		return nil, errcode.Wrap(errcode.IO, err)
	}
	if err := conn.SetNoDelay(true); err != nil {
		conn.Close()
		return nil, errcode.Wrap(errcode.IO, err)
	}
	log.Debug("Etherbone TCP: connected to %s", raddr)
	return &EtherboneTCP{conn: conn, readTimeout: DefaultReadTimeout}, nil
}

func (t *EtherboneTCP) Write32(addr uint32, val uint32) error {
	frame := make([]byte, layers.EtherboneFrameLen)
	(&layers.EtherboneLayer{Addr: addr, Data: val}).Serialize(frame)
	if _, err := t.conn.Write(frame); err != nil {
		return errcode.Wrap(errcode.IO, err)
	}
	return nil
}

func (t *EtherboneTCP) Read32(addr uint32) (uint32, error) {
	frame := make([]byte, layers.EtherboneFrameLen)
	(&layers.EtherboneLayer{Read: true, Addr: addr}).Serialize(frame)
	if _, err := t.conn.Write(frame); err != nil {
		return 0, errcode.Wrap(errcode.IO, err)
	}

	if err := t.conn.SetReadDeadline(time.Now().Add(t.readTimeout)); err != nil {
		return 0, errcode.Wrap(errcode.IO, err)
	}
	reply := make([]byte, layers.EtherboneFrameLen)
	if _, err := io.ReadFull(t.conn, reply); err != nil {
		if nerr, ok := err.(net.Error); ok && nerr.Timeout() {
			return 0, errcode.Wrap(errcode.Timeout, err)
		}
		return 0, errcode.Wrap(errcode.IO, err)
	}
	return decodeReadReply(reply)
}

func (t *EtherboneTCP) Close() error {
	return t.conn.Close()
}

// decodeReadReply extracts the data word from a read-reply frame. The
// hardware returns the value as a one-word write record.
func decodeReadReply(data []byte) (uint32, error) {
	packet := gopacket.NewPacket(data, layers.EtherboneLayerType, gopacket.Default)
	if packet.ErrorLayer() != nil {
		return 0, errcode.Wrap(errcode.IO, packet.ErrorLayer().Error())
	}
	layer := packet.Layer(layers.EtherboneLayerType)
	eb, ok := layer.(*layers.EtherboneLayer)
	if !ok {
		return 0, errcode.New(errcode.IO, "reply is not an Etherbone frame")
	}
	return eb.Data, nil
}
