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

package sim_test

import (
	"context"
	"testing"

	"github.com/litex-hub/go-m2sdr/pkg/sim"
	"github.com/litex-hub/go-m2sdr/pkg/transport"
)

func startServer(t *testing.T) (*sim.Board, *sim.Server) {
	t.Helper()
	board := sim.NewBoard()
	srv, err := sim.NewServer(board, "127.0.0.1", 0)
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		srv.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		srv.Close()
		<-done
	})
	return board, srv
}

func TestEtherboneUDPReadWrite(t *testing.T) {
	board, srv := startServer(t)
	board.Poke(0x1000, 0x12345678)

	conn, err := transport.DialEtherboneUDP("127.0.0.1", srv.UDPAddr().Port)
	if err != nil {
		t.Fatalf("DialEtherboneUDP: %v", err)
	}
	defer conn.Close()

	got, err := conn.Read32(0x1000)
	if err != nil {
		t.Fatalf("Read32: %v", err)
	}
	if got != 0x12345678 {
		t.Fatalf("Read32 = %#x, want 0x12345678", got)
	}

	if err := conn.Write32(0x0004, 0xcafebabe); err != nil {
		t.Fatalf("Write32: %v", err)
	}
	back, err := conn.Read32(0x0004)
	if err != nil {
		t.Fatalf("Read32: %v", err)
	}
	if back != 0xcafebabe {
		t.Fatalf("Read32 after write = %#x, want 0xcafebabe", back)
	}
}

func TestEtherboneTCPReadWrite(t *testing.T) {
	board, srv := startServer(t)
	board.Poke(0x1000, 0x12345678)

	conn, err := transport.DialEtherboneTCP("127.0.0.1", srv.TCPAddr().Port)
	if err != nil {
		t.Fatalf("DialEtherboneTCP: %v", err)
	}
	defer conn.Close()

	got, err := conn.Read32(0x1000)
	if err != nil {
		t.Fatalf("Read32: %v", err)
	}
	if got != 0x12345678 {
		t.Fatalf("Read32 = %#x, want 0x12345678", got)
	}

	if err := conn.Write32(0x0004, 0x55aa55aa); err != nil {
		t.Fatalf("Write32: %v", err)
	}
	back, err := conn.Read32(0x0004)
	if err != nil {
		t.Fatalf("Read32: %v", err)
	}
	if back != 0x55aa55aa {
		t.Fatalf("Read32 after write = %#x, want 0x55aa55aa", back)
	}
}
