package transport

import (
	"bytes"
	"context"
	"errors"
	"net"
	"testing"
	"time"
)

// startPeer binds a plain UDP socket standing in for the robot controller.
func startPeer(t *testing.T) *net.UDPConn {
	t.Helper()
	conn, err := net.ListenUDP("udp4", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func startUDP(t *testing.T, peer *net.UDPConn) *UDP {
	t.Helper()
	u := NewUDP(0, nil)
	port := peer.LocalAddr().(*net.UDPAddr).Port
	if err := u.Start(context.Background(), "127.0.0.1", port); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { u.Stop() })
	return u
}

func TestSendReachesPeer(t *testing.T) {
	peer := startPeer(t)
	u := startUDP(t, peer)

	frame := []byte{0x03, 0x00, 0x02, 0x03, 0x7c}
	if err := u.Send(frame); err != nil {
		t.Fatal(err)
	}

	peer.SetReadDeadline(time.Now().Add(5 * time.Second))
	buf := make([]byte, 1500)
	n, _, err := peer.ReadFromUDP(buf)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(buf[:n], frame) {
		t.Fatalf("peer got % x, want % x", buf[:n], frame)
	}
}

func TestRecvDeliversPeerDatagrams(t *testing.T) {
	peer := startPeer(t)
	u := startUDP(t, peer)

	local := u.LocalAddr().(*net.UDPAddr)
	to := &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: local.Port}
	frames := [][]byte{
		{0x04, 0x00, 0x01, 0x07, 0xd0, 0x04},
		{0x05, 0x00, 0x01, 0x00, 0x01, 0x05},
	}
	for _, f := range frames {
		if _, err := peer.WriteToUDP(f, to); err != nil {
			t.Fatal(err)
		}
	}

	for i, want := range frames {
		select {
		case got := <-u.Recv():
			if !bytes.Equal(got, want) {
				t.Fatalf("datagram %d = % x, want % x", i, got, want)
			}
		case <-time.After(5 * time.Second):
			t.Fatalf("timeout waiting for datagram %d", i)
		}
	}
}

func TestRecvDropsOtherSenders(t *testing.T) {
	peer := startPeer(t)
	stranger := startPeer(t)
	u := startUDP(t, peer)

	local := u.LocalAddr().(*net.UDPAddr)
	to := &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: local.Port}
	if _, err := stranger.WriteToUDP([]byte{0x03, 0x00, 0x01, 0x00, 0x09, 0x03}, to); err != nil {
		t.Fatal(err)
	}
	want := []byte{0x04, 0x00, 0x01, 0x07, 0xd0, 0x04}
	if _, err := peer.WriteToUDP(want, to); err != nil {
		t.Fatal(err)
	}

	select {
	case got := <-u.Recv():
		if !bytes.Equal(got, want) {
			t.Fatalf("received % x, want the peer's % x", got, want)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timeout waiting for peer datagram")
	}
	select {
	case got := <-u.Recv():
		t.Fatalf("unexpected datagram % x", got)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestFromPeer(t *testing.T) {
	remote := &net.UDPAddr{IP: net.IPv4(192, 168, 43, 1), Port: 20884}
	tests := []struct {
		name string
		from net.Addr
		want bool
	}{
		{"same", &net.UDPAddr{IP: net.IPv4(192, 168, 43, 1), Port: 20884}, true},
		{"mapped", &net.UDPAddr{IP: net.ParseIP("::ffff:192.168.43.1"), Port: 20884}, true},
		{"other port", &net.UDPAddr{IP: net.IPv4(192, 168, 43, 1), Port: 20885}, false},
		{"other host", &net.UDPAddr{IP: net.IPv4(192, 168, 43, 2), Port: 20884}, false},
		{"not udp", &net.TCPAddr{IP: net.IPv4(192, 168, 43, 1), Port: 20884}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := fromPeer(tt.from, remote); got != tt.want {
				t.Fatalf("fromPeer(%v) = %v, want %v", tt.from, got, tt.want)
			}
		})
	}
}

func TestStopClosesRecv(t *testing.T) {
	peer := startPeer(t)
	u := startUDP(t, peer)
	recv := u.Recv()

	if err := u.Stop(); err != nil {
		t.Fatal(err)
	}
	select {
	case _, ok := <-recv:
		if ok {
			t.Fatal("expected closed channel")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("recv channel not closed after Stop")
	}
	if err := u.Stop(); err != nil {
		t.Fatalf("second Stop: %v", err)
	}
	if err := u.Send([]byte{1}); !errors.Is(err, ErrNotStarted) {
		t.Fatalf("Send after Stop = %v, want ErrNotStarted", err)
	}
}

func TestStartResolveError(t *testing.T) {
	u := NewUDP(0, nil)
	err := u.Start(context.Background(), "no such host.invalid", 20884)
	if !errors.Is(err, ErrResolve) {
		t.Fatalf("expected ErrResolve, got %v", err)
	}
}

func TestStartBindError(t *testing.T) {
	taken, err := net.ListenUDP("udp", &net.UDPAddr{})
	if err != nil {
		t.Fatal(err)
	}
	defer taken.Close()

	u := NewUDP(taken.LocalAddr().(*net.UDPAddr).Port, nil)
	err = u.Start(context.Background(), "127.0.0.1", 20884)
	if !errors.Is(err, ErrBind) {
		u.Stop()
		t.Fatalf("expected ErrBind, got %v", err)
	}
}
