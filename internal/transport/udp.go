// Package transport carries FTC datagrams over UDP.
//
// The socket is owned by a quic.Transport. FTC packet types never set the
// QUIC fixed bit (0x40) in their first byte, so every FTC datagram is
// handed back through ReadNonQUICPacket and sent raw with WriteTo.
package transport

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"sync"

	"github.com/quic-go/quic-go"
	"go.uber.org/zap"
)

var (
	ErrBind       = errors.New("transport: bind failed")
	ErrResolve    = errors.New("transport: resolve failed")
	ErrNotStarted = errors.New("transport: not started")
)

const (
	// maxDatagramSize covers the largest envelope: 5 header bytes plus a
	// 65535-byte payload.
	maxDatagramSize = 5 + 65535
	recvQueueSize   = 64
)

// UDP is a connected-style datagram transport to one robot controller.
// Datagrams from any other address are dropped.
type UDP struct {
	localPort int
	log       *zap.Logger

	mu     sync.Mutex
	conn   *net.UDPConn
	tr     *quic.Transport
	remote *net.UDPAddr
	recv   chan []byte
	cancel context.CancelFunc
	done   chan struct{}
}

// NewUDP returns a transport that binds localPort on Start. Port 0 picks
// an ephemeral port.
func NewUDP(localPort int, log *zap.Logger) *UDP {
	if log == nil {
		log = zap.NewNop()
	}
	return &UDP{localPort: localPort, log: log.Named("transport")}
}

// Start resolves the peer, binds the local socket and begins reading.
// Calling Start on a started transport is a no-op.
func (u *UDP) Start(ctx context.Context, host string, port int) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.tr != nil {
		return nil
	}

	remote, err := net.ResolveUDPAddr("udp", net.JoinHostPort(host, strconv.Itoa(port)))
	if err != nil {
		return fmt.Errorf("%w: %s:%d: %v", ErrResolve, host, port, err)
	}
	conn, err := net.ListenUDP("udp", &net.UDPAddr{Port: u.localPort})
	if err != nil {
		return fmt.Errorf("%w: port %d: %v", ErrBind, u.localPort, err)
	}

	readCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	u.conn = conn
	u.tr = &quic.Transport{Conn: conn}
	u.remote = remote
	u.recv = make(chan []byte, recvQueueSize)
	u.cancel = cancel
	u.done = make(chan struct{})

	go u.readLoop(readCtx, u.tr, remote, u.recv, u.done)

	u.log.Info("transport started",
		zap.Stringer("local", conn.LocalAddr()),
		zap.Stringer("remote", remote))
	return nil
}

func (u *UDP) readLoop(ctx context.Context, tr *quic.Transport, remote *net.UDPAddr, recv chan<- []byte, done chan<- struct{}) {
	defer close(done)
	defer close(recv)

	buf := make([]byte, maxDatagramSize)
	for {
		n, from, err := tr.ReadNonQUICPacket(ctx, buf)
		if err != nil {
			if ctx.Err() == nil {
				u.log.Debug("read stopped", zap.Error(err))
			}
			return
		}
		if !fromPeer(from, remote) {
			u.log.Debug("dropping datagram from unknown sender",
				zap.Stringer("from", from), zap.Int("bytes", n))
			continue
		}
		b := make([]byte, n)
		copy(b, buf[:n])
		select {
		case recv <- b:
		default:
			u.log.Debug("receive queue full, dropping datagram",
				zap.Stringer("from", from), zap.Int("bytes", n))
		}
	}
}

// fromPeer reports whether from is the resolved robot address. IPv4 and
// IPv4-mapped IPv6 forms of the same address match.
func fromPeer(from net.Addr, remote *net.UDPAddr) bool {
	addr, ok := from.(*net.UDPAddr)
	if !ok {
		return false
	}
	return addr.Port == remote.Port && addr.IP.Equal(remote.IP)
}

// Send writes one datagram to the peer.
func (u *UDP) Send(b []byte) error {
	u.mu.Lock()
	tr, remote := u.tr, u.remote
	u.mu.Unlock()
	if tr == nil {
		return ErrNotStarted
	}
	if _, err := tr.WriteTo(b, remote); err != nil {
		return fmt.Errorf("send to %s: %w", remote, err)
	}
	return nil
}

// Recv returns the inbound datagram channel. It is closed when the
// transport stops and is nil before Start.
func (u *UDP) Recv() <-chan []byte {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.recv
}

// LocalAddr returns the bound address, or nil before Start.
func (u *UDP) LocalAddr() net.Addr {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.conn == nil {
		return nil
	}
	return u.conn.LocalAddr()
}

// Stop closes the socket and waits for the read loop to exit. It is safe
// to call more than once.
func (u *UDP) Stop() error {
	u.mu.Lock()
	tr, conn, cancel, done := u.tr, u.conn, u.cancel, u.done
	u.tr, u.conn, u.cancel, u.done = nil, nil, nil, nil
	u.mu.Unlock()
	if tr == nil {
		return nil
	}

	cancel()
	trErr := tr.Close()
	connErr := conn.Close()
	if errors.Is(connErr, net.ErrClosed) {
		connErr = nil
	}
	<-done

	u.log.Info("transport stopped")
	return errors.Join(trErr, connErr)
}
