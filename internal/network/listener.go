package network

import (
	"context"
	"errors"
	"net"
	"time"

	"github.com/banshee-data/motion.report/internal/monitoring"
	"github.com/banshee-data/motion.report/internal/skeleton"
)

// maxDatagram fits a 33-joint frame with room to spare.
const maxDatagram = 64 * 1024

// FrameHandler receives each decoded frame and its sender.
type FrameHandler func(frame *skeleton.SkeletonFrame, from *net.UDPAddr)

// SkeletonListener decodes SkeletonFrame datagrams from a socket.
type SkeletonListener struct {
	socket       UDPSocket
	pollInterval time.Duration

	Received uint64
	Invalid  uint64
}

// NewSkeletonListener wraps an open socket. The listener owns it and closes
// it when Listen returns.
func NewSkeletonListener(socket UDPSocket) *SkeletonListener {
	return &SkeletonListener{socket: socket, pollInterval: 100 * time.Millisecond}
}

// Listen reads until ctx is cancelled or the socket fails. Undecodable
// datagrams are counted and skipped.
func (l *SkeletonListener) Listen(ctx context.Context, handle FrameHandler) error {
	defer l.socket.Close()
	monitoring.Logf("Listening for skeleton frames on %s", l.socket.LocalAddr())

	buf := make([]byte, maxDatagram)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		// A short deadline lets the loop notice cancellation.
		if err := l.socket.SetReadDeadline(time.Now().Add(l.pollInterval)); err != nil {
			return err
		}

		n, from, err := l.socket.ReadFromUDP(buf)
		if err != nil {
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				continue
			}
			return err
		}

		frame, err := Decode(buf[:n])
		if err != nil {
			l.Invalid++
			monitoring.Logf("Ignoring datagram from %s: %v", from, err)
			continue
		}
		l.Received++
		handle(frame, from)
	}
}
