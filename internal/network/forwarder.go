// Package network streams SkeletonFrames to downstream consumers (game
// engines, visualisers) as JSON datagrams, and receives them for debugging.
package network

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/banshee-data/motion.report/internal/monitoring"
	"github.com/banshee-data/motion.report/internal/skeleton"
)

// DefaultPort is the port Unity-side receivers listen on.
const DefaultPort = 5065

// ForwarderStats counts what happened to published frames.
type ForwarderStats struct {
	Sent    uint64 `json:"sent"`
	Dropped uint64 `json:"dropped"` // send queue full
	Failed  uint64 `json:"failed"`  // encode or socket error
}

// SkeletonForwarder sends frames to a fixed UDP destination from a
// background goroutine. Delivery is fire-and-forget: frames are dropped,
// never retried, when the queue is full or the socket write fails.
type SkeletonForwarder struct {
	conn        io.WriteCloser
	channel     chan []byte
	logInterval time.Duration
	address     string

	sent    atomic.Uint64
	dropped atomic.Uint64
	failed  atomic.Uint64

	done      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// NewSkeletonForwarder resolves host:port and prepares a connected UDP
// socket. Resolution failures are returned; the caller treats them as fatal.
func NewSkeletonForwarder(host string, port, buffer int, logInterval time.Duration) (*SkeletonForwarder, error) {
	address := net.JoinHostPort(host, fmt.Sprint(port))
	udpAddr, err := net.ResolveUDPAddr("udp", address)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve forward address: %w", err)
	}
	conn, err := net.DialUDP("udp", nil, udpAddr)
	if err != nil {
		return nil, fmt.Errorf("failed to create forward connection: %w", err)
	}
	return newSkeletonForwarder(conn, address, buffer, logInterval), nil
}

func newSkeletonForwarder(conn io.WriteCloser, address string, buffer int, logInterval time.Duration) *SkeletonForwarder {
	if buffer <= 0 {
		buffer = 64
	}
	if logInterval <= 0 {
		logInterval = 10 * time.Second
	}
	return &SkeletonForwarder{
		conn:        conn,
		channel:     make(chan []byte, buffer),
		logInterval: logInterval,
		address:     address,
		done:        make(chan struct{}),
	}
}

// Address returns the destination host:port.
func (f *SkeletonForwarder) Address() string { return f.address }

// Start runs the sender until ctx is cancelled or Close is called. Write
// failures are summarised once per log interval.
func (f *SkeletonForwarder) Start(ctx context.Context) {
	f.wg.Add(1)
	go func() {
		defer f.wg.Done()
		var (
			intervalFailed uint64
			lastError      error
		)
		ticker := time.NewTicker(f.logInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-f.done:
				return
			case datagram := <-f.channel:
				if _, err := f.conn.Write(datagram); err != nil {
					f.failed.Add(1)
					intervalFailed++
					lastError = err
					continue
				}
				f.sent.Add(1)
			case <-ticker.C:
				if intervalFailed > 0 {
					monitoring.Warnf("Failed to send %d skeleton frames (latest: %v)", intervalFailed, lastError)
					intervalFailed, lastError = 0, nil
				}
			}
		}
	}()

	log.Printf("Streaming skeleton frames to udp://%s", f.address)
}

// Publish encodes frame and queues it without blocking. It is called once
// per processed frame by the frame loop.
func (f *SkeletonForwarder) Publish(frame *skeleton.SkeletonFrame) {
	datagram, err := Encode(frame)
	if err != nil {
		f.failed.Add(1)
		return
	}
	select {
	case <-f.done:
		f.dropped.Add(1)
	case f.channel <- datagram:
	default:
		f.dropped.Add(1)
	}
}

// Stats returns a snapshot of the delivery counters.
func (f *SkeletonForwarder) Stats() ForwarderStats {
	return ForwarderStats{
		Sent:    f.sent.Load(),
		Dropped: f.dropped.Load(),
		Failed:  f.failed.Load(),
	}
}

// Close stops the sender and closes the socket. Frames still queued are
// discarded.
func (f *SkeletonForwarder) Close() error {
	var err error
	f.closeOnce.Do(func() {
		close(f.done)
		f.wg.Wait()
		err = f.conn.Close()
	})
	return err
}

// Encode returns the wire form of frame. A frame with no joints encodes its
// joint list as [] rather than null.
func Encode(frame *skeleton.SkeletonFrame) ([]byte, error) {
	if frame.Joints == nil {
		cp := *frame
		cp.Joints = []skeleton.Joint{}
		frame = &cp
	}
	return json.Marshal(frame)
}

// Decode parses a datagram produced by Encode.
func Decode(data []byte) (*skeleton.SkeletonFrame, error) {
	var frame skeleton.SkeletonFrame
	if err := json.Unmarshal(data, &frame); err != nil {
		return nil, fmt.Errorf("invalid skeleton datagram: %w", err)
	}
	return &frame, nil
}
