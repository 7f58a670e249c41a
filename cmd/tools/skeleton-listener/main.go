// Command skeleton-listener prints SkeletonFrames received from the tracker
// over UDP.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/banshee-data/motion.report/internal/monitoring"
	"github.com/banshee-data/motion.report/internal/network"
	"github.com/banshee-data/motion.report/internal/skeleton"
)

func main() {
	addr := flag.String("listen", fmt.Sprintf(":%d", network.DefaultPort), "UDP address to listen on")
	verbose := flag.Bool("v", false, "print every frame instead of a per-second summary")
	joint := flag.Int("joint", skeleton.LeftWrist, "joint to show in the summary")
	flag.Parse()

	monitoring.SetLogger(log.Printf)
	socket, err := network.ListenUDP(*addr)
	if err != nil {
		log.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var (
		frames atomic.Int64
		last   atomic.Pointer[skeleton.SkeletonFrame]
	)

	go func() {
		ticker := time.NewTicker(1 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				n := frames.Swap(0)
				if n == 0 || *verbose {
					continue
				}
				fmt.Println(summaryLine(n, last.Load(), *joint))
			}
		}
	}()

	l := network.NewSkeletonListener(socket)
	err = l.Listen(ctx, func(f *skeleton.SkeletonFrame, from *net.UDPAddr) {
		frames.Add(1)
		last.Store(f)
		if *verbose {
			fmt.Println(frameLine(from, f, *joint))
		}
	})
	if err != nil && ctx.Err() == nil {
		log.Fatal(err)
	}
	log.Printf("Received %d frames, %d invalid datagrams", l.Received, l.Invalid)
}

// summaryLine reports the frame rate over the last second and the most
// recent frame.
func summaryLine(perSecond int64, f *skeleton.SkeletonFrame, joint int) string {
	if f == nil {
		return fmt.Sprintf("Received: %d frames/sec", perSecond)
	}
	return fmt.Sprintf("Received: %d frames/sec, last frame %d with %d joints%s",
		perSecond, f.FrameIndex, len(f.Joints), describeJoint(f, joint))
}

func frameLine(from net.Addr, f *skeleton.SkeletonFrame, joint int) string {
	return fmt.Sprintf("%s frame=%d joints=%d%s", from, f.FrameIndex, len(f.Joints), describeJoint(f, joint))
}

func describeJoint(f *skeleton.SkeletonFrame, id int) string {
	for _, j := range f.Joints {
		if j.ID == id {
			return fmt.Sprintf(", joint %d at (%.3f, %.3f, %.3f) m vis %.2f",
				id, j.Position.X, j.Position.Y, j.Position.Z, j.Visibility)
		}
	}
	return ""
}
