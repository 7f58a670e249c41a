package commands

import (
	"context"
	"fmt"
	"io"

	"go.bug.st/serial"
)

// PortOpener opens a serial device. It is replaced in tests.
type PortOpener func(path string, mode *serial.Mode) (io.ReadCloser, error)

// OpenSerialPort opens a real serial device.
func OpenSerialPort(path string, mode *serial.Mode) (io.ReadCloser, error) {
	return serial.Open(path, mode)
}

// Footswitch reads commands from a USB/serial foot pedal that emits one
// token per press ("s" to toggle recording, "q" to quit) at 8N1.
type Footswitch struct {
	Path string
	Baud int
	Open PortOpener
}

// NewFootswitch returns a foot switch on path at baud.
func NewFootswitch(path string, baud int) *Footswitch {
	return &Footswitch{Path: path, Baud: baud, Open: OpenSerialPort}
}

// Mode returns the serial framing for the pedal.
func (f *Footswitch) Mode() *serial.Mode {
	return &serial.Mode{
		BaudRate: f.Baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
}

// Run opens the port and forwards commands until ctx is cancelled or the
// device goes away.
func (f *Footswitch) Run(ctx context.Context, out chan<- Command) error {
	port, err := f.Open(f.Path, f.Mode())
	if err != nil {
		return fmt.Errorf("failed to open foot switch %s: %w", f.Path, err)
	}

	// Closing the port unblocks the scanner goroutine on shutdown.
	stop := context.AfterFunc(ctx, func() { port.Close() })
	defer func() {
		if stop() {
			port.Close()
		}
	}()

	return Scan(ctx, "footswitch", port, out)
}
