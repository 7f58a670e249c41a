package commands

import (
	"bufio"
	"context"
	"io"

	"github.com/banshee-data/motion.report/internal/monitoring"
)

// Scan reads newline-terminated tokens from r and delivers the parsed
// commands on out until r is exhausted or ctx is cancelled. Unknown tokens
// are logged and ignored. name identifies the input in logs.
func Scan(ctx context.Context, name string, r io.Reader, out chan<- Command) error {
	scan := bufio.NewScanner(r)

	lineChan := make(chan string)
	scanErrChan := make(chan error, 1)

	// The blocking Scan runs on its own goroutine so cancellation is not
	// held up by a quiet input.
	go func() {
		defer close(lineChan)
		for scan.Scan() {
			select {
			case lineChan <- scan.Text():
			case <-ctx.Done():
				return
			}
		}
		if err := scan.Err(); err != nil {
			scanErrChan <- err
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case err := <-scanErrChan:
			return err

		case line, ok := <-lineChan:
			if !ok {
				select {
				case err := <-scanErrChan:
					return err
				default:
					return nil
				}
			}
			if line == "" {
				continue
			}
			cmd, ok := Parse(line)
			if !ok {
				monitoring.Logf("%s: ignoring unknown command %q", name, line)
				continue
			}
			select {
			case out <- cmd:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
}
