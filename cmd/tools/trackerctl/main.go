// Command trackerctl controls a running tracker over its HTTP API:
//
//	trackerctl [-addr URL] status|sessions|start|stop|toggle|quit
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/banshee-data/motion.report/internal/api"
	"github.com/banshee-data/motion.report/internal/commands"
)

func main() {
	addr := flag.String("addr", "http://localhost:8080", "tracker base URL")
	timeout := flag.Duration("timeout", 5*time.Second, "request timeout")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	if err := run(ctx, api.NewClient(*addr, nil), flag.Args(), os.Stdout); err != nil {
		log.Fatal(err)
	}
}

func run(ctx context.Context, c *api.Client, args []string, out io.Writer) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: trackerctl [flags] status|sessions|start|stop|toggle|quit")
	}

	switch args[0] {
	case "status":
		st, err := c.Status(ctx)
		if err != nil {
			return err
		}
		return printJSON(out, st)
	case "sessions":
		sessions, err := c.Sessions(ctx)
		if err != nil {
			return err
		}
		for _, s := range sessions {
			state := "done"
			if s.Active() {
				state = "recording"
			}
			fmt.Fprintf(out, "%s  %s  %-9s %5d rows  %s\n",
				s.ID, s.StartedAt.Local().Format("2006-01-02 15:04:05"), state, s.RowsWritten, s.CSVPath)
		}
		return nil
	}

	cmd, ok := commands.Parse(args[0])
	if !ok {
		return fmt.Errorf("unknown command %q", args[0])
	}
	if err := c.Send(ctx, cmd); err != nil {
		return err
	}
	fmt.Fprintf(out, "sent %s\n", cmd)
	return nil
}

func printJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
