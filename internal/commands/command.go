// Package commands turns operator input (keyboard, foot switch, HTTP) into
// recording commands for the frame loop.
package commands

import (
	"fmt"
	"strings"
)

// Command is an operator request. The frame loop acts on commands only
// between frames.
type Command int

const (
	Start Command = iota + 1
	Stop
	Toggle
	Quit
)

func (c Command) String() string {
	switch c {
	case Start:
		return "start"
	case Stop:
		return "stop"
	case Toggle:
		return "toggle"
	case Quit:
		return "quit"
	default:
		return fmt.Sprintf("Command(%d)", int(c))
	}
}

// Parse maps an input token to a command. The single-key shortcuts match
// the tracker's keyboard bindings: "s" toggles recording, "q" or ESC quits.
func Parse(s string) (Command, bool) {
	token := strings.TrimSpace(s)
	if token == "\x1b" {
		return Quit, true
	}
	switch strings.ToLower(token) {
	case "s", "toggle", "rec":
		return Toggle, true
	case "start":
		return Start, true
	case "stop":
		return Stop, true
	case "q", "quit", "exit", "esc":
		return Quit, true
	}
	return 0, false
}
