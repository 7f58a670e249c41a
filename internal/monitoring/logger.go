// Package monitoring holds the diagnostic logger used by library packages.
// Binaries keep logging through the standard log package; packages under
// internal/ call Logf so that tests can mute or capture their output.
package monitoring

import "log"

// Logf is the package-level diagnostic logger. It defaults to log.Printf.
var Logf func(format string, v ...interface{}) = log.Printf

// SetLogger replaces the package logger. Passing nil installs a no-op logger.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}

// Warnf logs through Logf with the yellow highlight used for degraded but
// non-fatal conditions (dropped datagrams, missing calibration).
func Warnf(format string, v ...interface{}) {
	Logf("\033[93m"+format+"\033[0m", v...)
}
