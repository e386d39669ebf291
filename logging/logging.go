// Package logging provides the bracketed-subsystem log.Printf style
// used throughout cluster (e.g. "[cluster] gossip listening on ...") so the
// rest of siridbd doesn't have to repeat the prefix by hand.
package logging

import "log"

// Logger prints lines tagged with a fixed "[Name] " prefix.
type Logger struct {
	prefix string
}

// New returns a Logger for the given subsystem name, e.g. New("Insert")
// produces lines like "[Insert] classified 3 point(s)".
func New(name string) *Logger {
	return &Logger{prefix: "[" + name + "] "}
}

func (l *Logger) Printf(format string, args ...interface{}) {
	log.Printf(l.prefix+format, args...)
}

func (l *Logger) Println(args ...interface{}) {
	log.Println(append([]interface{}{l.prefix}, args...)...)
}

func (l *Logger) Fatalf(format string, args ...interface{}) {
	log.Fatalf(l.prefix+format, args...)
}
