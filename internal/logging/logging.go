// Package logging defines the Sink interface every component logs through.
//
// The miner treats the logging subsystem as an external collaborator: the
// rest of the codebase only ever sees the Sink interface, never a concrete
// logger, so the sink implementation can be swapped without touching any
// component.
package logging

import "github.com/sirupsen/logrus"

// Sink is the leveled, structured logging surface components depend on.
// Fields are passed as alternating key/value pairs:
// log.Info("msg", "k", v, "k2", v2).
type Sink interface {
	Debug(msg string, kv ...interface{})
	Info(msg string, kv ...interface{})
	Warn(msg string, kv ...interface{})
	Error(msg string, kv ...interface{})
	// With returns a Sink that always includes the given fields.
	With(kv ...interface{}) Sink
}

// logrusSink adapts a *logrus.Entry to Sink.
type logrusSink struct {
	entry *logrus.Entry
}

// NewLogrus builds a Sink backed by logrus, formatting as text with the
// configured level. Safe for concurrent use.
func NewLogrus(level logrus.Level) Sink {
	l := logrus.New()
	l.SetLevel(level)
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	return &logrusSink{entry: logrus.NewEntry(l)}
}

func fieldsOf(kv []interface{}) logrus.Fields {
	f := make(logrus.Fields, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			continue
		}
		f[key] = kv[i+1]
	}
	return f
}

func (s *logrusSink) Debug(msg string, kv ...interface{}) {
	s.entry.WithFields(fieldsOf(kv)).Debug(msg)
}

func (s *logrusSink) Info(msg string, kv ...interface{}) {
	s.entry.WithFields(fieldsOf(kv)).Info(msg)
}

func (s *logrusSink) Warn(msg string, kv ...interface{}) {
	s.entry.WithFields(fieldsOf(kv)).Warn(msg)
}

func (s *logrusSink) Error(msg string, kv ...interface{}) {
	s.entry.WithFields(fieldsOf(kv)).Error(msg)
}

func (s *logrusSink) With(kv ...interface{}) Sink {
	return &logrusSink{entry: s.entry.WithFields(fieldsOf(kv))}
}

// Nop discards everything; used in tests.
type nop struct{}

func NewNop() Sink                                { return nop{} }
func (nop) Debug(string, ...interface{})          {}
func (nop) Info(string, ...interface{})           {}
func (nop) Warn(string, ...interface{})           {}
func (nop) Error(string, ...interface{})          {}
func (n nop) With(...interface{}) Sink            { return n }
