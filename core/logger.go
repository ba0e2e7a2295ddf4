package core

import (
	"fmt"
	"log"
)

// Logger is the structured logging surface used by the Pool, the
// SizingController and the worker loop. Implementations can bridge to
// logrus, zap, or any other backend; the zero-value dependency is
// NoOpLogger.
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)
}

// Field is a single key-value pair attached to a log line.
type Field struct {
	Key   string
	Value any
}

// F builds a Field.
func F(key string, value any) Field {
	return Field{Key: key, Value: value}
}

// FPool, FWorker, FItem and FOutcome build the Fields the pool's own
// components attach most often, keeping the key names consistent across
// the worker loop, the sizing controller and the panic handler.
func FPool(id string) Field   { return F("pool", id) }
func FWorker(id string) Field { return F("worker", id) }
func FItem(name string) Field { return F("item", name) }
func FOutcome(s string) Field { return F("outcome", s) }

// scopedLogger wraps a Logger and prepends a fixed pool field ahead of
// the fields passed to each call, so the components owned by one Pool
// can log without repeating FPool(id) at every call site.
type scopedLogger struct {
	inner Logger
	pool  Field
}

// ScopedToPool returns a Logger that behaves like l but always attaches
// FPool(poolID) first. Pool binds one of these at construction and hands
// it to its WorkerSlots and SizingController, so every line they emit is
// already tagged with the owning pool's identity.
func ScopedToPool(l Logger, poolID string) Logger {
	return &scopedLogger{inner: l, pool: FPool(poolID)}
}

func (s *scopedLogger) Debug(msg string, fields ...Field) { s.inner.Debug(msg, s.prepend(fields)...) }
func (s *scopedLogger) Info(msg string, fields ...Field)  { s.inner.Info(msg, s.prepend(fields)...) }
func (s *scopedLogger) Warn(msg string, fields ...Field)  { s.inner.Warn(msg, s.prepend(fields)...) }
func (s *scopedLogger) Error(msg string, fields ...Field) { s.inner.Error(msg, s.prepend(fields)...) }

func (s *scopedLogger) prepend(fields []Field) []Field {
	out := make([]Field, 0, len(fields)+1)
	out = append(out, s.pool)
	out = append(out, fields...)
	return out
}

// DefaultLogger writes through the standard log package.
type DefaultLogger struct{}

// NewDefaultLogger creates a DefaultLogger.
func NewDefaultLogger() *DefaultLogger { return &DefaultLogger{} }

func (l *DefaultLogger) Debug(msg string, fields ...Field) { l.log("DEBUG", msg, fields...) }
func (l *DefaultLogger) Info(msg string, fields ...Field)  { l.log("INFO", msg, fields...) }
func (l *DefaultLogger) Warn(msg string, fields ...Field)  { l.log("WARN", msg, fields...) }
func (l *DefaultLogger) Error(msg string, fields ...Field) { l.log("ERROR", msg, fields...) }

func (l *DefaultLogger) log(level, msg string, fields ...Field) {
	line := fmt.Sprintf("[%s] %s", level, msg)
	if len(fields) > 0 {
		line += " {"
		for i, f := range fields {
			if i > 0 {
				line += ", "
			}
			line += fmt.Sprintf("%s: %v", f.Key, f.Value)
		}
		line += "}"
	}
	log.Println(line)
}

// NoOpLogger discards everything. It is the default so that constructing a
// Pool never requires wiring a logging backend.
type NoOpLogger struct{}

// NewNoOpLogger creates a NoOpLogger.
func NewNoOpLogger() *NoOpLogger { return &NoOpLogger{} }

func (l *NoOpLogger) Debug(msg string, fields ...Field) {}
func (l *NoOpLogger) Info(msg string, fields ...Field)  {}
func (l *NoOpLogger) Warn(msg string, fields ...Field)  {}
func (l *NoOpLogger) Error(msg string, fields ...Field) {}
