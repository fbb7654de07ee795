package logger

import (
	"sync"

	"github.com/rs/zerolog"
)

// TestLogger captures log messages for assertions in tests. Loggers derived
// via WithField/WithFields/WithError record into the same capture buffer.
type TestLogger struct {
	root    *testLogSink
	fields  map[string]interface{}
	zerolog *zerolog.Logger
}

type testLogSink struct {
	mu       sync.Mutex
	messages []LogMessage
}

// LogMessage is a captured log entry.
type LogMessage struct {
	Level   string
	Message string
	Fields  map[string]interface{}
}

// NewTestLogger creates a logger that records everything it is given.
func NewTestLogger() *TestLogger {
	nop := zerolog.Nop()
	return &TestLogger{
		root:    &testLogSink{},
		fields:  make(map[string]interface{}),
		zerolog: &nop,
	}
}

func (l *TestLogger) record(level, msg string, fields map[string]interface{}) {
	merged := make(map[string]interface{}, len(l.fields)+len(fields))
	for k, v := range l.fields {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}

	l.root.mu.Lock()
	defer l.root.mu.Unlock()
	l.root.messages = append(l.root.messages, LogMessage{Level: level, Message: msg, Fields: merged})
}

func (l *TestLogger) Debug(msg string) { l.record("DEBUG", msg, nil) }
func (l *TestLogger) Info(msg string)  { l.record("INFO", msg, nil) }
func (l *TestLogger) Warn(msg string)  { l.record("WARN", msg, nil) }
func (l *TestLogger) Error(msg string) { l.record("ERROR", msg, nil) }

func (l *TestLogger) DebugWithFields(msg string, fields map[string]interface{}) {
	l.record("DEBUG", msg, fields)
}

func (l *TestLogger) InfoWithFields(msg string, fields map[string]interface{}) {
	l.record("INFO", msg, fields)
}

func (l *TestLogger) WarnWithFields(msg string, fields map[string]interface{}) {
	l.record("WARN", msg, fields)
}

func (l *TestLogger) ErrorWithFields(msg string, fields map[string]interface{}) {
	l.record("ERROR", msg, fields)
}

func (l *TestLogger) WithField(key string, value interface{}) Logger {
	return l.WithFields(map[string]interface{}{key: value})
}

func (l *TestLogger) WithFields(fields map[string]interface{}) Logger {
	child := &TestLogger{
		root:    l.root,
		fields:  make(map[string]interface{}, len(l.fields)+len(fields)),
		zerolog: l.zerolog,
	}
	for k, v := range l.fields {
		child.fields[k] = v
	}
	for k, v := range fields {
		child.fields[k] = v
	}
	return child
}

func (l *TestLogger) WithError(err error) Logger {
	if err == nil {
		return l
	}
	return l.WithField("error", err.Error())
}

func (l *TestLogger) GetZerolog() *zerolog.Logger {
	return l.zerolog
}

// Messages returns a copy of all captured messages.
func (l *TestLogger) Messages() []LogMessage {
	l.root.mu.Lock()
	defer l.root.mu.Unlock()

	out := make([]LogMessage, len(l.root.messages))
	copy(out, l.root.messages)
	return out
}

// MessagesByLevel returns captured messages of the given level.
func (l *TestLogger) MessagesByLevel(level string) []LogMessage {
	l.root.mu.Lock()
	defer l.root.mu.Unlock()

	var out []LogMessage
	for _, m := range l.root.messages {
		if m.Level == level {
			out = append(out, m)
		}
	}
	return out
}

// HasMessage reports whether a message with the given level and text was logged.
func (l *TestLogger) HasMessage(level, msg string) bool {
	l.root.mu.Lock()
	defer l.root.mu.Unlock()

	for _, m := range l.root.messages {
		if m.Level == level && m.Message == msg {
			return true
		}
	}
	return false
}
