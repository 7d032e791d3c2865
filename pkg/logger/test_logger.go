package logger

import (
	"bytes"
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
)

// LogMessage represents a captured log message
type LogMessage struct {
	Level   string
	Message string
	Fields  map[string]interface{}
	Error   error
}

// TestLogger captures every message so tests can assert on them
type TestLogger struct {
	mu       sync.Mutex
	messages []LogMessage
	buffer   bytes.Buffer
	zerolog  zerolog.Logger
}

// NewTestLogger creates a new test logger
func NewTestLogger() *TestLogger {
	return &TestLogger{zerolog: zerolog.Nop()}
}

func (l *TestLogger) scope() *testScope {
	return &testScope{root: l}
}

func (l *TestLogger) Debug(msg string)                                          { l.scope().Debug(msg) }
func (l *TestLogger) Info(msg string)                                           { l.scope().Info(msg) }
func (l *TestLogger) Warn(msg string)                                           { l.scope().Warn(msg) }
func (l *TestLogger) Error(msg string)                                          { l.scope().Error(msg) }
func (l *TestLogger) Fatal(msg string)                                          { l.scope().Fatal(msg) }
func (l *TestLogger) DebugWithFields(msg string, fields map[string]interface{}) { l.scope().DebugWithFields(msg, fields) }
func (l *TestLogger) InfoWithFields(msg string, fields map[string]interface{})  { l.scope().InfoWithFields(msg, fields) }
func (l *TestLogger) WarnWithFields(msg string, fields map[string]interface{})  { l.scope().WarnWithFields(msg, fields) }
func (l *TestLogger) ErrorWithFields(msg string, fields map[string]interface{}) { l.scope().ErrorWithFields(msg, fields) }
func (l *TestLogger) FatalWithFields(msg string, fields map[string]interface{}) { l.scope().FatalWithFields(msg, fields) }
func (l *TestLogger) WithField(key string, value interface{}) Logger            { return l.scope().WithField(key, value) }
func (l *TestLogger) WithFields(fields map[string]interface{}) Logger           { return l.scope().WithFields(fields) }
func (l *TestLogger) WithError(err error) Logger                                { return l.scope().WithError(err) }
func (l *TestLogger) WithContext(ctx context.Context) Logger                    { return l }
func (l *TestLogger) GetZerolog() *zerolog.Logger                               { return &l.zerolog }

func (l *TestLogger) record(msg LogMessage) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.messages = append(l.messages, msg)

	fmt.Fprintf(&l.buffer, "[%s] %s", msg.Level, msg.Message)
	if len(msg.Fields) > 0 {
		fmt.Fprintf(&l.buffer, " fields=%v", msg.Fields)
	}
	if msg.Error != nil {
		fmt.Fprintf(&l.buffer, " error=%v", msg.Error)
	}
	fmt.Fprintln(&l.buffer)
}

// GetMessages returns a copy of all captured log messages
func (l *TestLogger) GetMessages() []LogMessage {
	l.mu.Lock()
	defer l.mu.Unlock()

	messages := make([]LogMessage, len(l.messages))
	copy(messages, l.messages)
	return messages
}

// GetMessagesByLevel returns all messages of a specific level
func (l *TestLogger) GetMessagesByLevel(level string) []LogMessage {
	var filtered []LogMessage
	for _, msg := range l.GetMessages() {
		if msg.Level == level {
			filtered = append(filtered, msg)
		}
	}
	return filtered
}

// FindMessage returns the first message with the given text
func (l *TestLogger) FindMessage(text string) (LogMessage, bool) {
	for _, msg := range l.GetMessages() {
		if msg.Message == text {
			return msg, true
		}
	}
	return LogMessage{}, false
}

// HasMessage checks if a message with the given text was logged
func (l *TestLogger) HasMessage(text string) bool {
	_, ok := l.FindMessage(text)
	return ok
}

// HasError checks if an error was logged
func (l *TestLogger) HasError() bool {
	return len(l.GetMessagesByLevel("ERROR")) > 0
}

// Clear clears all captured messages
func (l *TestLogger) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.messages = l.messages[:0]
	l.buffer.Reset()
}

// String returns all log messages as a string
func (l *TestLogger) String() string {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.buffer.String()
}

// testScope carries the fields and error accumulated through With* calls
type testScope struct {
	root   *TestLogger
	fields map[string]interface{}
	err    error
}

func (s *testScope) emit(level, msg string, extra map[string]interface{}) {
	var fields map[string]interface{}
	if len(s.fields) > 0 || len(extra) > 0 {
		fields = s.merged(extra)
	}
	s.root.record(LogMessage{Level: level, Message: msg, Fields: fields, Error: s.err})
}

func (s *testScope) merged(extra map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(s.fields)+len(extra))
	for k, v := range s.fields {
		out[k] = v
	}
	for k, v := range extra {
		out[k] = v
	}
	return out
}

func (s *testScope) Debug(msg string)                                          { s.emit("DEBUG", msg, nil) }
func (s *testScope) Info(msg string)                                           { s.emit("INFO", msg, nil) }
func (s *testScope) Warn(msg string)                                           { s.emit("WARN", msg, nil) }
func (s *testScope) Error(msg string)                                          { s.emit("ERROR", msg, nil) }
func (s *testScope) Fatal(msg string)                                          { s.emit("FATAL", msg, nil) }
func (s *testScope) DebugWithFields(msg string, fields map[string]interface{}) { s.emit("DEBUG", msg, fields) }
func (s *testScope) InfoWithFields(msg string, fields map[string]interface{})  { s.emit("INFO", msg, fields) }
func (s *testScope) WarnWithFields(msg string, fields map[string]interface{})  { s.emit("WARN", msg, fields) }
func (s *testScope) ErrorWithFields(msg string, fields map[string]interface{}) { s.emit("ERROR", msg, fields) }
func (s *testScope) FatalWithFields(msg string, fields map[string]interface{}) { s.emit("FATAL", msg, fields) }
func (s *testScope) WithContext(ctx context.Context) Logger                    { return s }
func (s *testScope) GetZerolog() *zerolog.Logger                               { return s.root.GetZerolog() }

func (s *testScope) WithField(key string, value interface{}) Logger {
	return s.WithFields(map[string]interface{}{key: value})
}

func (s *testScope) WithFields(fields map[string]interface{}) Logger {
	return &testScope{root: s.root, fields: s.merged(fields), err: s.err}
}

func (s *testScope) WithError(err error) Logger {
	return &testScope{root: s.root, fields: s.fields, err: err}
}
