package logger

import (
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// Kind discriminates log events.
type Kind string

const (
	// KindStart marks the beginning of an expression evaluation.
	KindStart Kind = "start"
	// KindSpawn marks a process launch.
	KindSpawn Kind = "spawn"
	// KindExit marks a process exit.
	KindExit Kind = "exit"
	// KindDone marks the final resolution of an expression evaluation.
	KindDone Kind = "done"
)

// Event is a single process lifecycle record.
type Event struct {
	TimestampMicros int64  `json:"timestamp_micros"`
	Session         string `json:"session_id,omitempty"`
	Kind            Kind   `json:"kind"`

	// Description holds the expression being evaluated on start events.
	Description string `json:"description,omitempty"`
	// Argv is the command line of the process on spawn and exit events.
	Argv []string `json:"argv,omitempty"`
	// Dir is the working directory of the process on spawn events.
	Dir string `json:"dir,omitempty"`
	// Pid is the OS process ID on spawn events.
	Pid int `json:"pid,omitempty"`
	// ExitCode is the status a process or evaluation resolved to.
	ExitCode int `json:"exit_code"`
	// Error carries the failure message on done events, if any.
	Error string `json:"error,omitempty"`
}

// Recorder is a callback that stores events in an external datastore.
type Recorder func(ev Event) error

// Logger captures process lifecycle events for expression evaluations.
// The zero value drops every event.
type Logger struct {
	Record Recorder

	mu sync.Mutex
}

// NewJSONLinesLogger creates a Logger that exports events in newline
// delimited JSON object format.
func NewJSONLinesLogger(w io.Writer) *Logger {
	return &Logger{
		Record: func(ev Event) error {
			entry, err := json.Marshal(ev)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(w, string(entry))
			return err
		},
	}
}

// record stamps and stores a single event. Calls are serialized because
// the two halves of a pipe resolve on separate goroutines.
func (l *Logger) record(sessionID string, kind Kind, ev Event) error {
	if l.Record == nil {
		return nil
	}

	ev.TimestampMicros = time.Now().UnixMicro()
	ev.Session = sessionID
	ev.Kind = kind

	l.mu.Lock()
	defer l.mu.Unlock()
	return l.Record(ev)
}

// NewSession creates a logger with a fresh ULID session ID attached.
func (l *Logger) NewSession() *SessionLogger {
	return &SessionLogger{Logger: l, sessionID: generateSessionID(time.Now())}
}

func generateSessionID(t time.Time) string {
	entropy := ulid.Monotonic(rand.New(rand.NewSource(t.UnixNano())), 0)
	return ulid.MustNew(ulid.Timestamp(t), entropy).String()
}

// Sessionless creates a logger that records events without a session ID.
func (l *Logger) Sessionless() *SessionLogger {
	return &SessionLogger{Logger: l, sessionID: ""}
}

// SessionLogger logs events with a shared session ID.
type SessionLogger struct {
	*Logger
	sessionID string
}

// SessionID returns the ID stamped on this logger's events.
func (l *SessionLogger) SessionID() string {
	return l.sessionID
}

// SessionStarted records the beginning of an evaluation.
func (l *SessionLogger) SessionStarted(description string) error {
	return l.record(l.sessionID, KindStart, Event{Description: description})
}

// CommandStarted records a successfully spawned process.
func (l *SessionLogger) CommandStarted(argv []string, dir string, pid int) error {
	return l.record(l.sessionID, KindSpawn, Event{Argv: argv, Dir: dir, Pid: pid})
}

// CommandExited records a process exit.
func (l *SessionLogger) CommandExited(argv []string, exitCode int) error {
	return l.record(l.sessionID, KindExit, Event{Argv: argv, ExitCode: exitCode})
}

// SessionFinished records the final resolution of an evaluation.
func (l *SessionLogger) SessionFinished(status int, err error) error {
	ev := Event{ExitCode: status}
	if err != nil {
		ev.Error = err.Error()
	}
	return l.record(l.sessionID, KindDone, ev)
}

// TestLogger collects events in memory for assertions in tests.
type TestLogger struct {
	Logger

	eventsMu sync.Mutex
	events   []Event
}

// NewTestLogger creates a TestLogger.
func NewTestLogger() *TestLogger {
	tl := &TestLogger{}
	tl.Record = func(ev Event) error {
		tl.eventsMu.Lock()
		defer tl.eventsMu.Unlock()
		tl.events = append(tl.events, ev)
		return nil
	}
	return tl
}

// Events returns a copy of the events recorded so far.
func (tl *TestLogger) Events() []Event {
	tl.eventsMu.Lock()
	defer tl.eventsMu.Unlock()
	return append([]Event(nil), tl.events...)
}
