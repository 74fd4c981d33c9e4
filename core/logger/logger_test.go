package logger_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/josephlewis42/conduit/core/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONLinesLogger(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewJSONLinesLogger(&buf)

	session := log.NewSession()
	require.NoError(t, session.SessionStarted(`cmd("echo", "hi")`))
	require.NoError(t, session.CommandStarted([]string{"echo", "hi"}, "/tmp", 1234))
	require.NoError(t, session.CommandExited([]string{"echo", "hi"}, 0))
	require.NoError(t, session.SessionFinished(0, nil))

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 4)

	var events []logger.Event
	for _, line := range lines {
		var ev logger.Event
		require.NoError(t, json.Unmarshal(line, &ev))
		events = append(events, ev)
	}

	assert.Equal(t, logger.KindStart, events[0].Kind)
	assert.Equal(t, `cmd("echo", "hi")`, events[0].Description)

	assert.Equal(t, logger.KindSpawn, events[1].Kind)
	assert.Equal(t, []string{"echo", "hi"}, events[1].Argv)
	assert.Equal(t, "/tmp", events[1].Dir)
	assert.Equal(t, 1234, events[1].Pid)

	assert.Equal(t, logger.KindExit, events[2].Kind)
	assert.Equal(t, 0, events[2].ExitCode)

	assert.Equal(t, logger.KindDone, events[3].Kind)
	assert.Empty(t, events[3].Error)

	for _, ev := range events {
		assert.Equal(t, session.SessionID(), ev.Session)
		assert.NotZero(t, ev.TimestampMicros)
	}
}

func TestSessionFinishedError(t *testing.T) {
	tl := logger.NewTestLogger()

	session := tl.NewSession()
	require.NoError(t, session.SessionFinished(2, errors.New("command exited with status 2")))

	events := tl.Events()
	require.Len(t, events, 1)
	assert.Equal(t, logger.KindDone, events[0].Kind)
	assert.Equal(t, 2, events[0].ExitCode)
	assert.Equal(t, "command exited with status 2", events[0].Error)
}

func TestSessionIDs(t *testing.T) {
	tl := logger.NewTestLogger()

	first := tl.NewSession()
	second := tl.NewSession()
	assert.NotEmpty(t, first.SessionID())
	assert.NotEmpty(t, second.SessionID())
	assert.NotEqual(t, first.SessionID(), second.SessionID())

	assert.Empty(t, tl.Sessionless().SessionID())
}

func TestZeroValueDropsEvents(t *testing.T) {
	var log logger.Logger

	session := log.NewSession()
	assert.NoError(t, session.SessionStarted("noop"))
	assert.NoError(t, session.CommandStarted([]string{"true"}, "", 1))
	assert.NoError(t, session.CommandExited([]string{"true"}, 0))
	assert.NoError(t, session.SessionFinished(0, nil))
}
