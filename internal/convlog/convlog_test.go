package convlog

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileLoggerWritesPerSessionNDJSON(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	logger, err := New(Config{Enabled: true, Dir: dir, QueueSize: 16}, slog.Default())
	require.NoError(t, err)

	logger.Log(Event{
		SessionID:  "sess-1",
		Direction:  Inbound,
		EventType:  "user_message",
		ContentRaw: "I need **car** insurance",
	})
	logger.Log(Event{SessionID: "sess-1", Direction: Outbound, EventType: "bot_message", Agent: "personal", ContentRaw: "Sure"})
	require.NoError(t, logger.Close())

	data, err := os.ReadFile(filepath.Join(dir, "sess-1.ndjson"))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)

	var got Event
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &got))
	assert.Equal(t, "I need **car** insurance", got.ContentRaw)
	assert.Equal(t, "I need car insurance", got.Content)
	assert.NotEmpty(t, got.Timestamp)

	_, err = time.Parse(time.RFC3339Nano, got.Timestamp)
	assert.NoError(t, err)
}

func TestFileLoggerSanitizesSessionID(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	logger, err := New(Config{Enabled: true, Dir: dir}, nil)
	require.NoError(t, err)

	logger.Log(Event{SessionID: "../escape", EventType: "user_message"})
	require.NoError(t, logger.Close())

	_, err = os.Stat(filepath.Join(dir, ".._escape.ndjson"))
	assert.NoError(t, err)
}

func TestLogAfterCloseIsDropped(t *testing.T) {
	t.Parallel()

	logger, err := New(Config{Enabled: true, Dir: t.TempDir()}, nil)
	require.NoError(t, err)
	require.NoError(t, logger.Close())
	require.NoError(t, logger.Close())

	assert.NotPanics(t, func() { logger.Log(Event{SessionID: "late"}) })
}

func TestDisabledIsNop(t *testing.T) {
	t.Parallel()

	logger, err := New(Config{}, nil)
	require.NoError(t, err)
	assert.IsType(t, Nop{}, logger)
}

func TestCleanStripsANSI(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "error plain", Clean("\x1b[31merror\x1b[0m   plain"))
}

func TestFileLoggerEndReleasesSessionFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	logger, err := New(Config{Enabled: true, Dir: dir, QueueSize: 256}, nil)
	require.NoError(t, err)
	fl := logger.(*FileLogger)

	for i := range 50 {
		id := fmt.Sprintf("conn-%d", i)
		fl.Log(Event{SessionID: id, Direction: Inbound, EventType: "user_message", ContentRaw: "hello"})
		fl.End(id)
	}
	require.Eventually(t, func() bool { return fl.openFiles() == 0 }, time.Second, time.Millisecond)

	fl.Log(Event{SessionID: "conn-0", Direction: Outbound, EventType: "bot_message", ContentRaw: "again"})
	require.NoError(t, fl.Close())
	assert.Zero(t, fl.openFiles())

	data, err := os.ReadFile(filepath.Join(dir, "conn-0.ndjson"))
	require.NoError(t, err)
	assert.Len(t, strings.Split(strings.TrimSpace(string(data)), "\n"), 2)
}
