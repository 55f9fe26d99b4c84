// Package convlog writes per-session conversation transcripts as NDJSON.
package convlog

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"
)

// Directions.
const (
	Inbound  = "inbound"
	Outbound = "outbound"
)

// Config controls transcript logging.
type Config struct {
	Enabled   bool
	Dir       string
	QueueSize int
}

// Event is one transcript line.
type Event struct {
	Timestamp    string         `json:"timestamp"`
	SessionID    string         `json:"session_id"`
	ConnectionIP string         `json:"connection_ip,omitempty"`
	Direction    string         `json:"direction"`
	EventType    string         `json:"event_type"`
	Agent        string         `json:"agent,omitempty"`
	ContentRaw   string         `json:"content_raw,omitempty"`
	Content      string         `json:"content,omitempty"`
	Meta         map[string]any `json:"meta,omitempty"`
}

// Logger records transcript events.
type Logger interface {
	Log(ev Event)
	// End releases the session's transcript once its queued events are
	// written. A later Log for the same session reopens the file.
	End(sessionID string)
	Close() error
}

// Nop discards every event.
type Nop struct{}

// Log does nothing.
func (Nop) Log(Event) {}

// End does nothing.
func (Nop) End(string) {}

// Close does nothing.
func (Nop) Close() error { return nil }

type entry struct {
	ev  Event
	end bool
}

// FileLogger appends events to <dir>/<session>.ndjson from a single writer
// goroutine. Log never blocks; events are dropped when the queue is full.
type FileLogger struct {
	dir    string
	queue  chan entry
	logger *slog.Logger

	filesMu sync.Mutex
	files   map[string]*os.File

	closeOnce sync.Once
	done      chan struct{}
	mu        sync.RWMutex
	closed    bool
}

// New returns a Nop when logging is disabled.
func New(cfg Config, logger *slog.Logger) (Logger, error) {
	if !cfg.Enabled {
		return Nop{}, nil
	}
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Dir == "" {
		return nil, errors.New("conversation log dir is required")
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 256
	}
	if err := os.MkdirAll(cfg.Dir, 0o750); err != nil {
		return nil, fmt.Errorf("create conversation log dir: %w", err)
	}
	l := &FileLogger{
		dir:    cfg.Dir,
		queue:  make(chan entry, cfg.QueueSize),
		files:  make(map[string]*os.File),
		logger: logger.With("component", "convlog"),
		done:   make(chan struct{}),
	}
	go l.run()
	return l, nil
}

// Log queues ev for writing.
func (l *FileLogger) Log(ev Event) {
	if ev.Timestamp == "" {
		ev.Timestamp = time.Now().UTC().Format(time.RFC3339Nano)
	}
	if ev.Content == "" && ev.ContentRaw != "" {
		ev.Content = Clean(ev.ContentRaw)
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.closed {
		return
	}
	select {
	case l.queue <- entry{ev: ev}:
	default:
		l.logger.Warn("Conversation log queue full, dropping event", "session_id", ev.SessionID, "event_type", ev.EventType)
	}
}

// End queues a close of the session's transcript behind its pending events.
// Unlike Log it waits for queue space, so a busy writer cannot leak the file.
func (l *FileLogger) End(sessionID string) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.closed {
		return
	}
	l.queue <- entry{ev: Event{SessionID: sessionID}, end: true}
}

// Close drains the queue and closes every transcript file.
func (l *FileLogger) Close() error {
	l.closeOnce.Do(func() {
		l.mu.Lock()
		l.closed = true
		close(l.queue)
		l.mu.Unlock()
	})
	<-l.done
	return nil
}

func (l *FileLogger) run() {
	defer close(l.done)
	for e := range l.queue {
		if e.end {
			l.release(safeName(e.ev.SessionID))
			continue
		}
		if err := l.write(e.ev); err != nil {
			l.logger.Warn("Failed to write conversation log", "session_id", e.ev.SessionID, "error", err)
		}
	}
	l.filesMu.Lock()
	names := make([]string, 0, len(l.files))
	for name := range l.files {
		names = append(names, name)
	}
	l.filesMu.Unlock()
	for _, name := range names {
		l.release(name)
	}
}

func (l *FileLogger) release(name string) {
	l.filesMu.Lock()
	f, ok := l.files[name]
	delete(l.files, name)
	l.filesMu.Unlock()
	if !ok {
		return
	}
	if err := f.Close(); err != nil {
		l.logger.Debug("Failed to close conversation log", "file", name, "error", err)
	}
}

func (l *FileLogger) openFiles() int {
	l.filesMu.Lock()
	defer l.filesMu.Unlock()
	return len(l.files)
}

func (l *FileLogger) write(ev Event) error {
	f, err := l.file(ev.SessionID)
	if err != nil {
		return err
	}
	line, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if _, err := f.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("append event: %w", err)
	}
	return nil
}

func (l *FileLogger) file(sessionID string) (*os.File, error) {
	name := safeName(sessionID)
	l.filesMu.Lock()
	defer l.filesMu.Unlock()
	if f, ok := l.files[name]; ok {
		return f, nil
	}
	path := filepath.Join(l.dir, name+".ndjson")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o640)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	l.files[name] = f
	return f, nil
}

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9._-]`)

func safeName(id string) string {
	id = unsafeChars.ReplaceAllString(id, "_")
	if id == "" || id == "." || id == ".." {
		return "unknown"
	}
	return id
}

var (
	ansiPattern     = regexp.MustCompile(`\x1b\[[0-9;?]*[A-Za-z]`)
	markupPattern   = regexp.MustCompile(`\*\*|__|` + "`")
	spacePattern    = regexp.MustCompile(`[ \t]+`)
	blankRunPattern = regexp.MustCompile(`\n{3,}`)
)

// Clean strips terminal escapes and markdown emphasis so a transcript
// reads as plain text.
func Clean(s string) string {
	s = ansiPattern.ReplaceAllString(s, "")
	s = markupPattern.ReplaceAllString(s, "")
	s = spacePattern.ReplaceAllString(s, " ")
	s = blankRunPattern.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}
