// Package audit appends the inbound, outbound and stopped CSV trails and
// periodically archives them to object storage.
package audit

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sys/unix"
)

// File names under the audit directory.
const (
	InboundFile  = "inbound.csv"
	OutboundFile = "outbound.csv"
	StoppedFile  = "stopped.csv"
)

var (
	inboundHeaders  = []string{"timestamp_utc", "channel", "sender", "message_id", "message_ts", "body"}
	outboundHeaders = []string{"timestamp_utc", "channel", "to", "message_id", "kind", "reply", "send_status", "send_body"}
)

// Files lists every trail the log writes.
var Files = []string{InboundFile, OutboundFile, StoppedFile}

type InboundRow struct {
	Channel   string
	Sender    string
	MessageID string
	// MessageTS is the provider timestamp as received.
	MessageTS string
	Body      string
}

type OutboundRow struct {
	Channel    string
	To         string
	MessageID  string
	Kind       string
	Reply      string
	SendStatus string
	SendBody   string
}

// Recorder is the write side used by the pipeline.
type Recorder interface {
	Inbound(row InboundRow) error
	Outbound(row OutboundRow) error
	Stopped(row InboundRow) error
}

// Log writes rows under an in-process mutex and an exclusive flock, so
// several processes can share one directory.
type Log struct {
	dir string
	mu  sync.Mutex
	now func() time.Time
}

func NewLog(dir string) *Log {
	return &Log{dir: dir, now: time.Now}
}

func (l *Log) Dir() string { return l.dir }

func (l *Log) Inbound(row InboundRow) error {
	return l.append(InboundFile, inboundHeaders, inboundRecord(l.now(), row))
}

func (l *Log) Stopped(row InboundRow) error {
	return l.append(StoppedFile, inboundHeaders, inboundRecord(l.now(), row))
}

func (l *Log) Outbound(row OutboundRow) error {
	return l.append(OutboundFile, outboundHeaders, []string{
		timestamp(l.now()), row.Channel, row.To, row.MessageID, row.Kind, row.Reply, row.SendStatus, row.SendBody,
	})
}

func inboundRecord(at time.Time, row InboundRow) []string {
	return []string{timestamp(at), row.Channel, row.Sender, row.MessageID, row.MessageTS, row.Body}
}

func timestamp(at time.Time) string {
	return at.UTC().Format(time.RFC3339)
}

// StatusText renders a provider status for the send_status column.
func StatusText(status int, demo bool) string {
	switch {
	case demo:
		return "demo"
	case status == 0:
		return "error"
	default:
		return strconv.Itoa(status)
	}
}

func (l *Log) append(name string, headers, record []string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := os.MkdirAll(l.dir, 0o755); err != nil {
		return fmt.Errorf("create audit dir: %w", err)
	}

	f, err := os.OpenFile(filepath.Join(l.dir, name), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open %s: %w", name, err)
	}
	defer func() {
		_ = f.Close()
	}()

	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX); err != nil {
		return fmt.Errorf("lock %s: %w", name, err)
	}
	defer func() {
		_ = unix.Flock(int(f.Fd()), unix.LOCK_UN)
	}()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat %s: %w", name, err)
	}

	w := csv.NewWriter(f)
	if info.Size() == 0 {
		if err := w.Write(headers); err != nil {
			return err
		}
	}
	if err := w.Write(record); err != nil {
		return err
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return f.Sync()
}

// Snapshot reads a trail under a shared lock. A missing file yields nil.
func (l *Log) Snapshot(name string) ([]byte, error) {
	f, err := os.Open(filepath.Join(l.dir, name))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = f.Close()
	}()

	if err := unix.Flock(int(f.Fd()), unix.LOCK_SH); err != nil {
		return nil, fmt.Errorf("lock %s: %w", name, err)
	}
	defer func() {
		_ = unix.Flock(int(f.Fd()), unix.LOCK_UN)
	}()

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	data := make([]byte, info.Size())
	if _, err := f.ReadAt(data, 0); err != nil && info.Size() > 0 {
		return nil, err
	}
	return data, nil
}

var _ Recorder = (*Log)(nil)
