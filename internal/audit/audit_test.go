package audit

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"realestate_ai_backend/platform/logger"
)

func readRows(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open %s: %v", path, err)
	}
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("parse %s: %v", path, err)
	}
	return rows
}

func TestLogWritesHeaderOnce(t *testing.T) {
	dir := t.TempDir()
	log := NewLog(dir)
	log.now = func() time.Time { return time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC) }

	for i := 0; i < 2; i++ {
		if err := log.Inbound(InboundRow{Channel: "whatsapp", Sender: "+16502530000", MessageID: "wamid.1", Body: "hi, \"there\""}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	rows := readRows(t, filepath.Join(dir, InboundFile))
	if len(rows) != 3 {
		t.Fatalf("expected header plus two rows, got %d", len(rows))
	}
	if strings.Join(rows[0], ",") != "timestamp_utc,channel,sender,message_id,message_ts,body" {
		t.Fatalf("unexpected header %v", rows[0])
	}
	if rows[1][0] != "2025-03-10T09:00:00Z" || rows[1][5] != "hi, \"there\"" {
		t.Fatalf("unexpected row %v", rows[1])
	}
}

func TestLogOutboundColumns(t *testing.T) {
	dir := t.TempDir()
	log := NewLog(dir)

	if err := log.Outbound(OutboundRow{Channel: "sms", To: "+16502530000", MessageID: "SM1", Kind: "reply", Reply: "Thanks", SendStatus: StatusText(201, false), SendBody: "{}"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	rows := readRows(t, filepath.Join(dir, OutboundFile))
	if len(rows[0]) != 8 || rows[1][6] != "201" {
		t.Fatalf("unexpected outbound rows %v", rows)
	}
}

func TestLogConcurrentAppendsStayWhole(t *testing.T) {
	dir := t.TempDir()
	log := NewLog(dir)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = log.Stopped(InboundRow{Channel: "sms", Sender: "+1", MessageID: "x", Body: strings.Repeat("stop ", 40)})
		}()
	}
	wg.Wait()

	if rows := readRows(t, filepath.Join(dir, StoppedFile)); len(rows) != 51 {
		t.Fatalf("expected 51 rows, got %d", len(rows))
	}
}

func TestStatusText(t *testing.T) {
	if StatusText(0, true) != "demo" || StatusText(0, false) != "error" || StatusText(200, false) != "200" {
		t.Fatalf("unexpected status text")
	}
}

type memoryObjects struct {
	objects map[string][]byte
}

func (m *memoryObjects) EnsureBucketExists(context.Context, string) error { return nil }

func (m *memoryObjects) PutObject(_ context.Context, bucket, key, _ string, data []byte) error {
	if m.objects == nil {
		m.objects = make(map[string][]byte)
	}
	m.objects[bucket+"/"+key] = data
	return nil
}

func TestArchiveOnceUploadsExistingTrails(t *testing.T) {
	dir := t.TempDir()
	log := NewLog(dir)
	_ = log.Inbound(InboundRow{Channel: "whatsapp", Sender: "+1", MessageID: "a", Body: "hello"})

	store := &memoryObjects{}
	archiver := NewArchiver(log, store, "audit-logs", 0, logger.New("development"))
	archiver.now = func() time.Time { return time.Date(2025, 3, 10, 23, 0, 0, 0, time.UTC) }

	uploaded, err := archiver.ArchiveOnce(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if uploaded != 1 {
		t.Fatalf("expected only the inbound trail, got %d", uploaded)
	}
	if _, ok := store.objects["audit-logs/audit/2025-03-10/inbound.csv"]; !ok {
		t.Fatalf("expected dated key, got %v", store.objects)
	}
}
