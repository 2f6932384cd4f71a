package journal

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/kestrelworks/bootseq/pkg/depgraph"
	"github.com/kestrelworks/bootseq/pkg/schedule"
)

func sampleRecord(id string) PlanRecord {
	return PlanRecord{
		PlanID:    id,
		GraphID:   "graph-1",
		CreatedAt: time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC),
		Order:     []string{"database", "cache", "api"},
		Rejected:  []depgraph.Dependency{{Dependent: "api", Requirement: "api"}},
		Entries: []schedule.Entry{
			{
				Component: "database",
				Startup:   schedule.Window{Begin: 0, End: 30 * time.Second},
				Shutdown:  schedule.Window{Begin: -10 * time.Second, End: 0},
			},
			{
				Component: "cache",
				Startup:   schedule.Window{Begin: 30 * time.Second, End: 35 * time.Second},
				Shutdown:  schedule.Window{Begin: -15 * time.Second, End: -10 * time.Second},
			},
		},
	}
}

// TestOpen tests creating a fresh journal
func TestOpen(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "journal-test-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tmpDir)

	j, err := Open(tmpDir)
	if err != nil {
		t.Fatalf("Failed to open journal: %v", err)
	}
	defer j.Close()

	if j.Seq() != 0 {
		t.Errorf("Expected initial sequence 0, got %d", j.Seq())
	}

	stats := j.Stats()
	if stats.Records != 0 {
		t.Errorf("Expected 0 records initially, got %d", stats.Records)
	}
}

// TestJournal_Append tests appending plan records
func TestJournal_Append(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "journal-test-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tmpDir)

	j, err := Open(tmpDir)
	if err != nil {
		t.Fatalf("Failed to open journal: %v", err)
	}
	defer j.Close()

	seq, err := j.Append(sampleRecord("plan-1"))
	if err != nil {
		t.Fatalf("Failed to append: %v", err)
	}
	if seq != 1 {
		t.Errorf("Expected sequence 1, got %d", seq)
	}

	seq, err = j.Append(sampleRecord("plan-2"))
	if err != nil {
		t.Fatalf("Failed to append: %v", err)
	}
	if seq != 2 {
		t.Errorf("Expected sequence 2, got %d", seq)
	}
}

// TestJournal_ReadAll tests the append/read round trip
func TestJournal_ReadAll(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "journal-test-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tmpDir)

	j, err := Open(tmpDir)
	if err != nil {
		t.Fatalf("Failed to open journal: %v", err)
	}
	defer j.Close()

	want := []PlanRecord{sampleRecord("plan-1"), sampleRecord("plan-2"), sampleRecord("plan-3")}
	for _, rec := range want {
		if _, err := j.Append(rec); err != nil {
			t.Fatalf("Failed to append: %v", err)
		}
	}

	entries, err := j.ReadAll()
	if err != nil {
		t.Fatalf("Failed to read all: %v", err)
	}
	if len(entries) != len(want) {
		t.Fatalf("Expected %d entries, got %d", len(want), len(entries))
	}

	for i, entry := range entries {
		if entry.Seq != uint64(i+1) {
			t.Errorf("Entry %d: expected sequence %d, got %d", i, i+1, entry.Seq)
		}
		if entry.Record.PlanID != want[i].PlanID {
			t.Errorf("Entry %d: expected plan %s, got %s", i, want[i].PlanID, entry.Record.PlanID)
		}
		if !entry.Record.CreatedAt.Equal(want[i].CreatedAt) {
			t.Errorf("Entry %d: expected created %v, got %v", i, want[i].CreatedAt, entry.Record.CreatedAt)
		}
		if !reflect.DeepEqual(entry.Record.Order, want[i].Order) {
			t.Errorf("Entry %d: expected order %v, got %v", i, want[i].Order, entry.Record.Order)
		}
		if !reflect.DeepEqual(entry.Record.Rejected, want[i].Rejected) {
			t.Errorf("Entry %d: expected rejected %v, got %v", i, want[i].Rejected, entry.Record.Rejected)
		}
		if !reflect.DeepEqual(entry.Record.Entries, want[i].Entries) {
			t.Errorf("Entry %d: window entries mismatch", i)
		}
	}
}

// TestJournal_EmptyReadAll tests reading an empty journal
func TestJournal_EmptyReadAll(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "journal-test-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tmpDir)

	j, err := Open(tmpDir)
	if err != nil {
		t.Fatalf("Failed to open journal: %v", err)
	}
	defer j.Close()

	entries, err := j.ReadAll()
	if err != nil {
		t.Fatalf("Failed to read empty journal: %v", err)
	}
	if entries == nil {
		t.Error("Expected empty slice, got nil")
	}
	if len(entries) != 0 {
		t.Errorf("Expected 0 entries, got %d", len(entries))
	}
}

// TestJournal_Recover tests sequence and statistics recovery on reopen
func TestJournal_Recover(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "journal-test-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tmpDir)

	j1, err := Open(tmpDir)
	if err != nil {
		t.Fatalf("Failed to open journal: %v", err)
	}
	for i := 0; i < 5; i++ {
		if _, err := j1.Append(sampleRecord("plan")); err != nil {
			t.Fatalf("Failed to append: %v", err)
		}
	}
	wantSeq := j1.Seq()
	wantStats := j1.Stats()
	if err := j1.Close(); err != nil {
		t.Fatalf("Failed to close: %v", err)
	}

	j2, err := Open(tmpDir)
	if err != nil {
		t.Fatalf("Failed to reopen journal: %v", err)
	}
	defer j2.Close()

	if j2.Seq() != wantSeq {
		t.Errorf("Expected recovered sequence %d, got %d", wantSeq, j2.Seq())
	}
	if got := j2.Stats(); got != wantStats {
		t.Errorf("Expected recovered stats %+v, got %+v", wantStats, got)
	}

	// New appends continue the recovered sequence.
	seq, err := j2.Append(sampleRecord("plan-6"))
	if err != nil {
		t.Fatalf("Failed to append after reopen: %v", err)
	}
	if seq != wantSeq+1 {
		t.Errorf("Expected sequence %d after reopen, got %d", wantSeq+1, seq)
	}
}

// TestJournal_Compression tests that repetitive records compress
func TestJournal_Compression(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "journal-test-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tmpDir)

	j, err := Open(tmpDir)
	if err != nil {
		t.Fatalf("Failed to open journal: %v", err)
	}
	defer j.Close()

	rec := sampleRecord("plan-1")
	for i := 0; i < 200; i++ {
		rec.Order = append(rec.Order, "component-with-a-long-repetitive-name")
	}
	if _, err := j.Append(rec); err != nil {
		t.Fatalf("Failed to append: %v", err)
	}

	stats := j.Stats()
	if stats.Records != 1 {
		t.Errorf("Expected 1 record, got %d", stats.Records)
	}
	if stats.BytesStored >= stats.BytesRaw {
		t.Errorf("Expected compression, but stored size (%d) >= raw size (%d)",
			stats.BytesStored, stats.BytesRaw)
	}
	if stats.CompressionRatio <= 0 {
		t.Errorf("Expected positive compression ratio, got %f", stats.CompressionRatio)
	}
}

// TestJournal_Replay tests streaming replay and early termination
func TestJournal_Replay(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "journal-test-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tmpDir)

	j, err := Open(tmpDir)
	if err != nil {
		t.Fatalf("Failed to open journal: %v", err)
	}
	defer j.Close()

	for i := 0; i < 3; i++ {
		if _, err := j.Append(sampleRecord("plan")); err != nil {
			t.Fatalf("Failed to append: %v", err)
		}
	}

	var seen int
	err = j.Replay(func(e Entry) error {
		seen++
		return nil
	})
	if err != nil {
		t.Fatalf("Failed to replay: %v", err)
	}
	if seen != 3 {
		t.Errorf("Expected 3 entries replayed, got %d", seen)
	}

	stop := errors.New("stop")
	seen = 0
	err = j.Replay(func(e Entry) error {
		seen++
		return stop
	})
	if !errors.Is(err, stop) {
		t.Errorf("Expected replay to surface the callback error, got %v", err)
	}
	if seen != 1 {
		t.Errorf("Expected replay to stop after 1 entry, got %d", seen)
	}
}

// TestJournal_CorruptFrame tests that a flipped payload byte is detected
func TestJournal_CorruptFrame(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "journal-test-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tmpDir)

	j, err := Open(tmpDir)
	if err != nil {
		t.Fatalf("Failed to open journal: %v", err)
	}
	if _, err := j.Append(sampleRecord("plan-1")); err != nil {
		t.Fatalf("Failed to append: %v", err)
	}
	if err := j.Close(); err != nil {
		t.Fatalf("Failed to close: %v", err)
	}

	path := filepath.Join(tmpDir, journalFile)
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read journal file: %v", err)
	}
	// Flip the first payload byte, past the 16-byte frame header.
	data[16] ^= 0xFF
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("Failed to write corrupted file: %v", err)
	}

	_, err = Open(tmpDir)
	if !errors.Is(err, ErrCorruptRecord) {
		t.Errorf("Expected ErrCorruptRecord, got %v", err)
	}
}

// TestJournal_TruncatedFrame tests that a chopped tail is detected
func TestJournal_TruncatedFrame(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "journal-test-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tmpDir)

	j, err := Open(tmpDir)
	if err != nil {
		t.Fatalf("Failed to open journal: %v", err)
	}
	if _, err := j.Append(sampleRecord("plan-1")); err != nil {
		t.Fatalf("Failed to append: %v", err)
	}
	if err := j.Close(); err != nil {
		t.Fatalf("Failed to close: %v", err)
	}

	path := filepath.Join(tmpDir, journalFile)
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Failed to stat journal file: %v", err)
	}
	if err := os.Truncate(path, info.Size()-4); err != nil {
		t.Fatalf("Failed to truncate journal file: %v", err)
	}

	_, err = Open(tmpDir)
	if !errors.Is(err, ErrTruncated) {
		t.Errorf("Expected ErrTruncated, got %v", err)
	}
}

// TestJournal_Stats tests statistics accumulation across appends
func TestJournal_Stats(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "journal-test-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tmpDir)

	j, err := Open(tmpDir)
	if err != nil {
		t.Fatalf("Failed to open journal: %v", err)
	}
	defer j.Close()

	for i := 0; i < 4; i++ {
		if _, err := j.Append(sampleRecord("plan")); err != nil {
			t.Fatalf("Failed to append: %v", err)
		}
	}

	stats := j.Stats()
	if stats.Records != 4 {
		t.Errorf("Expected 4 records, got %d", stats.Records)
	}
	if stats.BytesRaw == 0 {
		t.Error("Expected non-zero raw bytes")
	}
	if stats.BytesStored == 0 {
		t.Error("Expected non-zero stored bytes")
	}
}
