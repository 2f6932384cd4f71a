// Package journal keeps an append-only audit trail of computed plans.
// Records are JSON payloads, snappy-compressed and framed with a sequence
// number and checksum so a torn tail or flipped bit is detected on read.
package journal

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"hash/crc32"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/golang/snappy"

	"github.com/kestrelworks/bootseq/pkg/depgraph"
	"github.com/kestrelworks/bootseq/pkg/schedule"
)

var (
	// ErrCorruptRecord means a frame failed its checksum or could not be
	// decoded.
	ErrCorruptRecord = errors.New("corrupt journal record")

	// ErrTruncated means the file ends in the middle of a frame.
	ErrTruncated = errors.New("truncated journal record")
)

const (
	journalFile = "plans.journal"

	// maxFrameLen refuses absurd lengths before allocating.
	maxFrameLen = 16 << 20
)

// PlanRecord is the journaled snapshot of one computed plan.
type PlanRecord struct {
	PlanID    string                `json:"planId"`
	GraphID   string                `json:"graphId"`
	CreatedAt time.Time             `json:"createdAt"`
	Order     []string              `json:"order"`
	Rejected  []depgraph.Dependency `json:"rejected,omitempty"`
	Entries   []schedule.Entry      `json:"entries"`
}

// Entry is one frame read back from disk.
type Entry struct {
	Seq    uint64
	Record PlanRecord
}

// Stats holds journal counters and the achieved compression.
type Stats struct {
	Records     uint64
	BytesRaw    uint64
	BytesStored uint64
	// CompressionRatio is the fraction saved, e.g. 0.75 = 75% smaller.
	CompressionRatio float64
}

// Journal is a single-writer append log.
type Journal struct {
	file   *os.File
	writer *bufio.Writer
	path   string
	seq    uint64
	mu     sync.Mutex

	records     uint64
	bytesRaw    uint64
	bytesStored uint64
}

// Open creates or reopens the journal inside dir. Existing frames are
// scanned to recover the sequence counter and statistics.
func Open(dir string) (*Journal, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("journal: create directory: %w", err)
	}

	path := filepath.Join(dir, journalFile)
	file, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("journal: open %s: %w", path, err)
	}

	j := &Journal{
		file:   file,
		writer: bufio.NewWriter(file),
		path:   path,
	}

	if err := j.recover(); err != nil {
		file.Close()
		return nil, fmt.Errorf("journal: recover: %w", err)
	}
	return j, nil
}

// Append journals one plan record and returns its sequence number.
func (j *Journal) Append(rec PlanRecord) (uint64, error) {
	payload, err := json.Marshal(rec)
	if err != nil {
		return 0, fmt.Errorf("journal: encode record: %w", err)
	}
	compressed := snappy.Encode(nil, payload)

	j.mu.Lock()
	defer j.mu.Unlock()

	j.seq++
	seq := j.seq

	// Frame: [seq:8][crc:4][len:4][payload:N], big-endian
	if err := binary.Write(j.writer, binary.BigEndian, seq); err != nil {
		return 0, err
	}
	if err := binary.Write(j.writer, binary.BigEndian, crc32.ChecksumIEEE(compressed)); err != nil {
		return 0, err
	}
	if err := binary.Write(j.writer, binary.BigEndian, uint32(len(compressed))); err != nil {
		return 0, err
	}
	if _, err := j.writer.Write(compressed); err != nil {
		return 0, err
	}
	if err := j.writer.Flush(); err != nil {
		return 0, err
	}

	j.records++
	j.bytesRaw += uint64(len(payload))
	j.bytesStored += uint64(len(compressed))

	return seq, nil
}

// Seq returns the sequence number of the most recent record.
func (j *Journal) Seq() uint64 {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.seq
}

// Stats returns journal counters.
func (j *Journal) Stats() Stats {
	j.mu.Lock()
	defer j.mu.Unlock()

	ratio := 0.0
	if j.bytesRaw > 0 {
		ratio = 1.0 - float64(j.bytesStored)/float64(j.bytesRaw)
	}
	return Stats{
		Records:          j.records,
		BytesRaw:         j.bytesRaw,
		BytesStored:      j.bytesStored,
		CompressionRatio: ratio,
	}
}

// Close flushes and closes the journal.
func (j *Journal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if err := j.writer.Flush(); err != nil {
		return err
	}
	if err := j.file.Sync(); err != nil {
		return err
	}
	return j.file.Close()
}

// recover replays existing frames to restore seq and statistics.
func (j *Journal) recover() error {
	err := j.replayLocked(func(e Entry, raw, stored int) error {
		j.seq = e.Seq
		j.records++
		j.bytesRaw += uint64(raw)
		j.bytesStored += uint64(stored)
		return nil
	})
	return err
}
