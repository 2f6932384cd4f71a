package journal

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"hash/crc32"
	"io"
	"os"

	"github.com/golang/snappy"
)

// ReadAll decodes every frame in the journal.
func (j *Journal) ReadAll() ([]Entry, error) {
	entries := []Entry{}
	err := j.Replay(func(e Entry) error {
		entries = append(entries, e)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// Replay streams every frame through fn in append order. Replay stops at
// the first error from fn or the first damaged frame.
func (j *Journal) Replay(fn func(Entry) error) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if err := j.writer.Flush(); err != nil {
		return err
	}
	return j.replayLocked(func(e Entry, raw, stored int) error {
		return fn(e)
	})
}

func (j *Journal) replayLocked(fn func(e Entry, rawLen, storedLen int) error) error {
	file, err := os.Open(j.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	defer file.Close()

	reader := bufio.NewReader(file)
	for {
		var seq uint64
		if err := binary.Read(reader, binary.BigEndian, &seq); err != nil {
			if err == io.EOF {
				return nil
			}
			return fmt.Errorf("journal: frame header: %w", ErrTruncated)
		}

		var sum uint32
		if err := binary.Read(reader, binary.BigEndian, &sum); err != nil {
			return fmt.Errorf("journal: frame %d: %w", seq, ErrTruncated)
		}

		var length uint32
		if err := binary.Read(reader, binary.BigEndian, &length); err != nil {
			return fmt.Errorf("journal: frame %d: %w", seq, ErrTruncated)
		}
		if length > maxFrameLen {
			return fmt.Errorf("journal: frame %d: length %d exceeds limit: %w",
				seq, length, ErrCorruptRecord)
		}

		compressed := make([]byte, length)
		if _, err := io.ReadFull(reader, compressed); err != nil {
			return fmt.Errorf("journal: frame %d: %w", seq, ErrTruncated)
		}

		if crc32.ChecksumIEEE(compressed) != sum {
			return fmt.Errorf("journal: frame %d: checksum mismatch: %w",
				seq, ErrCorruptRecord)
		}

		payload, err := snappy.Decode(nil, compressed)
		if err != nil {
			return fmt.Errorf("journal: frame %d: decompress: %w",
				seq, ErrCorruptRecord)
		}

		var rec PlanRecord
		if err := json.Unmarshal(payload, &rec); err != nil {
			return fmt.Errorf("journal: frame %d: decode: %w",
				seq, ErrCorruptRecord)
		}

		if err := fn(Entry{Seq: seq, Record: rec}, len(payload), len(compressed)); err != nil {
			return err
		}
	}
}
