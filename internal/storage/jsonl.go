package storage

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"txScope/internal/model"
)

// maxLineSize bounds one JSONL line; raw LCD payloads can be large.
const maxLineSize = 10 * 1024 * 1024

// JsonlStorage appends records to a JSONL file.
type JsonlStorage struct {
	path string
	mu   sync.Mutex
}

func NewJsonlStorage(path string) *JsonlStorage {
	return &JsonlStorage{path: path}
}

// PutRawBatch appends fetched payloads as JSON lines.
func (s *JsonlStorage) PutRawBatch(_ context.Context, records []model.RawRecord) error {
	return appendLines(s, records)
}

// PutBatch appends transaction records as JSON lines.
func (s *JsonlStorage) PutBatch(_ context.Context, records []model.TransactionRecord) error {
	return appendLines(s, records)
}

func appendLines[T any](s *JsonlStorage, items []T) error {
	if len(items) == 0 {
		return nil
	}

	dir := filepath.Dir(s.path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open output file: %w", err)
	}
	defer file.Close()

	writer := bufio.NewWriter(file)
	for _, item := range items {
		line, err := json.Marshal(item)
		if err != nil {
			return fmt.Errorf("marshal record: %w", err)
		}
		if _, err := writer.Write(line); err != nil {
			return fmt.Errorf("write record: %w", err)
		}
		if err := writer.WriteByte('\n'); err != nil {
			return fmt.Errorf("write newline: %w", err)
		}
	}

	if err := writer.Flush(); err != nil {
		return fmt.Errorf("flush output: %w", err)
	}

	return nil
}

// SortByHeight rewrites the file with records ordered by block height,
// highest first. Records of equal height keep their order.
func (s *JsonlStorage) SortByHeight() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := ReadRecords(s.path, nil)
	if err != nil {
		return err
	}
	sort.SliceStable(records, func(i, j int) bool { return records[i].BlockHeight > records[j].BlockHeight })

	tmp := s.path + ".tmp"
	file, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("open sorted output: %w", err)
	}
	writer := bufio.NewWriter(file)
	for _, rec := range records {
		line, err := json.Marshal(rec)
		if err != nil {
			file.Close()
			return fmt.Errorf("marshal record: %w", err)
		}
		writer.Write(line)
		writer.WriteByte('\n')
	}
	if err := writer.Flush(); err != nil {
		file.Close()
		return fmt.Errorf("flush sorted output: %w", err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("close sorted output: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace output: %w", err)
	}
	return nil
}

// ScanLines calls fn with each non-empty line of a JSONL file and its 1-based line number.
func ScanLines(path string, fn func(line []byte, number int) error) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open input: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, maxLineSize)

	number := 0
	for scanner.Scan() {
		number++
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		if err := fn(line, number); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("scan input: %w", err)
	}
	return nil
}

// ReadRecords loads every transaction record of a JSONL file. Unparseable lines
// are reported through skip and otherwise ignored.
func ReadRecords(path string, skip func(number int, err error)) ([]model.TransactionRecord, error) {
	var out []model.TransactionRecord
	err := ScanLines(path, func(line []byte, number int) error {
		var rec model.TransactionRecord
		if err := json.Unmarshal(line, &rec); err != nil {
			if skip != nil {
				skip(number, err)
			}
			return nil
		}
		out = append(out, rec)
		return nil
	})
	return out, err
}
