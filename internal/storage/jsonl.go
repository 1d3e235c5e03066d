package storage

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"poolCore/internal/model"
)

// JsonlStorage appends snapshot records to a JSONL file.
type JsonlStorage struct {
	path string
	mu   sync.Mutex
}

var _ SnapshotSink = (*JsonlStorage)(nil)

func NewJsonlStorage(path string) *JsonlStorage {
	return &JsonlStorage{path: path}
}

// PutSnapshots appends a batch of snapshot records as JSON lines. The
// context is accepted to satisfy SnapshotSink; local file appends do not
// observe cancellation.
func (s *JsonlStorage) PutSnapshots(_ context.Context, snapshots []model.SnapshotRecord) error {
	if len(snapshots) == 0 {
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
	for _, record := range snapshots {
		line, err := json.Marshal(record)
		if err != nil {
			return fmt.Errorf("marshal snapshot: %w", err)
		}
		if _, err := writer.Write(line); err != nil {
			return fmt.Errorf("write snapshot: %w", err)
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

// LatestSnapshot scans the file and returns the record with the highest pool
// version. The second return is false when the file holds no records.
func (s *JsonlStorage) LatestSnapshot() (model.SnapshotRecord, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return model.SnapshotRecord{}, false, nil
		}
		return model.SnapshotRecord{}, false, fmt.Errorf("open snapshots: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 10*1024*1024)

	var latest model.SnapshotRecord
	found := false
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		var record model.SnapshotRecord
		if err := json.Unmarshal(line, &record); err != nil {
			return model.SnapshotRecord{}, false, fmt.Errorf("parse snapshot line: %w", err)
		}
		if !found || record.State.Version >= latest.State.Version {
			latest = record
			found = true
		}
	}
	if err := scanner.Err(); err != nil {
		return model.SnapshotRecord{}, false, fmt.Errorf("scan snapshots: %w", err)
	}

	return latest, found, nil
}
