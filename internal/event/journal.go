package event

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Record is one journal line.
type Record struct {
	Topic      string          `json:"topic"`
	Key        string          `json:"key"`
	Payload    json.RawMessage `json:"payload"`
	RecordedAt string          `json:"recorded_at"`
}

// Journal appends published payloads to a JSONL file. Payloads must be JSON.
type Journal struct {
	path string
	mu   sync.Mutex
	now  func() time.Time
}

func NewJournal(path string) *Journal {
	return &Journal{path: path, now: time.Now}
}

func (j *Journal) Path() string {
	return j.path
}

func (j *Journal) Publish(_ context.Context, topic, key string, payload []byte) error {
	line, err := json.Marshal(Record{
		Topic:      topic,
		Key:        key,
		Payload:    json.RawMessage(payload),
		RecordedAt: j.now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return fmt.Errorf("marshal journal record: %w", err)
	}

	dir := filepath.Dir(j.path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create journal dir: %w", err)
		}
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	file, err := os.OpenFile(j.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	defer file.Close()

	if _, err := file.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("write journal record: %w", err)
	}
	return nil
}

func (j *Journal) Close() error {
	return nil
}

// ReadJournal loads every record from path. A missing file yields no records.
func ReadJournal(path string) ([]Record, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("open journal: %w", err)
	}
	defer file.Close()

	var records []Record
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 10*1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var record Record
		if err := json.Unmarshal(line, &record); err != nil {
			return nil, fmt.Errorf("parse journal line %d: %w", lineNo, err)
		}
		records = append(records, record)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan journal: %w", err)
	}
	return records, nil
}
