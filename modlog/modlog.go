// Package modlog is the append-only record of flagged messages.
package modlog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"discord-modbot/models"
)

// ErrWrite is wrapped by every failure to persist a record.
var ErrWrite = errors.New("moderation log write failed")

// Log appends audit records as CSV lines:
// timestamp, channel_id, author_id, text, predicted_topic, action.
// The file is only ever opened for appending.
type Log struct {
	path string
	file *os.File
	mu   sync.Mutex
}

// Open opens (or creates) the log file at path.
func Open(path string) (*Log, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open moderation log: %w", err)
	}
	return &Log{path: path, file: f}, nil
}

// Path returns the log file location.
func (l *Log) Path() string {
	return l.path
}

// Append writes one record and syncs it to disk.
func (l *Log) Append(rec models.AuditRecord) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file == nil {
		return fmt.Errorf("%w: log is closed", ErrWrite)
	}

	ts := rec.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}

	w := csv.NewWriter(l.file)
	if err := w.Write([]string{
		ts.UTC().Format(time.RFC3339),
		rec.ChannelID,
		rec.AuthorID,
		rec.Text,
		string(rec.PredictedTopic),
		rec.Action,
	}); err != nil {
		return fmt.Errorf("%w: %v", ErrWrite, err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("%w: %v", ErrWrite, err)
	}
	if err := l.file.Sync(); err != nil {
		return fmt.Errorf("%w: %v", ErrWrite, err)
	}
	return nil
}

// Close closes the underlying file. Further appends fail with ErrWrite.
func (l *Log) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}

// ReadRecords reads every record from the log file at path.
func ReadRecords(path string) ([]models.AuditRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open moderation log: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = 6

	var records []models.AuditRecord
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read moderation log: %w", err)
		}
		ts, err := time.Parse(time.RFC3339, row[0])
		if err != nil {
			return nil, fmt.Errorf("bad timestamp %q: %w", row[0], err)
		}
		records = append(records, models.AuditRecord{
			Timestamp:      ts,
			ChannelID:      row[1],
			AuthorID:       row[2],
			Text:           row[3],
			PredictedTopic: models.TopicLabel(row[4]),
			Action:         row[5],
		})
	}
	return records, nil
}
