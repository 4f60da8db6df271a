package modlog

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"discord-modbot/models"
)

func TestAppendAndRead(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "filtered_messages.csv")
	l, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer l.Close()

	ts := time.Date(2025, 5, 1, 10, 30, 0, 0, time.UTC)
	rec := models.AuditRecord{
		Timestamp:      ts,
		ChannelID:      "123",
		AuthorID:       "456",
		Text:           "stocks, \"bonds\"\nand more",
		PredictedTopic: models.TopicBusiness,
		Action:         models.ActionDeleteScheduled,
	}
	if err := l.Append(rec); err != nil {
		t.Fatalf("Append: %v", err)
	}

	got, err := ReadRecords(path)
	if err != nil {
		t.Fatalf("ReadRecords: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("read %d records, want 1", len(got))
	}
	if !got[0].Timestamp.Equal(ts) || got[0].Text != rec.Text || got[0].PredictedTopic != rec.PredictedTopic || got[0].Action != rec.Action {
		t.Errorf("record = %+v, want %+v", got[0], rec)
	}
}

func TestAppendNeverTruncates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log.csv")

	for i := 0; i < 2; i++ {
		l, err := Open(path)
		if err != nil {
			t.Fatalf("Open #%d: %v", i+1, err)
		}
		if err := l.Append(models.AuditRecord{ChannelID: fmt.Sprint(i), PredictedTopic: models.TopicWorld, Action: models.ActionWarnOnly}); err != nil {
			t.Fatalf("Append: %v", err)
		}
		l.Close()
	}

	got, err := ReadRecords(path)
	if err != nil {
		t.Fatalf("ReadRecords: %v", err)
	}
	if len(got) != 2 || got[0].ChannelID != "0" || got[1].ChannelID != "1" {
		t.Errorf("records = %+v, want channels 0 then 1", got)
	}
}

func TestConcurrentAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log.csv")
	l, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer l.Close()

	var wg sync.WaitGroup
	for i := 0; i < 40; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if err := l.Append(models.AuditRecord{ChannelID: fmt.Sprintf("c%d", i%4), Text: "msg", PredictedTopic: models.TopicSports, Action: models.ActionDeleteScheduled}); err != nil {
				t.Errorf("Append: %v", err)
			}
		}(i)
	}
	wg.Wait()

	got, err := ReadRecords(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 40 {
		t.Errorf("read %d records, want 40", len(got))
	}
}

func TestAppendAfterCloseFails(t *testing.T) {
	l, err := Open(filepath.Join(t.TempDir(), "log.csv"))
	if err != nil {
		t.Fatal(err)
	}
	l.Close()

	if err := l.Append(models.AuditRecord{}); !errors.Is(err, ErrWrite) {
		t.Errorf("Append after Close = %v, want ErrWrite", err)
	}
}

func TestReadRecordsMissingFile(t *testing.T) {
	got, err := ReadRecords(filepath.Join(t.TempDir(), "missing.csv"))
	if err != nil || got != nil {
		t.Errorf("ReadRecords(missing) = %v, %v; want nil, nil", got, err)
	}
}

func TestOpenFailsOnDirectory(t *testing.T) {
	dir := t.TempDir()
	if err := os.Mkdir(filepath.Join(dir, "log.csv"), 0755); err != nil {
		t.Fatal(err)
	}
	if _, err := Open(filepath.Join(dir, "log.csv")); err == nil {
		t.Error("Open on a directory should fail")
	}
}
