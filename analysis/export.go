package analysis

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"discord-modbot/models"
)

// Row is one analysed message in an export.
type Row struct {
	Author     string
	Message    string
	Sentiment  string
	Confidence float64
}

// WriteExport replaces the file at path with the rows of the latest analysis.
// The file is written next to the target and renamed over it, so readers never
// see a partial export.
func WriteExport(path string, rows []Row) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create export directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".export-*.csv")
	if err != nil {
		return fmt.Errorf("failed to create export file: %w", err)
	}
	defer os.Remove(tmp.Name())

	w := csv.NewWriter(tmp)
	w.Write([]string{"author", "message", "sentiment", "confidence"})
	for _, r := range rows {
		w.Write([]string{r.Author, r.Message, r.Sentiment, strconv.FormatFloat(r.Confidence, 'f', 4, 64)})
	}
	w.Flush()
	if err := w.Error(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write export: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write export: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to replace export: %w", err)
	}
	return nil
}

func exportRows(msgs []models.Message, results []models.ClassificationResult) []Row {
	rows := make([]Row, len(msgs))
	for i, m := range msgs {
		author := m.AuthorName
		if author == "" {
			author = m.AuthorID
		}
		rows[i] = Row{Author: author, Message: m.Content, Sentiment: results[i].Label, Confidence: results[i].Confidence}
	}
	return rows
}
