package storage

import (
	"encoding/csv"
	"fmt"
	"io"
)

var csvHeader = []string{"ID", "Article Title", "Source Type", "Source URL", "Result", "Confidence", "Method", "Timestamp"}

// WriteCSV renders submissions as a downloadable report.
func WriteCSV(w io.Writer, subs []Submission) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(csvHeader); err != nil {
		return fmt.Errorf("storage: write csv header: %w", err)
	}

	for _, s := range subs {
		record := []string{
			s.ID,
			s.Title,
			string(s.SourceType),
			s.SourceURL,
			s.Result,
			fmt.Sprintf("%.2f%%", s.Confidence),
			s.Method,
			s.CreatedAt.UTC().Format("2006-01-02 15:04:05"),
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("storage: write csv row: %w", err)
		}
	}

	writer.Flush()
	return writer.Error()
}
