// Package staging loads the raw source files into the warehouse's staging
// tables: the scraped Aviation Safety Network JSON, the NTSB CAROL case
// export, and the historical accidents CSV. Payloads are staged verbatim as
// JSON documents; all interpretation happens downstream.
package staging

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/couchcryptid/accident-data-warehouse/internal/domain"
)

// Writer stages raw records with insert-if-absent semantics.
type Writer interface {
	InsertRaw(ctx context.Context, source domain.Source, records []domain.RawRecord) (int, error)
}

// Loader reads source files and stages their records.
type Loader struct {
	writer Writer
	logger *slog.Logger
}

// NewLoader creates a Loader.
func NewLoader(writer Writer, logger *slog.Logger) *Loader {
	return &Loader{writer: writer, logger: logger}
}

// LoadFile stages one source file, dispatching on the source's file format.
// Returns the number of newly staged records.
func (l *Loader) LoadFile(ctx context.Context, source domain.Source, path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open %s file: %w", source, err)
	}
	defer f.Close()

	var records []domain.RawRecord
	switch source {
	case domain.SourceASN:
		records, err = ReadASN(f)
	case domain.SourceNTSB:
		records, err = ReadNTSB(f)
	case domain.SourceCSV:
		records, err = ReadCSV(f)
	default:
		return 0, fmt.Errorf("no file format for source %q", source)
	}
	if err != nil {
		return 0, fmt.Errorf("read %s file %s: %w", source, path, err)
	}

	n, err := l.writer.InsertRaw(ctx, source, records)
	if err != nil {
		return 0, err
	}
	l.logger.Info("source file staged", "source", source, "path", path, "records", len(records), "new", n)
	return n, nil
}

// ReadASN parses the scraped Aviation Safety Network export. The file wraps
// its records in an "accidents" array; each record is keyed by the wikibase
// id from its URL.
func ReadASN(r io.Reader) ([]domain.RawRecord, error) {
	var doc struct {
		Accidents []json.RawMessage `json:"accidents"`
	}
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, err
	}

	records := make([]domain.RawRecord, 0, len(doc.Accidents))
	for i, payload := range doc.Accidents {
		var fields struct {
			URL string `json:"url"`
		}
		if err := json.Unmarshal(payload, &fields); err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		records = append(records, domain.RawRecord{
			Source:   domain.SourceASN,
			UniqueID: domain.WikibaseID(fields.URL),
			Payload:  payload,
		})
	}
	return records, nil
}

// ReadNTSB parses the CAROL case export, a top-level JSON array keyed by
// cm_ntsbNum. Cases without a number are staged anyway and rejected later by
// the mapper, so the gap is visible in the run audit rather than silent.
func ReadNTSB(r io.Reader) ([]domain.RawRecord, error) {
	var cases []json.RawMessage
	if err := json.NewDecoder(r).Decode(&cases); err != nil {
		return nil, err
	}

	records := make([]domain.RawRecord, 0, len(cases))
	for i, payload := range cases {
		var fields struct {
			NTSBNum string `json:"cm_ntsbNum"`
		}
		if err := json.Unmarshal(payload, &fields); err != nil {
			return nil, fmt.Errorf("case %d: %w", i, err)
		}
		records = append(records, domain.RawRecord{
			Source:   domain.SourceNTSB,
			UniqueID: strings.TrimSpace(fields.NTSBNum),
			Payload:  payload,
		})
	}
	return records, nil
}

// ReadCSV parses the historical accidents CSV. Each row becomes a JSON
// object keyed by the original column headers, keeping the staging payload
// shape uniform across sources. Rows are keyed by the index column.
func ReadCSV(r io.Reader) ([]domain.RawRecord, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	var records []domain.RawRecord
	for line := 2; ; line++ {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		doc := make(map[string]string, len(header))
		for i, col := range header {
			if i < len(row) {
				doc[col] = row[i]
			} else {
				doc[col] = ""
			}
		}

		payload, err := json.Marshal(doc)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		records = append(records, domain.RawRecord{
			Source:   domain.SourceCSV,
			UniqueID: strings.TrimSpace(doc["index"]),
			Payload:  payload,
		})
	}
	return records, nil
}
