package ingest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/qcmbuilder/qcm-api/models"
)

type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
)

// ParseFormat accepts a declared format name, case-insensitively.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatCSV, FormatJSON:
		return f, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
}

// FormatFromFilename detects the format from the file extension.
func FormatFromFilename(name string) (Format, error) {
	ext := strings.TrimPrefix(filepath.Ext(name), ".")
	if ext == "" {
		return "", fmt.Errorf("%w: %q has no extension", ErrUnsupportedFormat, name)
	}
	return ParseFormat(ext)
}

// Result is the outcome of one ingestion run. Metadata is set only when a JSON export
// envelope carried it.
type Result struct {
	Questions []models.Question      `json:"questions"`
	Warnings  []RowSkipped           `json:"warnings"`
	Metadata  *models.SeriesMetadata `json:"metadata,omitempty"`
}

// Pipeline converts uploaded text into questions. It does no I/O.
type Pipeline struct {
	Normalizer Normalizer
}

func NewPipeline() Pipeline {
	return Pipeline{Normalizer: NewNormalizer()}
}

// Ingest runs the default pipeline.
func Ingest(contents string, format Format) (Result, error) {
	return NewPipeline().Ingest(contents, format)
}

// Ingest parses contents in the declared format. Structural failures return an error and
// no questions; rows that fail validation are skipped and reported in Result.Warnings.
func (p Pipeline) Ingest(contents string, format Format) (Result, error) {
	var (
		res Result
		err error
	)
	switch format {
	case FormatCSV:
		res, err = p.parseCSV(contents)
	case FormatJSON:
		res, err = p.parseJSON(contents)
	default:
		return Result{}, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	if err != nil {
		return Result{}, err
	}
	for i := range res.Questions {
		res.Questions[i].Position = i
	}
	return res, nil
}

type numberedLine struct {
	n    int
	text string
}

func (p Pipeline) parseCSV(contents string) (Result, error) {
	var lines []numberedLine
	for i, l := range strings.Split(contents, "\n") {
		l = strings.TrimSuffix(l, "\r")
		if strings.TrimSpace(l) == "" {
			continue
		}
		lines = append(lines, numberedLine{n: i + 1, text: l})
	}
	if len(lines) < 2 {
		return Result{}, ErrEmptyOrInvalidFile
	}

	res := Result{Questions: []models.Question{}, Warnings: []RowSkipped{}}
	caseIDs := make(map[string]string)
	for _, l := range lines[1:] {
		q, skipped := p.Normalizer.Row(ParseLine(l.text), l.n, caseIDs)
		if skipped != nil {
			res.Warnings = append(res.Warnings, *skipped)
			continue
		}
		res.Questions = append(res.Questions, q)
	}
	return res, nil
}

// envelope is the export shape: {metadata, questions, exportedAt}.
type envelope struct {
	Metadata  *storedMetadata   `json:"metadata"`
	Questions []json.RawMessage `json:"questions"`
}

type storedMetadata struct {
	Objective string   `json:"objective"`
	Faculty   string   `json:"faculty"`
	Year      flexYear `json:"year"`
}

// flexYear accepts a year written as a number or a string.
type flexYear int

func (y *flexYear) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*y = 0
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return fmt.Errorf("year %s: %w", b, err)
	}
	*y = flexYear(n)
	return nil
}

func (p Pipeline) parseJSON(contents string) (Result, error) {
	data := bytes.TrimSpace([]byte(contents))
	if len(data) == 0 {
		return Result{}, fmt.Errorf("%w: empty input", ErrMalformedJSON)
	}

	var (
		records []json.RawMessage
		meta    *models.SeriesMetadata
	)
	switch data[0] {
	case '[':
		if err := json.Unmarshal(data, &records); err != nil {
			return Result{}, fmt.Errorf("%w: %v", ErrMalformedJSON, err)
		}
	case '{':
		var env envelope
		if err := json.Unmarshal(data, &env); err != nil {
			return Result{}, fmt.Errorf("%w: %v", ErrMalformedJSON, err)
		}
		records = env.Questions
		if env.Metadata != nil {
			meta = &models.SeriesMetadata{
				Objective: env.Metadata.Objective,
				Faculty:   env.Metadata.Faculty,
				Year:      int(env.Metadata.Year),
			}
		}
	default:
		return Result{}, fmt.Errorf("%w: expected an array or an export object", ErrMalformedJSON)
	}

	res := Result{Questions: []models.Question{}, Warnings: []RowSkipped{}, Metadata: meta}
	seen := make(map[string]bool, len(records))
	for i, raw := range records {
		line := i + 1
		var rec StoredRecord
		if err := json.Unmarshal(raw, &rec); err != nil {
			res.Warnings = append(res.Warnings, RowSkipped{Line: line, Reason: ReasonInvalidRecordShape})
			continue
		}
		q, skipped := p.Normalizer.FromStoredRecord(rec, line)
		if skipped != nil {
			res.Warnings = append(res.Warnings, *skipped)
			continue
		}
		if seen[q.ID] {
			res.Warnings = append(res.Warnings, RowSkipped{Line: line, Reason: ReasonDuplicateID})
			continue
		}
		seen[q.ID] = true
		res.Questions = append(res.Questions, q)
	}
	return res, nil
}
