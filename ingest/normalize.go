package ingest

import (
	"errors"
	"strings"
	"time"

	"gorm.io/datatypes"

	"github.com/qcmbuilder/qcm-api/models"
)

// Normalizer turns parsed rows and stored records into questions.
type Normalizer struct {
	IDs IDGenerator
	Now func() time.Time
}

// NewNormalizer returns a Normalizer using the default id generator and the UTC clock.
func NewNormalizer() Normalizer {
	return Normalizer{
		IDs: NewIDGenerator(),
		Now: func() time.Time { return time.Now().UTC() },
	}
}

// NormalizeRow uses a default Normalizer.
func NormalizeRow(fields []string, line int, caseIDs map[string]string) (models.Question, *RowSkipped) {
	return NewNormalizer().Row(fields, line, caseIDs)
}

// SplitOptions splits a propositions field on ';' or '|', trimming pieces and dropping
// empty ones.
func SplitOptions(s string) []string {
	pieces := strings.FieldsFunc(s, func(r rune) bool { return r == ';' || r == '|' })
	options := make([]string, 0, len(pieces))
	for _, p := range pieces {
		if p = strings.TrimSpace(p); p != "" {
			options = append(options, p)
		}
	}
	return options
}

// Row builds a question from one CSV row: question text, propositions and an optional raw
// case token. Rows sharing a token receive the same generated case id through caseIDs,
// which the caller owns for the duration of one ingestion run.
func (n Normalizer) Row(fields []string, line int, caseIDs map[string]string) (models.Question, *RowSkipped) {
	if len(fields) < 2 {
		return models.Question{}, &RowSkipped{Line: line, Reason: ReasonMissingOptions}
	}
	text := strings.TrimSpace(fields[0])
	if text == "" {
		return models.Question{}, &RowSkipped{Line: line, Reason: ReasonEmptyText}
	}
	options := SplitOptions(fields[1])
	if len(options) < models.MinOptions {
		return models.Question{}, &RowSkipped{Line: line, Reason: ReasonTooFewOptions}
	}
	if len(options) > models.MaxOptions {
		return models.Question{}, &RowSkipped{Line: line, Reason: ReasonTooManyOptions}
	}

	var caseID *string
	if len(fields) > 2 {
		if token := strings.TrimSpace(fields[2]); token != "" {
			id, ok := caseIDs[token]
			if !ok {
				id = n.IDs.Generate(PrefixCase)
				caseIDs[token] = id
			}
			caseID = &id
		}
	}

	ts := n.Now()
	return models.Question{
		ID:             n.IDs.Generate(PrefixQuestion),
		Text:           text,
		Options:        datatypes.JSONSlice[string](options),
		CorrectAnswers: datatypes.JSONSlice[string]{},
		Tags:           datatypes.JSONSlice[string]{},
		CaseID:         caseID,
		CreatedAt:      ts,
		UpdatedAt:      ts,
	}, nil
}

// StoredRecord is a question as found in JSON files. Both the camelCase names of the
// export format and the snake_case column names of the hosted store are accepted.
type StoredRecord struct {
	ID                   string   `json:"id"`
	Question             string   `json:"question"`
	Options              []string `json:"options"`
	CorrectAnswers       []string `json:"correctAnswers"`
	CorrectAnswersSnake  []string `json:"correct_answers"`
	Justification        string   `json:"justification"`
	AIJustification      string   `json:"aiJustification"`
	AIJustificationSnake string   `json:"ai_justification"`
	Tags                 []string `json:"tags"`
	SubCourse            *string  `json:"subCourse"`
	SubCourseSnake       *string  `json:"sub_course"`
	ClinicalCaseID       *string  `json:"clinicalCaseId"`
	ClinicalCaseIDSnake  *string  `json:"clinical_case_id"`
	CreatedAt            string   `json:"createdAt"`
	CreatedAtSnake       string   `json:"created_at"`
	UpdatedAt            string   `json:"updatedAt"`
	UpdatedAtSnake       string   `json:"updated_at"`
}

// FromStoredRecord maps a stored record onto a question and validates it. The record is
// rejected when it breaks any question invariant.
func (n Normalizer) FromStoredRecord(rec StoredRecord, line int) (models.Question, *RowSkipped) {
	q := models.Question{
		ID:             strings.TrimSpace(rec.ID),
		Text:           strings.TrimSpace(rec.Question),
		Options:        datatypes.JSONSlice[string](nonNil(rec.Options)),
		CorrectAnswers: datatypes.JSONSlice[string](nonNil(firstSlice(rec.CorrectAnswers, rec.CorrectAnswersSnake))),
		Justification:  firstString(rec.Justification, rec.AIJustification, rec.AIJustificationSnake),
		Tags:           datatypes.JSONSlice[string](nonNil(rec.Tags)),
		SubCourse:      optional(firstPtr(rec.SubCourse, rec.SubCourseSnake)),
		CaseID:         optional(firstPtr(rec.ClinicalCaseID, rec.ClinicalCaseIDSnake)),
	}
	if q.ID == "" {
		q.ID = n.IDs.Generate(PrefixQuestion)
	}

	ts := n.Now()
	q.CreatedAt = parseTime(firstString(rec.CreatedAt, rec.CreatedAtSnake), ts)
	q.UpdatedAt = parseTime(firstString(rec.UpdatedAt, rec.UpdatedAtSnake), ts)

	if err := q.Validate(); err != nil {
		return models.Question{}, &RowSkipped{Line: line, Reason: reasonFor(err, len(q.Options))}
	}
	return q, nil
}

func reasonFor(err error, optionCount int) string {
	switch {
	case errors.Is(err, models.ErrEmptyText):
		return ReasonEmptyText
	case errors.Is(err, models.ErrOptionBounds) && optionCount > models.MaxOptions:
		return ReasonTooManyOptions
	case errors.Is(err, models.ErrOptionBounds):
		return ReasonTooFewOptions
	case errors.Is(err, models.ErrInvalidAnswer):
		return ReasonInvalidAnswer
	case errors.Is(err, models.ErrUnknownTag):
		return ReasonUnknownTag
	}
	return err.Error()
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func firstSlice(candidates ...[]string) []string {
	for _, c := range candidates {
		if c != nil {
			return c
		}
	}
	return nil
}

func firstString(candidates ...string) string {
	for _, c := range candidates {
		if c != "" {
			return c
		}
	}
	return ""
}

func firstPtr(candidates ...*string) *string {
	for _, c := range candidates {
		if c != nil {
			return c
		}
	}
	return nil
}

// optional trims s and maps blank to nil.
func optional(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

func parseTime(s string, fallback time.Time) time.Time {
	if s == "" {
		return fallback
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return fallback
	}
	return t.UTC()
}
