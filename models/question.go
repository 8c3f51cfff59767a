package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/datatypes"

	"github.com/qcmbuilder/qcm-api/vocab"
)

// Kind is derived from the presence of a clinical case id, never stored.
type Kind string

const (
	KindSimple       Kind = "QCM"
	KindClinicalCase Kind = "Cas clinique"
)

const (
	MinOptions = 2
	MaxOptions = 10
)

var (
	ErrOptionBounds  = errors.New("option count out of bounds")
	ErrOptionIndex   = errors.New("option index out of range")
	ErrInvalidAnswer = errors.New("answer letter does not match an option")
	ErrUnknownTag    = errors.New("unknown tag")
	ErrEmptyText     = errors.New("question text is empty")
)

// Question is one multiple-choice question, standalone or part of a clinical case. Ids are
// unique within a series, so the same export can be imported more than once.
type Question struct {
	ID             string                      `gorm:"primaryKey;size:64" json:"id"`
	SeriesID       string                      `gorm:"primaryKey;size:64" json:"-"`
	Position       int                         `gorm:"not null;default:0" json:"-"`
	Text           string                      `gorm:"not null" json:"question"`
	Options        datatypes.JSONSlice[string] `json:"options"`
	CorrectAnswers datatypes.JSONSlice[string] `json:"correctAnswers"`
	Justification  string                      `json:"justification"`
	Tags           datatypes.JSONSlice[string] `json:"tags"`
	SubCourse      *string                     `gorm:"size:200" json:"subCourse"`
	CaseID         *string                     `gorm:"size:64;index" json:"clinicalCaseId"`
	CreatedAt      time.Time                   `json:"createdAt"`
	UpdatedAt      time.Time                   `gorm:"autoUpdateTime:false" json:"updatedAt"`
}

func (q Question) Kind() Kind {
	if q.CaseID != nil {
		return KindClinicalCase
	}
	return KindSimple
}

// MarshalJSON adds the derived "type" field.
func (q Question) MarshalJSON() ([]byte, error) {
	type plain Question
	return json.Marshal(struct {
		plain
		Type Kind `json:"type"`
	}{plain: plain(q), Type: q.Kind()})
}

// Letter is the label of the option at index i: A, B, C, ...
func Letter(i int) string {
	return string(rune('A' + i))
}

// LetterIndex is the inverse of Letter. It returns -1 for anything that is not a single
// upper-case letter.
func LetterIndex(letter string) int {
	if len(letter) != 1 || letter[0] < 'A' || letter[0] > 'Z' {
		return -1
	}
	return int(letter[0] - 'A')
}

// Letters returns the labels of the current options.
func (q Question) Letters() []string {
	letters := make([]string, len(q.Options))
	for i := range q.Options {
		letters[i] = Letter(i)
	}
	return letters
}

func (q Question) HasAnswer(letter string) bool {
	for _, a := range q.CorrectAnswers {
		if a == letter {
			return true
		}
	}
	return false
}

// Answered reports whether at least one correct answer is set.
func (q Question) Answered() bool {
	return len(q.CorrectAnswers) > 0
}

// Validate checks every invariant a stored question must hold.
func (q Question) Validate() error {
	if q.ID == "" {
		return fmt.Errorf("question has no id")
	}
	if trimmed(q.Text) == "" {
		return ErrEmptyText
	}
	if n := len(q.Options); n < MinOptions || n > MaxOptions {
		return fmt.Errorf("%w: %d options", ErrOptionBounds, n)
	}
	if err := checkAnswers(q.CorrectAnswers, len(q.Options)); err != nil {
		return err
	}
	return checkTags(q.Tags)
}

func checkAnswers(letters []string, optionCount int) error {
	seen := make(map[string]bool, len(letters))
	for _, l := range letters {
		i := LetterIndex(l)
		if i < 0 || i >= optionCount {
			return fmt.Errorf("%w: %q", ErrInvalidAnswer, l)
		}
		if seen[l] {
			return fmt.Errorf("%w: %q listed twice", ErrInvalidAnswer, l)
		}
		seen[l] = true
	}
	return nil
}

func checkTags(tags []string) error {
	v := vocab.Default()
	seen := make(map[string]bool, len(tags))
	for _, t := range tags {
		if !v.HasTag(t) {
			return fmt.Errorf("%w: %q", ErrUnknownTag, t)
		}
		if seen[t] {
			return fmt.Errorf("%w: %q listed twice", ErrUnknownTag, t)
		}
		seen[t] = true
	}
	return nil
}
