package models

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"gorm.io/datatypes"

	"github.com/qcmbuilder/qcm-api/vocab"
)

// now is swapped in tests.
var now = func() time.Time { return time.Now().UTC() }

// Every mutator below either applies completely and refreshes UpdatedAt, or returns an
// error and leaves the question untouched.

func (q *Question) touch() {
	q.UpdatedAt = now()
}

func trimmed(s string) string {
	return strings.TrimSpace(s)
}

func (q *Question) SetText(text string) error {
	if trimmed(text) == "" {
		return ErrEmptyText
	}
	q.Text = text
	q.touch()
	return nil
}

func (q *Question) SetJustification(text string) {
	q.Justification = text
	q.touch()
}

func (q *Question) SetOption(i int, text string) error {
	if i < 0 || i >= len(q.Options) {
		return fmt.Errorf("%w: %d", ErrOptionIndex, i)
	}
	options := slices.Clone(q.Options)
	options[i] = text
	q.Options = options
	q.touch()
	return nil
}

// AddOption appends an empty option.
func (q *Question) AddOption() error {
	if len(q.Options) >= MaxOptions {
		return fmt.Errorf("%w: maximum %d options", ErrOptionBounds, MaxOptions)
	}
	q.Options = append(slices.Clone(q.Options), "")
	q.touch()
	return nil
}

// RemoveOption deletes the option at index i and drops Letter(i) from the correct answers.
// Remaining answer letters are not shifted; letters that no longer label an option after
// the removal are dropped as well.
func (q *Question) RemoveOption(i int) error {
	if len(q.Options) <= MinOptions {
		return fmt.Errorf("%w: minimum %d options", ErrOptionBounds, MinOptions)
	}
	if i < 0 || i >= len(q.Options) {
		return fmt.Errorf("%w: %d", ErrOptionIndex, i)
	}
	removed := Letter(i)
	q.Options = slices.Delete(slices.Clone(q.Options), i, i+1)
	answers := make(datatypes.JSONSlice[string], 0, len(q.CorrectAnswers))
	for _, a := range q.CorrectAnswers {
		if a == removed {
			continue
		}
		if idx := LetterIndex(a); idx < 0 || idx >= len(q.Options) {
			continue
		}
		answers = append(answers, a)
	}
	q.CorrectAnswers = answers
	q.touch()
	return nil
}

func (q *Question) ToggleCorrectAnswer(letter string) error {
	if idx := LetterIndex(letter); idx < 0 || idx >= len(q.Options) {
		return fmt.Errorf("%w: %q", ErrInvalidAnswer, letter)
	}
	if q.HasAnswer(letter) {
		q.CorrectAnswers = slices.DeleteFunc(slices.Clone(q.CorrectAnswers), func(a string) bool { return a == letter })
	} else {
		q.CorrectAnswers = append(slices.Clone(q.CorrectAnswers), letter)
	}
	q.touch()
	return nil
}

func (q *Question) SetCorrectAnswers(letters []string) error {
	if err := checkAnswers(letters, len(q.Options)); err != nil {
		return err
	}
	q.CorrectAnswers = datatypes.JSONSlice[string](slices.Clone(letters))
	q.touch()
	return nil
}

func (q *Question) ToggleTag(tag string) error {
	if !vocab.Default().HasTag(tag) {
		return fmt.Errorf("%w: %q", ErrUnknownTag, tag)
	}
	if slices.Contains(q.Tags, tag) {
		q.Tags = slices.DeleteFunc(slices.Clone(q.Tags), func(t string) bool { return t == tag })
	} else {
		q.Tags = append(slices.Clone(q.Tags), tag)
	}
	q.touch()
	return nil
}

func (q *Question) SetTags(tags []string) error {
	if err := checkTags(tags); err != nil {
		return err
	}
	q.Tags = datatypes.JSONSlice[string](slices.Clone(tags))
	q.touch()
	return nil
}

// SetSubCourse assigns a sub-course name; a blank or nil name clears it.
func (q *Question) SetSubCourse(name *string) {
	if name == nil || trimmed(*name) == "" {
		q.SubCourse = nil
	} else {
		n := trimmed(*name)
		q.SubCourse = &n
	}
	q.touch()
}
