package vocab

import (
	_ "embed"
	"fmt"
	"slices"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed vocabulary.yaml
var vocabularyYAML []byte

// YearRange is an inclusive range of exam years.
type YearRange struct {
	First int `yaml:"first" json:"first"`
	Last  int `yaml:"last" json:"last"`
}

// Vocabulary holds the fixed lists a series and its questions are validated against.
type Vocabulary struct {
	Objectives []string  `yaml:"objectives" json:"objectives"`
	Faculties  []string  `yaml:"faculties" json:"faculties"`
	Years      YearRange `yaml:"years" json:"years"`
	Tags       []string  `yaml:"tags" json:"tags"`
}

var (
	defaultOnce  sync.Once
	defaultVocab *Vocabulary
)

// Default returns the embedded vocabulary. It panics if the embedded file is invalid,
// which can only happen with a broken build.
func Default() *Vocabulary {
	defaultOnce.Do(func() {
		v, err := Parse(vocabularyYAML)
		if err != nil {
			panic(fmt.Sprintf("vocab: embedded vocabulary: %v", err))
		}
		defaultVocab = v
	})
	return defaultVocab
}

// Parse decodes a vocabulary document.
func Parse(data []byte) (*Vocabulary, error) {
	var v Vocabulary
	if err := yaml.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("decode vocabulary: %w", err)
	}
	if len(v.Tags) == 0 {
		return nil, fmt.Errorf("vocabulary has no tags")
	}
	if v.Years.First > v.Years.Last {
		return nil, fmt.Errorf("invalid year range %d-%d", v.Years.First, v.Years.Last)
	}
	return &v, nil
}

func (v *Vocabulary) HasObjective(s string) bool { return slices.Contains(v.Objectives, s) }
func (v *Vocabulary) HasFaculty(s string) bool   { return slices.Contains(v.Faculties, s) }
func (v *Vocabulary) HasTag(s string) bool       { return slices.Contains(v.Tags, s) }

func (v *Vocabulary) HasYear(y int) bool {
	return y >= v.Years.First && y <= v.Years.Last
}

// YearList expands the year range, oldest first.
func (v *Vocabulary) YearList() []int {
	years := make([]int, 0, v.Years.Last-v.Years.First+1)
	for y := v.Years.First; y <= v.Years.Last; y++ {
		years = append(years, y)
	}
	return years
}
