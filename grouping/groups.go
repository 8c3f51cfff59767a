// Package grouping derives the display groups of a series: singleton questions and
// clinical cases. Groups are never stored; they are rebuilt from the ordered questions.
package grouping

import "github.com/qcmbuilder/qcm-api/models"

type Kind string

const (
	KindSimple Kind = "simple"
	KindCase   Kind = "case"
)

// Group is either one standalone question or every question sharing a case id.
type Group struct {
	ID      string            `json:"id"`
	Kind    Kind              `json:"kind"`
	Members []models.Question `json:"members"`
}

// Complete reports whether every member has at least one correct answer.
func (g Group) Complete() bool {
	for _, q := range g.Members {
		if !q.Answered() {
			return false
		}
	}
	return true
}

// Build groups questions in a single pass. A case group takes the position of its first
// member and gathers all members from the whole collection in their original order.
// The same input always yields the same groups.
func Build(questions []models.Question) []Group {
	byCase := make(map[string][]models.Question)
	for _, q := range questions {
		if q.CaseID != nil {
			byCase[*q.CaseID] = append(byCase[*q.CaseID], q)
		}
	}

	groups := make([]Group, 0, len(questions))
	emitted := make(map[string]bool, len(byCase))
	for _, q := range questions {
		if q.CaseID == nil {
			groups = append(groups, Group{ID: q.ID, Kind: KindSimple, Members: []models.Question{q}})
			continue
		}
		caseID := *q.CaseID
		if emitted[caseID] {
			continue
		}
		emitted[caseID] = true
		groups = append(groups, Group{ID: caseID, Kind: KindCase, Members: byCase[caseID]})
	}
	return groups
}

// Position locates a question inside the grouped view.
type Position struct {
	Group       int `json:"group"`
	Member      int `json:"member"`
	MemberCount int `json:"memberCount"`
}

// Locate finds the group holding questionID, e.g. to show "question 2 of 3" in a case.
func Locate(groups []Group, questionID string) (Position, bool) {
	for gi, g := range groups {
		for mi, q := range g.Members {
			if q.ID == questionID {
				return Position{Group: gi, Member: mi, MemberCount: len(g.Members)}, true
			}
		}
	}
	return Position{}, false
}

type Summary struct {
	Questions         int `json:"questions"`
	Groups            int `json:"groups"`
	CaseGroups        int `json:"caseGroups"`
	AnsweredQuestions int `json:"answeredQuestions"`
	CompleteGroups    int `json:"completeGroups"`
}

func Summarize(questions []models.Question, groups []Group) Summary {
	s := Summary{Questions: len(questions), Groups: len(groups)}
	for _, q := range questions {
		if q.Answered() {
			s.AnsweredQuestions++
		}
	}
	for _, g := range groups {
		if g.Kind == KindCase {
			s.CaseGroups++
		}
		if g.Complete() {
			s.CompleteGroups++
		}
	}
	return s
}
