package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/qcmbuilder/qcm-api/models"
)

// questionPatch lists the editable fields. Absent fields are left alone; subCourse: null
// clears the assignment.
type questionPatch struct {
	Text           *string         `json:"question"`
	Justification  *string         `json:"justification"`
	Options        []string        `json:"options"`
	CorrectAnswers *[]string       `json:"correctAnswers"`
	ToggleAnswer   *string         `json:"toggleAnswer"`
	Tags           *[]string       `json:"tags"`
	ToggleTag      *string         `json:"toggleTag"`
	SubCourse      json.RawMessage `json:"subCourse"`
}

// findQuestion returns the index of the question named in the path.
func findQuestion(r *http.Request, series models.Series) (int, error) {
	questionID := r.PathValue("questionID")
	for i, q := range series.Questions {
		if q.ID == questionID {
			return i, nil
		}
	}
	return -1, fmt.Errorf("%w: %s", errQuestionNotFound, questionID)
}

// PATCH /api/series/{seriesID}/questions/{questionID}
//
// Every field goes through the question's mutators. The first failing edit rejects the
// whole patch and nothing is saved.
func (h *DBHandler) UpdateQuestion(w http.ResponseWriter, r *http.Request) {
	user, series, err := h.loadOwnedSeries(r)
	if err != nil {
		h.fail(w, "UpdateQuestion", err, "seriesID", r.PathValue("seriesID"))
		return
	}
	idx, err := findQuestion(r, series)
	if err != nil {
		h.fail(w, "UpdateQuestion", err)
		return
	}

	var patch questionPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		h.fail(w, "UpdateQuestion", fmt.Errorf("%w: %w", errBadRequest, err))
		return
	}

	q := series.Questions[idx]
	if err := h.applyPatch(r, user.ID, &q, patch); err != nil {
		h.fail(w, "UpdateQuestion", err, "questionID", q.ID)
		return
	}
	if err := h.Store.UpdateQuestion(r.Context(), series.ID, q); err != nil {
		h.fail(w, "UpdateQuestion", err, "questionID", q.ID)
		return
	}

	h.Log.Debug("UpdateQuestion: saved question", "seriesID", series.ID, "questionID", q.ID)
	writeJSON(w, http.StatusOK, q)
}

func (h *DBHandler) applyPatch(r *http.Request, userID uint, q *models.Question, p questionPatch) error {
	if p.Text != nil {
		if err := q.SetText(*p.Text); err != nil {
			return err
		}
	}
	if p.Justification != nil {
		q.SetJustification(*p.Justification)
	}
	if p.Options != nil {
		if len(p.Options) != len(q.Options) {
			return fmt.Errorf("%w: got %d option texts for %d options", models.ErrOptionIndex, len(p.Options), len(q.Options))
		}
		for i, text := range p.Options {
			if err := q.SetOption(i, text); err != nil {
				return err
			}
		}
	}
	if p.CorrectAnswers != nil {
		if err := q.SetCorrectAnswers(*p.CorrectAnswers); err != nil {
			return err
		}
	}
	if p.ToggleAnswer != nil {
		if err := q.ToggleCorrectAnswer(*p.ToggleAnswer); err != nil {
			return err
		}
	}
	if p.Tags != nil {
		if err := q.SetTags(*p.Tags); err != nil {
			return err
		}
	}
	if p.ToggleTag != nil {
		if err := q.ToggleTag(*p.ToggleTag); err != nil {
			return err
		}
	}
	if len(p.SubCourse) > 0 {
		if bytes.Equal(p.SubCourse, []byte("null")) {
			q.SetSubCourse(nil)
			return nil
		}
		var name string
		if err := json.Unmarshal(p.SubCourse, &name); err != nil {
			return fmt.Errorf("%w: subCourse must be a string or null", errBadRequest)
		}
		if name != "" {
			ok, err := h.Store.HasSubCourse(r.Context(), userID, name)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("%w: %q", errUnknownSubCourse, name)
			}
		}
		q.SetSubCourse(&name)
	}
	return nil
}

// POST /api/series/{seriesID}/questions/{questionID}/options
func (h *DBHandler) AddOption(w http.ResponseWriter, r *http.Request) {
	_, series, err := h.loadOwnedSeries(r)
	if err != nil {
		h.fail(w, "AddOption", err, "seriesID", r.PathValue("seriesID"))
		return
	}
	idx, err := findQuestion(r, series)
	if err != nil {
		h.fail(w, "AddOption", err)
		return
	}

	q := series.Questions[idx]
	if err := q.AddOption(); err != nil {
		h.fail(w, "AddOption", err, "questionID", q.ID)
		return
	}
	if err := h.Store.UpdateQuestion(r.Context(), series.ID, q); err != nil {
		h.fail(w, "AddOption", err, "questionID", q.ID)
		return
	}
	writeJSON(w, http.StatusOK, q)
}

// DELETE /api/series/{seriesID}/questions/{questionID}/options/{index}
func (h *DBHandler) RemoveOption(w http.ResponseWriter, r *http.Request) {
	_, series, err := h.loadOwnedSeries(r)
	if err != nil {
		h.fail(w, "RemoveOption", err, "seriesID", r.PathValue("seriesID"))
		return
	}
	idx, err := findQuestion(r, series)
	if err != nil {
		h.fail(w, "RemoveOption", err)
		return
	}
	index, err := strconv.Atoi(r.PathValue("index"))
	if err != nil {
		h.fail(w, "RemoveOption", fmt.Errorf("%w: %q", models.ErrOptionIndex, r.PathValue("index")))
		return
	}

	q := series.Questions[idx]
	if err := q.RemoveOption(index); err != nil {
		h.fail(w, "RemoveOption", err, "questionID", q.ID)
		return
	}
	if err := h.Store.UpdateQuestion(r.Context(), series.ID, q); err != nil {
		h.fail(w, "RemoveOption", err, "questionID", q.ID)
		return
	}
	writeJSON(w, http.StatusOK, q)
}
