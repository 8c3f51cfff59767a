package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/qcmbuilder/qcm-api/grouping"
	"github.com/qcmbuilder/qcm-api/ingest"
	"github.com/qcmbuilder/qcm-api/models"
)

type importResponse struct {
	ID            string              `json:"id"`
	QuestionCount int                 `json:"questionCount"`
	Warnings      []ingest.RowSkipped `json:"warnings"`
}

// POST /api/series/import
//
// Multipart form: file (.csv or .json), objective, faculty, year. An optional format
// field overrides the extension. When the metadata fields are absent, a JSON export
// envelope may supply them.
func (h *DBHandler) ImportSeries(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		h.fail(w, "ImportSeries", err)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.MaxUploadBytes)
	if err := r.ParseMultipartForm(h.MaxUploadBytes); err != nil {
		h.fail(w, "ImportSeries", fmt.Errorf("%w: %w", errBadRequest, err))
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		h.fail(w, "ImportSeries", fmt.Errorf("%w: missing file: %v", errBadRequest, err))
		return
	}
	defer file.Close()

	var format ingest.Format
	if declared := r.FormValue("format"); declared != "" {
		format, err = ingest.ParseFormat(declared)
	} else {
		format, err = ingest.FormatFromFilename(header.Filename)
	}
	if err != nil {
		h.fail(w, "ImportSeries", err)
		return
	}

	contents, err := io.ReadAll(file)
	if err != nil {
		h.fail(w, "ImportSeries", fmt.Errorf("%w: %w", errBadRequest, err))
		return
	}

	res, err := ingest.Ingest(string(contents), format)
	if err != nil {
		h.fail(w, "ImportSeries", err, "filename", header.Filename)
		return
	}

	meta, err := metadataFromForm(r, res.Metadata)
	if err != nil {
		h.fail(w, "ImportSeries", err)
		return
	}
	if err := meta.Validate(); err != nil {
		h.fail(w, "ImportSeries", err)
		return
	}

	id, err := h.Store.Save(r.Context(), user.ID, "", meta, res.Questions)
	if err != nil {
		h.fail(w, "ImportSeries", err, "userID", user.ID)
		return
	}
	h.registerSubCourses(r, user.ID, res.Questions)

	h.Log.Info("ImportSeries: created series",
		"seriesID", id, "userID", user.ID, "questions", len(res.Questions), "skipped", len(res.Warnings))
	writeJSON(w, http.StatusCreated, importResponse{ID: id, QuestionCount: len(res.Questions), Warnings: res.Warnings})
}

// metadataFromForm reads objective, faculty and year from the form, falling back to the
// envelope metadata only when none of the three fields is present.
func metadataFromForm(r *http.Request, fromFile *models.SeriesMetadata) (models.SeriesMetadata, error) {
	objective := strings.TrimSpace(r.FormValue("objective"))
	faculty := strings.TrimSpace(r.FormValue("faculty"))
	year := strings.TrimSpace(r.FormValue("year"))
	if objective == "" && faculty == "" && year == "" && fromFile != nil {
		return *fromFile, nil
	}
	y, err := strconv.Atoi(year)
	if err != nil {
		return models.SeriesMetadata{}, fmt.Errorf("%w: year %q", models.ErrInvalidMetadata, year)
	}
	return models.SeriesMetadata{Objective: objective, Faculty: faculty, Year: y}, nil
}

// registerSubCourses adds sub-course names carried by imported questions to the user's list.
func (h *DBHandler) registerSubCourses(r *http.Request, userID uint, questions []models.Question) {
	seen := make(map[string]bool)
	for _, q := range questions {
		if q.SubCourse == nil || seen[*q.SubCourse] {
			continue
		}
		seen[*q.SubCourse] = true
		if _, err := h.Store.AddSubCourse(r.Context(), userID, *q.SubCourse); err != nil {
			h.Log.Warn("ImportSeries: failed to register sub-course", "name", *q.SubCourse, "error", err)
		}
	}
}

// GET /api/series
func (h *DBHandler) ListSeries(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		h.fail(w, "ListSeries", err)
		return
	}
	list, err := h.Store.List(r.Context(), user.ID)
	if err != nil {
		h.fail(w, "ListSeries", err, "userID", user.ID)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// GET /api/series/{seriesID}
func (h *DBHandler) GetSeriesByID(w http.ResponseWriter, r *http.Request) {
	_, series, err := h.loadOwnedSeries(r)
	if err != nil {
		h.fail(w, "GetSeriesByID", err, "seriesID", r.PathValue("seriesID"))
		return
	}
	writeJSON(w, http.StatusOK, series)
}

// PUT /api/series/{seriesID}/metadata
func (h *DBHandler) UpdateSeriesMetadata(w http.ResponseWriter, r *http.Request) {
	seriesID := r.PathValue("seriesID")
	if _, _, err := h.loadOwnedSeries(r); err != nil {
		h.fail(w, "UpdateSeriesMetadata", err, "seriesID", seriesID)
		return
	}

	var meta models.SeriesMetadata
	if err := json.NewDecoder(r.Body).Decode(&meta); err != nil {
		h.fail(w, "UpdateSeriesMetadata", fmt.Errorf("%w: %w", errBadRequest, err))
		return
	}
	if err := meta.Validate(); err != nil {
		h.fail(w, "UpdateSeriesMetadata", err)
		return
	}
	if err := h.Store.UpdateMetadata(r.Context(), seriesID, meta); err != nil {
		h.fail(w, "UpdateSeriesMetadata", err, "seriesID", seriesID)
		return
	}

	h.Log.Info("UpdateSeriesMetadata: updated series", "seriesID", seriesID)
	writeJSON(w, http.StatusOK, meta)
}

// DELETE /api/series/{seriesID}
func (h *DBHandler) DeleteSeriesByID(w http.ResponseWriter, r *http.Request) {
	seriesID := r.PathValue("seriesID")
	if _, _, err := h.loadOwnedSeries(r); err != nil {
		h.fail(w, "DeleteSeriesByID", err, "seriesID", seriesID)
		return
	}
	if err := h.Store.Delete(r.Context(), seriesID); err != nil {
		h.fail(w, "DeleteSeriesByID", err, "seriesID", seriesID)
		return
	}

	h.Log.Info("DeleteSeriesByID: deleted series", "seriesID", seriesID)
	w.WriteHeader(http.StatusNoContent)
}

type groupsResponse struct {
	Groups   []grouping.Group   `json:"groups"`
	Summary  grouping.Summary   `json:"summary"`
	Position *grouping.Position `json:"position,omitempty"`
}

// GET /api/series/{seriesID}/groups[?question=ID]
func (h *DBHandler) GetSeriesGroups(w http.ResponseWriter, r *http.Request) {
	_, series, err := h.loadOwnedSeries(r)
	if err != nil {
		h.fail(w, "GetSeriesGroups", err, "seriesID", r.PathValue("seriesID"))
		return
	}

	groups := grouping.Build(series.Questions)
	resp := groupsResponse{Groups: groups, Summary: grouping.Summarize(series.Questions, groups)}
	if questionID := r.URL.Query().Get("question"); questionID != "" {
		pos, ok := grouping.Locate(groups, questionID)
		if !ok {
			h.fail(w, "GetSeriesGroups", errQuestionNotFound, "questionID", questionID)
			return
		}
		resp.Position = &pos
	}
	writeJSON(w, http.StatusOK, resp)
}

// GET /api/series/{seriesID}/export
func (h *DBHandler) ExportSeries(w http.ResponseWriter, r *http.Request) {
	_, series, err := h.loadOwnedSeries(r)
	if err != nil {
		h.fail(w, "ExportSeries", err, "seriesID", r.PathValue("seriesID"))
		return
	}

	at := h.Now()
	filename := fmt.Sprintf("qcm-export-%d.json", at.UnixMilli())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	writeJSON(w, http.StatusOK, ingest.Export(series.SeriesMetadata, series.Questions, at))
}
