package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/qcmbuilder/qcm-api/ingest"
	"github.com/qcmbuilder/qcm-api/logger"
	"github.com/qcmbuilder/qcm-api/models"
	"github.com/qcmbuilder/qcm-api/store"
	"github.com/qcmbuilder/qcm-api/utils"
)

const defaultMaxUploadBytes = 5 << 20

type DBHandler struct {
	Store          store.Store
	Log            *logger.Logger
	MaxUploadBytes int64
	Now            func() time.Time
}

func New(s store.Store, log *logger.Logger, maxUploadBytes int64) *DBHandler {
	if maxUploadBytes <= 0 {
		maxUploadBytes = defaultMaxUploadBytes
	}
	return &DBHandler{Store: s, Log: log, MaxUploadBytes: maxUploadBytes, Now: time.Now}
}

// NewRouter registers every route. protect wraps the routes that need an authenticated,
// synced user.
func NewRouter(h *DBHandler, protect func(http.HandlerFunc) http.Handler) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/healthy", h.Healthy)
	mux.HandleFunc("GET /api/vocabulary", h.GetVocabulary)

	// Series
	mux.Handle("POST /api/series/import", protect(h.ImportSeries))
	mux.Handle("GET /api/series", protect(h.ListSeries))
	mux.Handle("GET /api/series/{seriesID}", protect(h.GetSeriesByID))
	mux.Handle("PUT /api/series/{seriesID}/metadata", protect(h.UpdateSeriesMetadata))
	mux.Handle("DELETE /api/series/{seriesID}", protect(h.DeleteSeriesByID))
	mux.Handle("GET /api/series/{seriesID}/groups", protect(h.GetSeriesGroups))
	mux.Handle("GET /api/series/{seriesID}/export", protect(h.ExportSeries))

	// Questions
	mux.Handle("PATCH /api/series/{seriesID}/questions/{questionID}", protect(h.UpdateQuestion))
	mux.Handle("POST /api/series/{seriesID}/questions/{questionID}/options", protect(h.AddOption))
	mux.Handle("DELETE /api/series/{seriesID}/questions/{questionID}/options/{index}", protect(h.RemoveOption))

	// Sub-courses
	mux.Handle("GET /api/subcourses", protect(h.ListSubCourses))
	mux.Handle("POST /api/subcourses", protect(h.AddSubCourse))
	mux.Handle("DELETE /api/subcourses/{name}", protect(h.DeleteSubCourse))

	return mux
}

var (
	errForbidden        = errors.New("forbidden")
	errUnauthorized     = errors.New("unauthorized")
	errBadRequest       = errors.New("invalid request")
	errUnknownSubCourse = errors.New("unknown sub-course")
	errQuestionNotFound = errors.New("question not found")
)

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, errUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, errForbidden):
		return http.StatusForbidden
	case errors.Is(err, store.ErrNotFound), errors.Is(err, errQuestionNotFound):
		return http.StatusNotFound
	case errors.Is(err, ingest.ErrEmptyOrInvalidFile),
		errors.Is(err, ingest.ErrMalformedJSON),
		errors.Is(err, ingest.ErrUnsupportedFormat),
		errors.Is(err, models.ErrOptionBounds),
		errors.Is(err, models.ErrOptionIndex),
		errors.Is(err, models.ErrInvalidAnswer),
		errors.Is(err, models.ErrUnknownTag),
		errors.Is(err, models.ErrEmptyText),
		errors.Is(err, models.ErrInvalidMetadata),
		errors.Is(err, store.ErrEmptyName),
		errors.Is(err, errUnknownSubCourse),
		errors.Is(err, errBadRequest):
		return http.StatusBadRequest
	}
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return http.StatusRequestEntityTooLarge
	}
	return http.StatusInternalServerError
}

// fail logs err under the handler name and writes it as {"error": "..."}. Internal
// failures are not echoed to the client.
func (h *DBHandler) fail(w http.ResponseWriter, handler string, err error, kv ...any) {
	status := statusFor(err)
	kv = append(kv, "status", status, "error", err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		h.Log.Error(handler+": request failed", kv...)
		msg = "Internal server error"
	} else {
		h.Log.Warn(handler+": request rejected", kv...)
	}
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func currentUser(r *http.Request) (*models.User, error) {
	user, ok := utils.CurrentUser(r)
	if !ok {
		return nil, errUnauthorized
	}
	return user, nil
}

// loadOwnedSeries loads the series named in the path and checks it belongs to the caller.
func (h *DBHandler) loadOwnedSeries(r *http.Request) (*models.User, models.Series, error) {
	user, err := currentUser(r)
	if err != nil {
		return nil, models.Series{}, err
	}
	series, err := h.Store.Load(r.Context(), r.PathValue("seriesID"))
	if err != nil {
		return nil, models.Series{}, err
	}
	if series.UserID != user.ID {
		return nil, models.Series{}, errForbidden
	}
	return user, series, nil
}
