package handlers

import (
	"net/http"

	"github.com/qcmbuilder/qcm-api/vocab"
)

func (h *DBHandler) Healthy(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GET /api/vocabulary
func (h *DBHandler) GetVocabulary(w http.ResponseWriter, r *http.Request) {
	v := vocab.Default()
	writeJSON(w, http.StatusOK, map[string]any{
		"objectives": v.Objectives,
		"faculties":  v.Faculties,
		"years":      v.YearList(),
		"tags":       v.Tags,
	})
}
