package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// GET /api/subcourses
func (h *DBHandler) ListSubCourses(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		h.fail(w, "ListSubCourses", err)
		return
	}
	list, err := h.Store.ListSubCourses(r.Context(), user.ID)
	if err != nil {
		h.fail(w, "ListSubCourses", err, "userID", user.ID)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// POST /api/subcourses {"name": "..."}
func (h *DBHandler) AddSubCourse(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		h.fail(w, "AddSubCourse", err)
		return
	}
	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.fail(w, "AddSubCourse", fmt.Errorf("%w: %w", errBadRequest, err))
		return
	}
	sc, err := h.Store.AddSubCourse(r.Context(), user.ID, req.Name)
	if err != nil {
		h.fail(w, "AddSubCourse", err, "userID", user.ID)
		return
	}
	writeJSON(w, http.StatusCreated, sc)
}

// DELETE /api/subcourses/{name}
//
// Questions that reference the name keep it.
func (h *DBHandler) DeleteSubCourse(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		h.fail(w, "DeleteSubCourse", err)
		return
	}
	name := r.PathValue("name")
	if err := h.Store.DeleteSubCourse(r.Context(), user.ID, name); err != nil {
		h.fail(w, "DeleteSubCourse", err, "userID", user.ID, "name", name)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
