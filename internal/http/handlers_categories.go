package http

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"saldo/internal/core"
	"saldo/internal/services"
)

// handleListCategories lists every category, or those of ?kind=.
func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	var (
		cats []core.Category
		err  error
	)
	if kind := core.Kind(strings.ToLower(strings.TrimSpace(r.URL.Query().Get("kind")))); kind != "" {
		if !kind.IsValid() {
			writeError(w, r, fmt.Errorf("%w: %w: %q", services.ErrInvalidInput, core.ErrInvalidKind, kind))
			return
		}
		cats, err = s.deps.Categories.ListByKind(r.Context(), kind)
	} else {
		cats, err = s.deps.Categories.List(r.Context())
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Body(cats).Write(w)
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	c, ok := s.decodeCategory(w, r)
	if !ok {
		return
	}
	created, err := s.deps.Categories.Create(r.Context(), c)
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Status(http.StatusCreated).Body(created).Write(w)
}

func (s *Server) handleUpdateCategory(w http.ResponseWriter, r *http.Request) {
	c, ok := s.decodeCategory(w, r)
	if !ok {
		return
	}
	c.ID = chi.URLParam(r, "id")
	updated, err := s.deps.Categories.Update(r.Context(), c)
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Body(updated).Write(w)
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Categories.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Status(http.StatusNoContent).Write(w)
}

func (s *Server) decodeCategory(w http.ResponseWriter, r *http.Request) (core.Category, bool) {
	var c core.Category
	if err := decodeJSON(w, r, &c); err != nil {
		writeError(w, r, err)
		return c, false
	}
	c.Name = sanitizeInput(c.Name)
	c.Color = sanitizeInput(c.Color)
	c.Kind = core.Kind(strings.ToLower(strings.TrimSpace(string(c.Kind))))
	return c, true
}
