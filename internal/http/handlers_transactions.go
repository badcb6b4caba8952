package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"saldo/internal/core"
)

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	filter, err := ParseListFilter(r.URL.Query(), s.now())
	if err != nil {
		writeError(w, r, err)
		return
	}
	txs, err := s.deps.Transactions.List(r.Context(), filter)
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Body(txs).Write(w)
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	tx, err := s.deps.Transactions.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Body(tx).Write(w)
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var tx core.Transaction
	if err := decodeJSON(w, r, &tx); err != nil {
		writeError(w, r, err)
		return
	}
	sanitizeTransaction(&tx)

	created, err := s.deps.Transactions.Create(r.Context(), tx)
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().
		Status(http.StatusCreated).
		Header("Location", "/api/transactions/"+created.ID).
		Body(created).
		Write(w)
}

// handleUpdateTransaction replaces the whole record; the id in the path wins
// over any id in the body.
func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	var tx core.Transaction
	if err := decodeJSON(w, r, &tx); err != nil {
		writeError(w, r, err)
		return
	}
	sanitizeTransaction(&tx)
	tx.ID = chi.URLParam(r, "id")

	updated, err := s.deps.Transactions.Update(r.Context(), tx)
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Body(updated).Write(w)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Transactions.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Status(http.StatusNoContent).Write(w)
}
