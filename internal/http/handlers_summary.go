package http

import (
	"fmt"
	"net/http"
	"strings"

	"saldo/internal/aggregate"
	"saldo/internal/core"
)

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	mp, err := ParseMonthParams(r.URL.Query(), s.now())
	if err != nil {
		writeError(w, r, err)
		return
	}
	totals, err := s.deps.Summary.Totals(r.Context(), mp.Month, mp.Year)
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Body(totals).Write(w)
}

// handleTopCategories accepts ?limit=, default 5.
func (s *Server) handleTopCategories(w http.ResponseWriter, r *http.Request) {
	mp, err := ParseMonthParams(r.URL.Query(), s.now())
	if err != nil {
		writeError(w, r, err)
		return
	}
	limit, err := intParam(r.URL.Query(), "limit", aggregate.DefaultTopLimit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	top, err := s.deps.Summary.Top(r.Context(), mp.Month, mp.Year, limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if top == nil {
		top = []core.CategoryAmount{}
	}
	NewJSONResponse().Body(top).Write(w)
}

// handleTrend accepts ?window=, default 6 months.
func (s *Server) handleTrend(w http.ResponseWriter, r *http.Request) {
	mp, err := ParseMonthParams(r.URL.Query(), s.now())
	if err != nil {
		writeError(w, r, err)
		return
	}
	window, err := intParam(r.URL.Query(), "window", aggregate.DefaultTrendWindow)
	if err != nil {
		writeError(w, r, err)
		return
	}
	trend, err := s.deps.Summary.Trend(r.Context(), mp.Month, mp.Year, window)
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Body(trend).Write(w)
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	mp, err := ParseMonthParams(r.URL.Query(), s.now())
	if err != nil {
		writeError(w, r, err)
		return
	}
	d, err := s.deps.Summary.Dashboard(r.Context(), mp.Month, mp.Year)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if d.TopCategories == nil {
		d.TopCategories = []core.CategoryAmount{}
	}
	NewJSONResponse().Body(d).Write(w)
}

// handleUpcoming lists recurring transactions due within ?days= (default 30)
// of ?from= (default today).
func (s *Server) handleUpcoming(w http.ResponseWriter, r *http.Request) {
	from := core.DateOf(s.now())
	if v := strings.TrimSpace(r.URL.Query().Get("from")); v != "" {
		parsed, err := core.ParseDate(v)
		if err != nil {
			writeError(w, r, fmt.Errorf("%w: from: %v", errBadRequest, err))
			return
		}
		from = parsed
	}
	days, err := intParam(r.URL.Query(), "days", 30)
	if err != nil {
		writeError(w, r, err)
		return
	}
	upcoming, err := s.deps.Recurring.Upcoming(r.Context(), from, days)
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Body(upcoming).Write(w)
}
