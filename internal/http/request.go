// Package http provides the JSON API server and its handlers.
//
// This file implements helpers for reading request parameters and bodies.
package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"saldo/internal/core"
	"saldo/internal/services"
)

const maxBodyBytes = 1 << 20

// errBadRequest marks malformed requests, as opposed to well-formed requests
// carrying invalid values.
var errBadRequest = errors.New("bad request")

// MonthParams holds parsed year/month values from request parameters.
type MonthParams struct {
	Year  int
	Month int
}

// ParseMonthParams reads month and year from the query, defaulting each to
// the current one. Range checks are left to the services.
func ParseMonthParams(query url.Values, now time.Time) (MonthParams, error) {
	params := MonthParams{Year: now.Year(), Month: int(now.Month())}

	var err error
	if params.Year, err = intParam(query, "year", params.Year); err != nil {
		return MonthParams{}, err
	}
	if params.Month, err = intParam(query, "month", params.Month); err != nil {
		return MonthParams{}, err
	}
	return params, nil
}

// ParseListFilter builds a transaction filter. Without month and year every
// month is listed; a month alone means the current year.
func ParseListFilter(query url.Values, now time.Time) (services.ListFilter, error) {
	var f services.ListFilter

	if strings.TrimSpace(query.Get("month")) != "" || strings.TrimSpace(query.Get("year")) != "" {
		mp, err := ParseMonthParams(query, now)
		if err != nil {
			return f, err
		}
		f.Month, f.Year = mp.Month, mp.Year
	}

	if kind := strings.TrimSpace(query.Get("kind")); kind != "" {
		f.Kind = core.Kind(strings.ToLower(kind))
		if !f.Kind.IsValid() {
			return f, fmt.Errorf("%w: %w: %q", services.ErrInvalidInput, core.ErrInvalidKind, kind)
		}
	}

	field, order, err := core.ParseSort(query.Get("sort"), query.Get("order"))
	if err != nil {
		return f, fmt.Errorf("%w: %w", services.ErrInvalidInput, err)
	}
	f.Field, f.Order = field, order
	return f, nil
}

// intParam returns def when the parameter is absent.
func intParam(query url.Values, key string, def int) (int, error) {
	v := strings.TrimSpace(query.Get(key))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be a number", errBadRequest, key)
	}
	return n, nil
}

// decodeJSON reads a single JSON object from the body, rejecting unknown
// fields and bodies over 1 MiB.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: empty body", errBadRequest)
		}
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	if dec.More() {
		return fmt.Errorf("%w: trailing data after JSON object", errBadRequest)
	}
	return nil
}

// sanitizeInput removes control characters except tab and newlines and trims
// whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != '\t' && r != '\n' && r != '\r' {
			return -1
		}
		return r
	}, s)
}

func sanitizeTransaction(tx *core.Transaction) {
	tx.Category = sanitizeInput(tx.Category)
	tx.Description = sanitizeInput(tx.Description)
	tx.Kind = core.Kind(strings.ToLower(strings.TrimSpace(string(tx.Kind))))
	tx.Frequency = core.Frequency(strings.ToLower(strings.TrimSpace(string(tx.Frequency))))
}
