package http

import (
	"net/http"

	"saldo/internal/interpreter"
)

type interpretRequest struct {
	Text string `json:"text"`
}

type followUpRequest struct {
	Pending interpreter.Response `json:"pending"`
	Answer  string               `json:"answer"`
}

// handleInterpret runs free text through the interpreter. A complete draft is
// saved and answered with 201; a follow-up question comes back with 200.
func (s *Server) handleInterpret(w http.ResponseWriter, r *http.Request) {
	var req interpretRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	resp, err := s.deps.Transactions.SubmitText(r.Context(), sanitizeInput(req.Text))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeInterpretation(w, resp)
}

// handleFollowUp answers the question of a pending response. The client
// sends the pending response back unchanged along with the answer.
func (s *Server) handleFollowUp(w http.ResponseWriter, r *http.Request) {
	var req followUpRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	resp, err := s.deps.Transactions.ResumeText(r.Context(), req.Pending, sanitizeInput(req.Answer))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeInterpretation(w, resp)
}

func writeInterpretation(w http.ResponseWriter, resp interpreter.Response) {
	status := http.StatusOK
	switch {
	case resp.Complete():
		status = http.StatusCreated
	case resp.Error != "":
		status = http.StatusUnprocessableEntity
	}
	NewJSONResponse().Status(status).Body(resp).Write(w)
}
