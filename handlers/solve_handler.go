package handlers

import (
	"net/http"

	"github.com/ohyeah2389/Pointgram/workers"
)

type SolveHandler struct {
	Runner *workers.SolveRunner
}

// StartSolve queues a reconstruction run. Returns 202 immediately; progress
// arrives over the websocket and the status endpoint.
func (sh *SolveHandler) StartSolve(w http.ResponseWriter, r *http.Request) {
	if err := sh.Runner.Start(); err != nil {
		RespondDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, sh.Runner.Status())
}

// CancelSolve aborts the in-flight run. The project is left exactly as it
// was before the run started.
func (sh *SolveHandler) CancelSolve(w http.ResponseWriter, r *http.Request) {
	if !sh.Runner.Cancel() {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "No solve in progress"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "cancelling"})
}

// SolveStatus reports whether a run is active and how the last one ended.
func (sh *SolveHandler) SolveStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, sh.Runner.Status())
}
