package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/ohyeah2389/Pointgram/export"
	"github.com/ohyeah2389/Pointgram/project"
	"github.com/ohyeah2389/Pointgram/projectfile"
	"github.com/ohyeah2389/Pointgram/solve"
)

// APIErrorDetail represents a single error in the standardized error response.
type APIErrorDetail struct {
	Code   string `json:"code"`
	Status string `json:"status"`
	Detail string `json:"detail"`
}

// APIErrorResponse represents the standardized error response body.
type APIErrorResponse struct {
	Errors []APIErrorDetail `json:"errors"`
}

// WriteAPIError writes a standardized error response with the given HTTP status, code, and detail.
func WriteAPIError(w http.ResponseWriter, httpStatus int, code string, detail string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(httpStatus)

	resp := APIErrorResponse{
		Errors: []APIErrorDetail{
			{
				Code:   code,
				Status: strconv.Itoa(httpStatus),
				Detail: detail,
			},
		},
	}

	_ = json.NewEncoder(w).Encode(resp)
}

// RespondDomainError maps the domain error taxonomy onto HTTP statuses.
// Anything unrecognized is a 500.
func RespondDomainError(w http.ResponseWriter, err error) {
	var validationErr *project.ValidationError
	var conflictErr *project.ConflictError
	var parseErr *projectfile.ParseError
	var versionErr *projectfile.UnsupportedVersionError
	var insufficientErr *solve.InsufficientDataError
	var solveFailedErr *solve.SolveFailedError

	switch {
	case errors.As(err, &validationErr):
		WriteAPIError(w, http.StatusUnprocessableEntity, validationErr.Invariant, validationErr.Detail)
	case errors.As(err, &conflictErr):
		writeMergeConflict(w, conflictErr)
	case errors.As(err, &parseErr):
		WriteAPIError(w, http.StatusBadRequest, "parse_error", parseErr.Error())
	case errors.As(err, &versionErr):
		WriteAPIError(w, http.StatusBadRequest, "unsupported_version", versionErr.Error())
	case errors.As(err, &insufficientErr):
		WriteAPIError(w, http.StatusPreconditionFailed, "insufficient_data", insufficientErr.Error())
	case errors.Is(err, export.NothingToExportError):
		WriteAPIError(w, http.StatusPreconditionFailed, "nothing_to_export", err.Error())
	case errors.Is(err, solve.ErrSolveInProgress):
		WriteAPIError(w, http.StatusConflict, "solve_in_progress", err.Error())
	case errors.As(err, &solveFailedErr):
		WriteAPIError(w, http.StatusBadGateway, "solve_failed", solveFailedErr.Error())
	default:
		log.Printf("unmapped error in handler: %v", err)
		WriteAPIError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}

// writeMergeConflict carries the conflicting marks so the UI can offer a
// winner choice.
func writeMergeConflict(w http.ResponseWriter, ce *project.ConflictError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusConflict)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"errors": []APIErrorDetail{{
			Code:   "merge_conflict",
			Status: strconv.Itoa(http.StatusConflict),
			Detail: ce.Error(),
		}},
		"conflict": map[string]interface{}{
			"destination_track_id": ce.DstTrackID,
			"source_track_id":      ce.SrcTrackID,
			"image_id":             ce.ImageID,
			"destination_pixel":    ce.DstPixel,
			"source_pixel":         ce.SrcPixel,
		},
	})
}
