package handlers

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ohyeah2389/Pointgram/config"
	"github.com/ohyeah2389/Pointgram/geometry"
	"github.com/ohyeah2389/Pointgram/project"
)

type TrackHandler struct {
	Session *project.Session
	Cfg     config.Config
}

// ListTracks returns track summaries in insertion order.
func (th *TrackHandler) ListTracks(w http.ResponseWriter, r *http.Request) {
	var summaries []project.TrackSummary
	th.Session.View(func(p *project.Project) {
		summaries = p.TrackSummaries()
	})
	writeJSON(w, http.StatusOK, summaries)
}

// CreateTrack starts a new empty track.
func (th *TrackHandler) CreateTrack(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid request body: " + err.Error()})
		return
	}
	if req.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Missing required field: name"})
		return
	}

	var created project.TrackSummary
	_ = th.Session.Update(func(p *project.Project) error {
		t := p.NewTrack(req.Name)
		created, _ = p.TrackSummaryByID(t.ID)
		return nil
	})
	log.Printf("created track %s (%s)", created.ID, req.Name)
	writeJSON(w, http.StatusCreated, created)
}

// GetTrack returns one track summary.
func (th *TrackHandler) GetTrack(w http.ResponseWriter, r *http.Request) {
	trackID := chi.URLParam(r, "track_id")
	var (
		summary project.TrackSummary
		ok      bool
	)
	th.Session.View(func(p *project.Project) {
		summary, ok = p.TrackSummaryByID(trackID)
	})
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Track not found"})
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// RenameTrack changes a track's display name.
func (th *TrackHandler) RenameTrack(w http.ResponseWriter, r *http.Request) {
	trackID := chi.URLParam(r, "track_id")
	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid request body: " + err.Error()})
		return
	}

	err := th.Session.Update(func(p *project.Project) error {
		return p.RenameTrack(trackID, req.Name)
	})
	if err != nil {
		RespondDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeleteTrack removes a track and all its marks.
func (th *TrackHandler) DeleteTrack(w http.ResponseWriter, r *http.Request) {
	trackID := chi.URLParam(r, "track_id")
	err := th.Session.Update(func(p *project.Project) error {
		return p.RemoveTrack(trackID)
	})
	if err != nil {
		RespondDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SetObservation places or moves a track's mark on an image.
func (th *TrackHandler) SetObservation(w http.ResponseWriter, r *http.Request) {
	trackID := chi.URLParam(r, "track_id")
	imageID := chi.URLParam(r, "image_id")
	var req struct {
		X      float64 `json:"x"`
		Y      float64 `json:"y"`
		Weight float64 `json:"weight"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid request body: " + err.Error()})
		return
	}

	err := th.Session.Update(func(p *project.Project) error {
		return p.SetObservation(trackID, imageID, geometry.Pixel{X: req.X, Y: req.Y}, req.Weight)
	})
	if err != nil {
		RespondDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RemoveObservation deletes a track's mark on an image. The track itself
// survives even when this was its last mark.
func (th *TrackHandler) RemoveObservation(w http.ResponseWriter, r *http.Request) {
	trackID := chi.URLParam(r, "track_id")
	imageID := chi.URLParam(r, "image_id")
	err := th.Session.Update(func(p *project.Project) error {
		return p.RemoveObservation(trackID, imageID)
	})
	if err != nil {
		RespondDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// MergeTracks folds a source track into the addressed track. Conflicting
// marks beyond the configured tolerance return 409 with both pixels unless
// the request names a winner.
func (th *TrackHandler) MergeTracks(w http.ResponseWriter, r *http.Request) {
	trackID := chi.URLParam(r, "track_id")
	var req struct {
		SourceID string `json:"source_id"`
		Winner   string `json:"winner"` // "", "destination" or "source"
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid request body: " + err.Error()})
		return
	}
	if req.SourceID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Missing required field: source_id"})
		return
	}

	opts := project.MergeOptions{Tolerance: th.Cfg.MergeTolerancePx}
	switch req.Winner {
	case "":
		opts.Winner = project.WinnerNone
	case "destination":
		opts.Winner = project.WinnerDst
	case "source":
		opts.Winner = project.WinnerSrc
	default:
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid winner: must be \"destination\" or \"source\""})
		return
	}

	err := th.Session.Update(func(p *project.Project) error {
		return p.MergeTracks(trackID, req.SourceID, opts)
	})
	if err != nil {
		RespondDomainError(w, err)
		return
	}
	log.Printf("merged track %s into %s", req.SourceID, trackID)

	var summary project.TrackSummary
	th.Session.View(func(p *project.Project) {
		summary, _ = p.TrackSummaryByID(trackID)
	})
	writeJSON(w, http.StatusOK, summary)
}

// SplitTrack pulls one mark out of a track into a fresh track.
func (th *TrackHandler) SplitTrack(w http.ResponseWriter, r *http.Request) {
	trackID := chi.URLParam(r, "track_id")
	var req struct {
		ImageID string `json:"image_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid request body: " + err.Error()})
		return
	}
	if req.ImageID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Missing required field: image_id"})
		return
	}

	var created project.TrackSummary
	err := th.Session.Update(func(p *project.Project) error {
		split, err := p.SplitTrack(trackID, req.ImageID)
		if err != nil {
			return err
		}
		created, _ = p.TrackSummaryByID(split.ID)
		return nil
	})
	if err != nil {
		RespondDomainError(w, err)
		return
	}
	log.Printf("split image %s off track %s into %s", req.ImageID, trackID, created.ID)
	writeJSON(w, http.StatusCreated, created)
}

// ReprojectionErrors returns per-mark residuals for everything solved,
// keyed by track id then image id.
func (th *TrackHandler) ReprojectionErrors(w http.ResponseWriter, r *http.Request) {
	var errs map[string]map[string]geometry.ReprojectionError
	th.Session.View(func(p *project.Project) {
		errs = p.ReprojectionErrors()
	})
	writeJSON(w, http.StatusOK, errs)
}
