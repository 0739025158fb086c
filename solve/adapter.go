package solve

import (
	"context"
	"errors"
	"sync"

	"github.com/ohyeah2389/Pointgram/geometry"
	"github.com/ohyeah2389/Pointgram/project"
)

// Adapter runs solves against project sessions. It enforces a single
// in-flight solve per session, works on snapshots so the editing context is
// never blocked, and applies results all-or-nothing.
type Adapter struct {
	solver Solver

	mu       sync.Mutex
	inFlight map[*project.Session]struct{}
}

// NewAdapter wraps a solver capability.
func NewAdapter(s Solver) *Adapter {
	return &Adapter{solver: s, inFlight: make(map[*project.Session]struct{})}
}

// Summary reports what a successful solve ingested.
type Summary struct {
	Poses  int `json:"poses"`
	Points int `json:"points"`
}

// BuildInput assembles the solver request from a project snapshot: every
// image with its group's current intrinsics (the prior solve's values when
// present, otherwise the documented default guess), plus every eligible
// track. Fails with InsufficientDataError below the policy minimums.
func BuildInput(p *project.Project) (*Input, error) {
	images := p.Images()
	eligible := p.EligibleTracks()
	if len(images) < MinImages || len(eligible) < MinEligibleTracks {
		return nil, &InsufficientDataError{Images: len(images), EligibleTracks: len(eligible)}
	}

	in := &Input{}
	for _, img := range images {
		g, ok := p.Group(img.GroupID)
		if !ok {
			// FromRaw and the mutation layer both guarantee this; a miss here
			// means the snapshot is corrupt.
			return nil, &SolveFailedError{Diagnostic: "image " + img.ID + " has no intrinsics group"}
		}
		in.Images = append(in.Images, InputImage{
			ImageID:    img.ID,
			GroupID:    img.GroupID,
			Width:      img.Width,
			Height:     img.Height,
			Intrinsics: g.Intrinsics,
		})
	}
	for _, t := range eligible {
		it := InputTrack{TrackID: t.ID}
		for _, o := range t.Observations() {
			it.Observations = append(it.Observations, InputObservation{ImageID: o.ImageID, X: o.Pixel.X, Y: o.Pixel.Y})
		}
		in.Tracks = append(in.Tracks, it)
	}
	return in, nil
}

// Run performs one full solve: snapshot, export, invoke, ingest. It blocks
// for the duration of the solver call and is meant to be executed on a
// worker, not on the editing context. On any failure, cancellation included,
// the session's project is left completely unmodified.
func (a *Adapter) Run(ctx context.Context, sess *project.Session) (Summary, error) {
	a.mu.Lock()
	if _, busy := a.inFlight[sess]; busy {
		a.mu.Unlock()
		return Summary{}, ErrSolveInProgress
	}
	a.inFlight[sess] = struct{}{}
	a.mu.Unlock()
	defer func() {
		a.mu.Lock()
		delete(a.inFlight, sess)
		a.mu.Unlock()
	}()

	snap := sess.Snapshot()
	exportedRevision := snap.Revision()

	input, err := BuildInput(snap)
	if err != nil {
		return Summary{}, err
	}

	res, err := a.solver.Solve(ctx, input)
	if err != nil {
		if ctx.Err() != nil || errors.Is(err, context.Canceled) {
			return Summary{}, ErrCancelled
		}
		return Summary{}, &SolveFailedError{Diagnostic: err.Error(), Err: err}
	}

	update, err := buildUpdate(input, res)
	if err != nil {
		return Summary{}, err
	}

	err = sess.Update(func(p *project.Project) error {
		if p.Revision() != exportedRevision {
			return &SolveFailedError{Diagnostic: "project was edited while the solver ran; results discarded", Err: ErrStaleProject}
		}
		return p.ApplySolveUpdate(*update)
	})
	if err != nil {
		return Summary{}, err
	}
	return Summary{Poses: len(update.Poses), Points: len(update.Points)}, nil
}

// buildUpdate converts a solver result to a project update, rejecting any
// result that references an id absent from the exported input. Intrinsics
// are folded per group; every image of a group shares the refinement.
func buildUpdate(in *Input, res *Result) (*project.SolveUpdate, error) {
	imageGroup := make(map[string]string, len(in.Images))
	for _, img := range in.Images {
		imageGroup[img.ImageID] = img.GroupID
	}
	exportedTracks := make(map[string]struct{}, len(in.Tracks))
	for _, t := range in.Tracks {
		exportedTracks[t.TrackID] = struct{}{}
	}

	u := &project.SolveUpdate{
		Poses:      make(map[string]geometry.Pose),
		Intrinsics: make(map[string]geometry.Intrinsics),
		Points:     make(map[string]geometry.Vec3),
	}
	for _, rp := range res.Poses {
		groupID, ok := imageGroup[rp.ImageID]
		if !ok {
			return nil, &SolveFailedError{Diagnostic: "solver returned a pose for unknown image " + rp.ImageID}
		}
		u.Poses[rp.ImageID] = geometry.Pose{Rotation: rp.Rotation, Translation: rp.Translation}
		u.Intrinsics[groupID] = rp.Intrinsics
	}
	for _, pt := range res.Points {
		if _, ok := exportedTracks[pt.TrackID]; !ok {
			return nil, &SolveFailedError{Diagnostic: "solver returned a point for unknown track " + pt.TrackID}
		}
		u.Points[pt.TrackID] = pt.Position
	}
	return u, nil
}
