// Package solve bridges the correspondence graph to an external
// structure-from-motion capability and reconciles the results back into the
// project. The solver itself is an opaque collaborator: given cameras and 2D
// observation sets it returns poses, intrinsics and 3D positions, or fails.
package solve

import (
	"context"

	"github.com/ohyeah2389/Pointgram/geometry"
)

// InputImage describes one camera to the solver.
type InputImage struct {
	ImageID    string              `json:"image_id"`
	GroupID    string              `json:"intrinsics_group_id"`
	Width      int                 `json:"width"`
	Height     int                 `json:"height"`
	Intrinsics geometry.Intrinsics `json:"initial_intrinsics"`
}

// InputObservation is one 2D mark of a track in one image.
type InputObservation struct {
	ImageID string  `json:"image_id"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
}

// InputTrack is one solver constraint: a track with its observation list.
type InputTrack struct {
	TrackID      string             `json:"track_id"`
	Observations []InputObservation `json:"observations"`
}

// Input is the full solver request built from a project snapshot.
type Input struct {
	Images []InputImage `json:"images"`
	Tracks []InputTrack `json:"tracks"`
}

// ResultPose is one recovered camera: a world-to-camera pose plus refined
// intrinsics for the image's group.
type ResultPose struct {
	ImageID     string              `json:"image_id"`
	Rotation    [9]float64          `json:"rotation"`
	Translation geometry.Vec3       `json:"translation"`
	Intrinsics  geometry.Intrinsics `json:"intrinsics"`
}

// ResultPoint is one triangulated track position.
type ResultPoint struct {
	TrackID  string        `json:"track_id"`
	Position geometry.Vec3 `json:"xyz"`
}

// Result is a successful solver response. Images or tracks the solver pruned
// simply do not appear; matching is by id, never by position.
type Result struct {
	Poses  []ResultPose  `json:"camera_poses"`
	Points []ResultPoint `json:"points"`
}

// Solver is the external solve capability. Implementations are expected to
// behave deterministically for identical inputs, up to their own convergence
// tolerance; the adapter documents but does not verify this. Solve must
// honor ctx cancellation.
type Solver interface {
	Solve(ctx context.Context, in *Input) (*Result, error)
}
