package project

import (
	"github.com/google/uuid"
	"github.com/ohyeah2389/Pointgram/geometry"
)

// FormatVersion is the current project document version written by the
// persistence layer.
const FormatVersion = 2

// Observation is one 2D mark belonging to one track in one image. It is
// owned by its track; removing the track or the image removes it.
type Observation struct {
	ImageID string         `json:"image_id"`
	Pixel   geometry.Pixel `json:"pixel"`
	Weight  float64        `json:"weight"`
}

// PointSolution is the solved 3D position of a track. A nil solution means
// the track is unsolved.
type PointSolution struct {
	Position geometry.Vec3 `json:"position"`
}

// PoseSolution is the solved extrinsic pose of an image's camera. A nil
// solution means the pose is unsolved.
type PoseSolution struct {
	Pose geometry.Pose `json:"pose"`
}

// Image is one photograph added to the project.
type Image struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Path    string `json:"path"`
	Width   int    `json:"width"`
	Height  int    `json:"height"`
	GroupID string `json:"group_id"`

	pose *PoseSolution
}

// PoseSolutionValue returns the solved pose, if any.
func (img *Image) PoseSolutionValue() (geometry.Pose, bool) {
	if img.pose == nil {
		return geometry.Pose{}, false
	}
	return img.pose.Pose, true
}

// IntrinsicsGroup is a set of images sharing one physical camera's internal
// parameters. Intrinsics starts as an initial guess and is overwritten by a
// solve; Solved tracks which of the two it currently holds.
type IntrinsicsGroup struct {
	ID         string              `json:"id"`
	Name       string              `json:"name"`
	Intrinsics geometry.Intrinsics `json:"intrinsics"`
	Solved     bool                `json:"solved"`
}

// Track is a logical 3D point: the set of marks of one physical feature
// across images. Observations keep insertion order; at most one per image.
type Track struct {
	ID   string `json:"id"`
	Name string `json:"name"`

	obs   map[string]*Observation
	order []string // image ids, insertion order

	point *PointSolution
}

// ObservationCount returns how many images this track is marked in.
func (t *Track) ObservationCount() int { return len(t.order) }

// Eligible reports whether the track can constrain a solve (>= 2 marks).
func (t *Track) Eligible() bool { return len(t.order) >= MinTrackObservations }

// Observation returns the mark on the given image, if any.
func (t *Track) Observation(imageID string) (Observation, bool) {
	o, ok := t.obs[imageID]
	if !ok {
		return Observation{}, false
	}
	return *o, true
}

// Observations returns all marks in insertion order.
func (t *Track) Observations() []Observation {
	out := make([]Observation, 0, len(t.order))
	for _, id := range t.order {
		out = append(out, *t.obs[id])
	}
	return out
}

// PointSolutionValue returns the solved position, if any.
func (t *Track) PointSolutionValue() (geometry.Vec3, bool) {
	if t.point == nil {
		return geometry.Vec3{}, false
	}
	return t.point.Position, true
}

// MinTrackObservations is the smallest observation count that lets a track
// constrain triangulation.
const MinTrackObservations = 2

// Project is the aggregate root: the full correspondence graph plus the
// coordinate frame and revision counter. It is not safe for concurrent use;
// wrap it in a Session when the surrounding application is multithreaded.
type Project struct {
	images     map[string]*Image
	imageOrder []string
	tracks     map[string]*Track
	trackOrder []string
	groups     map[string]*IntrinsicsGroup
	groupOrder []string

	frame    geometry.Frame
	revision uint64
	dirty    bool
}

// New returns an empty project with an identity coordinate frame.
func New() *Project {
	return &Project{
		images: make(map[string]*Image),
		tracks: make(map[string]*Track),
		groups: make(map[string]*IntrinsicsGroup),
		frame:  geometry.IdentityFrame(),
	}
}

// Revision returns the mutation counter. Every successful mutation
// increments it; the solve adapter and the exporter use it to detect
// staleness.
func (p *Project) Revision() uint64 { return p.revision }

// Dirty reports whether the graph changed since the last ingested solve.
func (p *Project) Dirty() bool { return p.dirty }

// Frame returns the project coordinate-frame transform.
func (p *Project) Frame() geometry.Frame { return p.frame }

func (p *Project) bump() {
	p.revision++
	p.dirty = true
}

func newID() string { return uuid.NewString() }
