package project

import (
	"github.com/ohyeah2389/Pointgram/geometry"
)

// Raw is the flattened, fully-explicit form of a project used by the
// persistence layer. Ids, ordering and solutions are all spelled out, so
// FromRaw(p.ToRaw()) reproduces p exactly. The graph package stays the only
// place that knows the internal representation.

type RawObservation struct {
	ImageID string         `json:"image_id"`
	Pixel   geometry.Pixel `json:"pixel"`
	Weight  float64        `json:"weight"`
}

type RawTrack struct {
	ID           string           `json:"id"`
	Name         string           `json:"name"`
	Observations []RawObservation `json:"observations"`
	Point        *geometry.Vec3   `json:"point,omitempty"`
}

type RawImage struct {
	ID      string         `json:"id"`
	Name    string         `json:"name"`
	Path    string         `json:"path"`
	Width   int            `json:"width"`
	Height  int            `json:"height"`
	GroupID string         `json:"group_id"`
	Pose    *geometry.Pose `json:"pose,omitempty"`
}

type RawGroup struct {
	ID         string              `json:"id"`
	Name       string              `json:"name"`
	Intrinsics geometry.Intrinsics `json:"intrinsics"`
	Solved     bool                `json:"solved"`
}

type Raw struct {
	Images   []RawImage     `json:"images"`
	Groups   []RawGroup     `json:"groups"`
	Tracks   []RawTrack     `json:"tracks"`
	Frame    geometry.Frame `json:"frame"`
	Revision uint64         `json:"revision"`
	Dirty    bool           `json:"dirty"`
}

// ToRaw flattens the project preserving insertion order everywhere.
func (p *Project) ToRaw() Raw {
	r := Raw{
		Frame:    p.frame,
		Revision: p.revision,
		Dirty:    p.dirty,
	}
	for _, id := range p.groupOrder {
		g := p.groups[id]
		in := g.Intrinsics
		in.Distortion = append([]float64(nil), g.Intrinsics.Distortion...)
		r.Groups = append(r.Groups, RawGroup{ID: g.ID, Name: g.Name, Intrinsics: in, Solved: g.Solved})
	}
	for _, id := range p.imageOrder {
		img := p.images[id]
		ri := RawImage{ID: img.ID, Name: img.Name, Path: img.Path, Width: img.Width, Height: img.Height, GroupID: img.GroupID}
		if img.pose != nil {
			pose := img.pose.Pose
			ri.Pose = &pose
		}
		r.Images = append(r.Images, ri)
	}
	for _, id := range p.trackOrder {
		t := p.tracks[id]
		rt := RawTrack{ID: t.ID, Name: t.Name}
		for _, imageID := range t.order {
			o := t.obs[imageID]
			rt.Observations = append(rt.Observations, RawObservation{ImageID: o.ImageID, Pixel: o.Pixel, Weight: o.Weight})
		}
		if t.point != nil {
			pos := t.point.Position
			rt.Point = &pos
		}
		r.Tracks = append(r.Tracks, rt)
	}
	return r
}

// FromRaw rebuilds a project, re-checking the graph invariants so a corrupt
// or hand-edited document cannot smuggle in inconsistent state.
func FromRaw(r Raw) (*Project, error) {
	p := New()
	p.frame = r.Frame
	if p.frame == (geometry.Frame{}) {
		p.frame = geometry.IdentityFrame()
	}
	p.revision = r.Revision
	p.dirty = r.Dirty

	for _, rg := range r.Groups {
		if rg.ID == "" {
			return nil, validationf(InvariantReferentialIntegrity, "intrinsics group with empty id")
		}
		if _, dup := p.groups[rg.ID]; dup {
			return nil, validationf(InvariantReferentialIntegrity, "duplicate intrinsics group id %q", rg.ID)
		}
		in := rg.Intrinsics
		in.Distortion = append([]float64(nil), rg.Intrinsics.Distortion...)
		p.groups[rg.ID] = &IntrinsicsGroup{ID: rg.ID, Name: rg.Name, Intrinsics: in, Solved: rg.Solved}
		p.groupOrder = append(p.groupOrder, rg.ID)
	}

	for _, ri := range r.Images {
		if ri.ID == "" {
			return nil, validationf(InvariantReferentialIntegrity, "image with empty id")
		}
		if _, dup := p.images[ri.ID]; dup {
			return nil, validationf(InvariantReferentialIntegrity, "duplicate image id %q", ri.ID)
		}
		if ri.Width <= 0 || ri.Height <= 0 {
			return nil, validationf(InvariantImageDimensions, "image %q has invalid dimensions %dx%d", ri.Name, ri.Width, ri.Height)
		}
		if _, ok := p.groups[ri.GroupID]; !ok {
			return nil, validationf(InvariantReferentialIntegrity, "image %q references unknown intrinsics group %q", ri.ID, ri.GroupID)
		}
		img := &Image{ID: ri.ID, Name: ri.Name, Path: ri.Path, Width: ri.Width, Height: ri.Height, GroupID: ri.GroupID}
		if ri.Pose != nil {
			img.pose = &PoseSolution{Pose: *ri.Pose}
		}
		p.images[img.ID] = img
		p.imageOrder = append(p.imageOrder, img.ID)
	}

	for _, rt := range r.Tracks {
		if rt.ID == "" {
			return nil, validationf(InvariantReferentialIntegrity, "track with empty id")
		}
		if _, dup := p.tracks[rt.ID]; dup {
			return nil, validationf(InvariantTrackIdentity, "duplicate track id %q", rt.ID)
		}
		t := &Track{ID: rt.ID, Name: rt.Name, obs: make(map[string]*Observation, len(rt.Observations))}
		for _, ro := range rt.Observations {
			if _, ok := p.images[ro.ImageID]; !ok {
				return nil, validationf(InvariantReferentialIntegrity, "track %q observes unknown image %q", rt.ID, ro.ImageID)
			}
			if _, dup := t.obs[ro.ImageID]; dup {
				return nil, validationf(InvariantDuplicateObservation, "track %q observes image %q twice", rt.ID, ro.ImageID)
			}
			w := ro.Weight
			if w <= 0 {
				w = 1
			}
			t.obs[ro.ImageID] = &Observation{ImageID: ro.ImageID, Pixel: ro.Pixel, Weight: w}
			t.order = append(t.order, ro.ImageID)
		}
		if rt.Point != nil {
			t.point = &PointSolution{Position: *rt.Point}
		}
		p.tracks[t.ID] = t
		p.trackOrder = append(p.trackOrder, t.ID)
	}

	return p, nil
}
