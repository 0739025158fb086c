package project

import (
	"sort"

	"github.com/facette/natsort"
	"github.com/ohyeah2389/Pointgram/geometry"
)

// Images returns all images in insertion order. The returned pointers are
// owned by the project; callers outside the serialization boundary must work
// from a Snapshot instead.
func (p *Project) Images() []*Image {
	out := make([]*Image, 0, len(p.imageOrder))
	for _, id := range p.imageOrder {
		out = append(out, p.images[id])
	}
	return out
}

// ImagesByName returns all images in natural name order ("img2" before
// "img10"), the order the UI lists them in.
func (p *Project) ImagesByName() []*Image {
	out := p.Images()
	sort.SliceStable(out, func(i, j int) bool {
		return natsort.Compare(out[i].Name, out[j].Name)
	})
	return out
}

// Image looks up an image by id.
func (p *Project) Image(id string) (*Image, bool) {
	img, ok := p.images[id]
	return img, ok
}

// Tracks returns all tracks in insertion order.
func (p *Project) Tracks() []*Track {
	out := make([]*Track, 0, len(p.trackOrder))
	for _, id := range p.trackOrder {
		out = append(out, p.tracks[id])
	}
	return out
}

// Track looks up a track by id.
func (p *Project) Track(id string) (*Track, bool) {
	t, ok := p.tracks[id]
	return t, ok
}

// EligibleTracks returns the tracks usable as solver constraints, in
// insertion order.
func (p *Project) EligibleTracks() []*Track {
	var out []*Track
	for _, id := range p.trackOrder {
		if t := p.tracks[id]; t.Eligible() {
			out = append(out, t)
		}
	}
	return out
}

// Groups returns all intrinsics groups in insertion order.
func (p *Project) Groups() []*IntrinsicsGroup {
	out := make([]*IntrinsicsGroup, 0, len(p.groupOrder))
	for _, id := range p.groupOrder {
		out = append(out, p.groups[id])
	}
	return out
}

// Group looks up an intrinsics group by id.
func (p *Project) Group(id string) (*IntrinsicsGroup, bool) {
	g, ok := p.groups[id]
	return g, ok
}

// ImageSummary is the read-only view of an image handed to the UI.
type ImageSummary struct {
	ID               string `json:"id"`
	Name             string `json:"name"`
	Path             string `json:"path"`
	Width            int    `json:"width"`
	Height           int    `json:"height"`
	GroupID          string `json:"group_id"`
	ObservationCount int    `json:"observation_count"`
	PoseSolved       bool   `json:"pose_solved"`
}

// TrackSummary is the read-only view of a track handed to the UI.
type TrackSummary struct {
	ID               string         `json:"id"`
	Name             string         `json:"name"`
	ObservationCount int            `json:"observation_count"`
	Eligible         bool           `json:"eligible"`
	Solved           bool           `json:"solved"`
	Position         *geometry.Vec3 `json:"position,omitempty"`
	Observations     []Observation  `json:"observations"`
}

// ImageSummaries returns UI summaries in natural name order.
func (p *Project) ImageSummaries() []ImageSummary {
	images := p.ImagesByName()
	out := make([]ImageSummary, 0, len(images))
	for _, img := range images {
		n := 0
		for _, id := range p.trackOrder {
			if _, ok := p.tracks[id].obs[img.ID]; ok {
				n++
			}
		}
		_, solved := img.PoseSolutionValue()
		out = append(out, ImageSummary{
			ID:               img.ID,
			Name:             img.Name,
			Path:             img.Path,
			Width:            img.Width,
			Height:           img.Height,
			GroupID:          img.GroupID,
			ObservationCount: n,
			PoseSolved:       solved,
		})
	}
	return out
}

// TrackSummaries returns UI summaries in insertion order.
func (p *Project) TrackSummaries() []TrackSummary {
	out := make([]TrackSummary, 0, len(p.trackOrder))
	for _, id := range p.trackOrder {
		out = append(out, p.trackSummary(p.tracks[id]))
	}
	return out
}

// TrackSummaryByID returns the UI summary of one track.
func (p *Project) TrackSummaryByID(id string) (TrackSummary, bool) {
	t, ok := p.tracks[id]
	if !ok {
		return TrackSummary{}, false
	}
	return p.trackSummary(t), true
}

func (p *Project) trackSummary(t *Track) TrackSummary {
	s := TrackSummary{
		ID:               t.ID,
		Name:             t.Name,
		ObservationCount: len(t.order),
		Eligible:         t.Eligible(),
		Observations:     t.Observations(),
	}
	if pos, ok := t.PointSolutionValue(); ok {
		s.Solved = true
		s.Position = &pos
	}
	return s
}

// ReprojectionErrors computes the residual of every observation belonging to
// a solved track on a pose-solved image, keyed by track id then image id.
// Pure read; tracks or images without solutions simply do not appear.
func (p *Project) ReprojectionErrors() map[string]map[string]geometry.ReprojectionError {
	out := make(map[string]map[string]geometry.ReprojectionError)
	for _, trackID := range p.trackOrder {
		t := p.tracks[trackID]
		pos, ok := t.PointSolutionValue()
		if !ok {
			continue
		}
		for _, imageID := range t.order {
			img := p.images[imageID]
			pose, ok := img.PoseSolutionValue()
			if !ok {
				continue
			}
			g := p.groups[img.GroupID]
			res, ok := geometry.Residual(t.obs[imageID].Pixel, pos, g.Intrinsics, pose)
			if !ok {
				continue
			}
			if out[trackID] == nil {
				out[trackID] = make(map[string]geometry.ReprojectionError)
			}
			out[trackID][imageID] = res
		}
	}
	return out
}
