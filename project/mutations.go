package project

import (
	"math"

	"github.com/ohyeah2389/Pointgram/geometry"
)

// touch records a geometry-affecting mutation: the revision advances and the
// project becomes dirty for re-solve.
func (p *Project) touch() {
	p.revision++
	p.dirty = true
}

// bumpOnly records a mutation that does not affect solve geometry (renames,
// coordinate frame changes).
func (p *Project) bumpOnly() {
	p.revision++
}

// AddGroup creates an intrinsics group with the given initial guess.
func (p *Project) AddGroup(name string, in geometry.Intrinsics) *IntrinsicsGroup {
	g := &IntrinsicsGroup{ID: newID(), Name: name, Intrinsics: in}
	p.groups[g.ID] = g
	p.groupOrder = append(p.groupOrder, g.ID)
	p.touch()
	return g
}

// AddImage adds a photograph to the project. Width and height must be the
// pixel dimensions of the file. If groupID is empty the image gets a
// dedicated intrinsics group seeded with DefaultIntrinsics.
func (p *Project) AddImage(name, path string, width, height int, groupID string) (*Image, error) {
	if width <= 0 || height <= 0 {
		return nil, validationf(InvariantImageDimensions, "image %q has invalid dimensions %dx%d", name, width, height)
	}
	for _, id := range p.imageOrder {
		if p.images[id].Path == path && path != "" {
			return nil, validationf(InvariantDuplicateImagePath, "image path %q already in project", path)
		}
	}
	if groupID == "" {
		g := &IntrinsicsGroup{ID: newID(), Name: name, Intrinsics: DefaultIntrinsics(width, height)}
		p.groups[g.ID] = g
		p.groupOrder = append(p.groupOrder, g.ID)
		groupID = g.ID
	} else if _, ok := p.groups[groupID]; !ok {
		return nil, validationf(InvariantReferentialIntegrity, "intrinsics group %q does not exist", groupID)
	}

	img := &Image{ID: newID(), Name: name, Path: path, Width: width, Height: height, GroupID: groupID}
	p.images[img.ID] = img
	p.imageOrder = append(p.imageOrder, img.ID)
	p.touch()
	return img, nil
}

// RemoveImage deletes an image and cascades: every observation of it is
// removed, tracks left with zero observations are deleted, and tracks left
// with a single observation lose any solved position. The image's intrinsics
// group is removed when no other image references it.
func (p *Project) RemoveImage(imageID string) error {
	img, ok := p.images[imageID]
	if !ok {
		return validationf(InvariantReferentialIntegrity, "image %q does not exist", imageID)
	}

	for _, trackID := range append([]string(nil), p.trackOrder...) {
		t := p.tracks[trackID]
		if _, observed := t.obs[imageID]; !observed {
			continue
		}
		t.removeObservation(imageID)
		switch {
		case len(t.order) == 0:
			p.deleteTrack(trackID)
		case len(t.order) < MinTrackObservations:
			t.point = nil
		}
	}

	delete(p.images, imageID)
	p.imageOrder = removeString(p.imageOrder, imageID)

	if !p.groupInUse(img.GroupID) {
		delete(p.groups, img.GroupID)
		p.groupOrder = removeString(p.groupOrder, img.GroupID)
	}
	p.touch()
	return nil
}

// AssignImageGroup moves an image to another intrinsics group.
func (p *Project) AssignImageGroup(imageID, groupID string) error {
	img, ok := p.images[imageID]
	if !ok {
		return validationf(InvariantReferentialIntegrity, "image %q does not exist", imageID)
	}
	if _, ok := p.groups[groupID]; !ok {
		return validationf(InvariantReferentialIntegrity, "intrinsics group %q does not exist", groupID)
	}
	if img.GroupID == groupID {
		return nil
	}
	old := img.GroupID
	img.GroupID = groupID
	if !p.groupInUse(old) {
		delete(p.groups, old)
		p.groupOrder = removeString(p.groupOrder, old)
	}
	p.touch()
	return nil
}

// SetGroupIntrinsics replaces a group's intrinsics guess and marks the group
// unsolved.
func (p *Project) SetGroupIntrinsics(groupID string, in geometry.Intrinsics) error {
	g, ok := p.groups[groupID]
	if !ok {
		return validationf(InvariantReferentialIntegrity, "intrinsics group %q does not exist", groupID)
	}
	g.Intrinsics = in
	g.Solved = false
	p.touch()
	return nil
}

// NewTrack creates an empty track. A track below two observations is valid
// in the project but ineligible for solving.
func (p *Project) NewTrack(name string) *Track {
	t := &Track{ID: newID(), Name: name, obs: make(map[string]*Observation)}
	p.tracks[t.ID] = t
	p.trackOrder = append(p.trackOrder, t.ID)
	p.touch()
	return t
}

// RemoveTrack deletes a track and all its observations.
func (p *Project) RemoveTrack(trackID string) error {
	if _, ok := p.tracks[trackID]; !ok {
		return validationf(InvariantReferentialIntegrity, "track %q does not exist", trackID)
	}
	p.deleteTrack(trackID)
	p.touch()
	return nil
}

// RenameTrack changes the user-facing label of a track.
func (p *Project) RenameTrack(trackID, name string) error {
	t, ok := p.tracks[trackID]
	if !ok {
		return validationf(InvariantReferentialIntegrity, "track %q does not exist", trackID)
	}
	t.Name = name
	p.bumpOnly()
	return nil
}

// SetObservation adds or moves the mark of a track on an image. Weight <= 0
// is normalized to 1. Editing any observation of a solved track clears that
// track's solved position.
func (p *Project) SetObservation(trackID, imageID string, px geometry.Pixel, weight float64) error {
	t, ok := p.tracks[trackID]
	if !ok {
		return validationf(InvariantReferentialIntegrity, "track %q does not exist", trackID)
	}
	if _, ok := p.images[imageID]; !ok {
		return validationf(InvariantReferentialIntegrity, "image %q does not exist", imageID)
	}
	if weight <= 0 {
		weight = 1
	}
	if existing, ok := t.obs[imageID]; ok {
		existing.Pixel = px
		existing.Weight = weight
	} else {
		t.obs[imageID] = &Observation{ImageID: imageID, Pixel: px, Weight: weight}
		t.order = append(t.order, imageID)
	}
	t.point = nil
	p.touch()
	return nil
}

// RemoveObservation deletes the mark of a track on an image. The track
// itself survives even at zero observations; the user may be mid-annotation.
func (p *Project) RemoveObservation(trackID, imageID string) error {
	t, ok := p.tracks[trackID]
	if !ok {
		return validationf(InvariantReferentialIntegrity, "track %q does not exist", trackID)
	}
	if _, ok := t.obs[imageID]; !ok {
		return validationf(InvariantReferentialIntegrity, "track %q has no observation on image %q", trackID, imageID)
	}
	t.removeObservation(imageID)
	t.point = nil
	p.touch()
	return nil
}

// Winner disambiguates a merge conflict.
type Winner int

const (
	WinnerNone Winner = iota // fail with ConflictError on conflicting marks
	WinnerDst                // keep the destination track's mark
	WinnerSrc                // keep the source track's mark
)

// MergeOptions controls conflict handling during MergeTracks. Marks on a
// shared image closer than Tolerance pixels are treated as agreeing and the
// destination's mark is kept.
type MergeOptions struct {
	Tolerance float64
	Winner    Winner
}

// MergeTracks folds src into dst: the observation sets are unioned, src is
// deleted, and dst's identifier survives. If both tracks mark the same image
// at coordinates further apart than the tolerance and no winner is given,
// the merge fails with ConflictError and both tracks are left unchanged.
func (p *Project) MergeTracks(dstID, srcID string, opts MergeOptions) error {
	if dstID == srcID {
		return validationf(InvariantTrackIdentity, "cannot merge track %q with itself", dstID)
	}
	dst, ok := p.tracks[dstID]
	if !ok {
		return validationf(InvariantReferentialIntegrity, "track %q does not exist", dstID)
	}
	src, ok := p.tracks[srcID]
	if !ok {
		return validationf(InvariantReferentialIntegrity, "track %q does not exist", srcID)
	}

	// Detect conflicts before mutating anything.
	for _, imageID := range src.order {
		d, shared := dst.obs[imageID]
		if !shared {
			continue
		}
		s := src.obs[imageID]
		dist := math.Hypot(d.Pixel.X-s.Pixel.X, d.Pixel.Y-s.Pixel.Y)
		if dist > opts.Tolerance && opts.Winner == WinnerNone {
			return &ConflictError{
				DstTrackID: dstID,
				SrcTrackID: srcID,
				ImageID:    imageID,
				DstPixel:   d.Pixel,
				SrcPixel:   s.Pixel,
			}
		}
	}

	for _, imageID := range src.order {
		s := src.obs[imageID]
		if d, shared := dst.obs[imageID]; shared {
			if opts.Winner == WinnerSrc {
				d.Pixel = s.Pixel
				d.Weight = s.Weight
			}
			continue
		}
		dst.obs[imageID] = &Observation{ImageID: imageID, Pixel: s.Pixel, Weight: s.Weight}
		dst.order = append(dst.order, imageID)
	}

	p.deleteTrack(srcID)
	dst.point = nil
	p.touch()
	return nil
}

// SplitTrack pulls the observation on the given image out of a track into a
// fresh track and returns it. The inverse of a merge.
func (p *Project) SplitTrack(trackID, imageID string) (*Track, error) {
	t, ok := p.tracks[trackID]
	if !ok {
		return nil, validationf(InvariantReferentialIntegrity, "track %q does not exist", trackID)
	}
	o, ok := t.obs[imageID]
	if !ok {
		return nil, validationf(InvariantReferentialIntegrity, "track %q has no observation on image %q", trackID, imageID)
	}

	split := &Track{ID: newID(), Name: t.Name + " (split)", obs: make(map[string]*Observation)}
	split.obs[imageID] = &Observation{ImageID: imageID, Pixel: o.Pixel, Weight: o.Weight}
	split.order = []string{imageID}
	p.tracks[split.ID] = split
	p.trackOrder = append(p.trackOrder, split.ID)

	t.removeObservation(imageID)
	t.point = nil
	p.touch()
	return split, nil
}

// SetCoordinateFrame replaces the project coordinate-frame transform. The
// frame only affects export, so the project does not become dirty.
func (p *Project) SetCoordinateFrame(f geometry.Frame) {
	p.frame = f
	p.bumpOnly()
}

func (p *Project) groupInUse(groupID string) bool {
	for _, id := range p.imageOrder {
		if p.images[id].GroupID == groupID {
			return true
		}
	}
	return false
}

func (p *Project) deleteTrack(trackID string) {
	delete(p.tracks, trackID)
	p.trackOrder = removeString(p.trackOrder, trackID)
}

func (t *Track) removeObservation(imageID string) {
	delete(t.obs, imageID)
	t.order = removeString(t.order, imageID)
}

func removeString(s []string, v string) []string {
	for i, x := range s {
		if x == v {
			return append(s[:i], s[i+1:]...)
		}
	}
	return s
}

// DefaultIntrinsics is the documented initial guess for an unsolved camera:
// focal length 1.2 times the longest image side, principal point at the
// image center, no distortion.
func DefaultIntrinsics(width, height int) geometry.Intrinsics {
	f := 1.2 * math.Max(float64(width), float64(height))
	return geometry.Intrinsics{
		FocalX: f,
		FocalY: f,
		CX:     float64(width) / 2,
		CY:     float64(height) / 2,
	}
}
