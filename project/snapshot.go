package project

// Snapshot returns a deep copy of the project, including solutions, the
// coordinate frame, the revision counter and the dirty flag. Persistence and
// the solve adapter always work from snapshots so the editing context stays
// free to mutate.
func (p *Project) Snapshot() *Project {
	c := New()
	c.frame = p.frame
	c.revision = p.revision
	c.dirty = p.dirty

	c.imageOrder = append([]string(nil), p.imageOrder...)
	for id, img := range p.images {
		cp := *img
		if img.pose != nil {
			pose := *img.pose
			cp.pose = &pose
		}
		c.images[id] = &cp
	}

	c.groupOrder = append([]string(nil), p.groupOrder...)
	for id, g := range p.groups {
		cp := *g
		cp.Intrinsics.Distortion = append([]float64(nil), g.Intrinsics.Distortion...)
		c.groups[id] = &cp
	}

	c.trackOrder = append([]string(nil), p.trackOrder...)
	for id, t := range p.tracks {
		cp := &Track{ID: t.ID, Name: t.Name, obs: make(map[string]*Observation, len(t.obs))}
		cp.order = append([]string(nil), t.order...)
		for imageID, o := range t.obs {
			oc := *o
			cp.obs[imageID] = &oc
		}
		if t.point != nil {
			point := *t.point
			cp.point = &point
		}
		c.tracks[id] = cp
	}
	return c
}
