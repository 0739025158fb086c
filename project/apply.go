package project

import (
	"github.com/ohyeah2389/Pointgram/geometry"
)

// SolveUpdate is the full outcome of one solve, keyed by the stable
// identifiers the adapter exported. It is applied all-or-nothing.
type SolveUpdate struct {
	Poses      map[string]geometry.Pose       // by image id
	Intrinsics map[string]geometry.Intrinsics // by intrinsics group id
	Points     map[string]geometry.Vec3       // by track id
}

// ApplySolveUpdate writes solver results onto the project. Only the solve
// adapter calls this; interactive edits never write solved state directly.
//
// Every image whose pose was returned becomes pose-solved; every other image
// loses its pose. Every track whose point was returned becomes solved; every
// other track reverts to unsolved, so solver-pruned tracks never keep stale
// positions. Results referencing unknown ids are rejected whole and the
// project is left untouched. A successful apply clears the dirty flag.
func (p *Project) ApplySolveUpdate(u SolveUpdate) error {
	for imageID := range u.Poses {
		if _, ok := p.images[imageID]; !ok {
			return validationf(InvariantReferentialIntegrity, "solve result references unknown image %q", imageID)
		}
	}
	for groupID := range u.Intrinsics {
		if _, ok := p.groups[groupID]; !ok {
			return validationf(InvariantReferentialIntegrity, "solve result references unknown intrinsics group %q", groupID)
		}
	}
	for trackID := range u.Points {
		if _, ok := p.tracks[trackID]; !ok {
			return validationf(InvariantReferentialIntegrity, "solve result references unknown track %q", trackID)
		}
	}

	for id, img := range p.images {
		if pose, ok := u.Poses[id]; ok {
			img.pose = &PoseSolution{Pose: pose}
		} else {
			img.pose = nil
		}
	}
	for id, g := range p.groups {
		if in, ok := u.Intrinsics[id]; ok {
			g.Intrinsics = in
			g.Solved = true
		} else {
			g.Solved = false
		}
	}
	for id, t := range p.tracks {
		if pos, ok := u.Points[id]; ok {
			t.point = &PointSolution{Position: pos}
		} else {
			t.point = nil
		}
	}

	p.revision++
	p.dirty = false
	return nil
}
