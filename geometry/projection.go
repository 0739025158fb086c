package geometry

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// ProjectionMatrix builds the 3x4 projection P = K * [R|t].
func ProjectionMatrix(in Intrinsics, pose Pose) *mat.Dense {
	var p mat.Dense
	p.Mul(in.K(), pose.Matrix())
	return &p
}

// Project maps a world point onto the image plane of a camera. The second
// return is false when the point lies behind the camera (or on its plane),
// in which case the pixel is meaningless.
func Project(point Vec3, in Intrinsics, pose Pose) (Pixel, bool) {
	var cam mat.VecDense
	cam.MulVec(pose.RotationMatrix(), mat.NewVecDense(3, []float64{point.X, point.Y, point.Z}))
	cam.AddVec(&cam, pose.TranslationVector())

	z := cam.AtVec(2)
	if z <= 1e-9 {
		return Pixel{}, false
	}
	x := cam.AtVec(0) / z
	y := cam.AtVec(1) / z
	return Pixel{
		X: in.FocalX*x + in.CX,
		Y: in.FocalY*y + in.CY,
	}, true
}

// ReprojectionError is the pixel-space residual of one observation against
// the solved point it belongs to.
type ReprojectionError struct {
	DX        float64 `json:"dx"`
	DY        float64 `json:"dy"`
	Magnitude float64 `json:"magnitude"`
}

// Residual computes observed minus projected for one observation. The second
// return is false when the point does not project in front of the camera.
func Residual(observed Pixel, point Vec3, in Intrinsics, pose Pose) (ReprojectionError, bool) {
	projected, ok := Project(point, in, pose)
	if !ok {
		return ReprojectionError{}, false
	}
	dx := observed.X - projected.X
	dy := observed.Y - projected.Y
	return ReprojectionError{
		DX:        dx,
		DY:        dy,
		Magnitude: math.Hypot(dx, dy),
	}, true
}
