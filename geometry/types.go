package geometry

import (
	"gonum.org/v1/gonum/mat"
)

// Pixel is a continuous, sub-pixel image coordinate.
type Pixel struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Vec3 is a 3D point or vector in world coordinates.
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Intrinsics holds a pinhole camera parameterization. Distortion uses the
// OpenCV coefficient ordering (k1, k2, p1, p2, k3, ...); an empty slice means
// an ideal lens.
type Intrinsics struct {
	FocalX     float64   `json:"fx"`
	FocalY     float64   `json:"fy"`
	CX         float64   `json:"cx"`
	CY         float64   `json:"cy"`
	Distortion []float64 `json:"distortion,omitempty"`
}

// K returns the 3x3 calibration matrix.
func (in Intrinsics) K() *mat.Dense {
	return mat.NewDense(3, 3, []float64{
		in.FocalX, 0, in.CX,
		0, in.FocalY, in.CY,
		0, 0, 1,
	})
}

// Pose is a rigid world-to-camera transform: x_cam = R*x_world + t.
// Rotation is row-major 3x3.
type Pose struct {
	Rotation    [9]float64 `json:"rotation"`
	Translation Vec3       `json:"translation"`
}

// RotationMatrix returns the 3x3 rotation as a dense matrix.
func (p Pose) RotationMatrix() *mat.Dense {
	r := make([]float64, 9)
	copy(r, p.Rotation[:])
	return mat.NewDense(3, 3, r)
}

// TranslationVector returns t as a column vector.
func (p Pose) TranslationVector() *mat.VecDense {
	return mat.NewVecDense(3, []float64{p.Translation.X, p.Translation.Y, p.Translation.Z})
}

// Matrix returns the 3x4 [R|t] extrinsic matrix.
func (p Pose) Matrix() *mat.Dense {
	m := mat.NewDense(3, 4, nil)
	m.Slice(0, 3, 0, 3).(*mat.Dense).Copy(p.RotationMatrix())
	m.Set(0, 3, p.Translation.X)
	m.Set(1, 3, p.Translation.Y)
	m.Set(2, 3, p.Translation.Z)
	return m
}

// CameraCenter returns the camera position in world coordinates, C = -R^T * t.
func (p Pose) CameraCenter() Vec3 {
	var c mat.Dense
	c.Mul(p.RotationMatrix().T(), p.TranslationVector())
	c.Scale(-1, &c)
	return Vec3{X: c.At(0, 0), Y: c.At(1, 0), Z: c.At(2, 0)}
}

// CameraToWorld returns the inverse transform (R^T, -R^T*t) as a rotation
// matrix and a translation, useful for scene export.
func (p Pose) CameraToWorld() (*mat.Dense, Vec3) {
	rt := mat.DenseCopyOf(p.RotationMatrix().T())
	return rt, p.CameraCenter()
}

// Frame is a homogeneous 4x4 coordinate-frame transform, row-major.
type Frame [16]float64

// IdentityFrame returns the identity transform.
func IdentityFrame() Frame {
	return Frame{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
}

// IsIdentity reports whether the frame is exactly the identity transform.
func (f Frame) IsIdentity() bool {
	return f == IdentityFrame()
}

// Apply transforms a point by the frame.
func (f Frame) Apply(v Vec3) Vec3 {
	x := f[0]*v.X + f[1]*v.Y + f[2]*v.Z + f[3]
	y := f[4]*v.X + f[5]*v.Y + f[6]*v.Z + f[7]
	z := f[8]*v.X + f[9]*v.Y + f[10]*v.Z + f[11]
	w := f[12]*v.X + f[13]*v.Y + f[14]*v.Z + f[15]
	if w != 0 && w != 1 {
		return Vec3{X: x / w, Y: y / w, Z: z / w}
	}
	return Vec3{X: x, Y: y, Z: z}
}
