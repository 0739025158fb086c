package geometry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testIntrinsics = Intrinsics{FocalX: 1000, FocalY: 1000, CX: 500, CY: 400}

func TestProject(t *testing.T) {
	identity := Pose{Rotation: [9]float64{1, 0, 0, 0, 1, 0, 0, 0, 1}}

	t.Run("point on the optical axis hits the principal point", func(t *testing.T) {
		px, ok := Project(Vec3{X: 0, Y: 0, Z: 10}, testIntrinsics, identity)
		require.True(t, ok)
		assert.InDelta(t, 500, px.X, 1e-12)
		assert.InDelta(t, 400, px.Y, 1e-12)
	})

	t.Run("off-axis point", func(t *testing.T) {
		px, ok := Project(Vec3{X: 1, Y: 2, Z: 10}, testIntrinsics, identity)
		require.True(t, ok)
		assert.InDelta(t, 500+1000*0.1, px.X, 1e-12)
		assert.InDelta(t, 400+1000*0.2, px.Y, 1e-12)
	})

	t.Run("point behind the camera does not project", func(t *testing.T) {
		_, ok := Project(Vec3{X: 0, Y: 0, Z: -1}, testIntrinsics, identity)
		assert.False(t, ok)
	})

	t.Run("translation moves the camera", func(t *testing.T) {
		// camera shifted so the world origin sits 5 units in front of it
		pose := Pose{Rotation: [9]float64{1, 0, 0, 0, 1, 0, 0, 0, 1}, Translation: Vec3{Z: 5}}
		px, ok := Project(Vec3{}, testIntrinsics, pose)
		require.True(t, ok)
		assert.InDelta(t, 500, px.X, 1e-12)
		assert.InDelta(t, 400, px.Y, 1e-12)
	})
}

func TestPose(t *testing.T) {
	// 90 degree rotation about Z, with a translation
	pose := Pose{
		Rotation:    [9]float64{0, -1, 0, 1, 0, 0, 0, 0, 1},
		Translation: Vec3{X: 1, Y: 2, Z: 3},
	}

	t.Run("camera center inverts the transform", func(t *testing.T) {
		c := pose.CameraCenter()
		// x_cam = R*C + t must be zero
		x := pose.Rotation[0]*c.X + pose.Rotation[1]*c.Y + pose.Rotation[2]*c.Z + pose.Translation.X
		y := pose.Rotation[3]*c.X + pose.Rotation[4]*c.Y + pose.Rotation[5]*c.Z + pose.Translation.Y
		z := pose.Rotation[6]*c.X + pose.Rotation[7]*c.Y + pose.Rotation[8]*c.Z + pose.Translation.Z
		assert.InDelta(t, 0, x, 1e-12)
		assert.InDelta(t, 0, y, 1e-12)
		assert.InDelta(t, 0, z, 1e-12)
	})

	t.Run("projection matrix matches direct projection", func(t *testing.T) {
		p := ProjectionMatrix(testIntrinsics, pose)
		world := Vec3{X: 2, Y: -1, Z: 4}

		hx := p.At(0, 0)*world.X + p.At(0, 1)*world.Y + p.At(0, 2)*world.Z + p.At(0, 3)
		hy := p.At(1, 0)*world.X + p.At(1, 1)*world.Y + p.At(1, 2)*world.Z + p.At(1, 3)
		hw := p.At(2, 0)*world.X + p.At(2, 1)*world.Y + p.At(2, 2)*world.Z + p.At(2, 3)

		px, ok := Project(world, testIntrinsics, pose)
		require.True(t, ok)
		assert.InDelta(t, px.X, hx/hw, 1e-9)
		assert.InDelta(t, px.Y, hy/hw, 1e-9)
	})
}

func TestResidual(t *testing.T) {
	identity := Pose{Rotation: [9]float64{1, 0, 0, 0, 1, 0, 0, 0, 1}}
	point := Vec3{X: 1, Y: 2, Z: 10}

	t.Run("exact observation has zero residual", func(t *testing.T) {
		projected, ok := Project(point, testIntrinsics, identity)
		require.True(t, ok)
		res, ok := Residual(projected, point, testIntrinsics, identity)
		require.True(t, ok)
		assert.InDelta(t, 0, res.Magnitude, 1e-12)
	})

	t.Run("offset observation", func(t *testing.T) {
		projected, _ := Project(point, testIntrinsics, identity)
		observed := Pixel{X: projected.X + 3, Y: projected.Y - 4}
		res, ok := Residual(observed, point, testIntrinsics, identity)
		require.True(t, ok)
		assert.InDelta(t, 3, res.DX, 1e-12)
		assert.InDelta(t, -4, res.DY, 1e-12)
		assert.InDelta(t, 5, res.Magnitude, 1e-12)
	})

	t.Run("point behind the camera has no residual", func(t *testing.T) {
		_, ok := Residual(Pixel{}, Vec3{Z: -1}, testIntrinsics, identity)
		assert.False(t, ok)
	})
}

func TestFrame(t *testing.T) {
	t.Run("identity", func(t *testing.T) {
		assert.True(t, IdentityFrame().IsIdentity())
		v := Vec3{X: 1, Y: 2, Z: 3}
		assert.Equal(t, v, IdentityFrame().Apply(v))
	})

	t.Run("translation", func(t *testing.T) {
		f := IdentityFrame()
		f[3], f[7], f[11] = 1, 2, 3
		got := f.Apply(Vec3{X: 1, Y: 1, Z: 1})
		assert.Equal(t, Vec3{X: 2, Y: 3, Z: 4}, got)
	})

	t.Run("uniform scale via w", func(t *testing.T) {
		f := IdentityFrame()
		f[15] = 2
		got := f.Apply(Vec3{X: 2, Y: 4, Z: 6})
		assert.InDelta(t, 1, got.X, 1e-12)
		assert.InDelta(t, 2, got.Y, 1e-12)
		assert.InDelta(t, 3, got.Z, 1e-12)
	})
}
