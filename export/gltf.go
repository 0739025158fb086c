// Package export turns a solved project into a glTF 2.0 scene: one camera
// node per pose-solved image and a points node carrying the solved track
// positions, all under the project coordinate frame. It is a pure read of
// the model; nothing is solved and nothing is mutated.
package export

import (
	"errors"
	"io"
	"math"
	"os"
	"path/filepath"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
	"gonum.org/v1/gonum/mat"

	"github.com/ohyeah2389/Pointgram/geometry"
	"github.com/ohyeah2389/Pointgram/project"
)

// NothingToExportError reports a project with no solved images and no solved
// tracks; there is no scene to write.
var NothingToExportError = errors.New("export: no solved cameras or points in project")

const (
	generatorName = "Pointgram"
	znear         = 0.01
	zfar          = 1000.0
)

// worldConversion maps the solver's OpenCV-style world axes onto glTF world
// axes: X stays, glTF Y is OpenCV Z, glTF Z is OpenCV -Y.
var worldConversion = mat.NewDense(3, 3, []float64{
	1, 0, 0,
	0, 0, 1,
	0, -1, 0,
})

// cameraConvention flips the camera-local axes between the OpenCV camera
// (+Z forward, +Y down) and the glTF camera (-Z forward, +Y up).
var cameraConvention = mat.NewDense(3, 3, []float64{
	1, 0, 0,
	0, -1, 0,
	0, 0, -1,
})

// Summary reports what a successful export wrote.
type Summary struct {
	Cameras int `json:"cameras"`
	Points  int `json:"points"`
}

// GLTF writes the solved scene as glTF JSON. Unsolved images and tracks are
// excluded entirely rather than exported as degenerate data.
func GLTF(w io.Writer, p *project.Project) (Summary, error) {
	doc := gltf.NewDocument()
	doc.Asset = gltf.Asset{Version: "2.0", Generator: generatorName}

	var cameraNodes, pointCount int

	// Root node carrying the project coordinate frame; cameras and points
	// hang off it so a later frame definition moves the whole scene.
	root := &gltf.Node{Name: "Scene", Matrix: frameToColumnMajor(p.Frame())}
	doc.Nodes = append(doc.Nodes, root)
	rootIndex := len(doc.Nodes) - 1
	doc.Scenes[0].Nodes = []int{rootIndex}

	for _, img := range p.ImagesByName() {
		pose, ok := img.PoseSolutionValue()
		if !ok {
			continue
		}
		g, ok := p.Group(img.GroupID)
		if !ok {
			continue
		}
		camIndex, ok := appendCamera(doc, img, g.Intrinsics)
		if !ok {
			continue
		}
		node := &gltf.Node{
			Name:   img.Name,
			Camera: gltf.Index(camIndex),
			Matrix: cameraNodeMatrix(pose),
		}
		doc.Nodes = append(doc.Nodes, node)
		root.Children = append(root.Children, len(doc.Nodes)-1)
		cameraNodes++
	}

	var positions [][3]float32
	for _, t := range p.Tracks() {
		pos, ok := t.PointSolutionValue()
		if !ok {
			continue
		}
		var v mat.VecDense
		v.MulVec(worldConversion, mat.NewVecDense(3, []float64{pos.X, pos.Y, pos.Z}))
		positions = append(positions, [3]float32{
			float32(v.AtVec(0)), float32(v.AtVec(1)), float32(v.AtVec(2)),
		})
	}
	pointCount = len(positions)

	if cameraNodes == 0 && pointCount == 0 {
		return Summary{}, NothingToExportError
	}

	if pointCount > 0 {
		posAccessor := modeler.WritePosition(doc, positions)
		doc.Meshes = append(doc.Meshes, &gltf.Mesh{
			Name: "Points",
			Primitives: []*gltf.Primitive{{
				Attributes: map[string]int{gltf.POSITION: posAccessor},
				Mode:       gltf.PrimitivePoints,
			}},
		})
		node := &gltf.Node{
			Name:     "Points",
			Mesh:     gltf.Index(len(doc.Meshes) - 1),
			Matrix:   identityColumnMajor(),
			Rotation: [4]float64{0, 0, 0, 1},
			Scale:    [3]float64{1, 1, 1},
		}
		doc.Nodes = append(doc.Nodes, node)
		root.Children = append(root.Children, len(doc.Nodes)-1)
	}

	for _, buf := range doc.Buffers {
		buf.EmbeddedResource()
	}
	enc := gltf.NewEncoder(w)
	enc.AsBinary = false
	if err := enc.Encode(doc); err != nil {
		return Summary{}, err
	}
	return Summary{Cameras: cameraNodes, Points: pointCount}, nil
}

// SaveFile writes the scene to disk through a temporary file so a failed
// export never clobbers a previous artifact.
func SaveFile(path string, p *project.Project) (Summary, error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), "scene-*.gltf")
	if err != nil {
		return Summary{}, err
	}
	tmpName := tmp.Name()
	summary, err := GLTF(tmp, p)
	closeErr := tmp.Close()
	if err != nil {
		os.Remove(tmpName)
		return Summary{}, err
	}
	if closeErr != nil {
		os.Remove(tmpName)
		return Summary{}, closeErr
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return Summary{}, err
	}
	return summary, nil
}

// appendCamera adds a perspective camera definition derived from intrinsics
// and pixel dimensions. Degenerate intrinsics are skipped, not exported.
func appendCamera(doc *gltf.Document, img *project.Image, in geometry.Intrinsics) (int, bool) {
	if img.Width <= 0 || img.Height <= 0 || math.Abs(in.FocalX) < 1e-9 || math.Abs(in.FocalY) < 1e-9 {
		return 0, false
	}
	yfov := 2 * math.Atan2(float64(img.Height)/2, in.FocalY)
	yfov = math.Min(math.Max(yfov, 1e-6), math.Pi-1e-6)
	aspect := (float64(img.Width) * in.FocalY) / (float64(img.Height) * in.FocalX)
	if aspect < 1e-6 {
		aspect = 1e-6
	}

	doc.Cameras = append(doc.Cameras, &gltf.Camera{
		Name: img.Name + "_Def",
		Type: "perspective",
		Perspective: &gltf.Perspective{
			AspectRatio: gltf.Float(aspect),
			Yfov:        yfov,
			Znear:       znear,
			Zfar:        gltf.Float(zfar),
		},
	})
	return len(doc.Cameras) - 1, true
}

// cameraNodeMatrix converts a world-to-camera OpenCV pose into a glTF
// camera-to-world node matrix, column-major.
func cameraNodeMatrix(pose geometry.Pose) [16]float64 {
	rc2w, center := pose.CameraToWorld()

	var r mat.Dense
	r.Mul(worldConversion, rc2w)
	r.Mul(&r, cameraConvention)

	var c mat.VecDense
	c.MulVec(worldConversion, mat.NewVecDense(3, []float64{center.X, center.Y, center.Z}))

	var m [16]float64
	for col := 0; col < 3; col++ {
		for row := 0; row < 3; row++ {
			m[col*4+row] = r.At(row, col)
		}
	}
	m[12] = c.AtVec(0)
	m[13] = c.AtVec(1)
	m[14] = c.AtVec(2)
	m[15] = 1
	return m
}

// frameToColumnMajor converts the project's row-major frame to the
// column-major layout glTF nodes use.
func frameToColumnMajor(f geometry.Frame) [16]float64 {
	var m [16]float64
	for row := 0; row < 4; row++ {
		for col := 0; col < 4; col++ {
			m[col*4+row] = f[row*4+col]
		}
	}
	return m
}

func identityColumnMajor() [16]float64 {
	return [16]float64{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
}
