package utils

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"log"
	"os"
	"strings"

	"github.com/rwcarlsen/goexif/exif"

	"github.com/ohyeah2389/Pointgram/geometry"
	"github.com/ohyeah2389/Pointgram/project"
)

// ImageMeta is what Pointgram needs to know about a photograph before any
// marks are placed on it: pixel dimensions (mandatory) and whatever EXIF
// hints help seed the intrinsics guess and group images by physical camera.
type ImageMeta struct {
	Width  int
	Height int

	CameraMake      *string
	CameraModel     *string
	LensModel       *string
	FocalLength     *float64 // mm
	FocalLength35mm *float64 // mm, 35mm-equivalent
}

// helper to safely get and convert a rational tag (like FocalLength)
func getRational(exifData *exif.Exif, tagName exif.FieldName) *float64 {
	tag, err := exifData.Get(tagName)
	if err != nil || tag == nil {
		return nil
	}
	num, den, err := tag.Rat2(0)
	if err != nil || den == 0 {
		// sometimes stored as Int instead
		valInt, errInt := tag.Int(0)
		if errInt == nil {
			fVal := float64(valInt)
			return &fVal
		}
		return nil
	}
	val := float64(num) / float64(den)
	return &val
}

// helper to safely get a string tag, trimming null terminators
func getString(exifData *exif.Exif, tagName exif.FieldName) *string {
	tag, err := exifData.Get(tagName)
	if err != nil || tag == nil {
		return nil
	}
	val := strings.TrimRight(strings.Trim(tag.String(), `"`), "\x00")
	if val == "" {
		return nil
	}
	return &val
}

// ProbeImage reads pixel dimensions and camera EXIF hints from an image
// file. Missing EXIF is fine; missing dimensions are an error because the
// project model requires them.
func ProbeImage(filePath string) (*ImageMeta, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("metadata: failed to open file %s: %w", filePath, err)
	}
	defer file.Close()

	config, _, err := image.DecodeConfig(file)
	if err != nil {
		return nil, fmt.Errorf("metadata: failed to decode dimensions of %s: %w", filePath, err)
	}
	meta := &ImageMeta{Width: config.Width, Height: config.Height}

	if _, err := file.Seek(0, 0); err != nil {
		return nil, fmt.Errorf("metadata: failed to seek file %s: %w", filePath, err)
	}

	exifData, err := exif.Decode(file)
	if err != nil {
		// not necessarily a problem, file might just lack EXIF data
		log.Printf("metadata: no EXIF data for %s: %v", filePath, err)
		return meta, nil
	}

	meta.CameraMake = getString(exifData, exif.Make)
	meta.CameraModel = getString(exifData, exif.Model)
	meta.LensModel = getString(exifData, exif.LensModel)
	meta.FocalLength = getRational(exifData, exif.FocalLength)
	meta.FocalLength35mm = getRational(exifData, exif.FocalLengthIn35mmFilm)

	return meta, nil
}

// CameraKey identifies the physical camera/lens combination, used to put
// images taken with the same body and lens into one intrinsics group. Empty
// when EXIF gave us nothing to go on.
func (m *ImageMeta) CameraKey() string {
	if m.CameraMake == nil && m.CameraModel == nil {
		return ""
	}
	var parts []string
	for _, s := range []*string{m.CameraMake, m.CameraModel, m.LensModel} {
		if s != nil {
			parts = append(parts, *s)
		}
	}
	return strings.Join(parts, "/")
}

// InitialIntrinsics builds the intrinsics guess for a fresh group. When the
// EXIF 35mm-equivalent focal length is known, the pixel focal follows from
// the 36mm film width along the longest image side; otherwise the default
// heuristic of 1.2x the longest side applies.
func (m *ImageMeta) InitialIntrinsics() geometry.Intrinsics {
	if m.FocalLength35mm != nil && *m.FocalLength35mm > 0 {
		longest := float64(m.Width)
		if m.Height > m.Width {
			longest = float64(m.Height)
		}
		f := *m.FocalLength35mm / 36.0 * longest
		return geometry.Intrinsics{
			FocalX: f,
			FocalY: f,
			CX:     float64(m.Width) / 2,
			CY:     float64(m.Height) / 2,
		}
	}
	return project.DefaultIntrinsics(m.Width, m.Height)
}
