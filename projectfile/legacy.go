package projectfile

import (
	"encoding/json"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/google/uuid"
	"github.com/ohyeah2389/Pointgram/geometry"
	"github.com/ohyeah2389/Pointgram/project"
)

// legacyVersion tags the original Pointgram project layout: flat maps keyed
// by stringified point-set and image indices. Early files carried no version
// tag at all; both spellings load through here.
const legacyVersion = 1

type legacyDocument struct {
	ImagePaths      []string                        `json:"image_paths"`
	PointData       map[string]map[string][]float64 `json:"point_data"`
	PointSetNames   map[string]string               `json:"point_set_names"`
	ImageDimensions map[string][]int                `json:"image_dimensions"`
}

// loadLegacy migrates a legacy document into a current project. Set and
// image indices become fresh uuids; numeric set order is preserved so track
// listing matches what the original application showed.
func loadLegacy(data []byte) (*project.Project, error) {
	var doc legacyDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, &ParseError{Detail: "malformed legacy document", Err: err}
	}

	raw := project.Raw{Frame: geometry.IdentityFrame()}

	imageIDs := make([]string, len(doc.ImagePaths))
	for i, path := range doc.ImagePaths {
		dims, ok := doc.ImageDimensions[strconv.Itoa(i)]
		if !ok || len(dims) != 2 || dims[0] <= 0 || dims[1] <= 0 {
			return nil, &ParseError{Detail: "legacy document is missing dimensions for image " + strconv.Itoa(i)}
		}
		groupID := uuid.NewString()
		imageIDs[i] = uuid.NewString()
		name := filepath.Base(path)
		raw.Groups = append(raw.Groups, project.RawGroup{
			ID:         groupID,
			Name:       name,
			Intrinsics: project.DefaultIntrinsics(dims[0], dims[1]),
		})
		raw.Images = append(raw.Images, project.RawImage{
			ID:      imageIDs[i],
			Name:    name,
			Path:    path,
			Width:   dims[0],
			Height:  dims[1],
			GroupID: groupID,
		})
	}

	setIDs := make([]int, 0, len(doc.PointData))
	for key := range doc.PointData {
		id, err := strconv.Atoi(key)
		if err != nil {
			return nil, &ParseError{Detail: "legacy document has non-numeric point set id " + strconv.Quote(key)}
		}
		setIDs = append(setIDs, id)
	}
	sort.Ints(setIDs)

	for _, setID := range setIDs {
		key := strconv.Itoa(setID)
		name := doc.PointSetNames[key]
		if name == "" {
			name = "Point set " + key
		}
		rt := project.RawTrack{ID: uuid.NewString(), Name: name}

		observations := doc.PointData[key]
		imgIdxs := make([]int, 0, len(observations))
		for imgKey := range observations {
			idx, err := strconv.Atoi(imgKey)
			if err != nil || idx < 0 || idx >= len(imageIDs) {
				return nil, &ParseError{Detail: "legacy point set " + key + " references invalid image index " + strconv.Quote(imgKey)}
			}
			imgIdxs = append(imgIdxs, idx)
		}
		sort.Ints(imgIdxs)

		for _, idx := range imgIdxs {
			coords := observations[strconv.Itoa(idx)]
			if len(coords) != 2 {
				return nil, &ParseError{Detail: "legacy point set " + key + " has a malformed coordinate pair"}
			}
			rt.Observations = append(rt.Observations, project.RawObservation{
				ImageID: imageIDs[idx],
				Pixel:   geometry.Pixel{X: coords[0], Y: coords[1]},
				Weight:  1,
			})
		}
		raw.Tracks = append(raw.Tracks, rt)
	}

	p, err := project.FromRaw(raw)
	if err != nil {
		return nil, &ParseError{Detail: "inconsistent legacy project data", Err: err}
	}
	return p, nil
}
