// Package projectfile persists projects as versioned, self-describing JSON
// documents. Saving snapshots first and writes atomically; loading migrates
// recognized older layouts and refuses unknown newer ones.
package projectfile

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/ohyeah2389/Pointgram/project"
)

const (
	currentVersion = project.FormatVersion
	generatorName  = "Pointgram"
)

// document is the on-disk layout, version 2.
type document struct {
	Version   int         `json:"version"`
	Generator string      `json:"generator,omitempty"`
	Project   project.Raw `json:"project"`
}

// Save encodes the project to w in the current format. Callers persisting to
// disk should go through SaveFile, which adds the atomic rename.
func Save(w io.Writer, p *project.Project) error {
	doc := document{
		Version:   currentVersion,
		Generator: generatorName,
		Project:   p.ToRaw(),
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("projectfile: encode: %w", err)
	}
	return nil
}

// Load decodes a project document from r. Documents without a version tag
// are probed for the legacy Pointgram layout (image_paths + point_data) and
// migrated; documents with a version newer than this build fail with
// UnsupportedVersionError.
func Load(r io.Reader) (*project.Project, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, &ParseError{Detail: "read", Err: err}
	}

	var probe struct {
		Version    *int            `json:"version"`
		ImagePaths json.RawMessage `json:"image_paths"`
		PointData  json.RawMessage `json:"point_data"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, &ParseError{Detail: "not a JSON document", Err: err}
	}

	switch {
	case probe.Version == nil:
		if probe.ImagePaths == nil || probe.PointData == nil {
			return nil, &ParseError{Detail: "missing version tag and not a recognizable legacy project"}
		}
		return loadLegacy(data)
	case *probe.Version == legacyVersion:
		return loadLegacy(data)
	case *probe.Version == currentVersion:
		var doc document
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, &ParseError{Detail: "malformed version 2 document", Err: err}
		}
		p, err := project.FromRaw(doc.Project)
		if err != nil {
			return nil, &ParseError{Detail: "inconsistent project data", Err: err}
		}
		return p, nil
	default:
		return nil, &UnsupportedVersionError{Version: *probe.Version}
	}
}
