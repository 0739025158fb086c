package handlers

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/ohyeah2389/Pointgram/config"
	"github.com/ohyeah2389/Pointgram/geometry"
	"github.com/ohyeah2389/Pointgram/project"
	"github.com/ohyeah2389/Pointgram/projectfile"
	"github.com/ohyeah2389/Pointgram/realtime"
	"github.com/ohyeah2389/Pointgram/solve"
)

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			log.Printf("Error encoding JSON response: %v", err)
		}
	}
}

type ProjectHandler struct {
	Session *project.Session
	Cfg     config.Config
	Hub     *realtime.Hub
}

type projectInfo struct {
	Path     string         `json:"path"`
	Revision uint64         `json:"revision"`
	Dirty    bool           `json:"dirty"`
	Images   int            `json:"images"`
	Tracks   int            `json:"tracks"`
	Eligible int            `json:"eligible_tracks"`
	Groups   int            `json:"groups"`
	CanSolve bool           `json:"can_solve"`
	Frame    geometry.Frame `json:"frame"`
}

func (ph *ProjectHandler) info() projectInfo {
	var info projectInfo
	ph.Session.View(func(p *project.Project) {
		eligible := len(p.EligibleTracks())
		info = projectInfo{
			Path:     ph.Session.Path(),
			Revision: p.Revision(),
			Dirty:    p.Dirty(),
			Images:   len(p.Images()),
			Tracks:   len(p.Tracks()),
			Eligible: eligible,
			Groups:   len(p.Groups()),
			CanSolve: len(p.Images()) >= solve.MinImages && eligible >= solve.MinEligibleTracks,
			Frame:    p.Frame(),
		}
	})
	return info
}

// GetProject returns a summary of the open project.
func (ph *ProjectHandler) GetProject(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, ph.info())
}

// NewProject discards the open project and starts an empty one.
func (ph *ProjectHandler) NewProject(w http.ResponseWriter, r *http.Request) {
	ph.Session.Replace(project.New(), "")
	log.Println("started new empty project")
	if ph.Hub != nil {
		ph.Hub.Broadcast(realtime.Event{Type: realtime.EventProjectOpened})
	}
	writeJSON(w, http.StatusCreated, ph.info())
}

// OpenProject loads a project file, replacing the open project. Legacy
// documents are migrated transparently.
func (ph *ProjectHandler) OpenProject(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Path string `json:"path"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid request body: " + err.Error()})
		return
	}
	if req.Path == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Missing required field: path"})
		return
	}

	p, err := projectfile.LoadFile(req.Path)
	if err != nil {
		RespondDomainError(w, err)
		return
	}

	ph.Session.Replace(p, req.Path)
	log.Printf("opened project %s (%d images, %d tracks)", req.Path, len(p.Images()), len(p.Tracks()))
	if ph.Hub != nil {
		ph.Hub.Broadcast(realtime.Event{Type: realtime.EventProjectOpened, Revision: p.Revision()})
	}
	writeJSON(w, http.StatusOK, ph.info())
}

// SaveProject writes the open project to disk. Falls back to the path it was
// opened from when the request names none.
func (ph *ProjectHandler) SaveProject(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Path string `json:"path"`
	}
	if r.Body != nil {
		// body is optional; ignore decode errors from an empty body
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	path := req.Path
	if path == "" {
		path = ph.Session.Path()
	}
	if path == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Project has no path; provide one in the request body"})
		return
	}

	snap := ph.Session.Snapshot()
	if err := projectfile.SaveFile(path, snap); err != nil {
		RespondDomainError(w, err)
		return
	}
	ph.Session.SetPath(path)
	log.Printf("saved project to %s", path)
	if ph.Hub != nil {
		ph.Hub.Broadcast(realtime.Event{Type: realtime.EventProjectSaved, Revision: snap.Revision()})
	}
	writeJSON(w, http.StatusOK, map[string]string{"path": path})
}

// SetCoordinateFrame replaces the export coordinate frame.
func (ph *ProjectHandler) SetCoordinateFrame(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Frame geometry.Frame `json:"frame"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid request body: " + err.Error()})
		return
	}

	err := ph.Session.Update(func(p *project.Project) error {
		p.SetCoordinateFrame(req.Frame)
		return nil
	})
	if err != nil {
		RespondDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ph.info())
}
