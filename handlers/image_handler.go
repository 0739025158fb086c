package handlers

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ohyeah2389/Pointgram/config"
	"github.com/ohyeah2389/Pointgram/geometry"
	"github.com/ohyeah2389/Pointgram/project"
	"github.com/ohyeah2389/Pointgram/utils"
	"github.com/ohyeah2389/Pointgram/workers"
)

type ImageHandler struct {
	Session  *project.Session
	Cfg      config.Config
	ThumbGen *workers.ThumbnailGenerator
}

// ListImages returns image summaries in natural name order.
func (ih *ImageHandler) ListImages(w http.ResponseWriter, r *http.Request) {
	var summaries []project.ImageSummary
	ih.Session.View(func(p *project.Project) {
		summaries = p.ImageSummaries()
	})
	writeJSON(w, http.StatusOK, summaries)
}

// AddImage registers a photograph with the project. The file is probed for
// pixel dimensions and EXIF metadata; images from the same camera body and
// lens land in the same intrinsics group unless the request names one.
func (ih *ImageHandler) AddImage(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Path    string `json:"path"`
		Name    string `json:"name"`
		GroupID string `json:"group_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid request body: " + err.Error()})
		return
	}
	if req.Path == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Missing required field: path"})
		return
	}
	if !utils.IsRasterImage(req.Path) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Unsupported image format: " + filepath.Ext(req.Path)})
		return
	}

	meta, err := utils.ProbeImage(req.Path)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Could not read image: " + err.Error()})
		return
	}

	name := req.Name
	if name == "" {
		name = filepath.Base(req.Path)
	}

	var added project.Image
	err = ih.Session.Update(func(p *project.Project) error {
		groupID := req.GroupID
		if groupID == "" {
			if key := meta.CameraKey(); key != "" {
				for _, g := range p.Groups() {
					if g.Name == key {
						groupID = g.ID
						break
					}
				}
				if groupID == "" {
					groupID = p.AddGroup(key, meta.InitialIntrinsics()).ID
				}
			}
		}
		img, err := p.AddImage(name, req.Path, meta.Width, meta.Height, groupID)
		if err != nil {
			return err
		}
		added = *img
		return nil
	})
	if err != nil {
		RespondDomainError(w, err)
		return
	}

	if ih.ThumbGen != nil {
		ih.ThumbGen.QueueJob(workers.ThumbnailJob{ImageID: added.ID, SourcePath: req.Path})
	}
	log.Printf("added image %s (%s, %dx%d)", added.ID, name, meta.Width, meta.Height)
	writeJSON(w, http.StatusCreated, added)
}

// GetImage returns one image summary.
func (ih *ImageHandler) GetImage(w http.ResponseWriter, r *http.Request) {
	imageID := chi.URLParam(r, "image_id")
	var found *project.ImageSummary
	ih.Session.View(func(p *project.Project) {
		for _, s := range p.ImageSummaries() {
			if s.ID == imageID {
				found = &s
				break
			}
		}
	})
	if found == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Image not found"})
		return
	}
	writeJSON(w, http.StatusOK, found)
}

// RemoveImage deletes an image and every mark referencing it.
func (ih *ImageHandler) RemoveImage(w http.ResponseWriter, r *http.Request) {
	imageID := chi.URLParam(r, "image_id")
	err := ih.Session.Update(func(p *project.Project) error {
		return p.RemoveImage(imageID)
	})
	if err != nil {
		RespondDomainError(w, err)
		return
	}
	if ih.ThumbGen != nil {
		ih.ThumbGen.Forget(imageID)
	}
	log.Printf("removed image %s", imageID)
	w.WriteHeader(http.StatusNoContent)
}

// AssignGroup moves an image into a different intrinsics group.
func (ih *ImageHandler) AssignGroup(w http.ResponseWriter, r *http.Request) {
	imageID := chi.URLParam(r, "image_id")
	var req struct {
		GroupID string `json:"group_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid request body: " + err.Error()})
		return
	}

	err := ih.Session.Update(func(p *project.Project) error {
		return p.AssignImageGroup(imageID, req.GroupID)
	})
	if err != nil {
		RespondDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ServeThumbnail streams the generated thumbnail for an image. 404 until the
// background worker has produced one.
func (ih *ImageHandler) ServeThumbnail(w http.ResponseWriter, r *http.Request) {
	imageID := chi.URLParam(r, "image_id")
	path, ok := ih.ThumbGen.Lookup(imageID)
	if !ok {
		http.NotFound(w, r)
		return
	}

	cacheDuration := 24 * time.Hour
	w.Header().Set("Cache-Control", fmt.Sprintf("public, max-age=%d", int(cacheDuration.Seconds())))
	w.Header().Set("Expires", time.Now().Add(cacheDuration).Format(http.TimeFormat))
	http.ServeFile(w, r, path)
}

type GroupHandler struct {
	Session *project.Session
}

// ListGroups returns all intrinsics groups.
func (gh *GroupHandler) ListGroups(w http.ResponseWriter, r *http.Request) {
	var groups []project.IntrinsicsGroup
	gh.Session.View(func(p *project.Project) {
		for _, g := range p.Groups() {
			groups = append(groups, *g)
		}
	})
	writeJSON(w, http.StatusOK, groups)
}

// SetIntrinsics replaces a group's intrinsics with a manual estimate,
// demoting the group to unsolved.
func (gh *GroupHandler) SetIntrinsics(w http.ResponseWriter, r *http.Request) {
	groupID := chi.URLParam(r, "group_id")
	var req struct {
		Intrinsics geometry.Intrinsics `json:"intrinsics"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid request body: " + err.Error()})
		return
	}

	err := gh.Session.Update(func(p *project.Project) error {
		return p.SetGroupIntrinsics(groupID, req.Intrinsics)
	})
	if err != nil {
		RespondDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
