package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/ohyeah2389/Pointgram/config"
	"github.com/ohyeah2389/Pointgram/export"
	"github.com/ohyeah2389/Pointgram/media"
	"github.com/ohyeah2389/Pointgram/project"
)

type ExportHandler struct {
	Session *project.Session
	Cfg     config.Config
	Store   media.Store
}

// ExportScene renders the solved reconstruction to a glTF asset and stores
// it for download.
func (eh *ExportHandler) ExportScene(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Filename string `json:"filename"`
	}
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	filename := req.Filename
	if filename == "" {
		filename = "scene-" + uuid.NewString() + ".gltf"
	}
	if !strings.HasSuffix(filename, ".gltf") {
		filename += ".gltf"
	}
	if strings.Contains(filename, "/") || strings.Contains(filename, "\\") || strings.Contains(filename, "..") {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid filename"})
		return
	}

	snap := eh.Session.Snapshot()
	var buf bytes.Buffer
	summary, err := export.GLTF(&buf, snap)
	if err != nil {
		RespondDomainError(w, err)
		return
	}

	relPath, err := eh.Store.Save(media.AssetTypeScene, filename, &buf)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to store exported scene: " + err.Error()})
		return
	}

	log.Printf("exported scene %s (%d cameras, %d points)", relPath, summary.Cameras, summary.Points)
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"filename": filename,
		"path":     relPath,
		"cameras":  summary.Cameras,
		"points":   summary.Points,
	})
}

// DownloadScene streams a previously exported glTF asset.
func (eh *ExportHandler) DownloadScene(w http.ResponseWriter, r *http.Request) {
	filename := chi.URLParam(r, "filename")
	if filename == "" || strings.Contains(filename, "..") {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid filename"})
		return
	}

	relPath := filepath.ToSlash(filepath.Join(filepath.Base(eh.Cfg.ExportsPath), filename))
	reader, info, err := eh.Store.Get(relPath)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	defer reader.Close()

	w.Header().Set("Content-Type", "model/gltf+json")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", fmt.Sprintf("%d", info.Size()))
	if _, err := io.Copy(w, reader); err != nil {
		log.Printf("error streaming exported scene %s: %v", relPath, err)
	}
}
