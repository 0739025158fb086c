package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ohyeah2389/Pointgram/config"
	"github.com/ohyeah2389/Pointgram/geometry"
	"github.com/ohyeah2389/Pointgram/media"
	"github.com/ohyeah2389/Pointgram/project"
	"github.com/ohyeah2389/Pointgram/solve"
	"github.com/ohyeah2389/Pointgram/workers"
)

type okSolver struct{}

func (okSolver) Solve(ctx context.Context, in *solve.Input) (*solve.Result, error) {
	return &solve.Result{}, nil
}

type testAPI struct {
	router  chi.Router
	session *project.Session
	runner  *workers.SolveRunner
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	cfg := config.Config{
		DataStoragePath:  t.TempDir(),
		MergeTolerancePx: 0.5,
	}
	cfg.ThumbnailsPath = filepath.Join(cfg.DataStoragePath, "thumbnails")
	cfg.ExportsPath = filepath.Join(cfg.DataStoragePath, "exports")

	store, err := media.NewLocalStorage(cfg.DataStoragePath, map[media.AssetType]string{
		media.AssetTypeThumbnail: "thumbnails",
		media.AssetTypeScene:     "exports",
	})
	require.NoError(t, err)

	session := project.NewSession(project.New(), "")
	runner := workers.NewSolveRunner(solve.NewAdapter(okSolver{}), session, nil)
	t.Cleanup(runner.Stop)

	projectHandler := &ProjectHandler{Session: session, Cfg: cfg}
	trackHandler := &TrackHandler{Session: session, Cfg: cfg}
	solveHandler := &SolveHandler{Runner: runner}
	exportHandler := &ExportHandler{Session: session, Cfg: cfg, Store: store}

	r := chi.NewRouter()
	r.Route("/api", func(r chi.Router) {
		r.Route("/project", func(r chi.Router) {
			r.Get("/", projectHandler.GetProject)
			r.Post("/open", projectHandler.OpenProject)
			r.Post("/save", projectHandler.SaveProject)
			r.Put("/frame", projectHandler.SetCoordinateFrame)
		})
		r.Route("/tracks", func(r chi.Router) {
			r.Get("/", trackHandler.ListTracks)
			r.Post("/", trackHandler.CreateTrack)
			r.Route("/{track_id}", func(r chi.Router) {
				r.Get("/", trackHandler.GetTrack)
				r.Put("/", trackHandler.RenameTrack)
				r.Delete("/", trackHandler.DeleteTrack)
				r.Post("/merge", trackHandler.MergeTracks)
				r.Post("/split", trackHandler.SplitTrack)
				r.Route("/observations/{image_id}", func(r chi.Router) {
					r.Put("/", trackHandler.SetObservation)
					r.Delete("/", trackHandler.RemoveObservation)
				})
			})
		})
		r.Route("/solve", func(r chi.Router) {
			r.Post("/", solveHandler.StartSolve)
			r.Get("/", solveHandler.SolveStatus)
		})
		r.Route("/export", func(r chi.Router) {
			r.Post("/", exportHandler.ExportScene)
		})
	})

	return &testAPI{router: r, session: session, runner: runner}
}

func (a *testAPI) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Buffer
	if body != nil {
		encoded, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewBuffer(encoded)
	} else {
		reader = bytes.NewBuffer(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

// addImage skips the file-probing path so handler tests need no real files.
func (a *testAPI) addImage(t *testing.T, name string) string {
	t.Helper()
	var id string
	err := a.session.Update(func(p *project.Project) error {
		img, err := p.AddImage(name, "/photos/"+name, 4000, 3000, "")
		if err != nil {
			return err
		}
		id = img.ID
		return nil
	})
	require.NoError(t, err)
	return id
}

func TestTrackEndpoints(t *testing.T) {
	api := newTestAPI(t)
	imgA := api.addImage(t, "a.jpg")
	imgB := api.addImage(t, "b.jpg")

	rec := api.do(t, http.MethodPost, "/api/tracks/", map[string]string{"name": "nose tip"})
	require.Equal(t, http.StatusCreated, rec.Code)
	var created project.TrackSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, "nose tip", created.Name)

	t.Run("set and list observations", func(t *testing.T) {
		rec := api.do(t, http.MethodPut, "/api/tracks/"+created.ID+"/observations/"+imgA, map[string]float64{"x": 10, "y": 20})
		assert.Equal(t, http.StatusNoContent, rec.Code)
		rec = api.do(t, http.MethodPut, "/api/tracks/"+created.ID+"/observations/"+imgB, map[string]float64{"x": 30, "y": 40})
		assert.Equal(t, http.StatusNoContent, rec.Code)

		rec = api.do(t, http.MethodGet, "/api/tracks/"+created.ID, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var got project.TrackSummary
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		assert.Equal(t, 2, got.ObservationCount)
		assert.True(t, got.Eligible)
	})

	t.Run("observation on unknown image is 422", func(t *testing.T) {
		rec := api.do(t, http.MethodPut, "/api/tracks/"+created.ID+"/observations/ghost", map[string]float64{"x": 1, "y": 1})
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		var resp APIErrorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Len(t, resp.Errors, 1)
		assert.Equal(t, project.InvariantReferentialIntegrity, resp.Errors[0].Code)
	})

	t.Run("rename", func(t *testing.T) {
		rec := api.do(t, http.MethodPut, "/api/tracks/"+created.ID, map[string]string{"name": "chin"})
		assert.Equal(t, http.StatusNoContent, rec.Code)
		rec = api.do(t, http.MethodGet, "/api/tracks/"+created.ID, nil)
		var got project.TrackSummary
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		assert.Equal(t, "chin", got.Name)
	})

	t.Run("missing track is 404", func(t *testing.T) {
		rec := api.do(t, http.MethodGet, "/api/tracks/ghost", nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestMergeConflictOverHTTP(t *testing.T) {
	api := newTestAPI(t)
	imgA := api.addImage(t, "a.jpg")

	var dstID, srcID string
	require.NoError(t, api.session.Update(func(p *project.Project) error {
		dst := p.NewTrack("dst")
		src := p.NewTrack("src")
		dstID, srcID = dst.ID, src.ID
		if err := p.SetObservation(dst.ID, imgA, geometry.Pixel{X: 10, Y: 10}, 1); err != nil {
			return err
		}
		return p.SetObservation(src.ID, imgA, geometry.Pixel{X: 50, Y: 50}, 1)
	}))

	t.Run("conflict is 409 with both pixels", func(t *testing.T) {
		rec := api.do(t, http.MethodPost, "/api/tracks/"+dstID+"/merge", map[string]string{"source_id": srcID})
		require.Equal(t, http.StatusConflict, rec.Code)

		var resp struct {
			Conflict struct {
				ImageID  string         `json:"image_id"`
				DstPixel geometry.Pixel `json:"destination_pixel"`
				SrcPixel geometry.Pixel `json:"source_pixel"`
			} `json:"conflict"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, imgA, resp.Conflict.ImageID)
		assert.Equal(t, geometry.Pixel{X: 10, Y: 10}, resp.Conflict.DstPixel)
		assert.Equal(t, geometry.Pixel{X: 50, Y: 50}, resp.Conflict.SrcPixel)
	})

	t.Run("winner resolves it", func(t *testing.T) {
		rec := api.do(t, http.MethodPost, "/api/tracks/"+dstID+"/merge",
			map[string]string{"source_id": srcID, "winner": "source"})
		require.Equal(t, http.StatusOK, rec.Code)

		var got project.TrackSummary
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		require.Len(t, got.Observations, 1)
		assert.Equal(t, geometry.Pixel{X: 50, Y: 50}, got.Observations[0].Pixel)
	})

	t.Run("bad winner is 400", func(t *testing.T) {
		rec := api.do(t, http.MethodPost, "/api/tracks/"+dstID+"/merge",
			map[string]string{"source_id": dstID, "winner": "coin flip"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestSolveEndpointGuards(t *testing.T) {
	api := newTestAPI(t)

	t.Run("undersized project is 412", func(t *testing.T) {
		rec := api.do(t, http.MethodPost, "/api/solve/", nil)
		assert.Equal(t, http.StatusPreconditionFailed, rec.Code)
		var resp APIErrorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "insufficient_data", resp.Errors[0].Code)
	})

	t.Run("status always answers", func(t *testing.T) {
		rec := api.do(t, http.MethodGet, "/api/solve/", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var st workers.SolveStatus
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &st))
		assert.False(t, st.Running)
	})
}

func TestExportEndpoint(t *testing.T) {
	api := newTestAPI(t)

	t.Run("nothing solved is 412", func(t *testing.T) {
		rec := api.do(t, http.MethodPost, "/api/export/", nil)
		assert.Equal(t, http.StatusPreconditionFailed, rec.Code)
	})

	t.Run("solved project exports", func(t *testing.T) {
		imgA := api.addImage(t, "a.jpg")
		imgB := api.addImage(t, "b.jpg")
		require.NoError(t, api.session.Update(func(p *project.Project) error {
			tr := p.NewTrack("corner")
			if err := p.SetObservation(tr.ID, imgA, geometry.Pixel{X: 1, Y: 1}, 1); err != nil {
				return err
			}
			if err := p.SetObservation(tr.ID, imgB, geometry.Pixel{X: 2, Y: 2}, 1); err != nil {
				return err
			}
			return p.ApplySolveUpdate(project.SolveUpdate{
				Points: map[string]geometry.Vec3{tr.ID: {X: 1, Y: 2, Z: 3}},
			})
		}))

		rec := api.do(t, http.MethodPost, "/api/export/", map[string]string{"filename": "scan"})
		require.Equal(t, http.StatusCreated, rec.Code)

		var resp struct {
			Filename string `json:"filename"`
			Points   int    `json:"points"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "scan.gltf", resp.Filename)
		assert.Equal(t, 1, resp.Points)
	})
}

func TestProjectEndpoints(t *testing.T) {
	api := newTestAPI(t)
	api.addImage(t, "a.jpg")

	t.Run("info reflects the graph", func(t *testing.T) {
		rec := api.do(t, http.MethodGet, "/api/project/", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var info struct {
			Images   int  `json:"images"`
			CanSolve bool `json:"can_solve"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &info))
		assert.Equal(t, 1, info.Images)
		assert.False(t, info.CanSolve)
	})

	t.Run("save then open round trip", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "scan.pointgram")
		rec := api.do(t, http.MethodPost, "/api/project/save", map[string]string{"path": path})
		require.Equal(t, http.StatusOK, rec.Code)

		rec = api.do(t, http.MethodPost, "/api/project/open", map[string]string{"path": path})
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, path, api.session.Path())
	})

	t.Run("opening a newer document is 400", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "future.pointgram")
		require.NoError(t, os.WriteFile(path, []byte(`{"version": 99}`), 0o644))
		rec := api.do(t, http.MethodPost, "/api/project/open", map[string]string{"path": path})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("save without any path is 400", func(t *testing.T) {
		fresh := newTestAPI(t)
		rec := fresh.do(t, http.MethodPost, "/api/project/save", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}
