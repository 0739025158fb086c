package main

import (
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/rs/cors"

	"github.com/ohyeah2389/Pointgram/config"
	"github.com/ohyeah2389/Pointgram/handlers"
	"github.com/ohyeah2389/Pointgram/media"
	"github.com/ohyeah2389/Pointgram/project"
	"github.com/ohyeah2389/Pointgram/projectfile"
	"github.com/ohyeah2389/Pointgram/realtime"
	"github.com/ohyeah2389/Pointgram/solve"
	"github.com/ohyeah2389/Pointgram/workers"
)

func main() {
	projectPath := flag.String("project", "", "project file to open at startup")
	flag.Parse()

	err := godotenv.Load()
	if err != nil {
		log.Printf("Info: No .env file found or error loading: %v", err)
	}
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err)
	}

	storagePaths := []string{cfg.ThumbnailsPath, cfg.ExportsPath}
	for _, p := range storagePaths {
		log.Printf("Ensuring storage directory exists: %s", p)
		if err := os.MkdirAll(p, 0755); err != nil {
			log.Fatalf("FATAL: Failed to create storage directory %s: %v", p, err)
		}
	}

	mediaSubDirs := map[media.AssetType]string{
		media.AssetTypeThumbnail: filepath.Base(cfg.ThumbnailsPath),
		media.AssetTypeScene:     filepath.Base(cfg.ExportsPath),
	}
	mediaStore, err := media.NewLocalStorage(cfg.DataStoragePath, mediaSubDirs)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize media store: %v", err)
	}

	hub := realtime.NewHub()
	go hub.Run()

	proj := project.New()
	openedPath := ""
	if *projectPath != "" {
		loaded, err := projectfile.LoadFile(*projectPath)
		if err != nil {
			log.Fatalf("FATAL: Failed to open project %s: %v", *projectPath, err)
		}
		proj = loaded
		openedPath = *projectPath
		log.Printf("Opened project %s (%d images, %d tracks)", openedPath, len(proj.Images()), len(proj.Tracks()))
	}
	session := project.NewSession(proj, openedPath)

	solver := &solve.ExecSolver{Path: cfg.SolverPath, Args: cfg.SolverArgs}
	adapter := solve.NewAdapter(solver)
	solveRunner := workers.NewSolveRunner(adapter, session, hub)
	defer solveRunner.Stop()

	thumbGen := workers.NewThumbnailGenerator(cfg, hub, 100, 2)
	defer thumbGen.Stop()

	log.Printf("Using solver: %s %v", cfg.SolverPath, cfg.SolverArgs)
	log.Printf("Storing thumbnails in: %s", cfg.ThumbnailsPath)
	log.Printf("Storing exported scenes in: %s", cfg.ExportsPath)

	r := chi.NewRouter()

	corsOptions := cors.Options{
		AllowedOrigins:   []string{cfg.FrontendOrigin},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	}
	corsHandler := cors.New(corsOptions)

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(corsHandler.Handler)

	projectHandler := &handlers.ProjectHandler{Session: session, Cfg: cfg, Hub: hub}
	imageHandler := &handlers.ImageHandler{Session: session, Cfg: cfg, ThumbGen: thumbGen}
	groupHandler := &handlers.GroupHandler{Session: session}
	trackHandler := &handlers.TrackHandler{Session: session, Cfg: cfg}
	solveHandler := &handlers.SolveHandler{Runner: solveRunner}
	exportHandler := &handlers.ExportHandler{Session: session, Cfg: cfg, Store: mediaStore}

	r.Route("/api", func(r chi.Router) {
		r.Route("/project", func(r chi.Router) {
			r.Get("/", projectHandler.GetProject)
			r.Post("/new", projectHandler.NewProject)
			r.Post("/open", projectHandler.OpenProject)
			r.Post("/save", projectHandler.SaveProject)
			r.Put("/frame", projectHandler.SetCoordinateFrame)
		})

		r.Route("/images", func(r chi.Router) {
			r.Get("/", imageHandler.ListImages)
			r.Post("/", imageHandler.AddImage)
			r.Route("/{image_id}", func(r chi.Router) {
				r.Get("/", imageHandler.GetImage)
				r.Delete("/", imageHandler.RemoveImage)
				r.Put("/group", imageHandler.AssignGroup)
				r.Get("/thumbnail", imageHandler.ServeThumbnail)
			})
		})

		r.Route("/groups", func(r chi.Router) {
			r.Get("/", groupHandler.ListGroups)
			r.Put("/{group_id}/intrinsics", groupHandler.SetIntrinsics)
		})

		r.Route("/tracks", func(r chi.Router) {
			r.Get("/", trackHandler.ListTracks)
			r.Post("/", trackHandler.CreateTrack)
			r.Get("/reprojection_errors", trackHandler.ReprojectionErrors)
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
			r.Delete("/", solveHandler.CancelSolve)
			r.Get("/", solveHandler.SolveStatus)
		})

		r.Route("/export", func(r chi.Router) {
			r.Post("/", exportHandler.ExportScene)
			r.Get("/{filename}", exportHandler.DownloadScene)
		})
	})

	r.Get("/ws", hub.ServeWS)

	fmt.Printf("Server starting on http://localhost%s\n", cfg.ListenAddr)
	log.Printf("Server listening on %s", cfg.ListenAddr)
	server := &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	log.Fatal(server.ListenAndServe())
}
