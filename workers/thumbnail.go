package workers

import (
	"log"
	"os"
	"sync"

	"github.com/ohyeah2389/Pointgram/config"
	"github.com/ohyeah2389/Pointgram/realtime"
	"github.com/ohyeah2389/Pointgram/utils"
)

type ThumbnailJob struct {
	ImageID    string
	SourcePath string
}

// ThumbnailGenerator produces downscaled copies of project images in the
// background. Thumbnails are derived artifacts, not project state, so the
// generator keeps its own image id to thumbnail path registry.
type ThumbnailGenerator struct {
	JobQueue chan ThumbnailJob
	Config   config.Config
	Hub      *realtime.Hub
	Wg       sync.WaitGroup
	StopChan chan struct{}
	Pending  map[string]bool
	Mutex    sync.Mutex

	ready map[string]string // image id -> thumbnail path on disk
}

func NewThumbnailGenerator(cfg config.Config, hub *realtime.Hub, queueSize, numWorkers int) *ThumbnailGenerator {
	if numWorkers <= 0 {
		numWorkers = 1
	}
	if queueSize <= 0 {
		queueSize = 100
	}

	gen := &ThumbnailGenerator{
		JobQueue: make(chan ThumbnailJob, queueSize),
		Config:   cfg,
		Hub:      hub,
		StopChan: make(chan struct{}),
		Pending:  make(map[string]bool),
		ready:    make(map[string]string),
	}

	gen.Wg.Add(numWorkers)
	for i := 0; i < numWorkers; i++ {
		go gen.worker(i)
	}
	log.Printf("started %d thumbnail worker(s) with queue size %d", numWorkers, queueSize)

	return gen
}

func (tg *ThumbnailGenerator) worker(id int) {
	defer tg.Wg.Done()
	log.Printf("thumbnail worker %d started", id)
	for {
		select {
		case job, ok := <-tg.JobQueue:
			if !ok {
				log.Printf("thumbnail worker %d stopping: job queue closed", id)
				return
			}
			log.Printf("worker %d processing thumbnail for image %s", id, job.ImageID)
			tg.processJob(job)
			tg.Mutex.Lock()
			delete(tg.Pending, job.ImageID)
			tg.Mutex.Unlock()

		case <-tg.StopChan:
			log.Printf("thumbnail worker %d stopping: stop signal received", id)
			return
		}
	}
}

func (tg *ThumbnailGenerator) processJob(job ThumbnailJob) {
	if _, err := os.Stat(job.SourcePath); os.IsNotExist(err) {
		log.Printf("original file %s not found, skipping thumbnail generation", job.SourcePath)
		return
	} else if err != nil {
		log.Printf("error stating original file %s before thumbnail generation: %v", job.SourcePath, err)
	}

	thumbSavePath, err := utils.GenerateThumbnail(
		job.SourcePath,
		tg.Config.ThumbnailsPath,
		tg.Config.ThumbnailMaxSize,
		tg.Config.ThumbnailMaxSize,
	)
	if err != nil {
		log.Printf("ERROR generating thumbnail for image %s (%s): %v", job.ImageID, job.SourcePath, err)
		return
	}

	tg.Mutex.Lock()
	if old, ok := tg.ready[job.ImageID]; ok && old != thumbSavePath {
		os.Remove(old)
	}
	tg.ready[job.ImageID] = thumbSavePath
	tg.Mutex.Unlock()

	if tg.Hub != nil {
		tg.Hub.Broadcast(realtime.Event{Type: realtime.EventThumbnailReady, ImageID: job.ImageID})
	}
	log.Printf("successfully generated thumbnail for image %s", job.ImageID)
}

// Lookup returns the path of the generated thumbnail for an image, if one
// exists yet.
func (tg *ThumbnailGenerator) Lookup(imageID string) (string, bool) {
	tg.Mutex.Lock()
	defer tg.Mutex.Unlock()
	path, ok := tg.ready[imageID]
	return path, ok
}

// Forget drops the thumbnail for an image removed from the project and
// deletes its file.
func (tg *ThumbnailGenerator) Forget(imageID string) {
	tg.Mutex.Lock()
	path, ok := tg.ready[imageID]
	delete(tg.ready, imageID)
	tg.Mutex.Unlock()
	if ok {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			log.Printf("failed to remove thumbnail %s for image %s: %v", path, imageID, err)
		}
	}
}

func (tg *ThumbnailGenerator) QueueJob(job ThumbnailJob) bool {
	tg.Mutex.Lock()
	if tg.Pending[job.ImageID] {
		tg.Mutex.Unlock()
		log.Printf("thumbnail generation for image %s already pending, skipping queue", job.ImageID)
		return false
	}

	tg.Pending[job.ImageID] = true
	tg.Mutex.Unlock()

	select {
	case tg.JobQueue <- job:
		log.Printf("queued thumbnail generation for image %s", job.ImageID)
		return true
	default:
		log.Printf("WARNING: thumbnail job queue full, failed to queue job for image %s", job.ImageID)
		tg.Mutex.Lock()
		delete(tg.Pending, job.ImageID)
		tg.Mutex.Unlock()
		return false
	}
}

func (tg *ThumbnailGenerator) Stop() {
	log.Println("stopping thumbnail generator...")
	close(tg.StopChan)
	tg.Wg.Wait()
	log.Println("all thumbnail workers stopped")
}
