package workers

import (
	"context"
	"errors"
	"log"
	"sync"

	"github.com/ohyeah2389/Pointgram/project"
	"github.com/ohyeah2389/Pointgram/realtime"
	"github.com/ohyeah2389/Pointgram/solve"
)

// SolveStatus is a snapshot of the runner's state for the status endpoint.
type SolveStatus struct {
	Running    bool   `json:"running"`
	LastError  string `json:"last_error,omitempty"`
	LastPoses  int    `json:"last_poses,omitempty"`
	LastPoints int    `json:"last_points,omitempty"`
}

type solveJob struct {
	ctx context.Context
}

// SolveRunner drives reconstruction runs in the background so HTTP handlers
// return immediately. At most one run is in flight at a time; results land
// in the session through the solve adapter and clients hear about the
// lifecycle over the websocket hub.
type SolveRunner struct {
	Adapter *solve.Adapter
	Session *project.Session
	Hub     *realtime.Hub

	JobQueue chan solveJob
	StopChan chan struct{}
	Wg       sync.WaitGroup

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	last    SolveStatus
}

func NewSolveRunner(adapter *solve.Adapter, session *project.Session, hub *realtime.Hub) *SolveRunner {
	sr := &SolveRunner{
		Adapter:  adapter,
		Session:  session,
		Hub:      hub,
		JobQueue: make(chan solveJob, 1),
		StopChan: make(chan struct{}),
	}
	sr.Wg.Add(1)
	go sr.worker()
	log.Println("started solve worker")
	return sr
}

func (sr *SolveRunner) worker() {
	defer sr.Wg.Done()
	for {
		select {
		case job, ok := <-sr.JobQueue:
			if !ok {
				log.Println("solve worker stopping: job queue closed")
				return
			}
			sr.processJob(job)
		case <-sr.StopChan:
			log.Println("solve worker stopping: stop signal received")
			return
		}
	}
}

func (sr *SolveRunner) processJob(job solveJob) {
	sr.broadcast(realtime.Event{Type: realtime.EventSolveStarted, Revision: sr.Session.Revision()})

	summary, err := sr.Adapter.Run(job.ctx, sr.Session)

	sr.mu.Lock()
	sr.running = false
	sr.cancel = nil
	if err != nil {
		sr.last = SolveStatus{LastError: err.Error()}
	} else {
		sr.last = SolveStatus{LastPoses: summary.Poses, LastPoints: summary.Points}
	}
	sr.mu.Unlock()

	switch {
	case err == nil:
		log.Printf("solve finished: %d poses, %d points", summary.Poses, summary.Points)
		sr.broadcast(realtime.Event{
			Type:     realtime.EventSolveFinished,
			Revision: sr.Session.Revision(),
			Extra:    map[string]interface{}{"poses": summary.Poses, "points": summary.Points},
		})
	case errors.Is(err, solve.ErrCancelled):
		log.Println("solve cancelled")
		sr.broadcast(realtime.Event{Type: realtime.EventSolveCancelled})
	default:
		log.Printf("solve failed: %v", err)
		sr.broadcast(realtime.Event{Type: realtime.EventSolveFailed, Error: err.Error()})
	}
}

func (sr *SolveRunner) broadcast(ev realtime.Event) {
	if sr.Hub != nil {
		sr.Hub.Broadcast(ev)
	}
}

// Start queues a reconstruction run. It fails fast with ErrSolveInProgress
// when one is already queued or running, and with InsufficientDataError when
// the project cannot constrain a solve yet.
func (sr *SolveRunner) Start() error {
	sr.mu.Lock()
	if sr.running {
		sr.mu.Unlock()
		return solve.ErrSolveInProgress
	}

	// reject before queuing so the caller gets a synchronous error for an
	// obviously undersized project
	var precheck error
	sr.Session.View(func(p *project.Project) {
		_, precheck = solve.BuildInput(p)
	})
	if precheck != nil {
		sr.mu.Unlock()
		return precheck
	}

	ctx, cancel := context.WithCancel(context.Background())
	sr.running = true
	sr.cancel = cancel
	sr.mu.Unlock()

	select {
	case sr.JobQueue <- solveJob{ctx: ctx}:
		return nil
	default:
		sr.mu.Lock()
		sr.running = false
		sr.cancel = nil
		sr.mu.Unlock()
		cancel()
		return solve.ErrSolveInProgress
	}
}

// Cancel aborts the in-flight run, if any. Reports whether there was one.
func (sr *SolveRunner) Cancel() bool {
	sr.mu.Lock()
	defer sr.mu.Unlock()
	if sr.cancel == nil {
		return false
	}
	sr.cancel()
	return true
}

// Status returns the current runner state.
func (sr *SolveRunner) Status() SolveStatus {
	sr.mu.Lock()
	defer sr.mu.Unlock()
	st := sr.last
	st.Running = sr.running
	return st
}

func (sr *SolveRunner) Stop() {
	log.Println("stopping solve runner...")
	sr.Cancel()
	close(sr.StopChan)
	sr.Wg.Wait()
	log.Println("solve runner stopped")
}
