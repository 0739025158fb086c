package workers

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ohyeah2389/Pointgram/geometry"
	"github.com/ohyeah2389/Pointgram/project"
	"github.com/ohyeah2389/Pointgram/solve"
)

type scriptedSolver struct {
	fn func(ctx context.Context, in *solve.Input) (*solve.Result, error)
}

func (s *scriptedSolver) Solve(ctx context.Context, in *solve.Input) (*solve.Result, error) {
	return s.fn(ctx, in)
}

func solvableSession(t *testing.T) *project.Session {
	t.Helper()
	p := project.New()
	a, err := p.AddImage("a", "/photos/a.jpg", 100, 100, "")
	require.NoError(t, err)
	b, err := p.AddImage("b", "/photos/b.jpg", 100, 100, "")
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		tr := p.NewTrack("t")
		require.NoError(t, p.SetObservation(tr.ID, a.ID, geometry.Pixel{X: float64(i)}, 1))
		require.NoError(t, p.SetObservation(tr.ID, b.ID, geometry.Pixel{X: float64(i)}, 1))
	}
	return project.NewSession(p, "")
}

func waitIdle(t *testing.T, sr *SolveRunner) {
	t.Helper()
	require.Eventually(t, func() bool {
		return !sr.Status().Running
	}, 5*time.Second, 10*time.Millisecond)
}

func TestSolveRunner(t *testing.T) {
	t.Run("successful run lands in status", func(t *testing.T) {
		sess := solvableSession(t)
		solver := &scriptedSolver{fn: func(ctx context.Context, in *solve.Input) (*solve.Result, error) {
			res := &solve.Result{}
			for _, tr := range in.Tracks {
				res.Points = append(res.Points, solve.ResultPoint{TrackID: tr.TrackID})
			}
			return res, nil
		}}
		sr := NewSolveRunner(solve.NewAdapter(solver), sess, nil)
		defer sr.Stop()

		require.NoError(t, sr.Start())
		waitIdle(t, sr)

		st := sr.Status()
		assert.Empty(t, st.LastError)
		assert.Equal(t, 3, st.LastPoints)
		assert.Equal(t, 0, st.LastPoses)
	})

	t.Run("insufficient data fails synchronously", func(t *testing.T) {
		sess := project.NewSession(project.New(), "")
		sr := NewSolveRunner(solve.NewAdapter(&scriptedSolver{}), sess, nil)
		defer sr.Stop()

		err := sr.Start()
		var ie *solve.InsufficientDataError
		require.ErrorAs(t, err, &ie)
		assert.False(t, sr.Status().Running)
	})

	t.Run("only one run at a time", func(t *testing.T) {
		sess := solvableSession(t)
		release := make(chan struct{})
		started := make(chan struct{})
		solver := &scriptedSolver{fn: func(ctx context.Context, in *solve.Input) (*solve.Result, error) {
			close(started)
			<-release
			return &solve.Result{}, nil
		}}
		sr := NewSolveRunner(solve.NewAdapter(solver), sess, nil)
		defer sr.Stop()

		require.NoError(t, sr.Start())
		<-started
		assert.ErrorIs(t, sr.Start(), solve.ErrSolveInProgress)

		close(release)
		waitIdle(t, sr)
	})

	t.Run("cancel aborts and leaves the project alone", func(t *testing.T) {
		sess := solvableSession(t)
		before := sess.Revision()
		started := make(chan struct{})
		solver := &scriptedSolver{fn: func(ctx context.Context, in *solve.Input) (*solve.Result, error) {
			close(started)
			<-ctx.Done()
			return nil, ctx.Err()
		}}
		sr := NewSolveRunner(solve.NewAdapter(solver), sess, nil)
		defer sr.Stop()

		require.NoError(t, sr.Start())
		<-started
		assert.True(t, sr.Cancel())
		waitIdle(t, sr)

		assert.Equal(t, before, sess.Revision())
		st := sr.Status()
		assert.Contains(t, st.LastError, "cancel")
	})

	t.Run("cancel with nothing running", func(t *testing.T) {
		sr := NewSolveRunner(solve.NewAdapter(&scriptedSolver{}), solvableSession(t), nil)
		defer sr.Stop()
		assert.False(t, sr.Cancel())
	})

	t.Run("solver failure recorded", func(t *testing.T) {
		sess := solvableSession(t)
		solver := &scriptedSolver{fn: func(ctx context.Context, in *solve.Input) (*solve.Result, error) {
			return nil, assert.AnError
		}}
		sr := NewSolveRunner(solve.NewAdapter(solver), sess, nil)
		defer sr.Stop()

		require.NoError(t, sr.Start())
		waitIdle(t, sr)
		assert.Contains(t, sr.Status().LastError, "solve failed")
	})
}
