package solve

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecSolver(t *testing.T) {
	input := &Input{Tracks: []InputTrack{{TrackID: "t1"}}}

	t.Run("round trip through an external process", func(t *testing.T) {
		s := &ExecSolver{
			Path: "sh",
			Args: []string{"-c", `cat > /dev/null; echo '{"camera_poses":[],"points":[{"track_id":"t1","xyz":{"x":1,"y":2,"z":3}}]}'`},
		}
		res, err := s.Solve(context.Background(), input)
		require.NoError(t, err)
		require.Len(t, res.Points, 1)
		assert.Equal(t, "t1", res.Points[0].TrackID)
		assert.Equal(t, 3.0, res.Points[0].Position.Z)
	})

	t.Run("stderr becomes the diagnostic", func(t *testing.T) {
		s := &ExecSolver{Path: "sh", Args: []string{"-c", `echo "no convergence" >&2; exit 3`}}
		_, err := s.Solve(context.Background(), input)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no convergence")
	})

	t.Run("garbage output fails decoding", func(t *testing.T) {
		s := &ExecSolver{Path: "sh", Args: []string{"-c", `echo not-json`}}
		_, err := s.Solve(context.Background(), input)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "decode solver output")
	})

	t.Run("cancellation kills the process", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()

		s := &ExecSolver{Path: "sh", Args: []string{"-c", `sleep 30`}}
		start := time.Now()
		_, err := s.Solve(ctx, input)
		require.Error(t, err)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
		assert.Less(t, time.Since(start), 5*time.Second)
	})

	t.Run("missing binary", func(t *testing.T) {
		s := &ExecSolver{Path: "/definitely/not/a/solver"}
		_, err := s.Solve(context.Background(), input)
		require.Error(t, err)
	})
}
