package vdfpool

import (
	"context"
	"testing"
	"time"

	"github.com/centichain/node/internal/vdf"
	"github.com/stretchr/testify/require"
)

func TestSolve_ReturnsValidProof(t *testing.T) {
	p := New(2)
	engine := vdf.New(1000)
	proof, err := p.Solve(context.Background(), engine, []byte("challenge"))
	require.NoError(t, err)
	require.True(t, engine.Verify([]byte("challenge"), proof))
}

func TestSolve_RespectsCancellation(t *testing.T) {
	p := New(1)
	engine := vdf.New(1000)

	// Saturate the single slot by holding it until release is closed.
	release := make(chan struct{})
	go func() {
		_ = p.sem.Acquire(context.Background(), 1)
		<-release
		p.sem.Release(1)
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := p.Solve(ctx, engine, []byte("blocked"))
	require.ErrorIs(t, err, context.DeadlineExceeded)
	close(release)
}
