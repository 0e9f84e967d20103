package vdf

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEngine_RoundTrip(t *testing.T) {
	e := New(1000)
	challenge := []byte("challenge-a")
	proof := e.Solve(challenge)
	require.NotEmpty(t, proof)
	require.True(t, e.Verify(challenge, proof))
}

func TestEngine_Verify_WrongChallenge(t *testing.T) {
	e := New(1000)
	proof := e.Solve([]byte("challenge-a"))
	require.False(t, e.Verify([]byte("challenge-b"), proof))
}

func TestEngine_Deterministic(t *testing.T) {
	e := New(500)
	challenge := []byte("deterministic")
	require.Equal(t, e.Solve(challenge), e.Solve(challenge))
}

func TestEngine_DifficultyAffectsProof(t *testing.T) {
	challenge := []byte("diff")
	low := New(10).Solve(challenge)
	high := New(20).Solve(challenge)
	require.NotEqual(t, low, high)
}

func TestPeerChallenge_Deterministic(t *testing.T) {
	require.Equal(t, PeerChallenge("peer-1"), PeerChallenge("peer-1"))
	require.NotEqual(t, PeerChallenge("peer-1"), PeerChallenge("peer-2"))
}

func TestSybilDifficulty(t *testing.T) {
	require.Equal(t, uint64(3_000_000), SybilDifficulty(0))
	require.Equal(t, uint64(3_500_000), SybilDifficulty(1))
}

func TestSealingDifficulty(t *testing.T) {
	require.Equal(t, uint64(100), SealingDifficulty(0))
	require.Equal(t, uint64(100), SealingDifficulty(1))
	require.Equal(t, uint64(300), SealingDifficulty(2))
}
