package douban

import (
	"crypto/sha1"
	"encoding/hex"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSolveChallengeSatisfiesDigest(t *testing.T) {
	for _, difficulty := range []int{0, 1, 2} {
		nonce, err := SolveChallenge("abc123", difficulty)
		require.NoError(t, err)
		require.GreaterOrEqual(t, nonce, 1)

		sum := sha1.Sum([]byte("abc123" + strconv.Itoa(nonce)))
		digest := hex.EncodeToString(sum[:])
		require.True(t, strings.HasPrefix(digest, strings.Repeat("0", difficulty)),
			"digest %s lacks %d leading zeros", digest, difficulty)
	}
}

func TestSolveChallengeFindsFirstNonce(t *testing.T) {
	nonce, err := SolveChallenge("taste", 1)
	require.NoError(t, err)

	// no smaller nonce may satisfy the digest property
	for n := 1; n < nonce; n++ {
		sum := sha1.Sum([]byte("taste" + strconv.Itoa(n)))
		digest := hex.EncodeToString(sum[:])
		require.False(t, strings.HasPrefix(digest, "0"),
			"nonce %d already satisfies difficulty 1", n)
	}
}

func TestSolveChallengeZeroDifficulty(t *testing.T) {
	nonce, err := SolveChallenge("anything", 0)
	require.NoError(t, err)
	require.Equal(t, 1, nonce)
}

func TestSolveChallengeDeterministic(t *testing.T) {
	a, err := SolveChallenge("challenge-string", 2)
	require.NoError(t, err)
	b, err := SolveChallenge("challenge-string", 2)
	require.NoError(t, err)
	require.Equal(t, a, b)
}
