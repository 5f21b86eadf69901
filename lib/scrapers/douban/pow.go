package douban

import (
	"crypto/sha1"
	"encoding/hex"
	"strconv"
	"strings"
)

// iteration ceiling for the proof-of-work search. an adversarial or
// miscalibrated difficulty must not turn the solver into a spin loop.
const solverCeiling = 20_000_000

// SolveChallenge brute-forces the smallest nonce n >= 1 such that
// hex(sha1(challenge + n)) starts with `difficulty` zero digits.
// Pure and CPU-bound; the ceiling bounds the worst case.
func SolveChallenge(challenge string, difficulty int) (int, error) {
	if difficulty < 0 {
		difficulty = 0
	}
	prefix := strings.Repeat("0", difficulty)

	for nonce := 1; nonce <= solverCeiling; nonce++ {
		sum := sha1.Sum([]byte(challenge + strconv.Itoa(nonce)))
		digest := hex.EncodeToString(sum[:])
		if strings.HasPrefix(digest, prefix) {
			return nonce, nil
		}
	}
	return 0, ErrSolverExhausted
}
