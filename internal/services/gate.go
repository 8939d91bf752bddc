package services

import (
	"crypto/rand"
	"math/big"
)

// ProbabilityGate decides whether a passive message gets a reply. Hit
// returns true with the given probability; implementations must not be
// predictable from the outside.
type ProbabilityGate interface {
	Hit(probability float64) bool
}

// drawBits sizes the uniform draw; 2^53 keeps every value exactly
// representable as a float64.
const drawBits = 53

type cryptoGate struct{}

// NewProbabilityGate returns a gate backed by crypto/rand.
func NewProbabilityGate() ProbabilityGate {
	return cryptoGate{}
}

func (cryptoGate) Hit(probability float64) bool {
	if probability <= 0 {
		return false
	}
	if probability >= 1 {
		return true
	}

	max := new(big.Int).Lsh(big.NewInt(1), drawBits)
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		// Entropy exhaustion is not recoverable here; stay silent.
		return false
	}
	// Uniform in [0,1); the excluded upper bound is what makes p=1 certain.
	draw := float64(n.Int64()) / float64(uint64(1)<<drawBits)
	return draw < probability
}
