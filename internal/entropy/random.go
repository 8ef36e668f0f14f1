// Package entropy provides the simulation's explicit random source.
// Every run is reproducible from its seed; a zero seed is replaced by one
// drawn from crypto/rand, and the seed actually used is reported back so
// the run can be replayed.
package entropy

import (
	"crypto/rand"
	"encoding/binary"
	mrand "math/rand/v2"
)

// streamSalt separates the PCG stream from the seed so nearby seeds
// do not produce correlated sequences.
const streamSalt = 0x9e3779b97f4a7c15

// fallbackSeed is used if crypto/rand is unavailable.
const fallbackSeed = 42

// New returns a generator for the given seed.
func New(seed uint64) *mrand.Rand {
	return mrand.New(mrand.NewPCG(seed, seed^streamSalt))
}

// Seeded returns a generator and the seed it was built from.
// A zero seed is replaced by a cryptographically random one.
func Seeded(seed uint64) (*mrand.Rand, uint64) {
	if seed == 0 {
		seed = CryptoSeed()
	}
	return New(seed), seed
}

// CryptoSeed returns a non-zero random seed from crypto/rand.
func CryptoSeed() uint64 {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		// This should never happen but keep the run going.
		return fallbackSeed
	}
	seed := binary.LittleEndian.Uint64(buf[:])
	if seed == 0 {
		return fallbackSeed
	}
	return seed
}
