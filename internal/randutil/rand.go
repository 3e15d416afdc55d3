package randutil

import rand "math/rand/v2"

// New returns a *rand.Rand seeded deterministically from a single int64.
// The seed is stretched into the two 64-bit PCG words with splitmix64 so
// every call site derives reproducible deal sequences from one number.
func New(seed int64) *rand.Rand {
	hi := splitmix64(uint64(seed))
	lo := splitmix64(hi)
	return rand.New(rand.NewPCG(hi, lo))
}

func splitmix64(x uint64) uint64 {
	x += 0x9e3779b97f4a7c15
	x ^= x >> 30
	x *= 0xbf58476d1ce4e5b9
	x ^= x >> 27
	x *= 0x94d049bb133111eb
	x ^= x >> 31
	return x
}
