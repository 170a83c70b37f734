package service

import "math/rand/v2"

// Roller draws a uniform integer in [1, n]
type Roller func(n int) int

// RandomRoller draws from the runtime's auto-seeded ChaCha8 source
func RandomRoller(n int) int {
	return rand.IntN(n) + 1
}
