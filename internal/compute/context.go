// Package compute carries the process-wide execution context for model code.
// The context is chosen once at startup and passed explicitly into model and
// trainer construction, so there is no ambient device or RNG global.
package compute

import "math/rand"

// Context fixes the numeric backend and the random source used for weight
// initialization and dropout masks. A single seeded source makes a full
// grid-search run reproducible.
type Context struct {
	Backend string
	seed    int64
	rng     *rand.Rand
}

// Backends. Only the CPU backend is implemented; the field exists so the
// selection stays an explicit constructor argument rather than a global.
const BackendCPU = "cpu"

// NewContext creates a CPU compute context seeded for reproducible runs.
func NewContext(seed int64) *Context {
	return &Context{
		Backend: BackendCPU,
		seed:    seed,
		rng:     rand.New(rand.NewSource(seed)),
	}
}

// Seed returns the seed the context was created with.
func (c *Context) Seed() int64 {
	return c.seed
}

// Rand returns the context's random source. Callers share this single
// source; the engine is strictly sequential so no locking is needed.
func (c *Context) Rand() *rand.Rand {
	return c.rng
}
