package effects

import (
	"math"
	"sync/atomic"
	"time"
)

// Chain hosts an ordered sequence of effects (SPEC_FULL.md §4.8). Adds
// and removes are expected to happen only between blocks, via the
// parameter queue upstream; Chain itself does no locking, matching every
// other audio-thread-owned structure in this engine.
type Chain struct {
	effects []Effect
	cpu     []atomic.Uint64 // bits of float32 percent, one per effect
}

// NewChain creates an empty effect chain.
func NewChain() *Chain {
	return &Chain{}
}

// Add appends an effect to the end of the chain.
func (c *Chain) Add(e Effect) {
	c.effects = append(c.effects, e)
	c.cpu = append(c.cpu, atomic.Uint64{})
}

// Remove deletes the effect at index i.
func (c *Chain) Remove(i int) {
	if i < 0 || i >= len(c.effects) {
		return
	}
	c.effects = append(c.effects[:i], c.effects[i+1:]...)
	c.cpu = append(c.cpu[:i], c.cpu[i+1:]...)
}

// Len returns the number of effects in the chain.
func (c *Chain) Len() int { return len(c.effects) }

// At returns the effect at index i.
func (c *Chain) At(i int) Effect { return c.effects[i] }

// BeginBlock calls BeginBlock on every effect, once per block.
func (c *Chain) BeginBlock() {
	for _, e := range c.effects {
		e.BeginBlock()
	}
}

// ProcessBlock runs every non-bypassed effect, in order, on one
// channel's block, recording each effect's CPU percentage of the block
// period it consumed.
func (c *Chain) ProcessBlock(channel int, buf []float32, blockPeriod time.Duration) {
	for i, e := range c.effects {
		if e.Bypassed() {
			continue
		}
		start := time.Now()
		e.ProcessBlock(channel, buf)
		elapsed := time.Since(start)
		pct := float32(0)
		if blockPeriod > 0 {
			pct = float32(elapsed) / float32(blockPeriod) * 100
		}
		c.cpu[i].Store(uint64(math.Float32bits(pct)))
	}
}

// CPUPercent returns the most recently measured CPU percentage for the
// effect at index i.
func (c *Chain) CPUPercent(i int) float32 {
	return math.Float32frombits(uint32(c.cpu[i].Load()))
}

// AggregateLatency sums the reported latency of every non-bypassed
// effect, per SPEC_FULL.md §4.8.
func (c *Chain) AggregateLatency() int {
	total := 0
	for _, e := range c.effects {
		if !e.Bypassed() {
			total += e.LatencySamples()
		}
	}
	return total
}

// Reset resets every effect's internal state.
func (c *Chain) Reset() {
	for _, e := range c.effects {
		e.Reset()
	}
}
