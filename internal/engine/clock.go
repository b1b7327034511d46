package engine

// Clock numbers committed transitions.
//
// Every applied rule is stamped with the next seq from the clock, starting
// at 1. Breakpoint stops and halts do not advance it, so seq is also the
// number of transitions executed so far.
type Clock struct {
	seq int64
}

// NewClock creates a new clock starting at 0.
func NewClock() *Clock {
	return &Clock{}
}

// Next returns the next sequence number and increments the clock.
func (c *Clock) Next() int64 {
	c.seq++
	return c.seq
}

// Current returns the current sequence number without incrementing.
func (c *Clock) Current() int64 {
	return c.seq
}
