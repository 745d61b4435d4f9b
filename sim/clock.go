package sim

// TimeTeller can be used to get the current logical cycle.
type TimeTeller interface {
	Now() uint64
}

// Clock is the logical clock of a simulation. Components only read it
// through the TimeTeller interface; the driver is the only one that moves it
// forward.
type Clock struct {
	cycle uint64
}

// NewClock creates a clock that starts at the given cycle.
func NewClock(start uint64) *Clock {
	return &Clock{cycle: start}
}

// Now returns the current cycle.
func (c *Clock) Now() uint64 {
	return c.cycle
}

// Advance moves the clock forward by n cycles.
func (c *Clock) Advance(n uint64) {
	c.cycle += n
}

// Set moves the clock to the given cycle. The clock never goes backward.
func (c *Clock) Set(cycle uint64) {
	if cycle < c.cycle {
		panic("clock cannot go backward")
	}

	c.cycle = cycle
}
