package engine

// MaxConvergencePoints bounds the convergence log. On overflow every other
// point is dropped, keeping chronological order at half resolution.
const MaxConvergencePoints = 2000

// ConvergencePoint is the relative frequency of every outcome after Trials
// trials
type ConvergencePoint struct {
	Trials   int
	Relative []float64
}

// ConvergenceLog is a bounded record of how relative frequencies evolve
// across batches
type ConvergenceLog struct {
	points []ConvergencePoint
}

// NewConvergenceLog returns an empty log
func NewConvergenceLog() *ConvergenceLog {
	return &ConvergenceLog{}
}

// Append records p, halving the log when it grows past MaxConvergencePoints
func (c *ConvergenceLog) Append(p ConvergencePoint) {
	c.points = append(c.points, p)
	if len(c.points) <= MaxConvergencePoints {
		return
	}
	kept := c.points[:0]
	for i, point := range c.points {
		if i%2 == 0 {
			kept = append(kept, point)
		}
	}
	clear(c.points[len(kept):])
	c.points = kept
}

// Points returns the recorded points in trial order. The slice is shared;
// callers must not modify it.
func (c *ConvergenceLog) Points() []ConvergencePoint { return c.points }

// Len returns the number of recorded points
func (c *ConvergenceLog) Len() int { return len(c.points) }

// Clear drops every point
func (c *ConvergenceLog) Clear() { c.points = nil }
