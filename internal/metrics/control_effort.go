package metrics

import (
	"math"

	"github.com/san-kum/unimpc/internal/dynamo"
)

// ControlEffort is the mean over ticks of |v| + |omega|, the L1 size of
// the commanded body velocity.
type ControlEffort struct {
	total float64
	ticks int
}

func NewControlEffort() *ControlEffort {
	return &ControlEffort{}
}

func (*ControlEffort) Name() string { return "control_effort" }

func (c *ControlEffort) Observe(_ dynamo.State, u dynamo.Control, _ float64) {
	if len(u) < 2 {
		return
	}
	c.total += math.Abs(u[0]) + math.Abs(u[1])
	c.ticks++
}

func (c *ControlEffort) Value() float64 {
	if c.ticks == 0 {
		return 0
	}
	return c.total / float64(c.ticks)
}

func (c *ControlEffort) Reset() {
	*c = ControlEffort{}
}
