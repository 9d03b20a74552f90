package physics

import (
	"math"
	"testing"

	"github.com/san-kum/unimpc/internal/dynamo"
)

func TestUnicycleDerive(t *testing.T) {
	tests := []struct {
		name string
		x    dynamo.State
		u    dynamo.Control
		want dynamo.State
	}{
		{"forward", dynamo.State{0, 0, 0}, dynamo.Control{2, 0}, dynamo.State{2, 0, 0}},
		{"north", dynamo.State{1, 1, math.Pi / 2}, dynamo.Control{1, 0.5}, dynamo.State{0, 1, 0.5}},
		{"no control", dynamo.State{1, 1, 1}, dynamo.Control{}, dynamo.State{0, 0, 0}},
	}

	m := NewUnicycle()
	for _, tt := range tests {
		got := m.Derive(tt.x, tt.u, 0)
		for i := range tt.want {
			if math.Abs(got[i]-tt.want[i]) > 1e-12 {
				t.Errorf("%s: dx[%d] expected %f, got %f", tt.name, i, tt.want[i], got[i])
			}
		}
	}
}

func TestUnicycleLimits(t *testing.T) {
	m := &Unicycle{MaxSpeed: 1, MaxRate: 0.5}
	got := m.Derive(dynamo.State{0, 0, 0}, dynamo.Control{3, -2}, 0)

	if got[0] != 1 {
		t.Errorf("speed should be clipped to 1, got %f", got[0])
	}
	if got[2] != -0.5 {
		t.Errorf("rate should be clipped to -0.5, got %f", got[2])
	}
}

func TestUnicycleDims(t *testing.T) {
	m := NewUnicycle()
	if m.StateDim() != 3 || m.ControlDim() != 2 {
		t.Errorf("expected dims 3/2, got %d/%d", m.StateDim(), m.ControlDim())
	}
}
