// Package physics provides plant models for closed-loop simulation.
//
// Each model implements the [dynamo.System] interface:
//
//   - [Unicycle]: differential-drive kinematics driven by [v, omega]
//
// The controller never sees the plant; it only reads the pose the
// simulator hands it on every tick.
package physics
