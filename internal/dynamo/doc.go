// Package dynamo provides the core types shared by the controller, the
// plant model and the tick scheduler.
//
//   - [State]: plant state vector ([x, y, theta] for the unicycle)
//   - [Control]: command vector ([v, omega])
//   - [Setpoint]: desired position and velocity for one tick
//   - [System]: plant interface (dX/dt = f(X, u, t))
//   - [Controller]: per-tick control law, may fail with [ErrControlUnavailable]
//   - [Trajectory]: source of setpoints over time
//
// # Example
//
//	traj := trajectory.NewLine(0, 0, 1, 0)
//	ctrl, _ := control.NewMPC(control.DefaultConfig(), traj, 0.1)
//	s := sim.New(physics.NewUnicycle(), integrators.NewRK4(), ctrl)
//	result, _ := s.Run(ctx, dynamo.State{0, 0, 0}, dynamo.DefaultConfig())
//
// # Thread Safety
//
// Types in this package carry no shared mutable state. Controllers built on
// them are expected to be re-entrant unless documented otherwise.
package dynamo
