// Package control provides the trajectory-tracking controllers for a
// unicycle robot.
//
// The main law is a linear time-varying MPC, run once per tick by [Tick]:
//
//  1. [ReferenceHorizon] extrapolates the setpoint over N steps.
//  2. [Linearize] builds the per-step error dynamics (A_i, B_i).
//  3. [Lift] condenses them into AHat and BHat.
//  4. [Assemble] forms the QP cost G, c for the current error.
//  5. The [qp.Solver] returns du; the first pair becomes the [Command].
//
// [MPC] calls [Tick] in the frame of [AlignToReference], centred on the
// setpoint and rotated to the reference heading.
//
// Controllers implementing [dynamo.Controller]:
//
//   - [MPC]: the law above, sampling a [dynamo.Trajectory]
//   - [FeedForward]: reference speed only, no correction
//   - [PIDTracker]: baseline PID tracker (stateful)
//   - [None]: zero command
//
// # Usage
//
//	ctrl, err := control.NewMPC(control.DefaultConfig(), traj, 0.1)
//	u, err := ctrl.Compute(dynamo.State{x, y, theta}, t)
//
// A failed tick returns an error wrapping [dynamo.ErrControlUnavailable];
// no default command is substituted.
package control
