// Package trajectory provides reference sources that stand in for the
// upstream planner. Each implements [dynamo.Trajectory] and reports
// position together with its exact time derivative.
package trajectory
