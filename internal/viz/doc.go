// Package viz renders closed-loop tracking runs in the terminal.
//
//   - [Model]: Bubble Tea live view stepping a [sim.Simulator] tick by tick
//   - [Canvas]: Braille pixel canvas with a [Viewport] in world coordinates
//   - lipgloss styles with three themes, cycled with T
//
// # Key Bindings
//
//	Space - Pause/Resume
//	R     - Restart from the initial pose
//	[ ]   - Replay recorded ticks
//	T     - Cycle themes
//	?     - Help overlay
package viz
