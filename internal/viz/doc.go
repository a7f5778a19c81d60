// Package viz renders forecasts in the terminal.
//
//   - [PlotComparison]: truth against forecast per component (asciigraph)
//   - [PlotErrors]: forecast error over time with the valid-time horizon
//   - [Canvas]: Braille pixel canvas used to draw the attractor
//   - [RunLive]: Bubble Tea viewer replaying a forecast step by step
//
// # Key Bindings (live viewer)
//
//	Space - Pause/Resume replay
//	R     - Restart from the first forecast step
//	[ ]   - Step backward/forward
//	+ -   - Change replay speed
//	←/→   - Rotate the attractor
//	T     - Cycle color themes
//	Q     - Quit
package viz
