// Package viz renders particle profiles in the terminal.
//
//   - [Model]: Bubble Tea program stepping a simulator and plotting one field
//     against position on a Braille [Canvas]
//   - [ProfilePlot]: asciigraph line chart of a scattered profile, used for
//     dump files
//
// # Key Bindings
//
//	Space - Pause/Resume
//	N     - Single step while paused
//	F     - Cycle field (density, velocity, pressure, h, u)
//	G     - Toggle ghost particles
//	+/-   - Steps per frame
//	T     - Cycle colour themes
//	?     - Show help overlay
package viz
