// Package viz renders a running engine in the terminal.
//
//   - [Model]: live Bubble Tea viewer owning one engine
//   - [Picker]: template menu that opens the viewer
//   - [Canvas]: braille pixel canvas with per-cell color
//   - [Camera]: top-down projection with a spring that follows the barycenter
//   - [Trails]: ring buffer of recent positions per body
//
// # Key Bindings
//
//	Space - Pause/Resume simulation
//	1/2/3 - Select small, medium or large mass class
//	Click - Insert a body at the clicked point
//	N     - Insert a body at a random point
//	C     - Clear trails
//	F     - Toggle barycenter follow
//	+/-   - Zoom
//	R     - Reset to the template
//	T     - Cycle color themes
//	?     - Show help overlay
package viz
