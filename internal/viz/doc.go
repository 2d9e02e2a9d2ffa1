// Package viz draws simulation snapshots in the terminal.
//
//   - [Canvas]: Braille-based pixel canvas with per-cell colors
//   - [Viewport]: maps the simulation panel onto canvas sub-pixels and
//     terminal cells back onto the panel for mouse input
//   - [Render]: draws a [sim.Snapshot] as an orrery
//   - [Theme]: 4 built-in color schemes, [Styles] derive the TUI chrome
//
// Planets keep their catalog colors unless the theme is monochrome. A planet
// flashes white right after a collision.
package viz
