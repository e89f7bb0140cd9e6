// Package planet owns the live render session.
//
// Ownership boundary:
// - current config snapshot and patch merging
//
// - noise field store and its persistent cache
//
// - render serialization and output writing
//
// Lifecycle per patch line:
// - merge -> save state -> ensure noise -> compile scene -> render -> write
//
// - a blank line invalidates every noise field before rendering.
//
// The pixel pipeline itself lives in internal/render and never sees this
// package's locks or I/O.
package planet
