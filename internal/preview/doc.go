// Package preview renders contact sheets of texture groups: every texture is
// decoded (in parallel, bounded by an errgroup), fitted into a square cell
// and pasted into a grid. Oversized textures are downscaled before fitting.
package preview
