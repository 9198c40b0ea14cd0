// Package codegen writes the Go helper file that exposes the indexed texture
// groups as compile-time identifiers:
//
//	textures.Icons.Play          // Group{Category: "Icons", Name: "Play"}
//	textures.CategoryIcons       // "Icons"
//	textures.All                 // every group, in index order
//
// The file is rendered with jennifer and only rewritten when its content
// changes.
package codegen
