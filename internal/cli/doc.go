// Package cli implements the texdb command line: refreshing the texture
// index, looking groups up, generating the helper file, rendering previews,
// and running the watcher and the HTTP server.
package cli
