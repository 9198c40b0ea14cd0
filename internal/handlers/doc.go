// Package handlers provides the HTTP API of the texdb server.
//
// It includes handlers for:
//   - Listing and looking up texture groups
//   - Rendering texture group contact sheets
//   - Triggering a full index refresh
//   - Health, version and Prometheus metrics
package handlers
