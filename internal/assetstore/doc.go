// Package assetstore keeps track of the assets in a texture project.
//
// A FileStore scans the project directory for texture group manifests
// (*.texgroup.yaml) and image files, gives every asset a stable GUID and
// records the result in a SQLite catalog. Texture groups are loaded on demand
// and cached, so the same asset always yields the same *texturegroup.Group
// for the lifetime of the store.
//
// Modifications are buffered: callers mark groups and index entry lists as
// modified and Save writes them in one pass. Invalid groups are removed with
// Discard, which optionally moves their manifest into the trash directory.
package assetstore
