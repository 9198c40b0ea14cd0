// Package texturegroup models texture groups: YAML manifests
// (*.texgroup.yaml) that name a category and a group, and the images that sit
// in the same folder.
//
// Manifests are checked against an embedded JSON schema when decoded.
// Group.Validate applies the remaining rules (supported format version,
// non-empty keys, existing folder) and canonicalizes the keys with CleanKey.
// Group.LoadTexturesFromFolder reads dimensions and BLAKE2b hashes of the
// group's images.
//
// Both return a Result instead of deleting anything: the caller decides what
// happens to an invalid group (the index asks the asset store to discard it).
package texturegroup
