// Package mediatypes provides the asset type table shared by the asset store,
// the texture group loader and the HTTP API.
//
// It has no dependencies beyond the standard library so it can be imported
// anywhere without creating import cycles.
//
//	switch mediatypes.GetAssetType(name) {
//	case mediatypes.AssetTypeTextureGroup:
//	    // a *.texgroup.yaml manifest
//	case mediatypes.AssetTypeTexture:
//	    // a decodable image
//	}
package mediatypes
