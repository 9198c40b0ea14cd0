// Package texindex maintains the ordered index of texture groups for one tool
// session.
//
// An Index is opened over an AssetStore and a HelperGenerator. RefreshRecord
// validates a single group and appends it when it is not yet listed;
// RefreshAll rebuilds the whole index from the store and regenerates the
// helper file. Lookup finds a group by category and name.
//
// Groups are compared by pointer, never by key: two groups with the same
// category and name can both be indexed and Lookup returns the first one.
// Stored keys are cleaned by texturegroup.Validate and query keys by Lookup,
// and the comparison is case-sensitive.
package texindex
