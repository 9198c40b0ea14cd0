/*
Package filesystem provides filesystem reads with automatic retry on NFS stale
file handle errors (ESTALE).

Project trees are often NFS or SMB mounts shared with artists' machines, so
the asset store and the texture loader read through these helpers:

	entries, err := filesystem.ReadDirWithRetry(dir, filesystem.DefaultRetryConfig())
	f, err := filesystem.OpenWithRetry(path, filesystem.DefaultRetryConfig())

Only ESTALE is retried, with exponential backoff capped at MaxBackoff. Any
other error is returned immediately. Retry metrics are reported through the
Observer installed with SetObserver.
*/
package filesystem
