// Package watcher keeps the texture index in step with the project directory.
//
// File system events are collected with fsnotify and applied after a quiet
// period. A batch that only adds manifests refreshes those records (and
// regenerates the helper); any other relevant change, such as a removed
// manifest or an edited texture, rebuilds the whole index. Hidden
// directories and the configured ignore list are not watched.
package watcher
