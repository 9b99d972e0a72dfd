// Package watcher observes the watch root for filesystem changes.
//
// The watch set is depth limited: the root, each project directory directly
// under it, and each project's docs directory. Raw events are forwarded as
// paths; a Debouncer collapses bursts per path before classification.
package watcher
