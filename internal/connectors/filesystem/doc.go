// Package filesystem finds document files under a directory and watches
// them for changes with fsnotify.
package filesystem
