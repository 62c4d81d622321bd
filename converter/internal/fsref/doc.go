// Package fsref reads and writes the two binary encodings used to persist a
// reference to a file system object: the legacy alias record and its
// replacement, the bookmark.
package fsref
