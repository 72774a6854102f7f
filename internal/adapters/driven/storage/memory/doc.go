// Package memory provides in-process implementations of the driven ports
// for tests and for runs that must not touch the filesystem.
package memory
