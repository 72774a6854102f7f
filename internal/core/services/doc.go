// Package services holds archon's use cases: ingesting documents, synthesising
// build plans, storing and executing them, and managing settings. Each service
// implements a driving port and reaches infrastructure only through driven ports.
package services
