// Package domain holds the records that flow through archon's pipeline,
// from an input file to an executed project:
//
//	RawDocument -> Document -> []Chunk -> Analysis -> BuildPlan -> ExecutionReport
//
// Settings, provider identifiers, generation results and the sentinel errors
// shared by every layer live here too. The package imports nothing outside
// the standard library, and nothing in internal/ is imported by it.
package domain
