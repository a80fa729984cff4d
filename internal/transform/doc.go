// Package transform holds the row-level cleaning stages. A stage takes a
// dataset and returns a new one; stages never modify their input. Stages are
// registered by name and Chain assembles the fixed cleaning order used by a
// run.
package transform
