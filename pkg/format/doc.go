// Package format renders calculator outputs for people: currency with cents,
// percentages and grouped numbers.
package format
