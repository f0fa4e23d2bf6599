// Package report writes registry summaries, calculator details, run results
// and harness reports. Text output is rendered from embedded pongo2
// templates; JSON and YAML encode the same data structurally.
package report
