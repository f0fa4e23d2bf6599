// Package prompt collects calculator inputs interactively. Each question is
// typed after its input (confirm for booleans, a list for selects, free text
// otherwise) and is asked again until the answer validates.
package prompt
