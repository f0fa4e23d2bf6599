// Package registry indexes calculator definitions by id and category.
//
// Registries are explicit values: build one with New, populate it during a
// load phase with Register or Load, then share it for reads. Lookups of
// unknown ids return false rather than an error.
package registry
