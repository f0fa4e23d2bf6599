// Package openapi describes registered calculators as an OpenAPI 3 document:
// one POST operation per calculator whose request body mirrors the declared
// inputs and whose response mirrors the declared outputs. Documents are built
// and validated with kin-openapi.
package openapi
