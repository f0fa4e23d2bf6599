// Package executor runs a calculator's formulas over validated inputs.
//
// A calculator without formulas yields StatusNotImplemented rather than a
// guessed result. Formula failures, including panics, surface as
// *CalculationError values.
package executor
