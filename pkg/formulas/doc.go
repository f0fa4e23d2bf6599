// Package formulas holds the calculation routines and named validators that
// calculator definitions bind to by id. Currency results are rounded to cents
// with shopspring/decimal so worked examples compare exactly.
package formulas
