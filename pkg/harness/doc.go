// Package harness replays the worked examples every calculator declares and
// reports which calculators pass, fail or have nothing to check. Calculators
// without formulas or examples are reported as untested so gaps stay visible.
package harness
