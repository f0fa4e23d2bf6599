// Package model defines the calculator definition contract shared by every
// other package: inputs, outputs, validation rules, formulas, worked examples
// and the Calculator aggregate that ties them together. Definitions are plain
// data; the only behaviour attached to them are the Validator and
// CalculateFunc escape hatches, which must stay pure. Values is the flat
// id-keyed map used for both inputs and outputs, with casting helpers that
// mirror how rule predicates interpret raw form values (NaN never counts as a
// number, blank strings never count as supplied).
package model
