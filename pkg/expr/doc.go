// Package expr evaluates the small condition language used by cross-field
// validation rules and rule guards, e.g. `retirementAge > currentAge` or
// `planType == "roth" && rothPercentage <= 100`.
package expr
