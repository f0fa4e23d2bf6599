// Package validation evaluates calculator validation rules against candidate
// input maps and inspects calculator definitions for structural defects.
//
// Validate never returns an error: a failed rule is data. Each failing rule
// writes its message under the rule's field in Result.Errors, so when several
// rules fail for one field the last one in declaration order is the message
// that survives. Result.Messages keeps every failure for callers that want to
// show all of them.
package validation
