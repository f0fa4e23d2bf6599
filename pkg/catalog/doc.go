// Package catalog loads calculator definitions from JSON or YAML documents of
// the form {calculators: [...]} and binds their formula and validator ids to
// Go implementations. A default catalog covering every category is embedded.
package catalog
