package model

import "strings"

// Category is the closed set of calculator domains. Category counts are only
// meaningful over this enumeration.
type Category string

const (
	CategoryFinance      Category = "finance"
	CategoryLegal        Category = "legal"
	CategoryBusiness     Category = "business"
	CategoryHealth       Category = "health"
	CategoryConstruction Category = "construction"
	CategoryMath         Category = "math"
	CategoryLifestyle    Category = "lifestyle"
	CategoryCareer       Category = "career"
)

var categoryLabels = map[Category]string{
	CategoryFinance:      "Finance & Investment",
	CategoryLegal:        "Legal & Insurance",
	CategoryBusiness:     "Business & Operations",
	CategoryHealth:       "Health & Fitness",
	CategoryConstruction: "Construction & Industrial",
	CategoryMath:         "Math & Science",
	CategoryLifestyle:    "Lifestyle & Automotive",
	CategoryCareer:       "Career & Employment",
}

// Categories returns every known category in enumeration order.
func Categories() []Category {
	return []Category{
		CategoryFinance,
		CategoryLegal,
		CategoryBusiness,
		CategoryHealth,
		CategoryConstruction,
		CategoryMath,
		CategoryLifestyle,
		CategoryCareer,
	}
}

// Valid reports whether c belongs to the enumeration.
func (c Category) Valid() bool {
	_, ok := categoryLabels[c]
	return ok
}

// Label returns the display name, falling back to the raw value.
func (c Category) Label() string {
	if label, ok := categoryLabels[c]; ok {
		return label
	}
	return string(c)
}

// ParseCategory normalises raw (case and surrounding space) and reports
// whether it names a known category.
func ParseCategory(raw string) (Category, bool) {
	c := Category(strings.ToLower(strings.TrimSpace(raw)))
	return c, c.Valid()
}
