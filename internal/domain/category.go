package domain

import "fmt"

// Category is the fixed set a bookmark can be filed under.
type Category string

const (
	CategoryGeneral   Category = "General"
	CategoryWork      Category = "Work"
	CategoryStudy     Category = "Study"
	CategoryPersonal  Category = "Personal"
	CategoryLearning  Category = "Learning"
	CategoryImportant Category = "Important"

	DefaultCategory = CategoryGeneral
)

var categories = []Category{
	CategoryGeneral,
	CategoryWork,
	CategoryStudy,
	CategoryPersonal,
	CategoryLearning,
	CategoryImportant,
}

// Categories returns the categories in display order.
func Categories() []Category {
	out := make([]Category, len(categories))
	copy(out, categories)
	return out
}

func (c Category) Valid() bool {
	for _, known := range categories {
		if c == known {
			return true
		}
	}
	return false
}

func (c Category) String() string { return string(c) }

// ParseCategory maps form input to a Category. Empty input means the default.
func ParseCategory(s string) (Category, error) {
	if s == "" {
		return DefaultCategory, nil
	}
	c := Category(s)
	if !c.Valid() {
		return "", fmt.Errorf("%w: unknown category %q", ErrValidation, s)
	}
	return c, nil
}

// CategoryFilter selects a single category, or every category with All.
type CategoryFilter string

// All is the sentinel filter that does not restrict by category.
const All CategoryFilter = "All"

// ParseCategoryFilter treats empty and unknown values as All.
func ParseCategoryFilter(s string) CategoryFilter {
	if Category(s).Valid() {
		return CategoryFilter(s)
	}
	return All
}

// Matches reports whether c passes the filter.
func (f CategoryFilter) Matches(c Category) bool {
	return f == All || Category(f) == c
}
