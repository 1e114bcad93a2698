package domain

// Category is the fixed classification of a bookmark.
type Category string

const (
	CategoryWork          Category = "Work"
	CategoryPersonal      Category = "Personal"
	CategoryResearch      Category = "Research"
	CategoryShopping      Category = "Shopping"
	CategoryEntertainment Category = "Entertainment"
	CategoryNews          Category = "News"
	CategoryEducation     Category = "Education"
	CategoryTools         Category = "Tools"
	CategorySocial        Category = "Social"
	CategoryOther         Category = "Other"
)

// Categories lists every accepted category, in prompt order.
// Adding a value here extends what ParseCategory accepts.
var Categories = []Category{
	CategoryWork,
	CategoryPersonal,
	CategoryResearch,
	CategoryShopping,
	CategoryEntertainment,
	CategoryNews,
	CategoryEducation,
	CategoryTools,
	CategorySocial,
	CategoryOther,
}

// ParseCategory returns the matching category or CategoryOther.
// Matching is exact: "research" is not "Research".
func ParseCategory(s string) Category {
	for _, c := range Categories {
		if string(c) == s {
			return c
		}
	}
	return CategoryOther
}

// Valid reports whether c belongs to Categories.
func (c Category) Valid() bool {
	return ParseCategory(string(c)) == c
}
