package domain

const (
	// MaxTitleLength caps the persisted title, in characters.
	MaxTitleLength = 200

	// MaxTags caps the number of tags kept on a bookmark.
	MaxTags = 5

	// MaxTagLength is exclusive: a tag must be shorter than this.
	MaxTagLength = 20

	// MaxExistingSummaries bounds how many existing bookmarks are shown to
	// the model for duplicate reasoning.
	MaxExistingSummaries = 20

	// ExactMatchConfidence is reported for normalized URL equality.
	ExactMatchConfidence = 100

	// DefaultMinDuplicateConfidence is the lowest model confidence at which
	// a reported duplicate is accepted. Uncertain matches are saved.
	DefaultMinDuplicateConfidence = 75
)
