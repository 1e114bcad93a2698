package domain

// FindExactDuplicate compares the normalized candidate URL with every
// existing bookmark and reports the first match with ExactMatchConfidence.
//
// An existing URL that fails to normalize is compared verbatim instead, for
// that entry only. No external call is ever made.
func FindExactDuplicate(candidate string, existing []Summary) DuplicateVerdict {
	normalized, candidateErr := NormalizeURL(candidate)

	for _, s := range existing {
		other, err := NormalizeURL(s.URL)
		var same bool
		if err != nil || candidateErr != nil {
			same = s.URL == candidate
		} else {
			same = other == normalized
		}
		if same {
			return DuplicateVerdict{
				IsDuplicate: true,
				MatchID:     s.ID,
				Confidence:  ExactMatchConfidence,
			}
		}
	}

	return DuplicateVerdict{}
}
