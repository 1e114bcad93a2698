package ingest

// State is a step of one ingestion attempt.
//
//	Validating -> PrecheckDuplicate -> ExactDuplicateFound (409)
//	                                -> Enriching -> Normalizing -> DuplicateConfirmed (409)
//	                                                            -> Persisting -> Persisted (201)
//
// Any enrichment failure still leads to Normalizing, with fallback metadata.
// Only a failed write ends in Failed.
type State int

const (
	StateValidating State = iota
	StatePrecheckDuplicate
	StateExactDuplicateFound
	StateEnriching
	StateNormalizing
	StateDuplicateConfirmed
	StatePersisting
	StatePersisted
	StateRejected
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateValidating:
		return "validating"
	case StatePrecheckDuplicate:
		return "precheck_duplicate"
	case StateExactDuplicateFound:
		return "exact_duplicate_found"
	case StateEnriching:
		return "enriching"
	case StateNormalizing:
		return "normalizing"
	case StateDuplicateConfirmed:
		return "duplicate_confirmed"
	case StatePersisting:
		return "persisting"
	case StatePersisted:
		return "persisted"
	case StateRejected:
		return "rejected"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further transition follows s.
func (s State) Terminal() bool {
	switch s {
	case StateExactDuplicateFound, StateDuplicateConfirmed, StatePersisted, StateRejected, StateFailed:
		return true
	default:
		return false
	}
}
