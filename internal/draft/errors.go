package draft

import "errors"

// PickErrorKind enumerates the validation failures a commit can produce.
// These are expected, non-fatal, and never mutate draft state.
type PickErrorKind int

const (
	// KindOutOfOrder means the committing participant is not on the clock.
	KindOutOfOrder PickErrorKind = iota
	// KindSequenceMismatch means the request's sequence index does not match
	// the draft's next index, usually from stale client state.
	KindSequenceMismatch
	// KindInvalidGolfer means the golfer is not part of the tournament field.
	KindInvalidGolfer
	// KindAlreadyDrafted means the golfer was already taken.
	KindAlreadyDrafted
)

// PickError is a commit validation failure. Error() renders the wire-level
// messages established by the original clients, which match on the
// "invalid pick: " prefix to tell client errors from server errors.
type PickError struct {
	Kind PickErrorKind
}

func (e *PickError) Error() string {
	switch e.Kind {
	case KindOutOfOrder:
		return "invalid pick: user picked out of order"
	case KindSequenceMismatch:
		return "invalid pick: pick order out of sync"
	case KindInvalidGolfer:
		return "invalid pick: invalid golfer"
	case KindAlreadyDrafted:
		return "invalid pick: golfer already drafted"
	default:
		return "invalid pick"
	}
}

// IsPickError reports whether err is a commit validation failure and, if so,
// returns it.
func IsPickError(err error) (*PickError, bool) {
	var pe *PickError
	if errors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}

var (
	// ErrDraftComplete is returned by Commit once every slot is filled.
	ErrDraftComplete = errors.New("draft is complete")
	// ErrNothingToUndo is returned by Undo when no picks have been made.
	ErrNothingToUndo = errors.New("no picks to undo")
)
