package relationship

import (
	"errors"
	"fmt"

	"github.com/lingokit/server/model"
)

// ErrNotFound is returned when a relationship id does not resolve to a row.
var ErrNotFound = errors.New("relationship not found")

// Error is a business-rule violation. The reason is safe to show to the
// acting user; handlers map it to a 400 response.
type Error struct {
	Reason string
}

func (e *Error) Error() string {
	return e.Reason
}

const (
	reasonCantEstablish  = "couldn't create or re-establish relationship"
	reasonAlreadyBlocked = "relationship is already blocked"
	reasonNotParticipant = "user is not part of this relationship"
	reasonNotRequester   = "user is not the requester of this relationship"
	reasonNotRequestee   = "user is not the requestee of this relationship"
	reasonNotBlocked     = "friendship is not blocked"
	reasonNotDenier      = "user is not the denier of this relationship"
)

func errStatusMustBe(allowed ...model.RelationshipStatus) *Error {
	return &Error{Reason: fmt.Sprintf("friendship status must be one of %v", allowed)}
}
