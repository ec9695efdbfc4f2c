package service

import (
	"errors"

	"github.com/Payphone-Digital/locatory/internal/constants"
	apperrors "github.com/Payphone-Digital/locatory/internal/errors"
	"github.com/Payphone-Digital/locatory/internal/repository"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

// Actor is the authenticated caller of a write operation.
type Actor struct {
	UserID uint
	Role   string
}

// CanModify reports whether the actor owns the resource or is an admin.
func (a Actor) CanModify(owner uint) bool {
	return a.Role == constants.RoleAdmin || a.UserID == owner
}

// documentError maps document store failures to domain errors; notFound is
// returned for missing documents and malformed ids.
func documentError(err error, notFound *apperrors.DomainError) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments), errors.Is(err, repository.ErrInvalidID):
		return notFound
	case mongo.IsDuplicateKeyError(err):
		return apperrors.WrapError(apperrors.ErrDuplicateValue, err)
	default:
		return apperrors.WrapError(apperrors.ErrInternal, err)
	}
}
