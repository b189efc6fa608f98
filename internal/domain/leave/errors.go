package leave

import "errors"

var (
	ErrInvalidState        = errors.New("invalid state")
	ErrOverlap             = errors.New("overlaps an existing leave request")
	ErrInsufficientBalance = errors.New("insufficient leave balance")
	ErrForbidden           = errors.New("forbidden")
	// ErrDuplicateEntitlement is returned by stores when the
	// (employee, leave type, year) row already exists.
	ErrDuplicateEntitlement = errors.New("entitlement already exists")
	ErrRequestNotFound      = errors.New("leave request not found")
	ErrEntitlementNotFound  = errors.New("entitlement not found")
)
