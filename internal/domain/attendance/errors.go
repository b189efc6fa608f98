package attendance

import "errors"

var (
	ErrRecordNotFound    = errors.New("attendance record not found")
	ErrDuplicateRecord   = errors.New("attendance record already exists")
	ErrConflict          = errors.New("attendance record was modified concurrently")
	ErrAlreadyCheckedIn  = errors.New("already checked in")
	ErrNotCheckedIn      = errors.New("not checked in")
	ErrAlreadyCheckedOut = errors.New("already checked out")
	ErrEmployeeInactive  = errors.New("employee is not active")
)
