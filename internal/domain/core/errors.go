package core

import "hrms/internal/domain/errs"

var ErrEmployeeNotFound = errs.NotFound("employee", "")
