package errs

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTypedErrorsUnwrapToSentinels(t *testing.T) {
	nf := NotFound("employee", "e-1")
	assert.ErrorIs(t, nf, ErrNotFound)
	assert.Equal(t, "employee e-1 not found", nf.Error())

	var nfe *NotFoundError
	assert.True(t, errors.As(nf, &nfe))
	assert.Equal(t, "employee", nfe.Entity)

	inv := Invalid("endDate", "must be on or after startDate")
	assert.ErrorIs(t, inv, ErrValidation)
	assert.Equal(t, "endDate: must be on or after startDate", inv.Error())
}

func TestExternalKeepsCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := External("smtp", cause)
	assert.ErrorIs(t, err, ErrExternalService)
	assert.ErrorIs(t, err, cause)
	assert.Nil(t, External("smtp", nil))
}
