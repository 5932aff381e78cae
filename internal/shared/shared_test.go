package shared

import (
	"errors"
	"fmt"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserSafeMessageStripsSentinel(t *testing.T) {
	err := fmt.Errorf("create order: %w", fmt.Errorf("%w: customer is blocked", ErrConflict))
	assert.Equal(t, "customer is blocked", UserSafeMessage(err))
	assert.Equal(t, "not found", UserSafeMessage(ErrNotFound))
	assert.Equal(t, GenericErrorMessage, UserSafeMessage(errors.New("dial tcp: refused")))
	assert.Equal(t, "", UserSafeMessage(nil))
}

func TestValidationErrorFirstReasonWins(t *testing.T) {
	verr := NewValidationError()
	require.NoError(t, verr.OrNil())

	verr.Add("items", "first")
	verr.Add("items[0].quantity", "second")

	err := verr.OrNil()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrValidation))
	assert.Equal(t, "first", err.Error())
	assert.Equal(t, "first", UserSafeMessage(fmt.Errorf("update: %w", err)))
}

type sampleInput struct {
	Name  string `json:"name" validate:"required,max=5"`
	Price int    `json:"price" validate:"gte=0"`
}

func TestValidatorUsesJSONNames(t *testing.T) {
	v := NewValidator()
	require.NoError(t, v.Struct(sampleInput{Name: "ok"}))

	err := v.Struct(sampleInput{Price: -1})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	require.Len(t, verr.Fields, 2)
	assert.Equal(t, "name", verr.Fields[0].Field)
	assert.Equal(t, "name is required", verr.Fields[0].Reason)
	assert.Equal(t, "price must be greater than or equal to 0", verr.Fields[1].Reason)
}

func TestPagination(t *testing.T) {
	p := NewPagination(0, 0, 21)
	assert.Equal(t, Pagination{Page: 1, PerPage: 10, Total: 21, TotalPages: 3}, p)

	req := ParsePageRequest(url.Values{"page": {"3"}, "limit": {"10"}})
	assert.Equal(t, 20, req.Offset())

	unpaged := ParsePageRequest(url.Values{"page": {"x"}})
	assert.Equal(t, 0, unpaged.PerPage)
	assert.Equal(t, 0, unpaged.Offset())

	capped := ParsePageRequest(url.Values{"limit": {"5000"}})
	assert.Equal(t, MaxPerPage, capped.PerPage)
}
