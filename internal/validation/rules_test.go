package validation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	apperrors "github.com/allisson/provenance/internal/errors"
)

func TestNotBlank(t *testing.T) {
	assert.NoError(t, NotBlank.Validate("value"))
	assert.NoError(t, NotBlank.Validate("  value  "))

	// Empty strings are skipped so Required can handle them separately.
	assert.NoError(t, NotBlank.Validate(""))

	assert.Error(t, NotBlank.Validate("   "))
	assert.Error(t, NotBlank.Validate("\t\n"))
}

func TestRFC3339Timestamp(t *testing.T) {
	assert.NoError(t, RFC3339Timestamp.Validate("2025-01-06T10:00:00Z"))
	assert.NoError(t, RFC3339Timestamp.Validate("2025-01-06T10:00:00-03:00"))
	assert.NoError(t, RFC3339Timestamp.Validate("2025-01-06T10:00:00.123Z"))

	assert.Error(t, RFC3339Timestamp.Validate("2025-01-06 10:00:00"))
	assert.Error(t, RFC3339Timestamp.Validate("2025-01-06"))
	assert.Error(t, RFC3339Timestamp.Validate("not a timestamp"))
	assert.Error(t, RFC3339Timestamp.Validate("2025-13-40T99:00:00Z"))
}

func TestBase64(t *testing.T) {
	assert.NoError(t, Base64.Validate("aGVsbG8="))
	assert.NoError(t, Base64.Validate(""))

	assert.Error(t, Base64.Validate("not base64!!!"))
	assert.Error(t, Base64.Validate(12345))
}

func TestWrapValidationError(t *testing.T) {
	assert.NoError(t, WrapValidationError(nil))

	err := WrapValidationError(errors.New("field is invalid"))
	assert.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrInvalidInput))
	assert.Contains(t, err.Error(), "field is invalid")
}
