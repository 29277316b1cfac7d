package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConstructors_RetryableFlags(t *testing.T) {
	cause := stderrors.New("connection refused")

	tests := []struct {
		name      string
		err       *StandardError
		code      ErrorCode
		retryable bool
	}{
		{"invalid limit", NewInvalidLimitError(0, nil), ErrCodeInvalidLimit, false},
		{"invalid filter", NewInvalidFilterFormatError("limit: abc"), ErrCodeInvalidFilterFormat, false},
		{"invalid role", NewInvalidRoleError("agency"), ErrCodeInvalidRole, false},
		{"input validation", NewInputValidationFailedError("viewer is required"), ErrCodeInputValidationFailed, false},
		{"store failed", NewProfileStoreFailedError("ListByRole", cause), ErrCodeProfileStoreFailed, true},
		{"not found", NewProfileNotFoundError("p-1"), ErrCodeProfileNotFound, false},
		{"viewer", NewViewerResolutionFailedError(cause), ErrCodeViewerResolutionFailed, false},
		{"notification", NewNotificationSendFailedError("email", cause), ErrCodeNotificationSendFailed, true},
		{"event", NewEventPublishFailedError("matches.ranked", cause), ErrCodeEventPublishFailed, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, tt.err.Code)
			assert.Equal(t, tt.retryable, tt.err.Retryable)
			assert.False(t, tt.err.Timestamp.IsZero())
			assert.Contains(t, tt.err.Error(), string(tt.code))
		})
	}
}

func TestStandardError_UnwrapsCause(t *testing.T) {
	sentinel := stderrors.New("INVALID_LIMIT")
	err := NewInvalidLimitError(-1, fmt.Errorf("limit %d: %w", -1, sentinel))

	assert.True(t, stderrors.Is(err, sentinel))
	assert.Equal(t, "limit: -1", err.Details)
}

func TestAsStandardError(t *testing.T) {
	original := NewProfileNotFoundError("p-9")
	wrapped := fmt.Errorf("lookup: %w", original)

	assert.Same(t, original, AsStandardError(wrapped))

	plain := AsStandardError(stderrors.New("boom"))
	assert.Equal(t, ErrCodeInternal, plain.Code)
	assert.Equal(t, "boom", plain.Details)
	assert.False(t, plain.Retryable)
}

func TestConvertToBPMNError(t *testing.T) {
	stdErr := NewProfileStoreFailedError("SearchByText", stderrors.New("timeout")).
		WithMetadata("role", "brand")

	bpmnErr := ConvertToBPMNError(stdErr)

	assert.Equal(t, "PROFILE_STORE_FAILED", bpmnErr.Code)
	assert.Equal(t, 3, bpmnErr.Retries)
	assert.True(t, bpmnErr.Retryable)

	vars := bpmnErr.ToErrorVariables()
	assert.Equal(t, "PROFILE_STORE_FAILED", vars["errorCode"])
	assert.Equal(t, "PROFILE_STORE_FAILED", vars["originalErrorCode"])
	assert.Equal(t, "brand", vars["role"])
}

func TestConvertToBPMNError_RoleErrorsShareFilterBoundary(t *testing.T) {
	bpmnErr := ConvertToBPMNError(NewInvalidRoleError("agency"))

	assert.Equal(t, "INVALID_FILTER_FORMAT", bpmnErr.Code)
	assert.Equal(t, 0, bpmnErr.Retries)
}

func TestConvertToBPMNError_UnknownCodeFallsBack(t *testing.T) {
	bpmnErr := ConvertToBPMNError(AsStandardError(stderrors.New("x")))

	assert.Equal(t, "INTERNAL_ERROR", bpmnErr.Code)
}

func TestGetErrorCategory(t *testing.T) {
	tests := map[ErrorCode]string{
		ErrCodeProfileStoreFailed:     "STORE",
		ErrCodeProfileNotFound:        "STORE",
		ErrCodeViewerResolutionFailed: "AUTH",
		ErrCodeNotificationSendFailed: "NOTIFICATION",
		ErrCodeEventPublishFailed:     "MESSAGING",
		ErrCodeInvalidLimit:           "VALIDATION",
		ErrCodeInputValidationFailed:  "VALIDATION",
		ErrCodeInternal:               "OTHER",
	}

	for code, expected := range tests {
		assert.Equal(t, expected, GetErrorCategory(code), string(code))
	}
}

func TestRetryBudget(t *testing.T) {
	storeErr := NewProfileStoreFailedError("ListByRole", stderrors.New("down"))

	tests := []struct {
		name      string
		err       *StandardError
		remaining int32
		retries   int
		retry     bool
	}{
		{"fresh job gets full budget", storeErr, 5, 3, true},
		{"budget capped by remaining", storeErr, 2, 1, true},
		{"last attempt", storeErr, 1, 0, true},
		{"exhausted job throws", storeErr, 0, 0, false},
		{"business error throws", NewInvalidRoleError("x"), 5, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			retries, retry := retryBudget(tt.err, tt.remaining)
			require.Equal(t, tt.retry, retry)
			assert.Equal(t, tt.retries, retries)
		})
	}
}
