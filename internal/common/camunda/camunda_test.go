package camunda

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"sponsorloop-workers/internal/common/errors"
	"sponsorloop-workers/internal/common/logger"
	"sponsorloop-workers/internal/common/validation"
	"sponsorloop-workers/pkg/registry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRuntime(t *testing.T) *Runtime {
	reg := &registry.ActivityRegistry{Activities: []registry.Activity{{
		ID:       "marketplace.matching.find",
		TaskType: "find-matches",
		InputSchema: map[string]interface{}{
			"type":     "object",
			"required": []interface{}{"viewerRole"},
		},
	}}}
	return NewRuntime(validation.NewValidator(reg), nil, logger.NewTestLogger(t))
}

func TestRuntime_RunPassesVariables(t *testing.T) {
	rt := newRuntime(t)

	out, err := rt.Run(context.Background(), "find-matches", time.Second, `{"viewerRole":"brand"}`,
		func(ctx context.Context, variables string) (interface{}, error) {
			_, hasDeadline := ctx.Deadline()
			assert.True(t, hasDeadline)
			return map[string]interface{}{"echo": variables}, nil
		})

	require.NoError(t, err)
	assert.Equal(t, `{"viewerRole":"brand"}`, out.(map[string]interface{})["echo"])
}

func TestRuntime_RunRejectsInvalidInput(t *testing.T) {
	rt := newRuntime(t)
	called := false

	_, err := rt.Run(context.Background(), "find-matches", time.Second, `{}`,
		func(context.Context, string) (interface{}, error) {
			called = true
			return nil, nil
		})

	require.Error(t, err)
	assert.False(t, called)
	assert.Equal(t, errors.ErrCodeInputValidationFailed, errors.AsStandardError(err).Code)
}

func TestRuntime_RunTimesOut(t *testing.T) {
	rt := newRuntime(t)

	_, err := rt.Run(context.Background(), "other", 10*time.Millisecond, `{}`,
		func(ctx context.Context, _ string) (interface{}, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		})

	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRetryConfig_Delay(t *testing.T) {
	r := RetryConfig{BaseDelay: time.Second, MaxDelay: 5 * time.Second}

	assert.Equal(t, time.Second, r.Delay(0))
	assert.Equal(t, 2*time.Second, r.Delay(1))
	assert.Equal(t, 4*time.Second, r.Delay(2))
	assert.Equal(t, 5*time.Second, r.Delay(3))
	assert.Equal(t, 5*time.Second, r.Delay(70))
}

func TestIsRetryableZeebeError(t *testing.T) {
	tests := map[string]bool{
		"rpc error: code = Unavailable desc = connection refused": true,
		"context deadline exceeded":                                true,
		"rpc error: code = PermissionDenied":                       false,
		"process not found":                                        false,
	}
	for msg, want := range tests {
		assert.Equal(t, want, isRetryableZeebeError(stderrors.New(msg)), msg)
	}
}
