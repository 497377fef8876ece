package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"cert-evaluator-be/pkg/apperr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCallRetriesTransientFailures(t *testing.T) {
	attempts := 0
	result, err := Call(context.Background(), "llm", Policy{Retries: 2}, func(ctx context.Context) (string, error) {
		attempts++
		if attempts < 3 {
			return "", errors.New("connection refused")
		}
		return "ok", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "ok", result)
	assert.Equal(t, 3, attempts)
}

func TestCallWrapsExhaustedFailures(t *testing.T) {
	attempts := 0
	_, err := Call(context.Background(), "retrieval", Policy{Retries: 1}, func(ctx context.Context) (int, error) {
		attempts++
		return 0, errors.New("boom")
	})

	var collabErr *apperr.CollaboratorError
	require.ErrorAs(t, err, &collabErr)
	assert.Equal(t, "retrieval", collabErr.Collaborator)
	assert.False(t, collabErr.Timeout)
	assert.Equal(t, 2, attempts)
}

func TestCallDoesNotRetryParseErrors(t *testing.T) {
	attempts := 0
	_, err := Call(context.Background(), "llm", Policy{Retries: 3}, func(ctx context.Context) (string, error) {
		attempts++
		return "", &apperr.ParseError{Schema: "checks", Raw: "nope", Err: errors.New("bad json")}
	})

	assert.True(t, apperr.IsParse(err))
	assert.Equal(t, 1, attempts)
}

func TestCallMarksTimeouts(t *testing.T) {
	_, err := Call(context.Background(), "llm", Policy{Timeout: 10 * time.Millisecond}, func(ctx context.Context) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	})

	var collabErr *apperr.CollaboratorError
	require.ErrorAs(t, err, &collabErr)
	assert.True(t, collabErr.Timeout)
}
