package retry

import (
	"context"
	"errors"
	"time"

	"cert-evaluator-be/pkg/apperr"

	"github.com/cenkalti/backoff/v5"
)

// Policy bounds a collaborator call: each attempt gets Timeout, and the call
// is retried up to Retries extra times with exponential backoff.
type Policy struct {
	Timeout time.Duration
	Retries uint
}

// Call runs op under the policy. Transport failures and timeouts are returned
// as *apperr.CollaboratorError once attempts are exhausted. ParseError and
// ValidationError are never retried.
func Call[T any](ctx context.Context, collaborator string, policy Policy, op func(ctx context.Context) (T, error)) (T, error) {
	attempt := func() (T, error) {
		callCtx := ctx
		if policy.Timeout > 0 {
			var cancel context.CancelFunc
			callCtx, cancel = context.WithTimeout(ctx, policy.Timeout)
			defer cancel()
		}

		result, err := op(callCtx)
		if err == nil {
			return result, nil
		}
		if apperr.IsParse(err) || apperr.IsValidation(err) || ctx.Err() != nil {
			return result, backoff.Permanent(err)
		}
		return result, err
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 250 * time.Millisecond
	b.MaxInterval = 2 * time.Second

	result, err := backoff.Retry(ctx, attempt,
		backoff.WithBackOff(b),
		backoff.WithMaxTries(policy.Retries+1),
	)
	if err == nil {
		return result, nil
	}
	if apperr.IsParse(err) || apperr.IsValidation(err) || apperr.IsCollaborator(err) {
		return result, err
	}
	return result, &apperr.CollaboratorError{
		Collaborator: collaborator,
		Timeout:      errors.Is(err, context.DeadlineExceeded),
		Err:          err,
	}
}
