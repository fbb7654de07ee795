// Package retry provides the bounded exponential-backoff retry loop used by
// the kvault request pipeline.
//
// A Policy names the classified error kinds worth re-attempting, the total
// attempt budget, and a backoff strategy. Failures outside the retryable set
// propagate on first occurrence; retryable failures propagate unchanged once
// the budget is exhausted.
//
// Basic usage:
//
//	policy := &retry.Policy{
//		Attempts:  3,
//		Retryable: []errors.Kind{errors.KindConnection, errors.KindServer},
//		Backoff: &retry.ExponentialBackoff{
//			Base:         100 * time.Millisecond,
//			MaxWait:      5 * time.Second,
//			JitterFactor: 0.25,
//		},
//	}
//	resp, err := retry.DoWithResult(ctx, policy, func() (*client.Response, error) {
//		return c.Request(ctx, http.MethodGet, "/v1/sys/health", nil, nil)
//	})
//
// The loop is strictly sequential; attempts never race. Waits between
// attempts honor context cancellation.
package retry
