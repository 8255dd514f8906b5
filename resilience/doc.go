// Package resilience guards calls to remote backends.
//
// RetryPolicy retries transient failures with exponential backoff. Breaker
// fails fast once a backend has failed too many times in a row, so a run
// over thousands of files does not wait out every retry against a storage
// service that is down:
//
//	breaker := resilience.NewBreaker(resilience.BreakerConfig{Name: "s3"})
//	policy := resilience.DefaultRetryPolicy()
//
//	err := breaker.Do(func() error {
//	    return policy.Do(ctx, func(ctx context.Context) error {
//	        return backend.Upload(ctx, key, openFile())
//	    })
//	})
package resilience
