// Package resilience groups the fault tolerance helpers used around
// outbound calls to the content provider and to webhook destinations.
//
//   - circuitbreaker: gobreaker wrapper with provider and per-destination presets
//   - retry: exponential backoff with jitter that honors Retry-After hints
//
// Usage Example:
//
//	cb := circuitbreaker.New(circuitbreaker.ProviderAPIConfig())
//	err := retry.WithBackoff(ctx, retry.ProviderAPIConfig(), func() error {
//	    _, err := cb.Execute(func() (interface{}, error) {
//	        return nil, callProvider(ctx)
//	    })
//	    return err
//	})
package resilience
