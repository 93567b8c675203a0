// Package policy provides retry policies for the geodb client.
//
// # Endpoint Discovery Retry
//
// After a regional failover, writes sent to the previous write region are
// rejected with a write-forbidden error (HTTP 403, sub-status 3).
// [EndpointDiscoveryRetry] decides whether such an operation should be retried:
// while discovery is enabled and the budget allows, it refreshes the shared
// endpoint list and asks the caller to retry after a fixed delay.
//
//	retry, _ := policy.NewEndpointDiscoveryRetry(manager,
//	    policy.WithMaxRetryAttempts(120),
//	    policy.WithRetryAfter(time.Second),
//	)
//
//	for {
//	    err := send(ctx, manager.WriteEndpoint())
//	    if !geodb.IsWriteForbidden(err) {
//	        return err
//	    }
//	    ok, refreshErr := retry.ShouldRetry(ctx, err)
//	    if refreshErr != nil {
//	        return refreshErr
//	    }
//	    if !ok {
//	        return err
//	    }
//	    time.Sleep(retry.RetryAfter())
//	}
//
// A policy instance belongs to one logical operation: create a new one per
// operation so each starts with a fresh budget. geodb.Executor does this for
// you. The endpoint manager is shared by all operations.
//
// Each granted retry triggers exactly one endpoint list refresh. A refresh
// failure is returned to the caller as is; the attempt still counts against
// the budget.
package policy
