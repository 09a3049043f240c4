// Package httputil holds the retry loop used by outgoing HTTP clients.
//
// Callers mark transient failures with [Retryable]; [Retry] repeats the
// operation with exponential backoff and gives up immediately on anything
// else:
//
//	err := httputil.Retry(ctx, httputil.DefaultPolicy, func() error {
//	    resp, err := client.Do(req)
//	    if err != nil {
//	        return httputil.Retryable(err)
//	    }
//	    ...
//	})
package httputil
