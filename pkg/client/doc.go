// Package client provides the request pipeline for talking to a kvault
// key/secret-management server over its REST-style API.
//
// The client exposes one entry point per HTTP verb. GET, PUT and DELETE are
// idempotent against the kvault API and route through the retry-wrapping
// path; POST and PATCH are issued exactly once. Failed requests are
// classified into connection, client and server kinds (see kvault/pkg/errors)
// and transient kinds are retried with bounded exponential backoff
// (see kvault/pkg/retry) when a retry policy is configured.
//
// Example:
//
//	cfg := config.DefaultConfig()
//	cfg.Address = "https://kvault.internal:8300"
//	cfg.Token = os.Getenv("KVAULT_TOKEN")
//
//	c := client.New(cfg, nil)
//	resp, err := c.Get(ctx, "/v1/sys/health", nil, nil)
//	if err != nil {
//		var cerr *errors.Error
//		if stderrors.As(err, &cerr) && cerr.Kind == errors.KindClient {
//			// permanent failure, fix the request
//		}
//	}
package client
