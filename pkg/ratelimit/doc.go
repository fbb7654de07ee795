// Package ratelimit provides client-side request throttling.
//
// A shared kvault client can hammer the server when several goroutines retry
// at once; an optional token bucket in front of the transport keeps the
// outgoing request rate bounded. The limiter is disabled unless configured.
package ratelimit
