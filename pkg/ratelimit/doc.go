// Package ratelimit provides rate limiting for IMAP command traffic.
//
// Mail servers throttle or disconnect clients that issue commands too
// quickly; the exporter paces every command through a limiter to stay
// under those thresholds.
//
// Token Bucket:
//   - Fixed capacity bucket that refills after a specified period
//   - Suitable for burst traffic followed by quiet periods
//   - Default implementation used by the exporter
//
// All rate limiters implement the Limiter interface:
//   - Allow() bool - Check if a command is allowed
//   - Wait() - Block until a command is allowed
//   - Reset() - Reset the limiter state
//
// Usage:
//
//	// 60 commands per minute
//	limiter := ratelimit.NewTokenBucket(60, time.Minute)
//
//	if limiter.Allow() {
//	    // Proceed with the command
//	} else {
//	    limiter.Wait()
//	}
package ratelimit
