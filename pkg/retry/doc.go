// Package retry provides exponential backoff and retry logic for handling
// transient failures in network operations, particularly IMAP commands.
//
// Features:
//   - Exponential and constant backoff strategies
//   - Jitter to avoid thundering herd problems
//   - Context support for cancellation
//   - Configurable retry predicates
//   - Integration with the typed error package
//
// Basic usage:
//
//	// Simple retry with defaults
//	err := retry.Do(func() error {
//		return client.Select("INBOX")
//	}, nil)
//
//	// Custom configuration
//	cfg := &retry.Config{
//		MaxAttempts: 5,
//		Backoff: &retry.ExponentialBackoff{
//			BaseDelay:    2 * time.Second,
//			MaxDelay:     30 * time.Second,
//			Multiplier:   2.0,
//			JitterFactor: 0.1,
//		},
//		RetryIf: retry.DefaultRetryIf,
//		Logger:  logger.GetLogger(),
//	}
//	err := retry.Do(operation, cfg)
//
//	// Operations that return a value
//	msg, err := retry.DoWithResult(func() (*mailbox.Message, error) {
//		return client.FetchMessage(uid)
//	}, cfg)
//
// The default predicate retries network, rate limit, and source errors;
// auth, not-found, processing, and checkpoint errors fail immediately.
package retry
