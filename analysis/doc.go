// Package analysis coordinates local rule-based analysis with an optional
// remote AI provider.
//
// The rule engine report is the deterministic baseline. Coordinator.Analyze
// only calls the provider when a credential is configured, the rate window
// is not nearly exhausted and the snippet is long enough to be worth a remote
// review. Provider failures never surface to the caller.
package analysis
