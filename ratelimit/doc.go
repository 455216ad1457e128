// Package ratelimit provides an advisory call counter for the remote AI
// provider.
//
// A Window counts calls inside a fixed interval and signals when the caller
// is about to exceed the provider's quota. It never blocks; the analysis
// coordinator uses the signal to skip the remote call and fall back to local
// rule-based analysis.
package ratelimit
