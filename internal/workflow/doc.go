// Package workflow sequences automation steps, applies the retry policy,
// and collects the per-step run report.
package workflow
