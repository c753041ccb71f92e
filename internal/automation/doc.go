// Package automation implements the staging forge automation sequence: the
// configuration record, the failure taxonomy, the operation service, and the
// Cobra command builders.
package automation
