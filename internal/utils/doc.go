// Package utils hosts shared CLI infrastructure: the viper-backed
// configuration loader, zap logger construction including the run-log
// streams, command context accessors, and writer helpers.
package utils
