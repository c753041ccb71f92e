// Package ui adapts command lifecycle events into the run-log streams.
package ui
