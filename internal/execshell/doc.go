// Package execshell provides structured execution of external commands.
// It wraps os/exec with logging and typed failures via ShellExecutor, exposes
// command metadata types shared by callers, and notifies optional observers
// about command lifecycle events.
package execshell
