// Package gitrepo drives local git repositories through the shell executor
// and parses remote URLs into structured form.
package gitrepo
