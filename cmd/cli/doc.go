// Package cli constructs the forgerun command-line interface, wiring the
// Cobra command hierarchy, configuration loader, and structured logging
// primitives. It exposes helpers to build reusable application instances and
// to execute the default automation sequence as a reusable library.
package cli
