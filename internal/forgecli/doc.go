// Package forgecli talks to the forge REST API through the gh command line
// client and classifies HTTP failures into typed errors.
package forgecli
