// Package backend names the available secret store implementations.
// The implementations themselves live in the memory and postgres
// subpackages.
package backend
