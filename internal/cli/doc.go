// Package cli renders console data for terminal output.
package cli
