// Package future provides a single-shot asynchronous result type. A Future is
// completed exactly once; later completions are ignored.
package future
