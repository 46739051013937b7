// Package console implements the configuration view of the admin console.
// A Component loads beans and property sources through two independent
// asynchronous requests and keeps them for display.
package console
