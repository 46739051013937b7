// Package application provides application initialization and dependency wiring.
// It creates the management client, the configuration component, API handlers,
// routers, the HTML view and the HTTP server, keeping the main package focused
// on CLI parsing and orchestration.
package application
