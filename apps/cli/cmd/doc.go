// Package cmd implements the httpconnect CLI commands using Cobra.
//
// Available commands:
//   - send: Send a request with an optional JSON, form, raw or gzip body
//   - get: Shorthand for send GET
//   - bench: Fire a batch of requests and report latency percentiles
//   - mock: Serve canned responses from a routes file
//   - version: Show httpconnect version information
//
// Client settings come from the config file (see package config) and
// HTTPCONNECT_ environment variables; flags override both.
package cmd
