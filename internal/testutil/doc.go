// Package testutil contains helpers used across tests to script provider
// turns and record tool executions without a network. They are not intended
// for production usage.
package testutil
