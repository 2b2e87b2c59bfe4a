// Package testutil contains helper agents and builders used across tests to
// reduce boilerplate when exercising dispatch paths and constructing
// invocation records. They are not intended for production usage.
package testutil
