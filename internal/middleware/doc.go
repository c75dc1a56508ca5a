// Package middleware provides the HTTP middleware chain of the server.
//
// It includes:
//   - HTTP basic authentication against the users table
//   - Request logging in W3C Extended Log Format
//   - Prometheus request metrics
//   - gzip compression of JSON responses
package middleware
