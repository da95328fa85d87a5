// Package http provides the HTTP transport underneath the SOAP invoker.
//
// Structure:
//
//	client.go     - HTTP client with rate limiting and retry
package http
