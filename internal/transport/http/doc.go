// Package http contains the HTTP transport layer: chi handlers that
// translate API requests into dashboard service calls and render the
// results as JSON or file downloads. All errors are reported as
// RFC 7807 problem details.
package http
