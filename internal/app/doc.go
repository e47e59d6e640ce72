// Package app wires the dashboard together: configuration, logging,
// OpenTelemetry, the dataset-backed service layer, and the chi router
// with its middleware stack.
package app
