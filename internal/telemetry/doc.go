// Package telemetry wires OpenTelemetry for larder.
//
// Traces, metrics and logs are exported over OTLP HTTP when an endpoint is
// configured.
// Spans started through Tracer are no-ops otherwise.
package telemetry
