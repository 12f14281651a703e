// Package infra groups the adapters behind the core interfaces of xcharge:
// the zerolog logger, the Prometheus and InfluxDB session sinks, the paho
// event mirror, Sentry monitoring and the map view builder.
package infra
