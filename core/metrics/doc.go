// Package metrics defines the sinks used to observe the dispatch session.
// Sinks like PromSink and InfluxSink (see infra/metrics) record stage
// transitions, counter samples and rejected actions, and can be combined
// with NewMultiSink. The factory helpers return a MultiSink automatically
// when multiple sinks are configured.
package metrics
