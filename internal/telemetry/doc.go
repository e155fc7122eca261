// Package telemetry abstracts the metrics backend behind [Provider].
//
// Three backends exist: [Nop], [Statsd] for DogStatsD agents and
// [Prometheus], which keeps its own registry and serves it from
// [Prometheus.Handler]. Metric names are shared; backends map the
// "key:value" tags onto their own label model.
package telemetry
