// Package metrics records generation run metrics.
//
// Components receive a Recorder. NoopRecorder is the default; the CLI swaps
// in a PrometheusRecorder when --metrics-file is given and writes the
// registry in the node-exporter textfile format when the run ends.
package metrics
