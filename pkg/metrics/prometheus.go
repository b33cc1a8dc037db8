package metrics

import (
	"bufio"
	"io"
	"math"
	"net/http"
	"slices"
	"strconv"
	"strings"
)

// PrometheusExporter renders a Collector in the Prometheus text exposition
// format (version 0.0.4).
//
// Exported families, each prefixed with the namespace:
//
//	envelopes_total{op}                        counter   op = seal | open
//	plaintext_bytes_total{op}                  counter
//	signatures_total{result}                   counter   result = created | verified | rejected
//	errors_total{stage}                        counter   stage = seal | open | decode
//	uptime_seconds                             gauge
//	operation_duration_microseconds{op}        histogram
type PrometheusExporter struct {
	collector *Collector
	namespace string
}

// NewPrometheusExporter creates an exporter for c. namespace prefixes every
// family name, e.g. "quantum_envelope".
func NewPrometheusExporter(c *Collector, namespace string) *PrometheusExporter {
	return &PrometheusExporter{collector: c, namespace: namespace}
}

// Handler serves the current snapshot.
func (e *PrometheusExporter) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
		e.WriteMetrics(w)
	})
}

type sample struct {
	label, value string
	v            uint64
}

// WriteMetrics writes one snapshot of the collector to w.
func (e *PrometheusExporter) WriteMetrics(w io.Writer) {
	snap := e.collector.Snapshot()
	p := promWriter{Writer: bufio.NewWriter(w), ns: e.namespace, base: formatLabels(snap.Labels)}
	defer p.Flush()

	p.counter("envelopes_total", "Envelopes sealed or opened successfully.",
		sample{"op", "seal", snap.EnvelopesSealed},
		sample{"op", "open", snap.EnvelopesOpened})
	p.counter("plaintext_bytes_total", "Plaintext bytes sealed or recovered.",
		sample{"op", "seal", snap.BytesSealed},
		sample{"op", "open", snap.BytesOpened})
	p.counter("signatures_total", "BLS signatures by outcome.",
		sample{"result", "created", snap.SignaturesCreated},
		sample{"result", "verified", snap.SignaturesVerified},
		sample{"result", "rejected", snap.VerifyFailures})
	p.counter("errors_total", "Failed operations by stage. Rejected signatures are not counted here.",
		sample{"stage", "seal", snap.SealErrors},
		sample{"stage", "open", snap.OpenErrors},
		sample{"stage", "decode", snap.DecodingErrors})

	p.header("uptime_seconds", "Seconds since the collector was created.", "gauge")
	p.line("uptime_seconds", p.base, formatFloat(snap.Uptime.Seconds()))

	name := "operation_duration_microseconds"
	p.header(name, "Seal and open latency in microseconds.", "histogram")
	p.histogram(name, "seal", snap.SealLatency)
	p.histogram(name, "open", snap.OpenLatency)
}

type promWriter struct {
	*bufio.Writer
	ns   string
	base string // collector labels, already formatted
}

func (p promWriter) header(name, help, typ string) {
	p.WriteString("# HELP " + p.ns + "_" + name + " " + help + "\n")
	p.WriteString("# TYPE " + p.ns + "_" + name + " " + typ + "\n")
}

func (p promWriter) line(name, labels, value string) {
	p.WriteString(p.ns + "_" + name)
	if labels != "" {
		p.WriteString("{" + labels + "}")
	}
	p.WriteString(" " + value + "\n")
}

func (p promWriter) with(extra string) string {
	if p.base == "" {
		return extra
	}
	return p.base + "," + extra
}

func (p promWriter) counter(name, help string, samples ...sample) {
	p.header(name, help, "counter")
	for _, s := range samples {
		p.line(name, p.with(s.label+`="`+s.value+`"`), strconv.FormatUint(s.v, 10))
	}
}

func (p promWriter) histogram(name, op string, h HistogramSummary) {
	opLabel := `op="` + op + `"`
	for _, b := range h.Buckets {
		le := "+Inf"
		if !math.IsInf(b.UpperBound, 1) {
			le = formatFloat(b.UpperBound)
		}
		p.line(name+"_bucket", p.with(opLabel+`,le="`+le+`"`), strconv.FormatUint(b.Count, 10))
	}
	p.line(name+"_sum", p.with(opLabel), formatFloat(h.Sum))
	p.line(name+"_count", p.with(opLabel), strconv.FormatUint(h.Count, 10))
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// formatLabels renders labels sorted by key with escaped values.
func formatLabels(labels Labels) string {
	keys := make([]string, 0, len(labels))
	for k := range labels {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + `="` + labelEscaper.Replace(labels[k]) + `"`
	}
	return strings.Join(parts, ",")
}

var labelEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`)
