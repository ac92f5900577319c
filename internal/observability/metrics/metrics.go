package metrics

import "github.com/prometheus/client_golang/prometheus"

// ConversationMetrics exposes counters/histograms for the bot's flows.
// All methods are nil-safe so wiring metrics stays optional.
type ConversationMetrics struct {
	inboundTotal    *prometheus.CounterVec
	extractionTotal *prometheus.CounterVec
	sheetWriteTotal *prometheus.CounterVec
	handleLatency   *prometheus.HistogramVec
}

func NewConversationMetrics(reg prometheus.Registerer) *ConversationMetrics {
	m := &ConversationMetrics{
		inboundTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "yoyakubot",
			Subsystem: "webhook",
			Name:      "inbound_total",
			Help:      "Total inbound LINE messages by type and dispatch status",
		}, []string{"message_type", "status"}),
		extractionTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "yoyakubot",
			Subsystem: "extraction",
			Name:      "calls_total",
			Help:      "Total extraction-model calls by operation and outcome",
		}, []string{"operation", "status"}),
		sheetWriteTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "yoyakubot",
			Subsystem: "sheets",
			Name:      "writes_total",
			Help:      "Total spreadsheet operations by kind and outcome",
		}, []string{"operation", "status"}),
		handleLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "yoyakubot",
			Subsystem: "conversation",
			Name:      "handle_latency_seconds",
			Help:      "Latency of conversation event handling",
			Buckets:   prometheus.DefBuckets,
		}, []string{"message_type"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.inboundTotal, m.extractionTotal, m.sheetWriteTotal, m.handleLatency)
	return m
}

func (m *ConversationMetrics) ObserveInbound(messageType, status string) {
	if m == nil {
		return
	}
	m.inboundTotal.WithLabelValues(messageType, status).Inc()
}

func (m *ConversationMetrics) ObserveExtraction(operation, status string) {
	if m == nil {
		return
	}
	m.extractionTotal.WithLabelValues(operation, status).Inc()
}

func (m *ConversationMetrics) ObserveSheetWrite(operation, status string) {
	if m == nil {
		return
	}
	m.sheetWriteTotal.WithLabelValues(operation, status).Inc()
}

func (m *ConversationMetrics) ObserveHandleLatency(messageType string, seconds float64) {
	if m == nil {
		return
	}
	m.handleLatency.WithLabelValues(messageType).Observe(seconds)
}
