// Package metrics 暴露网关的 Prometheus 指标。
// 所有方法对 nil 接收者安全，未启用指标时可直接传 nil。
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "fixgw"

// Metrics 持有独立的 Registry，避免多实例之间的全局注册冲突。
type Metrics struct {
	registry *prometheus.Registry

	inbound           *prometheus.CounterVec
	translationErrors *prometheus.CounterVec
	outbound          *prometheus.CounterVec
	suppressed        prometheus.Counter
	published         *prometheus.CounterVec
	sessionState      *prometheus.GaugeVec
	sinkErrors        *prometheus.CounterVec
}

// New 创建指标集合并注册 Go 运行时与进程采集器。
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		inbound: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "inbound_messages_total",
			Help:      "Inbound FIX application messages by MsgType.",
		}, []string{"msg_type"}),
		translationErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "translation_errors_total",
			Help:      "Inbound messages dropped because translation failed.",
		}, []string{"msg_type"}),
		outbound: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "outbound_messages_total",
			Help:      "Outbound FIX application messages handed to the engine.",
		}, []string{"msg_type"}),
		suppressed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "suppressed_duplicates_total",
			Help:      "Outbound messages not sent because PossDupFlag was set.",
		}),
		published: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "gateway",
			Name:      "events_published_total",
			Help:      "Domain events published to the bus by kind.",
		}, []string{"kind"}),
		sessionState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "state",
			Help:      "Current session state code (0=disconnected .. 4=logged out).",
		}, []string{"session"}),
		sinkErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "bus",
			Name:      "sink_errors_total",
			Help:      "Failed deliveries to event sinks.",
		}, []string{"sink"}),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.inbound,
		m.translationErrors,
		m.outbound,
		m.suppressed,
		m.published,
		m.sessionState,
		m.sinkErrors,
	)
	return m
}

// Registry 返回底层 Registry。
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler 返回 /metrics 处理器。
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) InboundMessage(msgType string) {
	if m == nil {
		return
	}
	m.inbound.WithLabelValues(msgType).Inc()
}

func (m *Metrics) TranslationFailed(msgType string) {
	if m == nil {
		return
	}
	m.translationErrors.WithLabelValues(msgType).Inc()
}

func (m *Metrics) OutboundMessage(msgType string) {
	if m == nil {
		return
	}
	m.outbound.WithLabelValues(msgType).Inc()
}

func (m *Metrics) DuplicateSuppressed() {
	if m == nil {
		return
	}
	m.suppressed.Inc()
}

func (m *Metrics) EventPublished(kind string) {
	if m == nil {
		return
	}
	m.published.WithLabelValues(kind).Inc()
}

// SessionState 记录会话状态码。
func (m *Metrics) SessionState(session string, state int) {
	if m == nil {
		return
	}
	m.sessionState.WithLabelValues(session).Set(float64(state))
}

func (m *Metrics) SinkFailed(sink string) {
	if m == nil {
		return
	}
	m.sinkErrors.WithLabelValues(sink).Inc()
}
