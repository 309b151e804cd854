package notify

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	dispatchTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "outbox_dispatch_total",
		Help: "Dispatch outcomes by result (sent, failed, conflict).",
	}, []string{"result"})

	channelSendSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "outbox_channel_send_seconds",
		Help:    "Channel adapter send latency.",
		Buckets: prometheus.DefBuckets,
	}, []string{"channel", "result"})

	retryTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "outbox_retry_total",
		Help: "Operator-triggered retries.",
	})
)
