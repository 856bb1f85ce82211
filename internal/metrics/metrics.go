package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Счётчики и датчики пайплайна; регистрируются в DefaultRegisterer и
// отдаются через promhttp на /metrics.
var (
	CollectCycles = promauto.NewCounter(prometheus.CounterOpts{
		Name: "news_collect_cycles_total",
		Help: "Completed source collection cycles.",
	})

	FetchErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "news_fetch_errors_total",
		Help: "Feed fetch failures by component.",
	}, []string{"component"})

	SnapshotArticles = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "news_snapshot_articles",
		Help: "Articles in the current feed snapshot.",
	})

	BreakingDetected = promauto.NewCounter(prometheus.CounterOpts{
		Name: "news_breaking_articles_total",
		Help: "Articles flagged as breaking during ingestion.",
	})

	WSClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "news_ws_clients",
		Help: "Currently connected websocket clients.",
	})

	WSMessages = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "news_ws_messages_total",
		Help: "Websocket frames sent by type.",
	}, []string{"type"})
)
