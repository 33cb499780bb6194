package metrics

import (
	"fmt"
	"log/slog"
	"net/http"

	prom "github.com/prometheus/client_golang/prometheus"
	promhttp "github.com/prometheus/client_golang/prometheus/promhttp"

	"git.home.luguber.info/inful/guidebuilder/internal/logfields"
)

// HTTPHandler serves the metrics gathered from g. A failing collector is
// logged and the remaining metrics are still served.
func HTTPHandler(g prom.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{
		ErrorLog:          slogErrorLog{},
		ErrorHandling:     promhttp.ContinueOnError,
		EnableOpenMetrics: true,
	})
}

// slogErrorLog adapts promhttp's error logger to slog.
type slogErrorLog struct{}

func (slogErrorLog) Println(v ...any) {
	slog.Warn("Metrics gathering error", slog.String(logfields.KeyError, fmt.Sprint(v...)))
}
