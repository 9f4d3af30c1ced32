package metrics

import (
	"net/http"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "spacetraveling"

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	reg           *prom.Registry
	cmsDuration   *prom.HistogramVec
	cmsRequests   *prom.CounterVec
	cacheResults  *prom.CounterVec
	renderSeconds *prom.HistogramVec
	bannerResults *prom.CounterVec
}

// NewPrometheusRecorder registers the metrics on reg, or on a fresh
// registry with Go and process collectors when reg is nil.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
	p := &PrometheusRecorder{
		reg: reg,
		cmsDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "cms_request_duration_seconds",
			Help:      "Duration of content API round trips",
			Buckets:   prom.DefBuckets,
		}, []string{"op"}),
		cmsRequests: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "cms_requests_total",
			Help:      "Content API requests by operation and result",
		}, []string{"op", "result"}),
		cacheResults: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "cache_results_total",
			Help:      "Post cache lookups by cache and result",
		}, []string{"cache", "result"}),
		renderSeconds: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "render_duration_seconds",
			Help:      "Page handler duration including CMS calls",
			Buckets:   prom.DefBuckets,
		}, []string{"page"}),
		bannerResults: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "banner_results_total",
			Help:      "Banner image requests by outcome",
		}, []string{"result"}),
	}
	reg.MustRegister(p.cmsDuration, p.cmsRequests, p.cacheResults, p.renderSeconds, p.bannerResults)
	return p
}

// Handler serves the registry in the Prometheus exposition format.
func (p *PrometheusRecorder) Handler() http.Handler {
	return promhttp.HandlerFor(p.reg, promhttp.HandlerOpts{})
}

func (p *PrometheusRecorder) ObserveCMSRequest(op string, d time.Duration, err error) {
	if p == nil {
		return
	}
	res := "success"
	if err != nil {
		res = "error"
	}
	p.cmsDuration.WithLabelValues(op).Observe(d.Seconds())
	p.cmsRequests.WithLabelValues(op, res).Inc()
}

func (p *PrometheusRecorder) IncCacheResult(cache string, hit bool) {
	if p == nil {
		return
	}
	res := "miss"
	if hit {
		res = "hit"
	}
	p.cacheResults.WithLabelValues(cache, res).Inc()
}

func (p *PrometheusRecorder) ObserveRender(page string, d time.Duration) {
	if p == nil {
		return
	}
	p.renderSeconds.WithLabelValues(page).Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncBannerResult(result string) {
	if p == nil {
		return
	}
	p.bannerResults.WithLabelValues(result).Inc()
}
