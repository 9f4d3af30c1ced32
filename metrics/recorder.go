// Package metrics records CMS, cache and rendering observations.
package metrics

import "time"

// Recorder defines observability hooks. Implementations may forward to
// Prometheus; NoopRecorder is used when metrics are disabled.
type Recorder interface {
	ObserveCMSRequest(op string, d time.Duration, err error)
	IncCacheResult(cache string, hit bool)
	ObserveRender(page string, d time.Duration)
	IncBannerResult(result string) // result: stored|resized|failed
}

// NoopRecorder is a Recorder that does nothing.
type NoopRecorder struct{}

func (NoopRecorder) ObserveCMSRequest(string, time.Duration, error) {}
func (NoopRecorder) IncCacheResult(string, bool)                    {}
func (NoopRecorder) ObserveRender(string, time.Duration)            {}
func (NoopRecorder) IncBannerResult(string)                         {}
