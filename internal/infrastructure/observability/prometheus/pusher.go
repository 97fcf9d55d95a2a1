package prometheus

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"unicode"

	"github.com/dreschagin/event-media-fetcher/internal/application/port"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

const namespace = "event_media_fetcher"

type gauge struct {
	vec    *prometheus.GaugeVec
	labels []string
}

// Pusher exposes run metrics as gauges and pushes them to a Prometheus Pushgateway.
type Pusher struct {
	registry *prometheus.Registry
	pusher   *push.Pusher

	mu     sync.Mutex
	gauges map[string]gauge
}

func NewPusher(gatewayURL, job string) (*Pusher, error) {
	if strings.TrimSpace(gatewayURL) == "" {
		return nil, fmt.Errorf("pushgateway url is required")
	}
	if strings.TrimSpace(job) == "" {
		return nil, fmt.Errorf("job name is required")
	}

	registry := prometheus.NewRegistry()
	return &Pusher{
		registry: registry,
		pusher:   push.New(gatewayURL, job).Gatherer(registry),
		gauges:   make(map[string]gauge),
	}, nil
}

// Registry is exposed for tests and for callers that want to add collectors.
func (p *Pusher) Registry() *prometheus.Registry {
	return p.registry
}

func (p *Pusher) PublishBatch(_ context.Context, metrics []port.RunMetric) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, metric := range metrics {
		name := metricName(metric.Name, metric.Unit)
		labels, values := labelPairs(metric.Dimensions)

		g, ok := p.gauges[name]
		if !ok {
			g = gauge{
				vec: prometheus.NewGaugeVec(prometheus.GaugeOpts{
					Namespace: namespace,
					Name:      name,
					Help:      "Run summary value for " + metric.Name + ".",
				}, labels),
				labels: labels,
			}
			if err := p.registry.Register(g.vec); err != nil {
				return fmt.Errorf("register %s: %w", name, err)
			}
			p.gauges[name] = g
		}
		if !equalLabels(g.labels, labels) {
			return fmt.Errorf("metric %s: label set changed from %v to %v", name, g.labels, labels)
		}

		g.vec.WithLabelValues(values...).Set(metric.Value)
	}

	return nil
}

// Flush replaces the job's metric group on the gateway.
func (p *Pusher) Flush(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.gauges) == 0 {
		return nil
	}
	if err := p.pusher.PushContext(ctx); err != nil {
		return fmt.Errorf("push to gateway: %w", err)
	}
	return nil
}

func metricName(name, unit string) string {
	name = toSnake(name)
	if unit == "s" && !strings.HasSuffix(name, "_seconds") {
		name += "_seconds"
	}
	if unit == "bytes" && !strings.HasSuffix(name, "_bytes") {
		name += "_bytes"
	}
	return name
}

func labelPairs(dimensions map[string]string) ([]string, []string) {
	keys := make([]string, 0, len(dimensions))
	for key := range dimensions {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	labels := make([]string, 0, len(keys))
	values := make([]string, 0, len(keys))
	for _, key := range keys {
		labels = append(labels, toSnake(key))
		values = append(values, dimensions[key])
	}
	return labels, values
}

// toSnake turns "RunID" into "run_id" and "images-saved" into "images_saved".
func toSnake(s string) string {
	runes := []rune(s)
	var b strings.Builder
	for i, r := range runes {
		switch {
		case unicode.IsUpper(r):
			if i > 0 && (unicode.IsLower(runes[i-1]) || (i+1 < len(runes) && unicode.IsLower(runes[i+1]) && unicode.IsUpper(runes[i-1]))) {
				b.WriteByte('_')
			}
			b.WriteRune(unicode.ToLower(r))
		case unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}

func equalLabels(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
