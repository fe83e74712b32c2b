// Package metrics 提供Prometheus文本格式的监控指标
package metrics

import (
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"
)

// Registry 指标注册表
type Registry struct {
	counters   map[string]*Counter
	gauges     map[string]*Gauge
	histograms map[string]*Histogram
	mu         sync.RWMutex
}

// Counter 计数器
type Counter struct {
	Name   string
	Help   string
	values map[string]float64
	mu     sync.RWMutex
}

// Gauge 仪表盘
type Gauge struct {
	Name   string
	Help   string
	values map[string]float64
	mu     sync.RWMutex
}

// Histogram 直方图
type Histogram struct {
	Name    string
	Help    string
	Buckets []float64
	counts  map[string][]int
	sums    map[string]float64
	totals  map[string]int
	mu      sync.RWMutex
}

var (
	registry *Registry
	once     sync.Once
)

// Get 获取全局注册表
func Get() *Registry {
	once.Do(func() {
		registry = &Registry{
			counters:   make(map[string]*Counter),
			gauges:     make(map[string]*Gauge),
			histograms: make(map[string]*Histogram),
		}
		initDefaultMetrics()
	})
	return registry
}

// initDefaultMetrics 初始化默认指标
func initDefaultMetrics() {
	registry.NewCounter("lunban_http_requests_total", "HTTP请求总数")
	registry.NewHistogram("lunban_http_request_duration_seconds", "HTTP请求延迟",
		[]float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0})
	registry.NewCounter("lunban_schedule_generation_total", "排班生成次数")
	registry.NewHistogram("lunban_schedule_generation_duration_seconds", "排班生成延迟",
		[]float64{0.1, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0, 60.0})
	registry.NewGauge("lunban_fairness_score", "最近一次排班的公平性得分")
	registry.NewCounter("lunban_validation_violations_total", "校验发现的违规条数")
}

// NewCounter 创建计数器
func (r *Registry) NewCounter(name, help string) *Counter {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := &Counter{Name: name, Help: help, values: make(map[string]float64)}
	r.counters[name] = c
	return c
}

// NewGauge 创建仪表盘
func (r *Registry) NewGauge(name, help string) *Gauge {
	r.mu.Lock()
	defer r.mu.Unlock()
	g := &Gauge{Name: name, Help: help, values: make(map[string]float64)}
	r.gauges[name] = g
	return g
}

// NewHistogram 创建直方图
func (r *Registry) NewHistogram(name, help string, buckets []float64) *Histogram {
	r.mu.Lock()
	defer r.mu.Unlock()
	h := &Histogram{
		Name:    name,
		Help:    help,
		Buckets: buckets,
		counts:  make(map[string][]int),
		sums:    make(map[string]float64),
		totals:  make(map[string]int),
	}
	r.histograms[name] = h
	return h
}

// Counter 按名称取计数器
func (r *Registry) Counter(name string) *Counter {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.counters[name]
}

// Gauge 按名称取仪表盘
func (r *Registry) Gauge(name string) *Gauge {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.gauges[name]
}

// Histogram 按名称取直方图
func (r *Registry) Histogram(name string) *Histogram {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.histograms[name]
}

// Inc 按标签递增计数器
func (c *Counter) Inc(labels string) {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.values[labels]++
	c.mu.Unlock()
}

// Add 按标签累加计数器
func (c *Counter) Add(labels string, delta float64) {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.values[labels] += delta
	c.mu.Unlock()
}

// Set 设置仪表盘取值
func (g *Gauge) Set(labels string, value float64) {
	if g == nil {
		return
	}
	g.mu.Lock()
	g.values[labels] = value
	g.mu.Unlock()
}

// Observe 记录一次观测
func (h *Histogram) Observe(labels string, value float64) {
	if h == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.counts[labels]; !ok {
		h.counts[labels] = make([]int, len(h.Buckets))
	}
	for i, bound := range h.Buckets {
		if value <= bound {
			h.counts[labels][i]++
		}
	}
	h.sums[labels] += value
	h.totals[labels]++
}

// ObserveDuration 记录一次时长观测
func (h *Histogram) ObserveDuration(labels string, d time.Duration) {
	h.Observe(labels, d.Seconds())
}

// Handler 返回 /metrics 处理器（Prometheus 文本格式）
func (r *Registry) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4")
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, r.Export())
	})
}

// Export 导出全部指标
func (r *Registry) Export() string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var b strings.Builder

	for _, name := range sortedKeys(r.counters) {
		c := r.counters[name]
		c.mu.RLock()
		fmt.Fprintf(&b, "# HELP %s %s\n# TYPE %s counter\n", c.Name, c.Help, c.Name)
		for _, labels := range sortedKeys(c.values) {
			fmt.Fprintf(&b, "%s%s %g\n", c.Name, formatLabels(labels), c.values[labels])
		}
		c.mu.RUnlock()
	}

	for _, name := range sortedKeys(r.gauges) {
		g := r.gauges[name]
		g.mu.RLock()
		fmt.Fprintf(&b, "# HELP %s %s\n# TYPE %s gauge\n", g.Name, g.Help, g.Name)
		for _, labels := range sortedKeys(g.values) {
			fmt.Fprintf(&b, "%s%s %g\n", g.Name, formatLabels(labels), g.values[labels])
		}
		g.mu.RUnlock()
	}

	for _, name := range sortedKeys(r.histograms) {
		h := r.histograms[name]
		h.mu.RLock()
		fmt.Fprintf(&b, "# HELP %s %s\n# TYPE %s histogram\n", h.Name, h.Help, h.Name)
		for _, labels := range sortedKeys(h.totals) {
			for i, bound := range h.Buckets {
				fmt.Fprintf(&b, "%s_bucket%s %d\n", h.Name, formatBucketLabels(labels, fmt.Sprintf("%g", bound)), h.counts[labels][i])
			}
			fmt.Fprintf(&b, "%s_bucket%s %d\n", h.Name, formatBucketLabels(labels, "+Inf"), h.totals[labels])
			fmt.Fprintf(&b, "%s_sum%s %g\n", h.Name, formatLabels(labels), h.sums[labels])
			fmt.Fprintf(&b, "%s_count%s %d\n", h.Name, formatLabels(labels), h.totals[labels])
		}
		h.mu.RUnlock()
	}

	return b.String()
}

// formatLabels 标签串为 k=v 逗号分隔，空串表示无标签
func formatLabels(labels string) string {
	if labels == "" {
		return ""
	}
	return "{" + labels + "}"
}

func formatBucketLabels(labels, le string) string {
	if labels == "" {
		return fmt.Sprintf(`{le="%s"}`, le)
	}
	return fmt.Sprintf(`{%s,le="%s"}`, labels, le)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
