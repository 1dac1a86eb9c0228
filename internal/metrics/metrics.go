package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	VectorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "kat_vectors_total",
		Help: "Known answer test vectors verified, by family and result",
	}, []string{"family", "result"})

	UnknownVectorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "kat_unknown_vectors_total",
		Help: "Vector lines skipped because the family is unknown or unavailable",
	}, []string{"family"})

	FormatErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "kat_format_errors_total",
		Help: "Malformed vector lines",
	})

	BackendDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "kat_backend_duration_seconds",
		Help:    "Wall time of one backend execution over the record array",
		Buckets: prometheus.DefBuckets,
	}, []string{"backend"})

	LanesLaunched = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "kat_device_lanes_launched_total",
		Help: "Worker lanes launched by accelerator backends",
	}, []string{"backend"})

	DeviceMemoryAllocated = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "kat_device_memory_allocated_bytes",
		Help: "Current bytes held in device record buffers",
	})

	KernelCompileDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "kat_kernel_compile_duration_seconds",
		Help:    "Time spent compiling the embedded device program",
		Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
	})

	AdapterChecksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "kat_adapter_checks_total",
		Help: "Streaming adapter checks, by adapter kind and result",
	}, []string{"adapter", "result"})

	AdapterDiscardsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "kat_adapter_discards_total",
		Help: "Discard calls issued while resynchronising engines",
	})
)

func RecordVector(family string, passed bool) {
	result := "pass"
	if !passed {
		result = "fail"
	}
	VectorsTotal.WithLabelValues(family, result).Inc()
}

// maxUnknownLabels bounds the family label values of UnknownVectorsTotal.
// Names first seen after the limit is reached are counted as "other".
const maxUnknownLabels = 32

var (
	unknownMu     sync.Mutex
	unknownLabels = make(map[string]struct{})
)

func RecordUnknown(family string) {
	unknownMu.Lock()
	if _, ok := unknownLabels[family]; !ok {
		if len(unknownLabels) >= maxUnknownLabels {
			family = "other"
		} else {
			unknownLabels[family] = struct{}{}
		}
	}
	unknownMu.Unlock()
	UnknownVectorsTotal.WithLabelValues(family).Inc()
}

func RecordFormatError() {
	FormatErrorsTotal.Inc()
}

func RecordBackendDuration(backend string, duration time.Duration) {
	BackendDuration.WithLabelValues(backend).Observe(duration.Seconds())
}

func RecordLaunch(backend string, lanes int) {
	LanesLaunched.WithLabelValues(backend).Add(float64(lanes))
}

func RecordDeviceMemory(bytes int64) {
	DeviceMemoryAllocated.Set(float64(bytes))
}

func RecordKernelCompile(duration time.Duration) {
	KernelCompileDuration.Observe(duration.Seconds())
}

// RecordAdapterCheck counts one adapter check; result is pass, fail or skipped.
func RecordAdapterCheck(adapter, result string) {
	AdapterChecksTotal.WithLabelValues(adapter, result).Inc()
}

func RecordDiscard() {
	AdapterDiscardsTotal.Inc()
}

// WriteTextfile dumps the default registry in the text exposition format,
// for pickup by a node exporter textfile collector.
func WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, prometheus.DefaultGatherer)
}
