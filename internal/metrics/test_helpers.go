package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

// CounterValue returns the current value of a CounterVec child.
// Tests in other packages use it to assert that an operation was recorded.
func CounterValue(metric *prometheus.CounterVec, labels ...string) (float64, error) {
	pb := &dto.Metric{}
	if err := metric.WithLabelValues(labels...).Write(pb); err != nil {
		return 0, err
	}
	return pb.GetCounter().GetValue(), nil
}

// GaugeValue returns the current value of a GaugeVec child.
func GaugeValue(metric *prometheus.GaugeVec, labels ...string) (float64, error) {
	pb := &dto.Metric{}
	if err := metric.WithLabelValues(labels...).Write(pb); err != nil {
		return 0, err
	}
	return pb.GetGauge().GetValue(), nil
}
