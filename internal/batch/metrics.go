package batch

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var filesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "meterocr_batch_files_total",
	Help: "Batch files handled, by outcome (paired, unpaired, unreadable, failed).",
}, []string{"status"})

// WriteMetrics dumps the default registry in the node-exporter textfile format.
func WriteMetrics(path string) error {
	if err := prometheus.WriteToTextfile(path, prometheus.DefaultGatherer); err != nil {
		return fmt.Errorf("write metrics %s: %w", path, err)
	}
	return nil
}
