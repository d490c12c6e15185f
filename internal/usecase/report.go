package usecase

import (
	"careers-ui-suite/internal/entity"
	"fmt"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"gopkg.in/yaml.v3"
)

// WriteReport stores report as YAML at path.
func WriteReport(path string, report *entity.RunReport) error {
	data, err := yaml.Marshal(report)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write report %s: %w", path, err)
	}

	return nil
}

// ReadReport loads a report written by WriteReport.
func ReadReport(path string) (*entity.RunReport, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read report %s: %w", path, err)
	}

	var report entity.RunReport
	if err := yaml.Unmarshal(data, &report); err != nil {
		return nil, fmt.Errorf("parse report %s: %w", path, err)
	}

	return &report, nil
}

// WriteMetrics dumps everything g gathers in the node_exporter textfile format.
func WriteMetrics(path string, g prometheus.Gatherer) error {
	if err := prometheus.WriteToTextfile(path, g); err != nil {
		return fmt.Errorf("write metrics %s: %w", path, err)
	}

	return nil
}
