package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/fooddesert/tract-agent/internal/tract"
)

// fieldDescriptions carries the human-readable documentation emitted per
// field in the dataset metadata.
var fieldDescriptions = map[string]string{
	"median_income":     "Median household income in dollars",
	"poverty_rate":      "Percentage of population below poverty line",
	"total_population":  "Total population in census tract",
	"vehicle_available": "Households with vehicle available",
	"no_vehicle":        "Households without vehicle",
	"snap_benefits":     "Households receiving SNAP benefits",
	"quality_score":     "Data quality assessment score (0-1)",
	"nearby_stores":     "List of nearby food retail locations",
}

type datasetMetadata struct {
	DatasetInfo       datasetInfo              `json:"dataset_info"`
	CollectionProcess collectionProcess        `json:"collection_process"`
	DataStructure     map[string]fieldMetadata `json:"data_structure"`
	QualityMetrics    qualityMetrics           `json:"quality_metrics"`
}

type datasetInfo struct {
	Title        string `json:"title"`
	Description  string `json:"description"`
	Created      string `json:"created"`
	Creator      string `json:"creator"`
	TotalRecords int    `json:"total_records"`
}

type collectionProcess struct {
	StartTime       string   `json:"start_time"`
	EndTime         string   `json:"end_time"`
	DurationMinutes float64  `json:"duration_minutes"`
	APIsUsed        []string `json:"apis_used"`
}

type fieldMetadata struct {
	Type        string `json:"type"`
	Description string `json:"description"`
}

type qualityMetrics struct {
	AverageQualityScore float64 `json:"average_quality_score"`
	CompletenessRate    float64 `json:"completeness_rate"`
}

// WriteMetadata emits the dataset provenance document with per-field
// types inferred from the first collected record.
func (r *Reporter) WriteMetadata(res RunSummary) (string, error) {
	if err := os.MkdirAll(r.paths.Metadata, 0o750); err != nil {
		return "", fmt.Errorf("create metadata dir %s: %w", r.paths.Metadata, err)
	}

	now := r.clock.Now()
	completeness := 0.0
	if res.Stats.TotalRequests > 0 {
		completeness = float64(len(res.Records)) / float64(res.Stats.TotalRequests)
	}

	meta := datasetMetadata{
		DatasetInfo: datasetInfo{
			Title:        "Food Desert Demographics Enhancement Dataset",
			Description:  "Census demographic and store location data for food desert analysis",
			Created:      now.Format(time.RFC3339),
			Creator:      "Food Desert Data Collection Agent v" + AgentVersion,
			TotalRecords: len(res.Records),
		},
		CollectionProcess: collectionProcess{
			StartTime:       res.Stats.StartTime.Format(time.RFC3339),
			EndTime:         now.Format(time.RFC3339),
			DurationMinutes: now.Sub(res.Stats.StartTime).Minutes(),
			APIsUsed:        []string{"census.gov ACS5", "OpenStreetMap"},
		},
		DataStructure: dataStructure(res.Records),
		QualityMetrics: qualityMetrics{
			AverageQualityScore: res.Stats.MeanQuality(),
			CompletenessRate:    completeness,
		},
	}

	path := filepath.Join(r.paths.Metadata, "dataset_metadata.json")
	body, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal metadata: %w", err)
	}
	if err := os.WriteFile(path, body, 0o600); err != nil {
		return "", fmt.Errorf("write metadata %s: %w", path, err)
	}
	r.logger.Info("generated metadata", zap.String("path", path))
	return path, nil
}

// dataStructure infers per-field type tags from the first record.
func dataStructure(records []tract.Record) map[string]fieldMetadata {
	out := make(map[string]fieldMetadata)
	if len(records) == 0 {
		return out
	}
	for name, v := range records[0] {
		out[name] = fieldMetadata{
			Type:        typeName(v),
			Description: describeField(name),
		}
	}
	return out
}

func typeName(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case float64:
		return "number"
	case string:
		return "string"
	case []tract.Store:
		return "list"
	default:
		return "object"
	}
}

func describeField(name string) string {
	if d, ok := fieldDescriptions[name]; ok {
		return d
	}
	return "Data field: " + name
}
