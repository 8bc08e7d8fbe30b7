// Package report turns the accumulated run state into the persisted
// outputs: raw JSON + CSV data, dataset metadata, an HTML quality report
// and a narrative text summary. All aggregation is zero/empty-safe and
// free of iteration-time side effects, so generating the outputs twice
// over the same inputs yields identical bytes apart from the embedded
// generation timestamp.
package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/fooddesert/tract-agent/internal/clock"
	"github.com/fooddesert/tract-agent/internal/config"
	"github.com/fooddesert/tract-agent/internal/stats"
	"github.com/fooddesert/tract-agent/internal/tract"
)

// AgentVersion is embedded in the raw data and metadata outputs.
const AgentVersion = "1.0"

const maxFailedTractsListed = 5

// RunSummary is the immutable input to the reporter, assembled by the
// agent once the collection loop has finished.
type RunSummary struct {
	RunID             string
	Records           []tract.Record
	Failed            []tract.SamplingUnit
	Stats             *stats.RunStats
	FinalDelaySeconds float64
}

// Outputs lists the files a report pass produced, plus the summary text
// for echoing to the console.
type Outputs struct {
	RawJSON     string
	RawCSV      string
	Metadata    string
	HTMLReport  string
	SummaryFile string
	SummaryText string
}

// Reporter writes all run outputs under the configured directories.
type Reporter struct {
	paths        config.DataPathsConfig
	required     []string
	targetTracts int
	clock        clock.Clock
	logger       *zap.Logger
}

// New builds a Reporter. The clock is injected so the embedded timestamps
// can be pinned in tests.
func New(paths config.DataPathsConfig, required []string, targetTracts int, clk clock.Clock, logger *zap.Logger) *Reporter {
	return &Reporter{
		paths:        paths,
		required:     required,
		targetTracts: targetTracts,
		clock:        clk,
		logger:       logger,
	}
}

// GenerateAll writes every output and returns their paths.
func (r *Reporter) GenerateAll(res RunSummary) (Outputs, error) {
	var out Outputs
	var err error

	if out.RawJSON, out.RawCSV, err = r.SaveRawData(res); err != nil {
		return out, err
	}
	if out.Metadata, err = r.WriteMetadata(res); err != nil {
		return out, err
	}
	if out.HTMLReport, err = r.WriteQualityReport(res); err != nil {
		return out, err
	}
	if out.SummaryFile, out.SummaryText, err = r.WriteSummary(res); err != nil {
		return out, err
	}
	return out, nil
}

// rawData is the envelope of the raw JSON output.
type rawData struct {
	CollectionInfo collectionInfo `json:"collection_info"`
	Data           []tract.Record `json:"data"`
}

type collectionInfo struct {
	CollectedAt  string `json:"collected_at"`
	AgentVersion string `json:"agent_version"`
	RunID        string `json:"run_id"`
	TotalRecords int    `json:"total_records"`
}

// SaveRawData writes the timestamped JSON and CSV exports of the
// accumulated records and returns their paths.
func (r *Reporter) SaveRawData(res RunSummary) (jsonPath, csvPath string, err error) {
	if err := os.MkdirAll(r.paths.RawData, 0o750); err != nil {
		return "", "", fmt.Errorf("create raw data dir %s: %w", r.paths.RawData, err)
	}

	now := r.clock.Now()
	stamp := now.Format("20060102_150405")

	payload := rawData{
		CollectionInfo: collectionInfo{
			CollectedAt:  now.Format(time.RFC3339),
			AgentVersion: AgentVersion,
			RunID:        res.RunID,
			TotalRecords: len(res.Records),
		},
		Data: res.Records,
	}
	if payload.Data == nil {
		payload.Data = []tract.Record{}
	}

	jsonPath = filepath.Join(r.paths.RawData, "food_desert_data_"+stamp+".json")
	body, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return "", "", fmt.Errorf("marshal raw data: %w", err)
	}
	if err := os.WriteFile(jsonPath, body, 0o600); err != nil {
		return "", "", fmt.Errorf("write raw data %s: %w", jsonPath, err)
	}
	r.logger.Info("saved raw data", zap.String("path", jsonPath))

	csvPath = filepath.Join(r.paths.RawData, "food_desert_data_"+stamp+".csv")
	if err := r.writeCSV(csvPath, res.Records); err != nil {
		return "", "", err
	}
	r.logger.Info("saved csv export", zap.String("path", csvPath))

	return jsonPath, csvPath, nil
}

// fieldNames returns the sorted union of field names across all records.
func fieldNames(records []tract.Record) []string {
	seen := make(map[string]struct{})
	for _, rec := range records {
		for k := range rec {
			seen[k] = struct{}{}
		}
	}
	names := make([]string, 0, len(seen))
	for k := range seen {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// formatCell flattens a record value for CSV output. Store lists are
// JSON-encoded into their cell.
func formatCell(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case []tract.Store:
		b, err := json.Marshal(t)
		if err != nil {
			return ""
		}
		return string(b)
	default:
		return fmt.Sprint(t)
	}
}
