package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"go.uber.org/zap"
)

var summaryTmpl = template.Must(template.New("collection_summary").Parse(`{{.Separator}}
FOOD DESERT DATA COLLECTION - FINAL SUMMARY
{{.Separator}}

COLLECTION OVERVIEW:
- Start Time: {{.StartTime}}
- End Time: {{.EndTime}}
- Duration: {{printf "%.1f" .DurationMinutes}} minutes

DATA COLLECTED:
- Total Records: {{.TotalRecords}}
- Successful Requests: {{.SuccessfulRequests}}
- Failed Requests: {{.FailedRequests}}
- Success Rate: {{printf "%.1f" .SuccessRatePct}}%

QUALITY METRICS:
- Average Quality Score: {{printf "%.3f" .AvgQuality}}
- Quality Range: {{printf "%.3f" .MinQuality}} - {{printf "%.3f" .MaxQuality}}

API PERFORMANCE:
- Census API Calls: {{.TotalRequests}}
- Average Response Time: {{printf "%.2f" .AvgResponseSeconds}}s
- Final Delay Setting: {{printf "%.1f" .FinalDelaySeconds}}s

ISSUES ENCOUNTERED:
- Failed Tracts: {{.FailedCount}}
{{- if .FailedNames}}
{{- range .FailedNames}}
  - {{.}}
{{- end}}
{{- if .FailedOverflow}}
  ... and more
{{- end}}
{{- else}}
  None
{{- end}}

RECOMMENDATIONS FOR FUTURE COLLECTION:
1. {{.Recommendation1}}
2. {{.Recommendation2}}
3. API rate limiting was {{.RateLimitAssessment}}

DATA FILES GENERATED:
- Raw data: {{.RawDataDir}}/food_desert_data_*.json
- CSV export: {{.RawDataDir}}/food_desert_data_*.csv
- Metadata: {{.MetadataDir}}/dataset_metadata.json
- Quality report: {{.ReportsDir}}/quality_report.html
- Collection log: {{.LogsDir}}/collection.log

{{.Separator}}
COLLECTION COMPLETED SUCCESSFULLY
{{.Separator}}
`))

type summaryData struct {
	Separator           string
	StartTime           string
	EndTime             string
	DurationMinutes     float64
	TotalRecords        int
	SuccessfulRequests  int
	FailedRequests      int
	SuccessRatePct      float64
	AvgQuality          float64
	MinQuality          float64
	MaxQuality          float64
	TotalRequests       int
	AvgResponseSeconds  float64
	FinalDelaySeconds   float64
	FailedCount         int
	FailedNames         []string
	FailedOverflow      bool
	Recommendation1     string
	Recommendation2     string
	RateLimitAssessment string
	RawDataDir          string
	MetadataDir         string
	ReportsDir          string
	LogsDir             string
}

// WriteSummary renders the narrative run summary, writes it under the
// reports directory, and returns its path plus the text itself so the
// caller can echo it to the console.
func (r *Reporter) WriteSummary(res RunSummary) (string, string, error) {
	if err := os.MkdirAll(r.paths.Reports, 0o750); err != nil {
		return "", "", fmt.Errorf("create reports dir %s: %w", r.paths.Reports, err)
	}

	now := r.clock.Now()

	failedNames := make([]string, 0, maxFailedTractsListed)
	for i, unit := range res.Failed {
		if i >= maxFailedTractsListed {
			break
		}
		failedNames = append(failedNames, unit.Name)
	}

	data := summaryData{
		Separator:           strings.Repeat("=", 70),
		StartTime:           res.Stats.StartTime.Format("2006-01-02 15:04:05"),
		EndTime:             now.Format("2006-01-02 15:04:05"),
		DurationMinutes:     now.Sub(res.Stats.StartTime).Minutes(),
		TotalRecords:        len(res.Records),
		SuccessfulRequests:  res.Stats.SuccessfulRequests,
		FailedRequests:      res.Stats.FailedRequests,
		SuccessRatePct:      res.Stats.SuccessRate() * 100,
		AvgQuality:          res.Stats.MeanQuality(),
		MinQuality:          res.Stats.MinQuality(),
		MaxQuality:          res.Stats.MaxQuality(),
		TotalRequests:       res.Stats.TotalRequests,
		AvgResponseSeconds:  res.Stats.MeanResponseTime().Seconds(),
		FinalDelaySeconds:   res.FinalDelaySeconds,
		FailedCount:         len(res.Failed),
		FailedNames:         failedNames,
		FailedOverflow:      len(res.Failed) > maxFailedTractsListed,
		Recommendation1:     recommendCoverage(len(res.Records), r.targetTracts),
		Recommendation2:     recommendQuality(res.Stats.QualityScores, res.Stats.MeanQuality()),
		RateLimitAssessment: rateLimitAssessment(res.FinalDelaySeconds),
		RawDataDir:          r.paths.RawData,
		MetadataDir:         r.paths.Metadata,
		ReportsDir:          r.paths.Reports,
		LogsDir:             r.paths.Logs,
	}

	var sb strings.Builder
	if err := summaryTmpl.Execute(&sb, data); err != nil {
		return "", "", fmt.Errorf("render summary: %w", err)
	}
	text := sb.String()

	path := filepath.Join(r.paths.Reports, "collection_summary.txt")
	if err := os.WriteFile(path, []byte(text), 0o600); err != nil {
		return "", "", fmt.Errorf("write summary %s: %w", path, err)
	}
	r.logger.Info("generated collection summary", zap.String("path", path))
	return path, text, nil
}

func recommendCoverage(records, target int) string {
	if target > 0 && float64(records) >= float64(target)*0.8 {
		return "Excellent collection performance - maintain current practices"
	}
	return "Consider retrying failed tracts or extending collection time"
}

func recommendQuality(scores []float64, avg float64) string {
	if len(scores) > 0 && avg >= 0.7 {
		return "Quality assessment is working well"
	}
	return "Review quality thresholds and validation rules"
}

func rateLimitAssessment(finalDelaySeconds float64) string {
	if finalDelaySeconds <= 2 {
		return "effective - no major delays"
	}
	return "triggered - consider spacing requests further"
}
