package report

import (
	"fmt"
	"html/template"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/fooddesert/tract-agent/internal/tract"
)

// Thresholds for the traffic-light classes in the HTML report.
const (
	goodThresholdPct    = 80
	warningThresholdPct = 60
)

var qualityReportTmpl = template.Must(template.New("quality_report").Parse(`<!DOCTYPE html>
<html>
<head>
    <title>Data Quality Report - Food Desert Analysis</title>
    <style>
        body { font-family: Arial, sans-serif; margin: 40px; background: #f5f5f5; }
        .container { background: white; padding: 30px; border-radius: 8px; box-shadow: 0 2px 4px rgba(0,0,0,0.1); }
        h1 { color: #2c3e50; border-bottom: 3px solid #3498db; padding-bottom: 10px; }
        .metric { background: #ecf0f1; padding: 20px; margin: 20px 0; border-radius: 5px; border-left: 4px solid #3498db; }
        .metric h3 { margin-top: 0; color: #2c3e50; }
        .score { font-size: 36px; font-weight: bold; }
        .good { color: #27ae60; }
        .warning { color: #f39c12; }
        .poor { color: #e74c3c; }
        table { width: 100%; border-collapse: collapse; margin: 20px 0; }
        th, td { padding: 12px; text-align: left; border-bottom: 1px solid #ddd; }
        th { background-color: #3498db; color: white; }
    </style>
</head>
<body>
    <div class="container">
        <h1>Data Quality Report - Food Desert Analysis</h1>
        <p><strong>Generated:</strong> {{.Generated}}</p>

        <div class="metric">
            <h3>Overall Quality Score</h3>
            <div class="score {{.ScoreClass}}">{{printf "%.1f" .AvgQualityPct}}%</div>
        </div>

        <div class="metric">
            <h3>Collection Metrics</h3>
            <table>
                <tr>
                    <th>Metric</th>
                    <th>Value</th>
                </tr>
                <tr>
                    <td>Total Records Collected</td>
                    <td>{{.TotalRecords}}</td>
                </tr>
                <tr>
                    <td>Collection Success Rate</td>
                    <td class="{{.SuccessClass}}">{{printf "%.1f" .SuccessRatePct}}%</td>
                </tr>
                <tr>
                    <td>Failed Attempts</td>
                    <td>{{.FailedAttempts}}</td>
                </tr>
                <tr>
                    <td>Average Response Time</td>
                    <td>{{printf "%.2f" .AvgResponseSeconds}}s</td>
                </tr>
            </table>
        </div>

        <div class="metric">
            <h3>Data Completeness</h3>
            <p>Records with all required fields: {{.CompleteRecords}}/{{.TotalRecords}}</p>
        </div>

        <div class="metric">
            <h3>Recommendations</h3>
            <ul>
{{- range .Recommendations}}
                <li>{{.}}</li>
{{- end}}
            </ul>
        </div>
    </div>
</body>
</html>
`))

type qualityReportData struct {
	Generated          string
	AvgQualityPct      float64
	ScoreClass         string
	TotalRecords       int
	SuccessRatePct     float64
	SuccessClass       string
	FailedAttempts     int
	AvgResponseSeconds float64
	CompleteRecords    int
	Recommendations    []string
}

// WriteQualityReport renders the HTML quality report.
func (r *Reporter) WriteQualityReport(res RunSummary) (string, error) {
	if err := os.MkdirAll(r.paths.Reports, 0o750); err != nil {
		return "", fmt.Errorf("create reports dir %s: %w", r.paths.Reports, err)
	}

	avgQuality := res.Stats.MeanQuality() * 100
	successRate := res.Stats.SuccessRate() * 100

	data := qualityReportData{
		Generated:          r.clock.Now().Format("2006-01-02 15:04:05"),
		AvgQualityPct:      avgQuality,
		ScoreClass:         trafficClass(avgQuality),
		TotalRecords:       len(res.Records),
		SuccessRatePct:     successRate,
		SuccessClass:       trafficClass(successRate),
		FailedAttempts:     res.Stats.FailedRequests,
		AvgResponseSeconds: res.Stats.MeanResponseTime().Seconds(),
		CompleteRecords:    r.countComplete(res.Records),
		Recommendations:    recommendations(avgQuality, successRate),
	}

	path := filepath.Join(r.paths.Reports, "quality_report.html")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o600)
	if err != nil {
		return "", fmt.Errorf("create quality report %s: %w", path, err)
	}
	defer f.Close()

	if err := qualityReportTmpl.Execute(f, data); err != nil {
		return "", fmt.Errorf("render quality report: %w", err)
	}
	r.logger.Info("generated quality report", zap.String("path", path))
	return path, nil
}

func trafficClass(pct float64) string {
	switch {
	case pct >= goodThresholdPct:
		return "good"
	case pct >= warningThresholdPct:
		return "warning"
	default:
		return "poor"
	}
}

func recommendations(avgQualityPct, successRatePct float64) []string {
	var recs []string
	if avgQualityPct >= goodThresholdPct {
		recs = append(recs, "Data quality is excellent - maintain current collection practices")
	}
	if avgQualityPct < 70 {
		recs = append(recs, "Consider increasing validation checks to improve data quality")
	}
	if successRatePct < goodThresholdPct {
		recs = append(recs, "Success rate could be improved - check API keys and network connectivity")
	}
	return recs
}

// countComplete counts records carrying every required field.
func (r *Reporter) countComplete(records []tract.Record) int {
	n := 0
	for _, rec := range records {
		complete := true
		for _, field := range r.required {
			if _, ok := rec[field]; !ok {
				complete = false
				break
			}
		}
		if complete {
			n++
		}
	}
	return n
}
