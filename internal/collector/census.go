package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/fooddesert/tract-agent/internal/clock"
	"github.com/fooddesert/tract-agent/internal/metrics"
	"github.com/fooddesert/tract-agent/internal/stats"
	"github.com/fooddesert/tract-agent/internal/tract"
)

// acsDataset pins the survey vintage. 2021 is the most recent ACS 5-year
// release covered by the variable code table.
const acsDataset = "2021/acs/acs5"

// CensusConfig holds everything the API client needs.
type CensusConfig struct {
	BaseURL   string
	APIKey    string
	Timeout   time.Duration
	Variables map[string]string // field name -> ACS variable code
}

// CensusSource fetches demographics from the Census ACS5 API. Store
// locations still come from the synthetic generator: a real OpenStreetMap
// query needs a geocoded tract centroid, which is out of scope.
type CensusSource struct {
	cfg    CensusConfig
	client *http.Client
	stats  *stats.RunStats
	clock  clock.Clock
	stores *StoreGenerator
	logger *zap.Logger
}

// NewCensusSource builds the API-backed source. Latency samples and
// request counters are written into st as calls are attempted.
func NewCensusSource(cfg CensusConfig, st *stats.RunStats, clk clock.Clock, stores *StoreGenerator, logger *zap.Logger) *CensusSource {
	return &CensusSource{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		stats:  st,
		clock:  clk,
		stores: stores,
		logger: logger,
	}
}

// FetchDemographics issues one ACS5 query for the unit and normalizes the
// two-row tabular response into a Record. Transport and HTTP failures are
// returned as *APIError after bumping the failure counter; a response with
// no value row returns ErrNoData.
func (c *CensusSource) FetchDemographics(ctx context.Context, unit tract.SamplingUnit) (tract.Record, error) {
	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/" + acsDataset

	codes := make([]string, 0, len(c.cfg.Variables))
	for _, code := range c.cfg.Variables {
		codes = append(codes, code)
	}

	params := url.Values{}
	params.Set("get", "NAME,"+strings.Join(codes, ","))
	params.Set("for", "tract:"+unit.Tract)
	params.Set("in", fmt.Sprintf("state:%s county:%s", unit.State, unit.County))
	params.Set("key", c.cfg.APIKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build census request: %w", err)
	}

	c.stats.TotalRequests++
	start := time.Now()

	resp, err := c.client.Do(req)
	if err != nil {
		c.stats.FailedRequests++
		return nil, &APIError{URL: endpoint, Err: err}
	}
	defer resp.Body.Close()

	elapsed := time.Since(start)
	c.stats.RecordLatency(elapsed)
	metrics.ObserveResponseTime(elapsed)

	if resp.StatusCode != http.StatusOK {
		c.stats.FailedRequests++
		return nil, &APIError{StatusCode: resp.StatusCode, URL: endpoint}
	}

	var rows [][]any
	if err := json.NewDecoder(resp.Body).Decode(&rows); err != nil {
		return nil, fmt.Errorf("decode census response: %w", err)
	}
	if len(rows) < 2 {
		return nil, ErrNoData
	}

	rec := c.baseRecord(unit)
	rec["data_source"] = "census_acs5_2021"

	// Invert the name->code table to map response headers back to fields.
	fieldByCode := make(map[string]string, len(c.cfg.Variables))
	for name, code := range c.cfg.Variables {
		fieldByCode[code] = name
	}

	headers, values := rows[0], rows[1]
	for i, h := range headers {
		name, ok := fieldByCode[cellString(h)]
		if !ok || i >= len(values) {
			continue
		}
		rec[name] = coerceValue(cellString(values[i]))
	}

	c.logger.Debug("census api success",
		zap.String("tract", unit.GEOID()),
		zap.Duration("response_time", time.Since(start)))
	return rec, nil
}

// FetchStores returns synthetic nearby stores for the unit.
func (c *CensusSource) FetchStores(_ context.Context, unit tract.SamplingUnit) ([]tract.Store, error) {
	return c.stores.Generate(unit), nil
}

func (c *CensusSource) baseRecord(unit tract.SamplingUnit) tract.Record {
	return tract.Record{
		"tract_id":     unit.GEOID(),
		"location":     unit.Name,
		"state_fips":   unit.State,
		"county_fips":  unit.County,
		"tract_fips":   unit.Tract,
		"collected_at": c.clock.Now().Format(time.RFC3339),
	}
}

// cellString flattens a decoded JSON cell to its string form. The API
// serves values as strings but the decoder may see numbers or nulls.
func cellString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprint(t)
	}
}

// coerceValue turns a raw cell into the field value: float64 when the
// text parses as a number, nil when empty, the string otherwise.
func coerceValue(raw string) any {
	if raw == "" {
		return nil
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return f
	}
	return raw
}
