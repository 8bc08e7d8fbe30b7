// Package collector fetches demographic data and nearby store locations
// for sampling units. Two Source implementations exist: a real Census API
// client and a deterministic synthetic generator used when no credential
// is configured.
package collector

import (
	"context"

	"github.com/fooddesert/tract-agent/internal/tract"
)

// Source produces one demographics record and one store list per sampling
// unit. The implementation is chosen at construction time so tests can
// force either path.
type Source interface {
	FetchDemographics(ctx context.Context, unit tract.SamplingUnit) (tract.Record, error)
	FetchStores(ctx context.Context, unit tract.SamplingUnit) ([]tract.Store, error)
}
