package collector

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/fooddesert/tract-agent/internal/clock"
	"github.com/fooddesert/tract-agent/internal/tract"
)

var testUnit = tract.SamplingUnit{
	State: "17", County: "031", Tract: "770100", Name: "Chicago, IL (Urban)",
}

func fixedClock() clock.Fixed {
	return clock.Fixed{T: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func TestSyntheticSourceDeterministicWithSeed(t *testing.T) {
	a := NewSyntheticSource(rand.New(rand.NewSource(42)), fixedClock())
	b := NewSyntheticSource(rand.New(rand.NewSource(42)), fixedClock())

	recA, err := a.FetchDemographics(context.Background(), testUnit)
	require.NoError(t, err)
	recB, err := b.FetchDemographics(context.Background(), testUnit)
	require.NoError(t, err)
	require.Equal(t, recA, recB)

	storesA, err := a.FetchStores(context.Background(), testUnit)
	require.NoError(t, err)
	storesB, err := b.FetchStores(context.Background(), testUnit)
	require.NoError(t, err)
	require.Equal(t, storesA, storesB)
}

func TestSyntheticRecordFieldsWithinBounds(t *testing.T) {
	src := NewSyntheticSource(rand.New(rand.NewSource(7)), fixedClock())

	for i := 0; i < 20; i++ {
		rec, err := src.FetchDemographics(context.Background(), testUnit)
		require.NoError(t, err)

		require.Equal(t, "17031770100", rec["tract_id"])
		require.Equal(t, "mock_data", rec["data_source"])

		for field, bounds := range syntheticBounds {
			v, ok := rec[field].(float64)
			require.True(t, ok, "field %s should be numeric", field)
			require.GreaterOrEqual(t, v, bounds.min, field)
			require.LessOrEqual(t, v, bounds.max, field)
		}
	}
}

func TestStoreGeneratorBounds(t *testing.T) {
	gen := NewStoreGenerator(rand.New(rand.NewSource(3)))

	for i := 0; i < 50; i++ {
		stores := gen.Generate(testUnit)
		require.GreaterOrEqual(t, len(stores), 1)
		require.LessOrEqual(t, len(stores), 5)
		for _, s := range stores {
			require.Contains(t, storeTypes, s.Type)
			require.GreaterOrEqual(t, s.DistanceMiles, 0.2)
			require.LessOrEqual(t, s.DistanceMiles, 5.0)
			require.NotEmpty(t, s.Name)
		}
	}
}
