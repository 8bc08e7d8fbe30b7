package quality

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fooddesert/tract-agent/internal/tract"
)

func testAssessor() *Assessor {
	return New(
		[]string{"median_income", "poverty_rate", "total_population"},
		map[string]Range{
			"median_income":    {Min: 0, Max: 500000},
			"poverty_rate":     {Min: 0, Max: 100},
			"total_population": {Min: 0, Max: 50000},
		},
	)
}

func perfectRecord() tract.Record {
	return tract.Record{
		"median_income":    55000.0,
		"poverty_rate":     12.5,
		"total_population": 4200.0,
	}
}

func TestScorePerfectRecord(t *testing.T) {
	require.Equal(t, 1.0, testAssessor().Score(perfectRecord()))
}

func TestScoreMissingRequiredField(t *testing.T) {
	a := testAssessor()

	rec := perfectRecord()
	delete(rec, "median_income")
	require.InDelta(t, 0.8, a.Score(rec), 1e-9, "one missing field costs exactly 0.20")

	rec = perfectRecord()
	rec["median_income"] = nil
	require.InDelta(t, 0.8, a.Score(rec), 1e-9, "nil counts as missing")
}

func TestScoreOutOfRange(t *testing.T) {
	rec := perfectRecord()
	rec["total_population"] = 75000.0
	require.InDelta(t, 0.85, testAssessor().Score(rec), 1e-9)
}

func TestScoreCoercionFailureSkipsRangeCheck(t *testing.T) {
	// A non-numeric value costs 10 points and the range bounds are not
	// consulted, so the total deduction is 10, not 25.
	rec := perfectRecord()
	rec["median_income"] = "not available"
	require.InDelta(t, 0.9, testAssessor().Score(rec), 1e-9)
}

func TestScoreNumericStringPassesRangeCheck(t *testing.T) {
	rec := perfectRecord()
	rec["median_income"] = "55000"
	require.Equal(t, 1.0, testAssessor().Score(rec))
}

func TestScoreInconsistentRate(t *testing.T) {
	rec := perfectRecord()
	rec["poverty_rate"] = 140.0
	// 15 for the range violation plus 20 for the consistency check;
	// double penalization across checks is accepted behavior.
	require.InDelta(t, 0.65, testAssessor().Score(rec), 1e-9)
}

func TestScoreFloorsAtZero(t *testing.T) {
	a := New(
		[]string{"a", "b", "c", "d", "e", "f"},
		map[string]Range{},
	)
	require.Equal(t, 0.0, a.Score(tract.Record{}))
}

func TestScoreAlwaysInUnitInterval(t *testing.T) {
	a := testAssessor()
	cases := []tract.Record{
		{},
		perfectRecord(),
		{"median_income": "junk", "poverty_rate": -5.0, "total_population": nil},
		{"median_income": 1e9, "poverty_rate": 200.0, "total_population": "x"},
	}
	for _, rec := range cases {
		score := a.Score(rec)
		require.GreaterOrEqual(t, score, 0.0)
		require.LessOrEqual(t, score, 1.0)
	}
}
