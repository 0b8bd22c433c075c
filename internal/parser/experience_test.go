package parser

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ats-agent-go/internal/types"
)

var testNow = time.Date(2026, time.September, 1, 0, 0, 0, 0, time.UTC)

func TestStatedYearsWinOverPeriods(t *testing.T) {
	stated := 10.0
	periods := []types.EmploymentPeriod{
		{Start: "2024-01", End: "2025-01"},
	}
	got := TotalYearsOfExperience(&stated, periods, testNow)
	require.NotNil(t, got)
	assert.Equal(t, 10.0, *got)
}

func TestDisjointPeriodsSum(t *testing.T) {
	// 5 years 10 months plus 1 year 6 months, no overlap.
	periods := []types.EmploymentPeriod{
		{Start: "2010-01", End: "2015-10"},
		{Start: "2017-01", End: "2018-06"},
	}
	got := TotalYearsOfExperience(nil, periods, testNow)
	require.NotNil(t, got)
	assert.Equal(t, 7.3, *got)
}

func TestOverlappingPeriodsCountOnce(t *testing.T) {
	// Two concurrent roles across the same two years count as two years,
	// not four.
	periods := []types.EmploymentPeriod{
		{Start: "2020-01", End: "2021-12"},
		{Start: "2020-06", End: "2021-12"},
	}
	got := TotalYearsOfExperience(nil, periods, testNow)
	require.NotNil(t, got)
	assert.Equal(t, 2.0, *got)
}

func TestOpenEndedPeriodRunsToNow(t *testing.T) {
	periods := []types.EmploymentPeriod{
		{Start: "2025-09", End: ""},
	}
	got := TotalYearsOfExperience(nil, periods, testNow)
	require.NotNil(t, got)
	// September 2025 through September 2026 inclusive is 13 months.
	assert.Equal(t, 1.1, *got)
}

func TestYearOnlyDates(t *testing.T) {
	periods := []types.EmploymentPeriod{
		{Start: "2019", End: "2021"},
	}
	got := TotalYearsOfExperience(nil, periods, testNow)
	require.NotNil(t, got)
	// January 2019 through January 2021 inclusive.
	assert.Equal(t, 2.1, *got)
}

func TestUnusableInputReportsNothing(t *testing.T) {
	assert.Nil(t, TotalYearsOfExperience(nil, nil, testNow))
	assert.Nil(t, TotalYearsOfExperience(nil, []types.EmploymentPeriod{
		{Start: "sometime", End: "later"},
		{Start: "2022-05", End: "2021-01"}, // reversed
	}, testNow))
}
