package parser

import (
	"math"
	"sort"
	"time"

	"ats-agent-go/internal/types"
)

// monthSpan is an employment interval in absolute months since year zero.
type monthSpan struct {
	start int
	end   int // exclusive
}

// TotalYearsOfExperience computes a candidate's total experience in years,
// to one decimal place. An explicit figure stated on the resume wins
// outright; otherwise the employment periods are unioned so that concurrent
// roles count once, and the merged span lengths are summed.
func TotalYearsOfExperience(stated *float64, periods []types.EmploymentPeriod, now time.Time) *float64 {
	if stated != nil && *stated >= 0 {
		v := round1(*stated)
		return &v
	}

	var spans []monthSpan
	for _, p := range periods {
		start, ok := parseMonth(p.Start)
		if !ok {
			continue
		}
		end, ok := parseMonth(p.End)
		if !ok {
			// Open-ended period, still employed.
			end = now.Year()*12 + int(now.Month()) - 1
		}
		if end < start {
			continue
		}
		// A role held within a single month still counts as one month.
		spans = append(spans, monthSpan{start: start, end: end + 1})
	}
	if len(spans) == 0 {
		return nil
	}

	sort.Slice(spans, func(i, j int) bool { return spans[i].start < spans[j].start })

	totalMonths := 0
	cur := spans[0]
	for _, s := range spans[1:] {
		if s.start <= cur.end {
			if s.end > cur.end {
				cur.end = s.end
			}
			continue
		}
		totalMonths += cur.end - cur.start
		cur = s
	}
	totalMonths += cur.end - cur.start

	v := round1(float64(totalMonths) / 12.0)
	return &v
}

// parseMonth reads "YYYY-MM" or bare "YYYY" (taken as January) into absolute
// months. Empty or unparseable values report false.
func parseMonth(s string) (int, bool) {
	if s == "" {
		return 0, false
	}
	for _, layout := range []string{"2006-01", "2006"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Year()*12 + int(t.Month()) - 1, true
		}
	}
	return 0, false
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
