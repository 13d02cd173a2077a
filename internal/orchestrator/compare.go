package orchestrator

import (
	"math"

	"PriceBoard/internal/model"
)

const priceTolerance = 0.0005

func samePoint(a, b model.PricePoint) bool {
	return a.StartsAt == b.StartsAt && a.Level == b.Level && math.Abs(a.Price-b.Price) < priceTolerance
}

// hasNewPriceInfo reports whether fetched data differs materially from the
// currently displayed data.
func hasNewPriceInfo(fetched, current *model.PriceState) bool {
	if fetched == nil || !fetched.OK || len(fetched.Points) == 0 {
		return false
	}
	if current == nil || !current.OK || len(current.Points) == 0 {
		return true
	}
	if len(fetched.Points) != len(current.Points) {
		return true
	}
	for i := range fetched.Points {
		if !samePoint(fetched.Points[i], current.Points[i]) {
			return true
		}
	}
	return false
}

// dayCount returns the number of distinct calendar days in the point list.
func dayCount(state *model.PriceState) int {
	if state == nil || len(state.Points) == 0 {
		return 0
	}
	days := 0
	last := ""
	for i := range state.Points {
		if len(state.Points[i].StartsAt) < 10 {
			continue
		}
		day := state.Points[i].StartsAt[:10]
		if day != last {
			last = day
			days++
		}
	}
	return days
}

// wouldReduceCoverage reports whether accepting fetched data would shrink
// the displayed series, either in point count or in distinct calendar days.
func wouldReduceCoverage(fetched, current *model.PriceState) bool {
	if fetched == nil || current == nil || !fetched.OK || !current.OK || len(current.Points) == 0 {
		return false
	}
	if len(fetched.Points) < len(current.Points) {
		return true
	}
	return dayCount(fetched) < dayCount(current)
}
