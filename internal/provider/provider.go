package provider

import (
	"fmt"
	"time"

	"PriceBoard/internal/model"
)

// Provider fetches a complete day-ahead price state. Failures are carried on
// the returned state, never as a panic or an indefinite retry.
type Provider interface {
	Fetch(now time.Time) *model.PriceState
	Name() string
}

// AdjustPrice applies the tariff formula to a raw kr/kWh price. The linear
// adjustment runs in öre so the fixed offset is added in minor units:
// 1.25·price + 84.225 öre.
func AdjustPrice(rawPerKwh float64) float64 {
	rawOre := rawPerKwh * 100
	adjustedOre := 1.25*rawOre + 84.225
	return adjustedOre / 100
}

// MockProvider returns controllable fixed data for development and testing.
type MockProvider struct {
	State *model.PriceState
	Price float64
}

func (m *MockProvider) Name() string { return "mock" }

func (m *MockProvider) Fetch(now time.Time) *model.PriceState {
	if m.State != nil {
		return m.State
	}
	out := model.NewPriceState(model.SourceMock)
	out.ResolutionMinutes = 60
	day := now.Format("2006-01-02")
	for h := 0; h < 24; h++ {
		price := m.Price * (1 + float64(h-12)*0.02)
		out.Points = append(out.Points, model.PricePoint{
			StartsAt: fmt.Sprintf("%sT%02d:00:00", day, h),
			Level:    model.LevelNormal,
			Price:    price,
		})
	}
	out.SetCurrent(now.Hour())
	out.OK = true
	return out
}
