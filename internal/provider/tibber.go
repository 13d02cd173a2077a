package provider

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"PriceBoard/internal/interval"
	"PriceBoard/internal/model"
)

const tibberPriceInfoQuery = `{"query":"{viewer{homes{currentSubscription{priceInfo{current{energy startsAt currency level} today{energy startsAt level} tomorrow{energy startsAt level}}}}}}"}`

// TibberProvider fetches hourly prices from the Tibber GraphQL API. Tibber
// supplies its own level labels, so the moving-average pipeline is not run
// for this source; labels are parsed into the closed Level enum instead.
type TibberProvider struct {
	URL    string
	Token  string
	Zone   *interval.Zone
	Client *http.Client
}

func NewTibberProvider(apiURL, token string, zone *interval.Zone) *TibberProvider {
	return &TibberProvider{
		URL:    apiURL,
		Token:  token,
		Zone:   zone,
		Client: &http.Client{Timeout: httpTimeout},
	}
}

func (p *TibberProvider) Name() string { return "tibber" }

type tibberPrice struct {
	Energy   float64 `json:"energy"`
	StartsAt string  `json:"startsAt"`
	Currency string  `json:"currency"`
	Level    string  `json:"level"`
}

type tibberResponse struct {
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
	Data struct {
		Viewer struct {
			Homes []struct {
				CurrentSubscription struct {
					PriceInfo struct {
						Current  *tibberPrice  `json:"current"`
						Today    []tibberPrice `json:"today"`
						Tomorrow []tibberPrice `json:"tomorrow"`
					} `json:"priceInfo"`
				} `json:"currentSubscription"`
			} `json:"homes"`
		} `json:"viewer"`
	} `json:"data"`
}

func (p *TibberProvider) Fetch(now time.Time) *model.PriceState {
	out := model.NewPriceState(model.SourceTibber)
	out.ResolutionMinutes = 60

	if p.Token == "" {
		out.SetError(model.ErrConfiguration, "missing Tibber API token")
		return out
	}

	req, err := http.NewRequest(http.MethodPost, p.URL, bytes.NewReader([]byte(tibberPriceInfoQuery)))
	if err != nil {
		out.SetError(model.ErrConfiguration, fmt.Sprintf("build request: %v", err))
		return out
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.Token)

	resp, err := p.Client.Do(req)
	if err != nil {
		out.SetError(model.ErrConnectivity, fmt.Sprintf("HTTP POST failed: %v", err))
		return out
	}
	defer resp.Body.Close()

	log.Printf("[INFO] tibber POST status=%d", resp.StatusCode)
	if resp.StatusCode != http.StatusOK {
		out.SetError(model.ErrProtocol, fmt.Sprintf("HTTP %d", resp.StatusCode))
		return out
	}

	var parsed tibberResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		out.SetError(model.ErrProtocol, "JSON parse failed")
		log.Printf("[WARN] tibber JSON parse error: %v", err)
		return out
	}
	if len(parsed.Errors) > 0 {
		out.SetError(model.ErrProtocol, "Tibber API error")
		return out
	}
	if len(parsed.Data.Viewer.Homes) == 0 {
		out.SetError(model.ErrData, "no price info")
		return out
	}

	priceInfo := parsed.Data.Viewer.Homes[0].CurrentSubscription.PriceInfo
	current := priceInfo.Current
	if current == nil {
		out.SetError(model.ErrData, "no current tariff")
		return out
	}

	if current.Currency != "" {
		out.Currency = current.Currency
	}
	out.CurrentStartsAt = current.StartsAt
	out.CurrentLevel = model.ParseLevel(current.Level)
	out.CurrentPrice = AdjustPrice(current.Energy)

	addTibberPoints(priceInfo.Today, out)
	addTibberPoints(priceInfo.Tomorrow, out)

	if len(out.Points) == 0 {
		out.SetError(model.ErrData, "no hourly prices")
		return out
	}

	out.CurrentIndex = p.findCurrentIndex(out, now)
	out.SetCurrent(out.CurrentIndex)
	out.OK = true
	log.Printf("[INFO] tibber ok: points=%d current=%.3f %s level=%s",
		len(out.Points), out.CurrentPrice, out.Currency, out.CurrentLevel)
	return out
}

func addTibberPoints(prices []tibberPrice, out *model.PriceState) {
	for _, item := range prices {
		if len(out.Points) >= model.MaxPoints {
			return
		}
		out.Points = append(out.Points, model.PricePoint{
			StartsAt: item.StartsAt,
			Level:    model.ParseLevel(item.Level),
			Price:    AdjustPrice(item.Energy),
		})
	}
}

// findCurrentIndex prefers the exact startsAt the API reported as current,
// falling back to the wall-clock hour slot.
func (p *TibberProvider) findCurrentIndex(state *model.PriceState, now time.Time) int {
	for i := range state.Points {
		if state.Points[i].StartsAt == state.CurrentStartsAt {
			return i
		}
	}
	return interval.FindCurrentIndex(state, 60, now, p.Zone)
}
