package provider

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"time"

	"PriceBoard/internal/interval"
	"PriceBoard/internal/model"
)

const httpTimeout = 10 * time.Second

// NordPoolProvider fetches day-ahead index prices from the Nord Pool data
// portal for one market area.
type NordPoolProvider struct {
	BaseURL           string
	Area              string
	Currency          string
	ResolutionMinutes int
	StorePath         string
	Policy            Policy
	Zone              *interval.Zone
	Client            *http.Client
}

// NewNordPoolProvider creates a provider with bounded connect/response
// timeouts.
func NewNordPoolProvider(baseURL, area, currency string, resolutionMinutes int, storePath string, policy Policy) *NordPoolProvider {
	return &NordPoolProvider{
		BaseURL:           baseURL,
		Area:              area,
		Currency:          currency,
		ResolutionMinutes: interval.NormalizeResolution(resolutionMinutes),
		StorePath:         storePath,
		Policy:            policy,
		Zone:              interval.ZoneForArea(area),
		Client:            &http.Client{Timeout: httpTimeout},
	}
}

func (p *NordPoolProvider) Name() string { return "nordpool" }

// nordPoolEntry is one delivery interval in the API response, with prices
// keyed by area in currency per MWh.
type nordPoolEntry struct {
	DeliveryStart string             `json:"deliveryStart"`
	EntryPerArea  map[string]float64 `json:"entryPerArea"`
}

type nordPoolResponse struct {
	Title             string          `json:"title"`
	Currency          string          `json:"currency"`
	MultiIndexEntries []nordPoolEntry `json:"multiIndexEntries"`
}

// Fetch performs the two-day refresh: today's prices plus tomorrow's when
// already published. Tomorrow being unavailable is expected earlier in the
// day; today's data alone is a usable degraded result.
func (p *NordPoolProvider) Fetch(now time.Time) *model.PriceState {
	out := model.NewPriceState(model.SourceNordPool)
	out.Currency = p.Currency
	out.ResolutionMinutes = interval.NormalizeResolution(p.ResolutionMinutes)

	if !interval.ClockValid(now) {
		out.SetError(model.ErrConfiguration, "clock not synced")
		return out
	}

	today := interval.LocalDate(now, p.Zone)
	tomorrow := interval.LocalDate(now.Add(24*time.Hour), p.Zone)
	if len(today) != 10 || len(tomorrow) != 10 {
		out.SetError(model.ErrConfiguration, "date format failed")
		return out
	}

	if !p.fetchDate(today, out) {
		return out
	}
	if !p.fetchDate(tomorrow, out) {
		log.Printf("[WARN] nord pool tomorrow fetch failed: %s", out.Error)
		if len(out.Points) == 0 {
			return out
		}
		out.Error = ""
		out.ErrorKind = model.ErrNone
	}

	if len(out.Points) == 0 {
		out.SetError(model.ErrData, "no prices")
		return out
	}

	samples := ApplyBaseline(out, p.StorePath, p.Policy, now, p.Zone)
	out.OK = true
	log.Printf("[INFO] nord pool ok: points=%d res=%d current=%.3f %s level=%s baseline=%.3f samples=%d",
		len(out.Points), out.ResolutionMinutes, out.CurrentPrice, out.Currency, out.CurrentLevel, out.Baseline, samples)
	return out
}

// fetchDate issues one date-scoped request and appends the parsed points.
// A 204 means no data published yet and is not an error.
func (p *NordPoolProvider) fetchDate(date string, out *model.PriceState) bool {
	endpoint := fmt.Sprintf("%s?date=%s&market=DayAhead&indexNames=%s&currency=%s&resolutionInMinutes=%d",
		p.BaseURL, date, url.QueryEscape(p.Area), url.QueryEscape(p.Currency), out.ResolutionMinutes)

	resp, err := p.Client.Get(endpoint)
	if err != nil {
		out.SetError(model.ErrConnectivity, fmt.Sprintf("HTTP GET failed: %v", err))
		return false
	}
	defer resp.Body.Close()

	log.Printf("[INFO] nord pool GET %s status=%d", date, resp.StatusCode)
	if resp.StatusCode == http.StatusNoContent {
		return true
	}
	if resp.StatusCode != http.StatusOK {
		out.SetError(model.ErrProtocol, fmt.Sprintf("HTTP %d", resp.StatusCode))
		return false
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		out.SetError(model.ErrConnectivity, fmt.Sprintf("read body: %v", err))
		return false
	}
	if len(bytes.TrimSpace(body)) == 0 {
		out.SetError(model.ErrProtocol, "empty response body")
		return false
	}

	var parsed nordPoolResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		out.SetError(model.ErrProtocol, "JSON parse failed")
		log.Printf("[WARN] nord pool JSON parse error: %v", err)
		return false
	}
	if parsed.Title == "Unauthorized" {
		out.SetError(model.ErrProtocol, "Nord Pool API unauthorized")
		return false
	}
	if parsed.Currency != "" {
		out.Currency = parsed.Currency
	}

	p.addPoints(parsed.MultiIndexEntries, out)
	return true
}

// addPoints converts accepted entries into resolution-tagged local points.
// Entries without the target area are skipped without aborting the batch.
func (p *NordPoolProvider) addPoints(entries []nordPoolEntry, out *model.PriceState) {
	for _, e := range entries {
		if len(out.Points) >= model.MaxPoints {
			return
		}
		raw, ok := e.EntryPerArea[p.Area]
		if !ok {
			continue
		}
		// Index prices are currency/MWh; convert to kr/kWh before the
		// tariff adjustment.
		perKwh := raw / 1000.0
		out.Points = append(out.Points, model.PricePoint{
			StartsAt: interval.ToLocalSlot(e.DeliveryStart, p.Zone),
			Level:    model.LevelUnknown,
			Price:    AdjustPrice(perKwh),
		})
	}
}
