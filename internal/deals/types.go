// internal/deals/types.go

// Package deals defines the data model shared by the extraction and
// aggregation layers: scraped product candidates, per-source best deals,
// and the aggregated search result handed to callers.
package deals

import (
	"encoding/json"
	"math"
	"time"
)

// SourceID identifies one upstream marketplace or search surface.
type SourceID string

const (
	SourceGoogleShopping SourceID = "google_shopping"
	SourceMercadoLivre   SourceID = "mercado_livre"
	SourceKabum          SourceID = "kabum"
)

// NamePlaceholder is the value used when no name selector matched.
// Candidates carrying it are rejected before aggregation.
const NamePlaceholder = "name not found"

// Candidate is a single scraped product entry before acceptance into
// aggregation. Price is guaranteed set for accepted candidates; a candidate
// without a parseable price never leaves the extractor.
type Candidate struct {
	Name   string   `json:"name"`
	Price  float64  `json:"price"`
	Link   string   `json:"link,omitempty"`
	Source SourceID `json:"source"`
}

// BestDeal is the cheapest offer found for one source, or the no-offer
// sentinel when the source produced nothing usable.
type BestDeal struct {
	Name     string   `json:"name"`
	Price    float64  `json:"price"`
	Link     string   `json:"link,omitempty"`
	CartLink string   `json:"cart_link,omitempty"`
	Source   SourceID `json:"source"`
}

// NoOffer returns the sentinel deal for a source that yielded no candidates.
// Its price is +Inf so it always loses price comparisons.
func NoOffer(source SourceID) BestDeal {
	return BestDeal{
		Name:   "no product found",
		Price:  math.Inf(1),
		Source: source,
	}
}

// IsSentinel reports whether the deal is the no-offer placeholder.
func (d BestDeal) IsSentinel() bool {
	return math.IsInf(d.Price, 1)
}

// bestDealJSON is the wire form of BestDeal. The sentinel's +Inf price is
// internal only; encoding/json rejects infinities, so on the wire a missing
// offer carries a null price.
type bestDealJSON struct {
	Name     string   `json:"name"`
	Price    *float64 `json:"price"`
	Link     string   `json:"link,omitempty"`
	CartLink string   `json:"cart_link,omitempty"`
	Source   SourceID `json:"source"`
}

// MarshalJSON renders the sentinel with a null price.
func (d BestDeal) MarshalJSON() ([]byte, error) {
	wire := bestDealJSON{
		Name:     d.Name,
		Link:     d.Link,
		CartLink: d.CartLink,
		Source:   d.Source,
	}
	if !d.IsSentinel() {
		price := d.Price
		wire.Price = &price
	}
	return json.Marshal(wire)
}

// UnmarshalJSON restores a null or absent price to the +Inf sentinel.
func (d *BestDeal) UnmarshalJSON(data []byte) error {
	var wire bestDealJSON
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}

	d.Name = wire.Name
	d.Link = wire.Link
	d.CartLink = wire.CartLink
	d.Source = wire.Source
	if wire.Price != nil {
		d.Price = *wire.Price
	} else {
		d.Price = math.Inf(1)
	}
	return nil
}

// Overall describes the cheapest deal across all sources, with the savings
// computed against the runner-up source.
type Overall struct {
	Source       SourceID `json:"source"`
	Name         string   `json:"name"`
	Price        float64  `json:"price"`
	Savings      string   `json:"savings"`
	SavingsValue float64  `json:"savings_value"`
	Link         string   `json:"link,omitempty"`
	CartLink     string   `json:"cart_link,omitempty"`
}

// Result is the aggregated outcome of one search. BestOverall is nil only
// when every source returned the sentinel.
type Result struct {
	Query       string                `json:"query"`
	Timestamp   time.Time             `json:"timestamp"`
	PerSource   map[SourceID]BestDeal `json:"results"`
	BestOverall *Overall              `json:"best_overall,omitempty"`
}
