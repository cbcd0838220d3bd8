// internal/deals/types_test.go
package deals

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestResultWithSentinelMarshals(t *testing.T) {
	result := Result{
		Query:     "ssd 1tb",
		Timestamp: time.Now(),
		PerSource: map[SourceID]BestDeal{
			SourceKabum:        {Name: "SSD 1TB", Price: 399.90, Link: "https://k/1", Source: SourceKabum},
			SourceMercadoLivre: NoOffer(SourceMercadoLivre),
		},
		BestOverall: &Overall{Source: SourceKabum, Name: "SSD 1TB", Price: 399.90},
	}

	data, err := json.Marshal(result)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if !strings.Contains(string(data), `"price":null`) {
		t.Errorf("sentinel price should encode as null, got %s", data)
	}
}

func TestBestDealJSONRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		deal BestDeal
	}{
		{"regular offer", BestDeal{Name: "Mouse", Price: 149.90, Link: "https://k/2", CartLink: "https://k/2/cart", Source: SourceKabum}},
		{"no-offer sentinel", NoOffer(SourceGoogleShopping)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := json.Marshal(tt.deal)
			if err != nil {
				t.Fatalf("Marshal: %v", err)
			}

			var restored BestDeal
			if err := json.Unmarshal(data, &restored); err != nil {
				t.Fatalf("Unmarshal: %v", err)
			}

			if restored.IsSentinel() != tt.deal.IsSentinel() {
				t.Errorf("IsSentinel = %v, want %v", restored.IsSentinel(), tt.deal.IsSentinel())
			}
			if !tt.deal.IsSentinel() && restored.Price != tt.deal.Price {
				t.Errorf("price = %v, want %v", restored.Price, tt.deal.Price)
			}
			if restored.Name != tt.deal.Name || restored.Source != tt.deal.Source {
				t.Errorf("restored = %+v, want %+v", restored, tt.deal)
			}
		})
	}
}
