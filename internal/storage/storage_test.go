// internal/storage/storage_test.go
package storage

import (
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ofertaradar/ofertaradar/internal/deals"
	"github.com/ofertaradar/ofertaradar/internal/utils"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"ssd 1tb", "ssd_1tb"},
		{"Fone de Ouvido Bluetooth", "fone_de_ouvido_bluetooth"},
		{"café com açúcar", "cafe_com_acucar"},
		{"  placa   de vídeo!!  ", "placa_de_video"},
		{"R$ 100", "r_100"},
		{"___", ""},
	}

	for _, tt := range tests {
		if got := Slugify(tt.in); got != tt.want {
			t.Errorf("Slugify(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func sampleResult(query string) deals.Result {
	return deals.Result{
		Query:     query,
		Timestamp: time.Date(2026, 3, 14, 15, 9, 26, 0, time.UTC),
		PerSource: map[deals.SourceID]deals.BestDeal{
			deals.SourceKabum: {Name: "SSD 1TB", Price: 399.90, Source: deals.SourceKabum},
		},
		BestOverall: &deals.Overall{
			Source: deals.SourceKabum,
			Name:   "SSD 1TB",
			Price:  399.90,
		},
	}
}

func TestStoreSaveAndLoad(t *testing.T) {
	store, err := NewStore(t.TempDir(), nil, utils.NopLogger())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}

	if err := store.Save(sampleResult("ssd 1tb")); err != nil {
		t.Fatalf("Save: %v", err)
	}

	names, err := store.Recent(10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(names) != 1 {
		t.Fatalf("got %d files, want 1", len(names))
	}
	if want := "ssd_1tb_20260314_150926.json"; names[0] != want {
		t.Errorf("file name = %q, want %q", names[0], want)
	}

	loaded, err := store.Load(names[0])
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Query != "ssd 1tb" {
		t.Errorf("loaded query = %q", loaded.Query)
	}
	if loaded.BestOverall == nil || loaded.BestOverall.Price != 399.90 {
		t.Errorf("loaded overall = %+v", loaded.BestOverall)
	}
}

func TestStoreRoundTripsSentinelSources(t *testing.T) {
	store, err := NewStore(t.TempDir(), nil, utils.NopLogger())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}

	result := sampleResult("ssd 1tb")
	result.PerSource[deals.SourceMercadoLivre] = deals.NoOffer(deals.SourceMercadoLivre)

	if err := store.Save(result); err != nil {
		t.Fatalf("Save with a sentinel source: %v", err)
	}

	names, err := store.Recent(1)
	if err != nil || len(names) != 1 {
		t.Fatalf("Recent = %v, %v", names, err)
	}

	loaded, err := store.Load(names[0])
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !loaded.PerSource[deals.SourceMercadoLivre].IsSentinel() {
		t.Error("sentinel source should survive the round trip")
	}
	if loaded.PerSource[deals.SourceKabum].Price != 399.90 {
		t.Errorf("regular offer price = %v", loaded.PerSource[deals.SourceKabum].Price)
	}
}

func TestStoreRecentOrdersNewestFirst(t *testing.T) {
	store, err := NewStore(t.TempDir(), nil, utils.NopLogger())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}

	first := sampleResult("mouse")
	second := sampleResult("mouse")
	second.Timestamp = first.Timestamp.Add(time.Hour)

	if err := store.Save(first); err != nil {
		t.Fatalf("Save first: %v", err)
	}
	if err := store.Save(second); err != nil {
		t.Fatalf("Save second: %v", err)
	}

	names, err := store.Recent(1)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(names) != 1 || !strings.Contains(names[0], "160926") {
		t.Errorf("Recent(1) = %v, want the newer file only", names)
	}
}

func TestStoreLoadRejectsPathTraversal(t *testing.T) {
	store, err := NewStore(t.TempDir(), nil, utils.NopLogger())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}

	for _, name := range []string{"../secret.json", "a/b.json", ".hidden.json"} {
		if _, err := store.Load(name); err == nil {
			t.Errorf("Load(%q) should be rejected", name)
		}
	}
}

func TestHistoryIndexRecordAndQuery(t *testing.T) {
	index, err := OpenHistoryIndex(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("OpenHistoryIndex: %v", err)
	}
	defer index.Close()

	result := sampleResult("ssd 1tb")
	if err := index.Record(result, "ssd_1tb_20260314_150926.json"); err != nil {
		t.Fatalf("Record: %v", err)
	}

	cheaper := sampleResult("ssd 1tb")
	cheaper.BestOverall.Price = 349.90
	cheaper.Timestamp = result.Timestamp.Add(24 * time.Hour)
	if err := index.Record(cheaper, "ssd_1tb_20260315_150926.json"); err != nil {
		t.Fatalf("Record: %v", err)
	}

	recent, err := index.Recent(10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(recent) != 2 {
		t.Fatalf("got %d entries, want 2", len(recent))
	}
	if recent[0].BestPrice != 349.90 {
		t.Errorf("newest entry price = %v, want 349.90", recent[0].BestPrice)
	}

	history, err := index.PriceHistory("ssd 1tb")
	if err != nil {
		t.Fatalf("PriceHistory: %v", err)
	}
	if len(history) != 2 || history[0].BestPrice != 399.90 || history[1].BestPrice != 349.90 {
		t.Errorf("price history = %+v", history)
	}
}

func TestHistoryIndexRecordsSentinelSearches(t *testing.T) {
	index, err := OpenHistoryIndex(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("OpenHistoryIndex: %v", err)
	}
	defer index.Close()

	result := sampleResult("unobtainium")
	result.BestOverall = nil
	if err := index.Record(result, "unobtainium_20260314_150926.json"); err != nil {
		t.Fatalf("Record: %v", err)
	}

	recent, err := index.Recent(1)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(recent) != 1 || recent[0].BestSource != "" || recent[0].BestPrice != 0 {
		t.Errorf("sentinel entry = %+v", recent)
	}
}
