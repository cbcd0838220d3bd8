// internal/scraper/extractor_test.go
package scraper

import (
	"context"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"

	"github.com/ofertaradar/ofertaradar/internal/config"
	"github.com/ofertaradar/ofertaradar/internal/deals"
	"github.com/ofertaradar/ofertaradar/internal/utils"
)

func testSource() config.SourceConfig {
	return config.SourceConfig{
		ID:                 deals.SourceKabum,
		Label:              "Kabum",
		Origin:             "https://www.kabum.com.br",
		ContainerSelectors: []string{"div.productCard", "article.productCard"},
		NameSelectors:      []string{"span.nameCard", "h2"},
		PriceSelectors:     []string{"span.priceCard"},
		LinkSelectors:      []string{"a.productLink", "a"},
	}
}

func testResolver() *LinkResolver {
	return NewLinkResolver(&stubProber{}, resolverConfig(), utils.NopLogger())
}

func parseDoc(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatalf("parsing document: %v", err)
	}
	return doc
}

func TestExtractAcceptsValidContainers(t *testing.T) {
	html := `
	<div class="productCard">
		<span class="nameCard">SSD 1TB NVMe</span>
		<span class="priceCard">R$ 399,90</span>
		<a class="productLink" href="/produto/123">ver</a>
	</div>
	<div class="productCard">
		<span class="nameCard">SSD 2TB NVMe</span>
		<span class="priceCard">R$ 799,90</span>
		<a class="productLink" href="https://www.kabum.com.br/produto/456">ver</a>
	</div>`

	extractor := NewExtractor(testSource(), testResolver(), utils.NopLogger())
	candidates := extractor.Extract(context.Background(), parseDoc(t, html), 5)

	if len(candidates) != 2 {
		t.Fatalf("got %d candidates, want 2", len(candidates))
	}
	if candidates[0].Name != "SSD 1TB NVMe" || candidates[0].Price != 399.90 {
		t.Errorf("first candidate = %+v", candidates[0])
	}
	if candidates[0].Link != "https://www.kabum.com.br/produto/123" {
		t.Errorf("relative link not absolutized: %q", candidates[0].Link)
	}
	if candidates[1].Link != "https://www.kabum.com.br/produto/456" {
		t.Errorf("second link = %q", candidates[1].Link)
	}
}

func TestExtractSkipsContainersWithoutNameOrPrice(t *testing.T) {
	html := `
	<div class="productCard">
		<span class="priceCard">R$ 100,00</span>
	</div>
	<div class="productCard">
		<span class="nameCard">Produto sem preço</span>
	</div>
	<div class="productCard">
		<span class="nameCard">Produto válido</span>
		<span class="priceCard">R$ 50,00</span>
	</div>`

	extractor := NewExtractor(testSource(), testResolver(), utils.NopLogger())
	candidates := extractor.Extract(context.Background(), parseDoc(t, html), 5)

	if len(candidates) != 1 {
		t.Fatalf("got %d candidates, want 1", len(candidates))
	}
	if candidates[0].Name != "Produto válido" {
		t.Errorf("candidate = %+v", candidates[0])
	}
}

func TestExtractUsesSelectorFallbacks(t *testing.T) {
	// Markup matches the second container selector and the second name
	// selector only.
	html := `
	<article class="productCard">
		<h2>Teclado Mecânico</h2>
		<span class="priceCard">R$ 250,00</span>
		<a href="/produto/789">ver</a>
	</article>`

	extractor := NewExtractor(testSource(), testResolver(), utils.NopLogger())
	candidates := extractor.Extract(context.Background(), parseDoc(t, html), 5)

	if len(candidates) != 1 {
		t.Fatalf("got %d candidates, want 1", len(candidates))
	}
	if candidates[0].Name != "Teclado Mecânico" {
		t.Errorf("name = %q", candidates[0].Name)
	}
}

func TestExtractDoesNotMixContainerSelectors(t *testing.T) {
	// Both selectors match something; only the first cascade entry is used.
	html := `
	<div class="productCard">
		<span class="nameCard">Do primeiro seletor</span>
		<span class="priceCard">R$ 10,00</span>
	</div>
	<article class="productCard">
		<span class="nameCard">Do segundo seletor</span>
		<span class="priceCard">R$ 5,00</span>
	</article>`

	extractor := NewExtractor(testSource(), testResolver(), utils.NopLogger())
	candidates := extractor.Extract(context.Background(), parseDoc(t, html), 5)

	if len(candidates) != 1 {
		t.Fatalf("got %d candidates, want 1", len(candidates))
	}
	if candidates[0].Name != "Do primeiro seletor" {
		t.Errorf("candidate from wrong selector: %+v", candidates[0])
	}
}

func TestExtractJoinsSplitPriceWithCents(t *testing.T) {
	source := testSource()
	source.ID = deals.SourceMercadoLivre
	source.ContainerSelectors = []string{"li.item"}
	source.NameSelectors = []string{"h2"}
	source.PriceSelectors = []string{"span.fraction"}
	source.CentsSelectors = []string{"span.cents"}

	html := `
	<li class="item">
		<h2>Fone Bluetooth</h2>
		<span class="fraction">1.299</span>
		<span class="cents">90</span>
	</li>`

	extractor := NewExtractor(source, testResolver(), utils.NopLogger())
	candidates := extractor.Extract(context.Background(), parseDoc(t, html), 5)

	if len(candidates) != 1 {
		t.Fatalf("got %d candidates, want 1", len(candidates))
	}
	if candidates[0].Price != 1299.90 {
		t.Errorf("price = %v, want 1299.90", candidates[0].Price)
	}
}

func TestExtractHonorsMaxResults(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 10; i++ {
		b.WriteString(`<div class="productCard"><span class="nameCard">Item</span><span class="priceCard">R$ 10,00</span></div>`)
	}

	extractor := NewExtractor(testSource(), testResolver(), utils.NopLogger())
	candidates := extractor.Extract(context.Background(), parseDoc(t, b.String()), 3)

	if len(candidates) != 3 {
		t.Errorf("got %d candidates, want 3", len(candidates))
	}
}

func TestExtractResolvesIndirectionLinks(t *testing.T) {
	source := testSource()
	source.ID = deals.SourceGoogleShopping
	source.Origin = "https://www.google.com"

	html := `
	<div class="productCard">
		<span class="nameCard">Monitor 27"</span>
		<span class="priceCard">R$ 1.100,00</span>
		<a class="productLink" href="/aclk?adurl=https://loja.example.com/monitor"></a>
	</div>`

	prober := &stubProber{landing: "https://www.google.com/sorry"}
	resolver := NewLinkResolver(prober, resolverConfig(), utils.NopLogger())

	extractor := NewExtractor(source, resolver, utils.NopLogger())
	candidates := extractor.Extract(context.Background(), parseDoc(t, html), 5)

	if len(candidates) != 1 {
		t.Fatalf("got %d candidates, want 1", len(candidates))
	}
	if candidates[0].Link != "https://loja.example.com/monitor" {
		t.Errorf("link = %q, want the resolved merchant URL", candidates[0].Link)
	}
}

func TestExtractNoContainers(t *testing.T) {
	extractor := NewExtractor(testSource(), testResolver(), utils.NopLogger())
	if got := extractor.Extract(context.Background(), parseDoc(t, "<html><body>nada</body></html>"), 5); got != nil {
		t.Errorf("Extract = %v, want nil", got)
	}
}
