// internal/scraper/extractor.go
package scraper

import (
	"context"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/ofertaradar/ofertaradar/internal/config"
	"github.com/ofertaradar/ofertaradar/internal/deals"
	"github.com/ofertaradar/ofertaradar/internal/pricing"
	"github.com/ofertaradar/ofertaradar/internal/utils"
)

// Extractor locates product entries in a fetched document using the
// source's selector cascades and produces normalized candidates. Selector
// lists are tried in priority order with first-match-wins semantics: the
// first container selector matching anything is used for the whole
// document, and within a container the first selector yielding non-empty
// text wins each field.
type Extractor struct {
	source   config.SourceConfig
	resolver *LinkResolver
	logger   utils.Logger
}

// NewExtractor creates an extractor for one source.
func NewExtractor(source config.SourceConfig, resolver *LinkResolver, logger utils.Logger) *Extractor {
	return &Extractor{
		source:   source,
		resolver: resolver,
		logger:   logger.WithField("source", string(source.ID)),
	}
}

// Extract walks the document's product containers and returns up to
// maxResults accepted candidates, preserving document order. A container
// that fails to yield a usable name and price is skipped; it never aborts
// the others.
func (e *Extractor) Extract(ctx context.Context, doc *goquery.Document, maxResults int) []deals.Candidate {
	containers := e.findContainers(doc)
	if containers == nil {
		e.logger.Warn("no product containers matched any known selector")
		return nil
	}

	var candidates []deals.Candidate
	containers.EachWithBreak(func(i int, container *goquery.Selection) bool {
		if len(candidates) >= maxResults {
			return false
		}

		name := firstText(container, e.source.NameSelectors, deals.NamePlaceholder)
		priceText := firstText(container, e.source.PriceSelectors, "")
		if cents := firstText(container, e.source.CentsSelectors, ""); cents != "" && priceText != "" {
			priceText = priceText + "," + cents
		}

		price, ok := pricing.Normalize(priceText)
		if !ok || name == deals.NamePlaceholder {
			e.logger.Debugf("container %d skipped: name=%q price=%q", i, name, priceText)
			return true
		}

		link := firstAttr(container, e.source.LinkSelectors, "href")
		link = e.absolutize(link)
		if link != "" {
			link = e.resolver.Resolve(ctx, link)
		}

		candidates = append(candidates, deals.Candidate{
			Name:   name,
			Price:  price,
			Link:   link,
			Source: e.source.ID,
		})
		return true
	})

	e.logger.Debugf("extracted %d candidates", len(candidates))
	return candidates
}

// findContainers returns the matches of the first container selector that
// hits at least one element. Containers from different selectors are never
// mixed within one extraction.
func (e *Extractor) findContainers(doc *goquery.Document) *goquery.Selection {
	for _, selector := range e.source.ContainerSelectors {
		if sel := doc.Find(selector); sel.Length() > 0 {
			e.logger.Debugf("using container selector %q (%d matches)", selector, sel.Length())
			return sel
		}
	}
	return nil
}

// absolutize rewrites a relative link against the source's origin.
func (e *Extractor) absolutize(link string) string {
	if link == "" || !strings.HasPrefix(link, "/") {
		return link
	}
	return strings.TrimRight(e.source.Origin, "/") + link
}

// firstText returns the trimmed text of the first selector producing
// non-empty content, or the fallback.
func firstText(container *goquery.Selection, selectors []string, fallback string) string {
	for _, selector := range selectors {
		found := container.Find(selector)
		if found.Length() == 0 {
			continue
		}
		if text := strings.TrimSpace(found.First().Text()); text != "" {
			return text
		}
	}
	return fallback
}

// firstAttr returns the named attribute from the first selector producing a
// non-empty value.
func firstAttr(container *goquery.Selection, selectors []string, attr string) string {
	for _, selector := range selectors {
		found := container.Find(selector)
		if found.Length() == 0 {
			continue
		}
		if value, exists := found.First().Attr(attr); exists && strings.TrimSpace(value) != "" {
			return strings.TrimSpace(value)
		}
	}
	return ""
}
