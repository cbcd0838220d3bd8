// internal/browser/renderer.go

// Package browser renders pages through headless Chrome for sources whose
// product markup only exists after script execution.
package browser

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"

	"github.com/ofertaradar/ofertaradar/internal/utils"
)

// Renderer drives a headless Chrome instance to fetch fully rendered HTML.
// It satisfies the page renderer hook of the fetch layer.
type Renderer struct {
	userAgent string
	timeout   time.Duration
	logger    utils.Logger
}

// NewRenderer creates a renderer. timeout bounds one full page render.
func NewRenderer(userAgent string, timeout time.Duration, logger utils.Logger) *Renderer {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Renderer{
		userAgent: userAgent,
		timeout:   timeout,
		logger:    logger,
	}
}

// Render navigates to pageURL, waits for the document to settle, and
// returns the rendered outer HTML.
func (r *Renderer) Render(ctx context.Context, pageURL string) (string, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
	)
	if r.userAgent != "" {
		opts = append(opts, chromedp.UserAgent(r.userAgent))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	renderCtx, cancelTimeout := context.WithTimeout(browserCtx, r.timeout)
	defer cancelTimeout()

	r.logger.Debugf("rendering %s", pageURL)

	var html string
	err := chromedp.Run(renderCtx,
		chromedp.Navigate(pageURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Sleep(2*time.Second),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	if err != nil {
		return "", fmt.Errorf("rendering %s: %w", pageURL, err)
	}
	return html, nil
}
