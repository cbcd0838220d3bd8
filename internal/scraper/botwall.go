// internal/scraper/botwall.go
package scraper

import "strings"

// ChallengeDetector recognizes bot-challenge interstitials (CAPTCHA walls,
// unusual-traffic pages) in fetched bodies. A detected challenge stops work
// on the current target entirely; retrying the same URL only digs the hole
// deeper.
type ChallengeDetector struct {
	markers []string
}

// NewChallengeDetector creates a detector for the given body markers.
// Matching is case-insensitive.
func NewChallengeDetector(markers []string) *ChallengeDetector {
	lowered := make([]string, 0, len(markers))
	for _, m := range markers {
		m = strings.TrimSpace(m)
		if m != "" {
			lowered = append(lowered, strings.ToLower(m))
		}
	}
	return &ChallengeDetector{markers: lowered}
}

// Detect reports whether the body looks like a bot challenge and which
// marker matched.
func (d *ChallengeDetector) Detect(body string) (bool, string) {
	if len(d.markers) == 0 {
		return false, ""
	}
	lowered := strings.ToLower(body)
	for _, marker := range d.markers {
		if strings.Contains(lowered, marker) {
			return true, marker
		}
	}
	return false, ""
}
