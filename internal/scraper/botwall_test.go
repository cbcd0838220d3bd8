// internal/scraper/botwall_test.go
package scraper

import "testing"

func TestChallengeDetector(t *testing.T) {
	detector := NewChallengeDetector([]string{
		"Our systems have detected unusual traffic",
		"recaptcha",
	})

	tests := []struct {
		name   string
		body   string
		want   bool
		marker string
	}{
		{
			name:   "unusual traffic page",
			body:   "<html>Our systems have detected unusual traffic from your network</html>",
			want:   true,
			marker: "our systems have detected unusual traffic",
		},
		{
			name:   "captcha widget regardless of case",
			body:   `<div class="g-reCAPTCHA"></div>`,
			want:   true,
			marker: "recaptcha",
		},
		{
			name: "normal product page",
			body: "<html><div class=\"productCard\">SSD 1TB</div></html>",
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, marker := detector.Detect(tt.body)
			if got != tt.want {
				t.Errorf("Detect = %v, want %v", got, tt.want)
			}
			if got && marker != tt.marker {
				t.Errorf("marker = %q, want %q", marker, tt.marker)
			}
		})
	}
}

func TestChallengeDetectorWithoutMarkers(t *testing.T) {
	detector := NewChallengeDetector(nil)
	if got, _ := detector.Detect("recaptcha"); got {
		t.Error("detector with no markers should never match")
	}
}
