package detector

import (
	"context"
	"fmt"
	"strings"
)

// DefaultSafeguardingKeywords is the baseline keyword set for safeguarding
// concerns. Deployments may extend it via configuration but cannot disable
// the detector itself.
var DefaultSafeguardingKeywords = []string{
	"abuse",
	"self-harm",
	"suicide",
	"neglect",
	"violence",
}

// SafeguardingDetector matches content against a keyword set,
// case-insensitively, and emits a single critical finding enumerating every
// matched keyword. One finding per evaluation keeps downstream escalation
// deduplication simple.
type SafeguardingDetector struct {
	keywords []string
}

// NewSafeguardingDetector creates a safeguarding detector. keywords overrides
// the default set; nil or empty uses DefaultSafeguardingKeywords.
func NewSafeguardingDetector(keywords []string) *SafeguardingDetector {
	if len(keywords) == 0 {
		keywords = DefaultSafeguardingKeywords
	}
	normalized := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw != "" {
			normalized = append(normalized, kw)
		}
	}
	return &SafeguardingDetector{keywords: normalized}
}

// Name returns the detector name.
func (d *SafeguardingDetector) Name() string {
	return "safeguarding"
}

// Keywords returns the active keyword set.
func (d *SafeguardingDetector) Keywords() []string {
	out := make([]string, len(d.keywords))
	copy(out, d.keywords)
	return out
}

// Check scans content for safeguarding keywords.
func (d *SafeguardingDetector) Check(ctx context.Context, content string, ec Context) []Finding {
	if content == "" {
		return nil
	}

	lowered := strings.ToLower(content)
	var matched []string
	for _, kw := range d.keywords {
		if strings.Contains(lowered, kw) {
			matched = append(matched, kw)
		}
	}
	if len(matched) == 0 {
		return nil
	}

	return []Finding{{
		Type:     TypeSafeguarding,
		Message:  fmt.Sprintf("safeguarding keywords detected: %s", strings.Join(matched, ", ")),
		Severity: SeverityCritical,
		Metadata: map[string]any{"keywords": matched},
	}}
}
