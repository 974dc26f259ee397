package detector

import (
	"context"
	"fmt"
	"regexp"
)

// PIIPattern represents a predefined PII detection pattern type.
type PIIPattern string

const (
	PIIPatternEmail      PIIPattern = "email"
	PIIPatternPhone      PIIPattern = "phone"
	PIIPatternSSN        PIIPattern = "ssn"
	PIIPatternCreditCard PIIPattern = "credit_card"
)

// Predefined PII regex patterns.
var piiPatterns = map[PIIPattern]string{
	PIIPatternEmail:      `\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Z|a-z]{2,}\b`,
	PIIPatternPhone:      `(?:\+?1[-.\s]?)?\(?[0-9]{3}\)?[-.\s]?[0-9]{3}[-.\s]?[0-9]{4}\b`,
	PIIPatternSSN:        `\b\d{3}-\d{2}-\d{4}\b`,
	PIIPatternCreditCard: `\b(?:4[0-9]{12}(?:[0-9]{3})?|5[1-5][0-9]{14}|3[47][0-9]{13}|6(?:011|5[0-9]{2})[0-9]{12})\b`,
}

// PIIDetector reports personally identifiable information found in content.
// It emits one pii_leak finding per occurrence at medium severity; the PII
// itself is never included in the finding message, only its pattern and
// position.
type PIIDetector struct {
	patterns map[PIIPattern]*regexp.Regexp
}

// NewPIIDetector creates a PII detector with all built-in patterns enabled.
func NewPIIDetector() *PIIDetector {
	d := &PIIDetector{patterns: make(map[PIIPattern]*regexp.Regexp)}
	for pattern, regex := range piiPatterns {
		d.patterns[pattern] = regexp.MustCompile(regex)
	}
	return d
}

// NewPIIDetectorWithPatterns creates a PII detector with additional named
// patterns, e.g. jurisdiction-specific identifiers. Returns an error if a
// custom pattern is not a valid regex.
func NewPIIDetectorWithPatterns(custom map[string]string) (*PIIDetector, error) {
	d := NewPIIDetector()
	for name, pattern := range custom {
		compiled, err := regexp.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid custom pattern %q: %w", name, err)
		}
		d.patterns[PIIPattern(name)] = compiled
	}
	return d, nil
}

// Name returns the detector name.
func (d *PIIDetector) Name() string {
	return "pii"
}

// Check scans content for PII occurrences.
func (d *PIIDetector) Check(ctx context.Context, content string, ec Context) []Finding {
	if content == "" {
		return nil
	}

	var findings []Finding
	for pattern, regex := range d.patterns {
		for _, match := range regex.FindAllStringIndex(content, -1) {
			findings = append(findings, Finding{
				Type:     TypePIILeak,
				Message:  fmt.Sprintf("possible %s detected in submitted content", pattern),
				Severity: SeverityMedium,
				Metadata: map[string]any{
					"pattern": string(pattern),
					"start":   match[0],
					"end":     match[1],
				},
			})
		}
	}
	return findings
}
