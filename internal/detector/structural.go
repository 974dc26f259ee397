package detector

import (
	"context"
	"fmt"
	"strings"
)

// ConsentDetector reports when an action is attempted without a recorded
// consent for the subject of the resource.
type ConsentDetector struct{}

// NewConsentDetector creates a consent detector.
func NewConsentDetector() *ConsentDetector {
	return &ConsentDetector{}
}

// Name returns the detector name.
func (d *ConsentDetector) Name() string {
	return "consent"
}

// Check reports a finding when the evaluation context carries no consent.
func (d *ConsentDetector) Check(ctx context.Context, content string, ec Context) []Finding {
	if ec.ConsentRecorded {
		return nil
	}
	return []Finding{{
		Type:     TypeMissingConsent,
		Message:  "no consent recorded for the subject of this action",
		Severity: SeverityHigh,
	}}
}

// MetadataDetector reports when required metadata keys are absent from the
// evaluation context.
type MetadataDetector struct {
	required []string
}

// defaultRequiredMetadata is the minimum record-keeping set for a gated
// action.
var defaultRequiredMetadata = []string{"case_reference", "document_kind"}

// NewMetadataDetector creates a metadata detector requiring the given keys.
// nil or empty uses the default set.
func NewMetadataDetector(required []string) *MetadataDetector {
	if len(required) == 0 {
		required = defaultRequiredMetadata
	}
	return &MetadataDetector{required: required}
}

// Name returns the detector name.
func (d *MetadataDetector) Name() string {
	return "metadata"
}

// Check reports one finding enumerating all missing keys.
func (d *MetadataDetector) Check(ctx context.Context, content string, ec Context) []Finding {
	var missing []string
	for _, key := range d.required {
		v, ok := ec.Metadata[key]
		if !ok || v == nil || v == "" {
			missing = append(missing, key)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	return []Finding{{
		Type:     TypeMissingMetadata,
		Message:  fmt.Sprintf("required metadata missing: %s", strings.Join(missing, ", ")),
		Severity: SeverityMedium,
		Metadata: map[string]any{"missing_keys": missing},
	}}
}
