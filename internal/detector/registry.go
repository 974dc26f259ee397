package detector

import (
	"sort"
	"sync"
)

// Registry maps trigger-condition names to detector implementations. Rules
// bind to detectors by name; unknown names resolve to no detector rather
// than an error so a misconfigured rule cannot fail an evaluation.
type Registry struct {
	mu        sync.RWMutex
	detectors map[string]Detector
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{detectors: make(map[string]Detector)}
}

// NewBuiltinRegistry creates a registry populated with the built-in
// detectors, binding each to its trigger-condition name. keywords overrides
// the safeguarding keyword set; nil uses the defaults.
func NewBuiltinRegistry(keywords []string) *Registry {
	r := NewRegistry()
	r.Register("pii_leak", NewPIIDetector())
	r.Register("safeguarding_recommended", NewSafeguardingDetector(keywords))
	r.Register("missing_consent", NewConsentDetector())
	r.Register("missing_metadata", NewMetadataDetector(nil))
	return r
}

// Register binds a detector to a trigger-condition name, replacing any
// previous binding.
func (r *Registry) Register(name string, d Detector) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.detectors[name] = d
}

// Get returns the detector bound to name.
func (r *Registry) Get(name string) (Detector, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.detectors[name]
	return d, ok
}

// Names returns the registered trigger-condition names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.detectors))
	for name := range r.detectors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
