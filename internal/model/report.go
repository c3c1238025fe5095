package model

// AnalysisReport is the canonical forensic report consumed by presentation code.
// A value is built once per fetch and never mutated afterwards.
type AnalysisReport struct {
	ID         string `json:"id" yaml:"id"`                                       // Report identifier (required)
	MediaURL   string `json:"media_url,omitempty" yaml:"media_url,omitempty"`     // Absolute URL of the analyzed asset
	HeatmapURL string `json:"heatmap_url,omitempty" yaml:"heatmap_url,omitempty"` // Absolute URL of the tamper heatmap overlay

	Exif []ExifField `json:"exif" yaml:"exif"` // Metadata fields in backend order

	TamperScore       float64 `json:"tamper_score" yaml:"tamper_score"`             // 0-100, 0 when absent
	AuthenticityScore float64 `json:"authenticity_score" yaml:"authenticity_score"` // 0-100, 0 when absent

	PredictionLabel string   `json:"prediction_label,omitempty" yaml:"prediction_label,omitempty"` // e.g. "real" / "fake"
	RealProbability *float64 `json:"real_probability,omitempty" yaml:"real_probability,omitempty"` // [0,1], independent of FakeProbability
	FakeProbability *float64 `json:"fake_probability,omitempty" yaml:"fake_probability,omitempty"` // [0,1], independent of RealProbability

	ReverseMatches []ReverseMatch `json:"reverse_matches" yaml:"reverse_matches"` // External sources with similar content

	Timestamp string `json:"timestamp,omitempty" yaml:"timestamp,omitempty"` // Analysis time as reported by the backend
	PHash     string `json:"phash,omitempty" yaml:"phash,omitempty"`         // Perceptual hash of the asset
}

// ExifField is a single metadata key/value pair
type ExifField struct {
	Key   string `json:"key" yaml:"key"`
	Value string `json:"value" yaml:"value"`
}

// ReverseMatch is an external source reported as hosting visually similar content
type ReverseMatch struct {
	Source     string `json:"source" yaml:"source"`
	Similarity string `json:"similarity,omitempty" yaml:"similarity,omitempty"`
	Date       string `json:"date,omitempty" yaml:"date,omitempty"`
}

// HasProbabilities reports whether both deepfake probabilities are present
func (r *AnalysisReport) HasProbabilities() bool {
	return r.RealProbability != nil && r.FakeProbability != nil
}

// ExifValue returns the value for key and whether it was present
func (r *AnalysisReport) ExifValue(key string) (string, bool) {
	for _, f := range r.Exif {
		if f.Key == key {
			return f.Value, true
		}
	}
	return "", false
}
