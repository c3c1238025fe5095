package extract

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/RoNRiShaV/dfd/internal/model"
	"github.com/RoNRiShaV/dfd/internal/util"
)

// Extractor maps raw backend payloads onto the canonical model. Asset
// references are resolved against baseURL.
type Extractor struct {
	baseURL string
}

// NewExtractor creates a new extractor for the given backend base URL
func NewExtractor(baseURL string) *Extractor {
	return &Extractor{baseURL: baseURL}
}

// rawReport lists every field-name variant the backend has been seen to emit.
//
//	canonical          variants, highest precedence first
//	ID                 id, filename, requested id
//	MediaURL           image_url, file_url, filename
//	HeatmapURL         heatmap_url
//	AuthenticityScore  authenticity, authenticity_score, deepfake.authenticity_score
//	PredictionLabel    prediction, label, deepfake.prediction
//	RealProbability    real_prob, real_probability, deepfake.real_prob
//	FakeProbability    fake_prob, fake_probability, deepfake.fake_prob
type rawReport struct {
	ID         flexString `json:"id"`
	Filename   *string    `json:"filename"`
	ImageURL   *string    `json:"image_url"`
	FileURL    *string    `json:"file_url"`
	HeatmapURL *string    `json:"heatmap_url"`
	Timestamp  *string    `json:"timestamp"`
	PHash      *string    `json:"phash"`

	Label      *string `json:"label"`
	Prediction *string `json:"prediction"`

	Exif json.RawMessage `json:"exif"`

	TamperScore       *float64 `json:"tamper_score"`
	Authenticity      *float64 `json:"authenticity"`
	AuthenticityScore *float64 `json:"authenticity_score"`
	RealProb          *float64 `json:"real_prob"`
	FakeProb          *float64 `json:"fake_prob"`
	RealProbability   *float64 `json:"real_probability"`
	FakeProbability   *float64 `json:"fake_probability"`

	Deepfake *rawDeepfake `json:"deepfake"`

	ReverseMatches []rawReverseMatch `json:"reverse_matches"`
}

// rawDeepfake is the detector's nested result block
type rawDeepfake struct {
	Prediction        *string  `json:"prediction"`
	RealProb          *float64 `json:"real_prob"`
	FakeProb          *float64 `json:"fake_prob"`
	AuthenticityScore *float64 `json:"authenticity_score"`
}

type rawReverseMatch struct {
	Source     string     `json:"source"`
	Similarity flexString `json:"similarity"`
	Date       *string    `json:"date"`
}

// Report decodes a report payload into an AnalysisReport. requestedID is used
// when the payload carries neither id nor filename.
func (e *Extractor) Report(raw []byte, requestedID string) (*model.AnalysisReport, error) {
	var r rawReport
	if err := json.Unmarshal(raw, &r); err != nil {
		return nil, fmt.Errorf("decode report: %w", err)
	}

	exif, err := parseExif(r.Exif)
	if err != nil {
		return nil, fmt.Errorf("decode exif: %w", err)
	}

	deepfake := r.Deepfake
	if deepfake == nil {
		deepfake = &rawDeepfake{}
	}

	report := &model.AnalysisReport{
		ID:                firstString(r.ID.ptr(), r.Filename, &requestedID),
		MediaURL:          util.NormalizeAssetURL(e.baseURL, firstString(r.ImageURL, r.FileURL, r.Filename)),
		HeatmapURL:        util.NormalizeAssetURL(e.baseURL, firstString(r.HeatmapURL)),
		Exif:              exif,
		TamperScore:       valueOrZero(r.TamperScore),
		AuthenticityScore: valueOrZero(firstFloat(r.Authenticity, r.AuthenticityScore, deepfake.AuthenticityScore)),
		PredictionLabel:   firstString(r.Prediction, r.Label, deepfake.Prediction),
		RealProbability:   firstFloat(r.RealProb, r.RealProbability, deepfake.RealProb),
		FakeProbability:   firstFloat(r.FakeProb, r.FakeProbability, deepfake.FakeProb),
		ReverseMatches:    make([]model.ReverseMatch, 0, len(r.ReverseMatches)),
		Timestamp:         firstString(r.Timestamp),
		PHash:             firstString(r.PHash),
	}

	for _, m := range r.ReverseMatches {
		report.ReverseMatches = append(report.ReverseMatches, model.ReverseMatch{
			Source:     strings.TrimSpace(m.Source),
			Similarity: string(m.Similarity),
			Date:       firstString(m.Date),
		})
	}

	return report, nil
}

// parseExif decodes the exif object keeping key order. A repeated key keeps
// its first position and takes the last value.
func parseExif(raw json.RawMessage) ([]model.ExifField, error) {
	fields := []model.ExifField{}
	if len(bytes.TrimSpace(raw)) == 0 || string(bytes.TrimSpace(raw)) == "null" {
		return fields, nil
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("expected object, got %v", tok)
	}

	index := make(map[string]int)
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := keyTok.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected key token %v", keyTok)
		}

		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return nil, fmt.Errorf("value for %q: %w", key, err)
		}

		field := model.ExifField{Key: key, Value: jsonValueString(value)}
		if i, seen := index[key]; seen {
			fields[i] = field
			continue
		}
		index[key] = len(fields)
		fields = append(fields, field)
	}

	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return fields, nil
}

// jsonValueString renders a JSON value for display: strings unquoted,
// null as empty, everything else as compact JSON
func jsonValueString(raw json.RawMessage) string {
	trimmed := bytes.TrimSpace(raw)
	switch {
	case len(trimmed) == 0, string(trimmed) == "null":
		return ""
	case trimmed[0] == '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err == nil {
			return s
		}
	}

	var buf bytes.Buffer
	if err := json.Compact(&buf, trimmed); err != nil {
		return string(trimmed)
	}
	return buf.String()
}

// flexString accepts a JSON string or number
type flexString string

func (s *flexString) UnmarshalJSON(b []byte) error {
	trimmed := bytes.TrimSpace(b)
	if string(trimmed) == "null" {
		return nil
	}
	if len(trimmed) > 0 && trimmed[0] == '"' {
		var v string
		if err := json.Unmarshal(trimmed, &v); err != nil {
			return err
		}
		*s = flexString(v)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(trimmed, &n); err != nil {
		return fmt.Errorf("expected string or number: %w", err)
	}
	*s = flexString(n.String())
	return nil
}

func (s flexString) ptr() *string {
	v := string(s)
	return &v
}

// firstString returns the first non-blank value, trimmed
func firstString(values ...*string) string {
	for _, v := range values {
		if v == nil {
			continue
		}
		if trimmed := strings.TrimSpace(*v); trimmed != "" {
			return trimmed
		}
	}
	return ""
}

func firstFloat(values ...*float64) *float64 {
	for _, v := range values {
		if v != nil {
			f := *v
			return &f
		}
	}
	return nil
}

func valueOrZero(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
