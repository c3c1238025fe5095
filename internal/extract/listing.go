package extract

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"

	"github.com/RoNRiShaV/dfd/internal/model"
	"github.com/RoNRiShaV/dfd/internal/util"
)

type rawTally struct {
	VotesReal count  `json:"votes_real"`
	VotesFake count  `json:"votes_fake"`
	Total     *count `json:"total"`
}

// Tally decodes a vote tally. The total is always re-derived from the two
// counts; mismatch reports whether the server's own total disagreed.
func Tally(raw []byte) (tally model.VoteTally, mismatch bool, err error) {
	var r rawTally
	if err := json.Unmarshal(raw, &r); err != nil {
		return model.VoteTally{}, false, fmt.Errorf("decode tally: %w", err)
	}
	tally = model.NewVoteTally(int(r.VotesReal), int(r.VotesFake))
	return tally, r.Total != nil && int(*r.Total) != tally.Total, nil
}

type rawHistoryEntry struct {
	ID         flexString `json:"id"`
	FileURL    *string    `json:"file_url"`
	Filename   *string    `json:"filename"`
	Prediction *string    `json:"prediction"`
	Label      *string    `json:"label"`
	VotesReal  *count     `json:"votes_real"`
	VotesFake  *count     `json:"votes_fake"`
}

// History decodes the public listing; every file URL is normalized. An entry
// with neither file_url nor filename keeps an empty URL.
func (e *Extractor) History(raw []byte) ([]model.HistoryEntry, error) {
	var rows []rawHistoryEntry
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, fmt.Errorf("decode history: %w", err)
	}

	entries := make([]model.HistoryEntry, 0, len(rows))
	for _, r := range rows {
		entries = append(entries, model.HistoryEntry{
			ID:              string(r.ID),
			FileURL:         util.NormalizeAssetURL(e.baseURL, firstString(r.FileURL, r.Filename)),
			PredictionLabel: firstString(r.Prediction, r.Label),
			RealCount:       countOrZero(r.VotesReal),
			FakeCount:       countOrZero(r.VotesFake),
		})
	}
	return entries, nil
}

type rawUpload struct {
	ID           flexString `json:"id"`
	Filename     *string    `json:"filename"`
	FileURL      *string    `json:"file_url"`
	Prediction   *string    `json:"prediction"`
	Label        *string    `json:"label"`
	Authenticity *float64   `json:"authenticity"`
	RealProb     *float64   `json:"real_prob"`
	FakeProb     *float64   `json:"fake_prob"`
	Warning      *string    `json:"warning"`
}

// Upload decodes an upload response. A missing file_url falls back to the
// uploads route for the stored filename.
func (e *Extractor) Upload(raw []byte) (model.UploadResult, error) {
	var r rawUpload
	if err := json.Unmarshal(raw, &r); err != nil {
		return model.UploadResult{}, fmt.Errorf("decode upload: %w", err)
	}

	filename := firstString(r.Filename)
	id := firstString(r.ID.ptr(), r.Filename)

	fileURL := firstString(r.FileURL)
	if fileURL == "" && filename != "" {
		fileURL = util.UploadsPath + filename
	}

	return model.UploadResult{
		ID:              id,
		Filename:        filename,
		FileURL:         util.NormalizeAssetURL(e.baseURL, fileURL),
		PredictionLabel: firstString(r.Prediction, r.Label),
		Authenticity:    firstFloat(r.Authenticity),
		RealProbability: firstFloat(r.RealProb),
		FakeProbability: firstFloat(r.FakeProb),
		Warning:         firstString(r.Warning),
	}, nil
}

// Health decodes the health probe response
func Health(raw []byte) (model.HealthStatus, error) {
	var h model.HealthStatus
	if err := json.Unmarshal(raw, &h); err != nil {
		return model.HealthStatus{}, fmt.Errorf("decode health: %w", err)
	}
	return h, nil
}

// count is a vote count. Whole-valued floats such as 3.0 are integers to the
// votes schema, so they decode too; fractional values and strings do not.
type count int

func (c *count) UnmarshalJSON(b []byte) error {
	trimmed := bytes.TrimSpace(b)
	if string(trimmed) == "null" {
		return nil
	}
	if len(trimmed) > 0 && trimmed[0] == '"' {
		return fmt.Errorf("vote count must be a number, got %s", trimmed)
	}
	var n json.Number
	if err := json.Unmarshal(trimmed, &n); err != nil {
		return fmt.Errorf("expected number: %w", err)
	}
	if i, err := n.Int64(); err == nil {
		*c = count(i)
		return nil
	}
	f, err := n.Float64()
	if err != nil {
		return fmt.Errorf("expected number: %w", err)
	}
	if f != math.Trunc(f) || math.Abs(f) > math.MaxInt32 {
		return fmt.Errorf("vote count %s is not a whole number", n)
	}
	*c = count(f)
	return nil
}

func countOrZero(v *count) int {
	if v == nil {
		return 0
	}
	return int(*v)
}
