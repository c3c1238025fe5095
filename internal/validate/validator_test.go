package validate

import (
	"errors"
	"testing"
)

func newTestValidator(t *testing.T) *Validator {
	t.Helper()
	v, err := NewValidator()
	if err != nil {
		t.Fatalf("NewValidator failed: %v", err)
	}
	return v
}

func TestValidator_Report(t *testing.T) {
	v := newTestValidator(t)

	tests := []struct {
		name  string
		raw   string
		valid bool
	}{
		{"filename shape", `{"filename":"cat.jpg","authenticity":82.4,"real_prob":0.8,"fake_prob":0.2,"prediction":"real"}`, true},
		{"image_url shape", `{"id":"42","image_url":"/api/uploads/cat.jpg","label":"fake"}`, true},
		{"nulls allowed", `{"id":"42","heatmap_url":null,"authenticity":null,"exif":null,"reverse_matches":null}`, true},
		{"numeric id", `{"id":42}`, true},
		{"nested deepfake", `{"id":"a","deepfake":{"prediction":"real","real_prob":0.9,"fake_prob":0.1,"authenticity_score":90}}`, true},
		{"reverse matches", `{"id":"a","reverse_matches":[{"source":"example.com","similarity":"92%","date":"2024-01-01"},{"source":"b","similarity":0.7}]}`, true},
		{"empty object", `{}`, true},
		{"not an object", `["cat.jpg"]`, false},
		{"malformed", `{"filename":`, false},
		{"string score", `{"authenticity":"high"}`, false},
		{"probability above one", `{"real_prob":1.5}`, false},
		{"score above hundred", `{"tamper_score":101}`, false},
		{"exif not an object", `{"exif":"Canon"}`, false},
		{"match without source", `{"reverse_matches":[{"similarity":"10%"}]}`, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(SchemaReport, []byte(tt.raw))
			if tt.valid && err != nil {
				t.Errorf("expected valid, got %v", err)
			}
			if !tt.valid {
				if err == nil {
					t.Fatal("expected validation error")
				}
				if !errors.Is(err, ErrSchemaMismatch) {
					t.Errorf("expected ErrSchemaMismatch, got %v", err)
				}
			}
		})
	}
}

func TestValidator_DecodesPayload(t *testing.T) {
	v := newTestValidator(t)

	tests := []struct {
		name   string
		schema Schema
		raw    string
		valid  bool
	}{
		{"padded with whitespace", SchemaReport, "\n  {\"id\":\"42\"}\n", true},
		{"whole float counts", SchemaVotes, `{"votes_real":3.0,"votes_fake":7}`, true},
		{"large numeric id", SchemaReport, `{"id":9007199254740993}`, true},
		{"trailing value", SchemaReport, `{"id":"42"} {"id":"43"}`, false},
		{"trailing garbage", SchemaReport, `{"id":"42"}x`, false},
		{"empty body", SchemaReport, ``, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(tt.schema, []byte(tt.raw))
			if tt.valid && err != nil {
				t.Errorf("expected valid, got %v", err)
			}
			if !tt.valid && !errors.Is(err, ErrSchemaMismatch) {
				t.Errorf("expected ErrSchemaMismatch, got %v", err)
			}
		})
	}
}

func TestValidator_Votes(t *testing.T) {
	v := newTestValidator(t)

	if err := v.Validate(SchemaVotes, []byte(`{"votes_real":3,"votes_fake":7,"total":10}`)); err != nil {
		t.Errorf("expected valid tally, got %v", err)
	}
	if err := v.Validate(SchemaVotes, []byte(`{"votes_real":3,"votes_fake":7}`)); err != nil {
		t.Errorf("expected tally without total to be valid, got %v", err)
	}
	if err := v.Validate(SchemaVotes, []byte(`{"votes_real":3}`)); err == nil {
		t.Error("expected missing votes_fake to fail")
	}
	if err := v.Validate(SchemaVotes, []byte(`{"votes_real":-1,"votes_fake":0}`)); err == nil {
		t.Error("expected negative count to fail")
	}
	if err := v.Validate(SchemaVotes, []byte(`{"votes_real":1.5,"votes_fake":0}`)); err == nil {
		t.Error("expected fractional count to fail")
	}
}

func TestValidator_History(t *testing.T) {
	v := newTestValidator(t)

	valid := `[{"id":"a.jpg","file_url":"/api/uploads/a.jpg","prediction":"real","votes_real":1,"votes_fake":0},{"id":"b.jpg"}]`
	if err := v.Validate(SchemaHistory, []byte(valid)); err != nil {
		t.Errorf("expected valid history, got %v", err)
	}
	if err := v.Validate(SchemaHistory, []byte(`[]`)); err != nil {
		t.Errorf("expected empty history to be valid, got %v", err)
	}
	if err := v.Validate(SchemaHistory, []byte(`{"items":[]}`)); err == nil {
		t.Error("expected object to fail history schema")
	}
	if err := v.Validate(SchemaHistory, []byte(`[{"file_url":"/x.jpg"}]`)); err == nil {
		t.Error("expected entry without id to fail")
	}
}

func TestValidator_UploadAndHealth(t *testing.T) {
	v := newTestValidator(t)

	if err := v.Validate(SchemaUpload, []byte(`{"filename":"abc.jpg","file_url":"/api/uploads/abc.jpg"}`)); err != nil {
		t.Errorf("expected upload with filename to be valid, got %v", err)
	}
	if err := v.Validate(SchemaUpload, []byte(`{"prediction":"real"}`)); err == nil {
		t.Error("expected upload without id or filename to fail")
	}
	if err := v.Validate(SchemaHealth, []byte(`{"status":"ok","device":"cpu"}`)); err != nil {
		t.Errorf("expected health to be valid, got %v", err)
	}
	if err := v.Validate(SchemaHealth, []byte(`{"device":"cpu"}`)); err == nil {
		t.Error("expected health without status to fail")
	}
}

func TestValidator_UnknownSchema(t *testing.T) {
	v := newTestValidator(t)
	if err := v.Validate(Schema("nope"), []byte(`{}`)); err == nil {
		t.Error("expected unknown schema error")
	}
}

func TestDefault(t *testing.T) {
	v1, err := Default()
	if err != nil {
		t.Fatalf("Default failed: %v", err)
	}
	v2, _ := Default()
	if v1 != v2 {
		t.Error("expected Default to return the same validator")
	}
}
