package pipeline

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/RoNRiShaV/dfd/internal/api"
	"github.com/RoNRiShaV/dfd/internal/apitest"
	"github.com/RoNRiShaV/dfd/internal/logger"
	"github.com/RoNRiShaV/dfd/internal/model"
)

// gatedSource returns reports only when the test releases the id, and
// ignores cancellation so a superseded call still "resolves" late.
type gatedSource struct {
	mu      sync.Mutex
	gates   map[string]chan struct{}
	started chan string
}

func newGatedSource(ids ...string) *gatedSource {
	s := &gatedSource{gates: make(map[string]chan struct{}), started: make(chan string, 8)}
	for _, id := range ids {
		s.gates[id] = make(chan struct{})
	}
	return s
}

func (s *gatedSource) release(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	close(s.gates[id])
}

func (s *gatedSource) GetReport(ctx context.Context, id string) (*model.AnalysisReport, error) {
	s.mu.Lock()
	gate := s.gates[id]
	s.mu.Unlock()

	s.started <- id
	if gate != nil {
		<-gate
	}
	return &model.AnalysisReport{ID: id, PredictionLabel: "label-" + id}, nil
}

func newTestClient(t *testing.T, backend *apitest.Backend) *api.Client {
	t.Helper()
	c, err := api.New(backend.URL(), api.WithLogger(logger.Discard()))
	if err != nil {
		t.Fatalf("api.New failed: %v", err)
	}
	return c
}

func TestReportFetcher_EmptyIDIsNoop(t *testing.T) {
	source := newGatedSource()
	fetcher := NewReportFetcher(source, WithFetcherLogger(logger.Discard()))

	for _, id := range []string{"", "   "} {
		state := fetcher.Fetch(context.Background(), id)
		if state.Status != model.StatusIdle {
			t.Errorf("Expected Idle for %q, got %s", id, state.Status)
		}
	}
	select {
	case id := <-source.started:
		t.Errorf("Expected no request, got one for %q", id)
	default:
	}
}

func TestReportFetcher_LoadingBeforeRequest(t *testing.T) {
	source := newGatedSource("A")
	fetcher := NewReportFetcher(source, WithFetcherLogger(logger.Discard()))

	done := make(chan model.FetchState)
	go func() { done <- fetcher.Fetch(context.Background(), "A") }()

	<-source.started
	if state := fetcher.State(); state.Status != model.StatusLoading || state.ID != "A" {
		t.Errorf("Expected Loading(A) while request is in flight, got %s(%s)", state.Status, state.ID)
	}

	source.release("A")
	state := <-done
	if state.Status != model.StatusLoaded || state.Report.ID != "A" {
		t.Errorf("Expected Loaded(A), got %+v", state)
	}
}

func TestReportFetcher_LastRequestedWins(t *testing.T) {
	source := newGatedSource("A", "B")

	var (
		mu          sync.Mutex
		transitions []string
	)
	fetcher := NewReportFetcher(source,
		WithFetcherLogger(logger.Discard()),
		WithOnChange(func(s model.FetchState) {
			mu.Lock()
			defer mu.Unlock()
			transitions = append(transitions, fmt.Sprintf("%s(%s)", s.Status, s.ID))
		}))

	resultA := make(chan model.FetchState)
	go func() { resultA <- fetcher.Fetch(context.Background(), "A") }()
	<-source.started

	resultB := make(chan model.FetchState)
	go func() { resultB <- fetcher.Fetch(context.Background(), "B") }()
	<-source.started

	// B resolves first, A resolves late.
	source.release("B")
	stateB := <-resultB
	source.release("A")
	stateA := <-resultA

	if stateB.Status != model.StatusLoaded || stateB.Report.ID != "B" {
		t.Fatalf("Expected Loaded(B) from second call, got %+v", stateB)
	}
	if stateA.Status != model.StatusLoaded || stateA.ID != "B" {
		t.Errorf("Expected superseded call to report current state Loaded(B), got %s(%s)", stateA.Status, stateA.ID)
	}
	if final := fetcher.State(); final.ID != "B" || final.Report.PredictionLabel != "label-B" {
		t.Errorf("Expected final state to reflect B, got %+v", final)
	}

	mu.Lock()
	defer mu.Unlock()
	want := []string{"loading(A)", "loading(B)", "loaded(B)"}
	if fmt.Sprint(transitions) != fmt.Sprint(want) {
		t.Errorf("Expected transitions %v, got %v", want, transitions)
	}
}

func TestReportFetcher_SupersededContextCancelled(t *testing.T) {
	backend := apitest.New(t)
	backend.SetReport("A", `{"id":"A"}`)
	backend.SetReport("B", `{"id":"B"}`)

	arrived := make(chan struct{})
	backend.OnRequest(apitest.RouteResult, func(r *http.Request) {
		if r.URL.Path != "/api/result/A" {
			return
		}
		close(arrived)
		<-r.Context().Done()
	})

	fetcher := NewReportFetcher(newTestClient(t, backend), WithFetcherLogger(logger.Discard()))

	resultA := make(chan model.FetchState)
	go func() { resultA <- fetcher.Fetch(context.Background(), "A") }()
	<-arrived

	stateB := fetcher.Fetch(context.Background(), "B")
	if stateB.Status != model.StatusLoaded || stateB.ID != "B" {
		t.Fatalf("Expected Loaded(B), got %+v", stateB)
	}

	select {
	case stateA := <-resultA:
		if stateA.ID != "B" {
			t.Errorf("Expected superseded call to return current state for B, got %s(%s)", stateA.Status, stateA.ID)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("superseded fetch was not cancelled")
	}

	if fetcher.State().Status != model.StatusLoaded || fetcher.State().ID != "B" {
		t.Errorf("Expected Loaded(B) to remain, got %+v", fetcher.State())
	}
}

func TestReportFetcher_CatScenario(t *testing.T) {
	backend := apitest.New(t)
	backend.SetReport("42", `{"filename":"cat.jpg","authenticity":82.4,"real_prob":0.8,"fake_prob":0.2,"prediction":"real"}`)

	fetcher := NewReportFetcher(newTestClient(t, backend), WithFetcherLogger(logger.Discard()))
	state := fetcher.Fetch(context.Background(), "42")

	if state.Status != model.StatusLoaded {
		t.Fatalf("Expected Loaded, got %s: %v", state.Status, state.Err)
	}
	if state.Report.MediaURL != backend.URL()+"/api/uploads/cat.jpg" {
		t.Errorf("Unexpected media URL %q", state.Report.MediaURL)
	}
	if state.Report.AuthenticityScore != 82.4 {
		t.Errorf("Expected authenticity 82.4, got %v", state.Report.AuthenticityScore)
	}
	if state.Report.PredictionLabel != "real" {
		t.Errorf("Expected prediction real, got %q", state.Report.PredictionLabel)
	}
}

func TestReportFetcher_Failures(t *testing.T) {
	tests := []struct {
		name  string
		setup func(b *apitest.Backend)
		kind  model.ErrorKind
	}{
		{"not found", func(b *apitest.Backend) {}, model.KindNotFound},
		{"service error", func(b *apitest.Backend) { b.Fail(apitest.RouteResult, 500, `{"detail":"boom"}`) }, model.KindServiceError},
		{"unavailable", func(b *apitest.Backend) { b.Fail(apitest.RouteResult, 503, "") }, model.KindServiceError},
		{"parse failure", func(b *apitest.Backend) { b.SetReport("42", `<html>`) }, model.KindTransportError},
		{"schema failure", func(b *apitest.Backend) { b.SetReport("42", `{"real_prob":7}`) }, model.KindTransportError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend := apitest.New(t)
			tt.setup(backend)
			fetcher := NewReportFetcher(newTestClient(t, backend), WithFetcherLogger(logger.Discard()))

			state := fetcher.Fetch(context.Background(), "42")
			if state.Status != model.StatusFailed {
				t.Fatalf("Expected Failed, got %s", state.Status)
			}
			if state.Kind != tt.kind {
				t.Errorf("Expected kind %s, got %s", tt.kind, state.Kind)
			}
			if state.Report != nil {
				t.Error("Failed state must not carry a report")
			}
			if backend.Calls(apitest.RouteResult) != 1 {
				t.Errorf("Expected exactly one request (no retry), got %d", backend.Calls(apitest.RouteResult))
			}
		})
	}
}

func TestReportFetcher_TransportError(t *testing.T) {
	c, err := api.New("http://127.0.0.1:1", api.WithLogger(logger.Discard()), api.WithTimeout(time.Second))
	if err != nil {
		t.Fatal(err)
	}
	fetcher := NewReportFetcher(c, WithFetcherLogger(logger.Discard()))

	state := fetcher.Fetch(context.Background(), "42")
	if state.Kind != model.KindTransportError {
		t.Errorf("Expected transport error, got %s", state.Kind)
	}
	if !errors.Is(state.Err, model.ErrTransportError) {
		t.Errorf("Expected wrapped transport sentinel, got %v", state.Err)
	}
}

func TestReportFetcher_RefetchAfterFailure(t *testing.T) {
	backend := apitest.New(t)
	fetcher := NewReportFetcher(newTestClient(t, backend), WithFetcherLogger(logger.Discard()))

	if state := fetcher.Fetch(context.Background(), "42"); state.Kind != model.KindNotFound {
		t.Fatalf("Expected not found, got %+v", state)
	}

	backend.SetReport("42", `{"id":"42"}`)
	if state := fetcher.Fetch(context.Background(), "42"); state.Status != model.StatusLoaded {
		t.Errorf("Expected Loaded after the report appeared, got %+v", state)
	}
}
