package api

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RoNRiShaV/dfd/internal/apitest"
	"github.com/RoNRiShaV/dfd/internal/cache"
	"github.com/RoNRiShaV/dfd/internal/logger"
	"github.com/RoNRiShaV/dfd/internal/model"
)

func newTestClient(t *testing.T, backend *apitest.Backend, opts ...Option) *Client {
	t.Helper()
	opts = append([]Option{WithLogger(logger.Discard()), WithUserAgent("dfd-test")}, opts...)
	c, err := New(backend.URL(), opts...)
	require.NoError(t, err)
	return c
}

func TestNew_RequiresBaseURL(t *testing.T) {
	_, err := New("  ")
	require.Error(t, err)
}

func TestGetReport_CatScenario(t *testing.T) {
	backend := apitest.New(t)
	backend.SetReport("42", `{"filename":"cat.jpg","authenticity":82.4,"real_prob":0.8,"fake_prob":0.2,"prediction":"real"}`)
	c := newTestClient(t, backend)

	report, err := c.GetReport(context.Background(), "42")
	require.NoError(t, err)

	assert.Equal(t, "cat.jpg", report.ID)
	assert.Equal(t, backend.URL()+"/api/uploads/cat.jpg", report.MediaURL)
	assert.InDelta(t, 82.4, report.AuthenticityScore, 1e-9)
	assert.Equal(t, "real", report.PredictionLabel)
}

func TestGetReport_Headers(t *testing.T) {
	backend := apitest.New(t)
	backend.SetReport("42", `{"id":"42"}`)
	c := newTestClient(t, backend)

	_, err := c.GetReport(context.Background(), "42")
	require.NoError(t, err)

	req, ok := backend.LastRequest(apitest.RouteResult)
	require.True(t, ok)
	assert.Equal(t, "dfd-test", req.Header.Get("User-Agent"))
	_, err = uuid.Parse(req.Header.Get(RequestIDHeader))
	assert.NoError(t, err, "request id should be a uuid")
}

func TestGetReport_ErrorKinds(t *testing.T) {
	tests := []struct {
		name   string
		setup  func(b *apitest.Backend)
		kind   model.ErrorKind
		status int
	}{
		{
			name:   "unknown id",
			setup:  func(b *apitest.Backend) {},
			kind:   model.KindNotFound,
			status: http.StatusNotFound,
		},
		{
			name:   "server error",
			setup:  func(b *apitest.Backend) { b.Fail(apitest.RouteResult, 500, `{"detail":"Forensics pipeline error"}`) },
			kind:   model.KindServiceError,
			status: http.StatusInternalServerError,
		},
		{
			name:   "bad gateway without body",
			setup:  func(b *apitest.Backend) { b.Fail(apitest.RouteResult, 502, ``) },
			kind:   model.KindServiceError,
			status: http.StatusBadGateway,
		},
		{
			name:  "malformed JSON",
			setup: func(b *apitest.Backend) { b.SetReport("42", `{"filename":`) },
			kind:  model.KindTransportError,
		},
		{
			name:  "schema mismatch",
			setup: func(b *apitest.Backend) { b.SetReport("42", `{"authenticity":"very"}`) },
			kind:  model.KindTransportError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend := apitest.New(t)
			tt.setup(backend)
			c := newTestClient(t, backend)

			_, err := c.GetReport(context.Background(), "42")
			require.Error(t, err)

			var apiErr *Error
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, tt.kind, apiErr.Kind)
			assert.Equal(t, tt.status, apiErr.Status)
			assert.True(t, errors.Is(err, tt.kind.Sentinel()))
			assert.Equal(t, tt.kind, model.KindOf(err))
		})
	}
}

func TestGetReport_DetailInMessage(t *testing.T) {
	backend := apitest.New(t)
	c := newTestClient(t, backend)

	_, err := c.GetReport(context.Background(), "nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Result not found")
	assert.Contains(t, err.Error(), "status 404")
}

func TestGetReport_TransportFailure(t *testing.T) {
	c, err := New("http://127.0.0.1:1", WithLogger(logger.Discard()), WithTimeout(time.Second))
	require.NoError(t, err)

	_, err = c.GetReport(context.Background(), "42")
	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrTransportError))
}

func TestGetReport_Cancelled(t *testing.T) {
	backend := apitest.New(t)
	backend.SetReport("42", `{"id":"42"}`)
	release := make(chan struct{})
	defer close(release)
	backend.OnRequest(apitest.RouteResult, func(r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})
	c := newTestClient(t, backend)

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(20*time.Millisecond, cancel)

	_, err := c.GetReport(ctx, "42")
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.True(t, errors.Is(err, model.ErrTransportError))
}

func TestGetReport_BodyLimit(t *testing.T) {
	backend := apitest.New(t)
	backend.SetReport("42", `{"id":"42","phash":"`+strings.Repeat("f", 256)+`"}`)
	c := newTestClient(t, backend, WithMaxBodyBytes(64))

	_, err := c.GetReport(context.Background(), "42")
	require.Error(t, err)
	assert.Equal(t, model.KindTransportError, model.KindOf(err))
}

func TestGetReport_Cache(t *testing.T) {
	backend := apitest.New(t)
	backend.SetReport("42", `{"id":"42","prediction":"fake"}`)
	mem := cache.NewMemoryCache(time.Minute, time.Minute)
	c := newTestClient(t, backend, WithCache(mem, time.Minute))

	for i := 0; i < 3; i++ {
		report, err := c.GetReport(context.Background(), "42")
		require.NoError(t, err)
		assert.Equal(t, "fake", report.PredictionLabel)
	}
	assert.Equal(t, 1, backend.Calls(apitest.RouteResult))

	// Failures are never cached.
	_, err := c.GetReport(context.Background(), "missing")
	require.Error(t, err)
	_, err = c.GetReport(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, 3, backend.Calls(apitest.RouteResult))
}

type countingLimiter struct{ n int32 }

func (l *countingLimiter) Wait(ctx context.Context, rawURL string) error {
	atomic.AddInt32(&l.n, 1)
	return nil
}

type denyLimiter struct{}

func (denyLimiter) Wait(ctx context.Context, rawURL string) error {
	return context.DeadlineExceeded
}

func TestRateLimiter(t *testing.T) {
	backend := apitest.New(t)
	limiter := &countingLimiter{}
	c := newTestClient(t, backend, WithRateLimiter(limiter))

	_, _ = c.Health(context.Background())
	_, _ = c.ListHistory(context.Background())
	assert.Equal(t, int32(2), atomic.LoadInt32(&limiter.n))

	denied := newTestClient(t, backend, WithRateLimiter(denyLimiter{}))
	_, err := denied.Health(context.Background())
	require.Error(t, err)
	assert.Equal(t, model.KindTransportError, model.KindOf(err))
	assert.Equal(t, 2, backend.TotalCalls(), "denied request must not reach the backend")
}

func TestVotes(t *testing.T) {
	backend := apitest.New(t)
	backend.SetVotes("42", 3, 6)
	c := newTestClient(t, backend)

	tally, err := c.GetVotes(context.Background(), "42")
	require.NoError(t, err)
	assert.Equal(t, model.NewVoteTally(3, 6), tally)

	tally, err = c.CastVote(context.Background(), "42", model.ChoiceFake)
	require.NoError(t, err)
	assert.Equal(t, model.VoteTally{RealCount: 3, FakeCount: 7, Total: 10}, tally)

	req, _ := backend.LastRequest(apitest.RouteVote)
	assert.JSONEq(t, `{"vote":"fake"}`, string(req.Body))
	assert.Equal(t, "application/json", req.Header.Get("Content-Type"))
}

func TestVotes_Invalid(t *testing.T) {
	backend := apitest.New(t)
	backend.Fail(apitest.RouteVotes, http.StatusOK, `{"votes_real":-3,"votes_fake":1}`)
	c := newTestClient(t, backend)

	_, err := c.GetVotes(context.Background(), "42")
	require.Error(t, err)
	assert.Equal(t, model.KindTransportError, model.KindOf(err))
}

func TestListHistory(t *testing.T) {
	backend := apitest.New(t)
	backend.SetHistory(`[{"id":"a.jpg","file_url":"/api/uploads/a.jpg","prediction":"real","votes_real":1,"votes_fake":2}]`)
	c := newTestClient(t, backend)

	entries, err := c.ListHistory(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, backend.URL()+"/api/uploads/a.jpg", entries[0].FileURL)
	assert.Equal(t, 3, entries[0].Tally().Total)
}

func TestDownloadReport(t *testing.T) {
	backend := apitest.New(t)
	backend.SetDocument("42", "application/pdf; charset=binary", []byte("%PDF-1.4"))
	backend.SetDocumentFilename("42", "forensic_42.pdf")
	c := newTestClient(t, backend)

	doc, err := c.DownloadReport(context.Background(), "42")
	require.NoError(t, err)
	assert.Equal(t, []byte("%PDF-1.4"), doc.Data)
	assert.Equal(t, "application/pdf", doc.ContentType)
	assert.Equal(t, "forensic_42.pdf", doc.Filename)

	_, err = c.DownloadReport(context.Background(), "missing")
	assert.True(t, errors.Is(err, model.ErrNotFound))
}

func TestUpload(t *testing.T) {
	backend := apitest.New(t)
	c := newTestClient(t, backend)

	result, err := c.Upload(context.Background(), "/tmp/photos/cat.jpg", strings.NewReader("jpegdata"), true)
	require.NoError(t, err)
	assert.Equal(t, "cat.jpg", result.ID)
	assert.Equal(t, backend.URL()+"/api/uploads/cat.jpg", result.FileURL)
	assert.Equal(t, "real", result.PredictionLabel)

	req, ok := backend.LastRequest(apitest.RouteUpload)
	require.True(t, ok)
	assert.Equal(t, "cat.jpg", req.File)
	assert.Equal(t, "1", req.Form["privacy"])

	_, err = c.Upload(context.Background(), "notes.txt", strings.NewReader("x"), false)
	require.Error(t, err)
	assert.Equal(t, model.KindServiceError, model.KindOf(err))
	req, _ = backend.LastRequest(apitest.RouteUpload)
	assert.Equal(t, "0", req.Form["privacy"])
}

func TestUpload_Warning(t *testing.T) {
	backend := apitest.New(t)
	backend.SetUploadResponse(`{"id":"x.png","filename":"x.png","file_url":"/api/uploads/x.png","label":"fake","warning":"Could not append to log"}`)
	c := newTestClient(t, backend)

	result, err := c.Upload(context.Background(), "x.png", strings.NewReader("png"), false)
	require.NoError(t, err)
	assert.Equal(t, "Could not append to log", result.Warning)
	assert.Equal(t, "fake", result.PredictionLabel)
}

func TestHealth(t *testing.T) {
	backend := apitest.New(t)
	c := newTestClient(t, backend)

	h, err := c.Health(context.Background())
	require.NoError(t, err)
	assert.Equal(t, model.HealthStatus{Status: "ok", Device: "cpu"}, h)
}

func TestNewFromConfig(t *testing.T) {
	backend := apitest.New(t)
	backend.SetReport("42", `{"id":"42"}`)

	cfg := model.DefaultConfig()
	cfg.API.BaseURL = backend.URL() + "/"
	cfg.Cache.Dir = t.TempDir()

	c, err := NewFromConfig(cfg, logger.Discard())
	require.NoError(t, err)
	assert.Equal(t, backend.URL(), c.BaseURL())

	_, err = c.GetReport(context.Background(), "42")
	require.NoError(t, err)
	_, err = c.GetReport(context.Background(), "42")
	require.NoError(t, err)
	assert.Equal(t, 1, backend.Calls(apitest.RouteResult))
}

func TestErrorDetail(t *testing.T) {
	assert.Equal(t, "Result not found", errorDetail([]byte(`{"detail":"Result not found"}`), 404))
	assert.Equal(t, `[{"msg":"field required"}]`, errorDetail([]byte(`{"detail":[{"msg":"field required"}]}`), 422))
	assert.Equal(t, "Bad Gateway", errorDetail([]byte("Bad Gateway\n"), 502))
	assert.Equal(t, "unexpected status 503", errorDetail(nil, 503))
}
