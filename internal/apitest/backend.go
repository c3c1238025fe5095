// Package apitest runs an in-process fake of the forensics backend for
// package tests.
package apitest

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
)

// Route names one backend endpoint
type Route string

const (
	RouteResult  Route = "result"
	RouteVotes   Route = "votes"
	RouteVote    Route = "vote"
	RouteHistory Route = "history"
	RouteReport  Route = "report"
	RouteUpload  Route = "upload"
	RouteHealth  Route = "health"
)

// Request is what the backend saw of one call
type Request struct {
	Method string
	Path   string
	ID     string
	Header http.Header
	Body   []byte
	Form   map[string]string // Multipart fields, upload only
	File   string            // Uploaded file name, upload only
}

type failure struct {
	status int
	body   string
}

type document struct {
	contentType string
	disposition string
	data        []byte
}

// Backend is a chi-routed fake backend. All setters are safe for concurrent
// use with in-flight requests.
type Backend struct {
	server *httptest.Server

	mu        sync.Mutex
	reports   map[string]string
	votes     map[string][2]int
	history   string
	documents map[string]document
	failures  map[Route]failure
	hooks     map[Route]func(r *http.Request)
	calls     map[Route]int
	last      map[Route]Request
	upload    string
}

// New starts a backend that is closed when the test ends
func New(t testing.TB) *Backend {
	t.Helper()

	b := &Backend{
		reports:   make(map[string]string),
		votes:     make(map[string][2]int),
		history:   "[]",
		documents: make(map[string]document),
		failures:  make(map[Route]failure),
		hooks:     make(map[Route]func(r *http.Request)),
		calls:     make(map[Route]int),
		last:      make(map[Route]Request),
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Route("/api", func(r chi.Router) {
		r.Get("/result/{id}", b.handle(RouteResult, b.getResult))
		r.Get("/votes/{id}", b.handle(RouteVotes, b.getVotes))
		r.Post("/vote/{id}", b.handle(RouteVote, b.postVote))
		r.Get("/history", b.handle(RouteHistory, b.getHistory))
		r.Get("/report/{id}", b.handle(RouteReport, b.getDocument))
		r.Post("/upload", b.handle(RouteUpload, b.postUpload))
		r.Get("/health", b.handle(RouteHealth, b.getHealth))
	})

	b.server = httptest.NewServer(r)
	t.Cleanup(b.server.Close)
	return b
}

// URL is the backend base URL
func (b *Backend) URL() string {
	return b.server.URL
}

// SetReport stores the raw JSON served by GET /api/result/{id}
func (b *Backend) SetReport(id, raw string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.reports[id] = raw
}

// SetVotes sets the stored tally for id
func (b *Backend) SetVotes(id string, real, fake int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.votes[id] = [2]int{real, fake}
}

// SetHistory stores the raw JSON served by GET /api/history
func (b *Backend) SetHistory(raw string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.history = raw
}

// SetDocument stores the document served by GET /api/report/{id}
func (b *Backend) SetDocument(id, contentType string, data []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.documents[id] = document{contentType: contentType, data: data}
}

// SetDocumentFilename adds a Content-Disposition filename to a stored document
func (b *Backend) SetDocumentFilename(id, filename string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	doc := b.documents[id]
	doc.disposition = fmt.Sprintf("attachment; filename=%q", filename)
	b.documents[id] = doc
}

// SetUploadResponse overrides the JSON returned by POST /api/upload
func (b *Backend) SetUploadResponse(raw string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.upload = raw
}

// Fail makes route answer with status and body. A zero status clears it.
func (b *Backend) Fail(route Route, status int, body string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if status == 0 {
		delete(b.failures, route)
		return
	}
	b.failures[route] = failure{status: status, body: body}
}

// OnRequest installs a hook run before route responds. The hook may block.
func (b *Backend) OnRequest(route Route, fn func(r *http.Request)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.hooks[route] = fn
}

// Calls returns how many requests route has received
func (b *Backend) Calls(route Route) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls[route]
}

// TotalCalls returns the number of requests across all routes
func (b *Backend) TotalCalls() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	total := 0
	for _, n := range b.calls {
		total += n
	}
	return total
}

// LastRequest returns the most recent request to route
func (b *Backend) LastRequest(route Route) (Request, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	req, ok := b.last[route]
	return req, ok
}

// handle records the call, runs the hook and applies any configured failure
// before delegating to next
func (b *Backend) handle(route Route, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec := Request{
			Method: r.Method,
			Path:   r.URL.Path,
			ID:     chi.URLParam(r, "id"),
			Header: r.Header.Clone(),
		}

		if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
			if err := r.ParseMultipartForm(32 << 20); err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			rec.Form = make(map[string]string)
			for k, v := range r.MultipartForm.Value {
				if len(v) > 0 {
					rec.Form[k] = v[0]
				}
			}
			if files := r.MultipartForm.File["file"]; len(files) > 0 {
				rec.File = files[0].Filename
			}
		} else if r.Body != nil {
			body, _ := io.ReadAll(r.Body)
			rec.Body = body
		}

		b.mu.Lock()
		b.calls[route]++
		b.last[route] = rec
		hook := b.hooks[route]
		fail, failing := b.failures[route]
		b.mu.Unlock()

		if hook != nil {
			hook(r)
		}

		if failing {
			writeRaw(w, fail.status, fail.body)
			return
		}

		// Handlers read the body from rec, not r.
		ctx := r.Context()
		next(w, r.WithContext(withRequest(ctx, rec)))
	}
}

func (b *Backend) getResult(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	b.mu.Lock()
	raw, ok := b.reports[id]
	b.mu.Unlock()

	if !ok {
		writeDetail(w, r, http.StatusNotFound, "Result not found")
		return
	}
	writeRaw(w, http.StatusOK, raw)
}

type tallyResponse struct {
	VotesReal int `json:"votes_real"`
	VotesFake int `json:"votes_fake"`
	Total     int `json:"total"`
}

func (b *Backend) getVotes(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	b.mu.Lock()
	v := b.votes[id]
	b.mu.Unlock()

	render.JSON(w, r, tallyResponse{VotesReal: v[0], VotesFake: v[1], Total: v[0] + v[1]})
}

func (b *Backend) postVote(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req struct {
		Vote string `json:"vote"`
	}
	if err := json.Unmarshal(requestFrom(r).Body, &req); err != nil {
		writeDetail(w, r, http.StatusBadRequest, "invalid JSON")
		return
	}

	b.mu.Lock()
	v := b.votes[id]
	switch req.Vote {
	case "real":
		v[0]++
	case "fake":
		v[1]++
	default:
		b.mu.Unlock()
		writeDetail(w, r, http.StatusBadRequest, "vote must be real or fake")
		return
	}
	b.votes[id] = v
	b.mu.Unlock()

	render.JSON(w, r, tallyResponse{VotesReal: v[0], VotesFake: v[1], Total: v[0] + v[1]})
}

func (b *Backend) getHistory(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	raw := b.history
	b.mu.Unlock()

	writeRaw(w, http.StatusOK, raw)
}

func (b *Backend) getDocument(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	b.mu.Lock()
	doc, ok := b.documents[id]
	b.mu.Unlock()

	if !ok {
		writeDetail(w, r, http.StatusNotFound, "Report not found")
		return
	}

	if doc.contentType != "" {
		w.Header().Set("Content-Type", doc.contentType)
	}
	if doc.disposition != "" {
		w.Header().Set("Content-Disposition", doc.disposition)
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(doc.data)
}

func (b *Backend) postUpload(w http.ResponseWriter, r *http.Request) {
	rec := requestFrom(r)
	if rec.File == "" {
		writeDetail(w, r, http.StatusUnprocessableEntity, "file is required")
		return
	}
	switch strings.ToLower(path.Ext(rec.File)) {
	case ".png", ".jpg", ".jpeg":
	default:
		writeDetail(w, r, http.StatusBadRequest, "Invalid image type. Accepts .png/.jpg/.jpeg")
		return
	}

	b.mu.Lock()
	override := b.upload
	b.mu.Unlock()

	if override != "" {
		writeRaw(w, http.StatusOK, override)
		return
	}

	render.JSON(w, r, map[string]any{
		"id":           rec.File,
		"filename":     rec.File,
		"file_url":     "/api/uploads/" + rec.File,
		"label":        "real",
		"authenticity": 88.5,
		"real_prob":    0.885,
		"fake_prob":    0.115,
	})
}

func (b *Backend) getHealth(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]string{"status": "ok", "device": "cpu"})
}

func writeDetail(w http.ResponseWriter, r *http.Request, status int, detail string) {
	render.Status(r, status)
	render.JSON(w, r, map[string]string{"detail": detail})
}

func writeRaw(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}
