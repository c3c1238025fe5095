package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/url"
	"path/filepath"

	"github.com/RoNRiShaV/dfd/internal/cache"
	"github.com/RoNRiShaV/dfd/internal/extract"
	"github.com/RoNRiShaV/dfd/internal/model"
	"github.com/RoNRiShaV/dfd/internal/validate"
)

// GetReport fetches and normalizes GET /api/result/{id}
func (c *Client) GetReport(ctx context.Context, id string) (*model.AnalysisReport, error) {
	const op = "get report"

	key := cache.ReportKey(c.baseURL, id)
	if c.cache != nil {
		if raw, ok := c.cache.Get(key); ok {
			report, err := c.extractor.Report(raw, id)
			if err == nil {
				c.log.Debug("report cache hit", "id", id)
				return report, nil
			}
			_ = c.cache.Delete(key)
		}
	}

	resp, err := c.do(ctx, op, http.MethodGet, "/api/result/"+url.PathEscape(id), nil, "")
	if err != nil {
		return nil, err
	}
	if err := c.validated(op, validate.SchemaReport, resp.body); err != nil {
		return nil, err
	}

	report, err := c.extractor.Report(resp.body, id)
	if err != nil {
		return nil, transportError(op, err)
	}

	if c.cache != nil {
		if err := c.cache.Set(key, resp.body, c.cacheTTL); err != nil {
			c.log.Warn("cache report payload", "id", id, "error", err)
		}
	}
	return report, nil
}

// GetVotes fetches GET /api/votes/{id}
func (c *Client) GetVotes(ctx context.Context, id string) (model.VoteTally, error) {
	const op = "get votes"

	resp, err := c.do(ctx, op, http.MethodGet, "/api/votes/"+url.PathEscape(id), nil, "")
	if err != nil {
		return model.VoteTally{}, err
	}
	return c.tally(op, id, resp.body)
}

// CastVote submits POST /api/vote/{id} and returns the server's tally
func (c *Client) CastVote(ctx context.Context, id string, choice model.Choice) (model.VoteTally, error) {
	const op = "cast vote"

	body, err := json.Marshal(map[string]string{"vote": string(choice)})
	if err != nil {
		return model.VoteTally{}, transportError(op, err)
	}

	resp, err := c.do(ctx, op, http.MethodPost, "/api/vote/"+url.PathEscape(id), body, "application/json")
	if err != nil {
		return model.VoteTally{}, err
	}
	return c.tally(op, id, resp.body)
}

func (c *Client) tally(op, id string, raw []byte) (model.VoteTally, error) {
	if err := c.validated(op, validate.SchemaVotes, raw); err != nil {
		return model.VoteTally{}, err
	}
	tally, mismatch, err := extract.Tally(raw)
	if err != nil {
		return model.VoteTally{}, transportError(op, err)
	}
	if mismatch {
		c.log.Debug("server total disagrees with counts", "id", id, "total", tally.Total)
	}
	return tally, nil
}

// ListHistory fetches GET /api/history
func (c *Client) ListHistory(ctx context.Context) ([]model.HistoryEntry, error) {
	const op = "list history"

	resp, err := c.do(ctx, op, http.MethodGet, "/api/history", nil, "")
	if err != nil {
		return nil, err
	}
	if err := c.validated(op, validate.SchemaHistory, resp.body); err != nil {
		return nil, err
	}

	entries, err := c.extractor.History(resp.body)
	if err != nil {
		return nil, transportError(op, err)
	}
	return entries, nil
}

// Document is a downloaded report document
type Document struct {
	Data        []byte
	ContentType string // Media type without parameters, empty if the server sent none
	Filename    string // From Content-Disposition, if any
}

// DownloadReport fetches the binary GET /api/report/{id}
func (c *Client) DownloadReport(ctx context.Context, id string) (*Document, error) {
	const op = "download report"

	resp, err := c.do(ctx, op, http.MethodGet, "/api/report/"+url.PathEscape(id), nil, "")
	if err != nil {
		return nil, err
	}

	doc := &Document{Data: resp.body}
	if mediaType, _, err := mime.ParseMediaType(resp.contentType); err == nil {
		doc.ContentType = mediaType
	}
	if cd := resp.header.Get("Content-Disposition"); cd != "" {
		if _, params, err := mime.ParseMediaType(cd); err == nil && params["filename"] != "" {
			doc.Filename = filepath.Base(params["filename"])
		}
	}
	return doc, nil
}

// Upload sends POST /api/upload as multipart form data with the file and
// privacy fields
func (c *Client) Upload(ctx context.Context, filename string, content io.Reader, privacy bool) (model.UploadResult, error) {
	const op = "upload"

	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)

	part, err := form.CreateFormFile("file", filepath.Base(filename))
	if err != nil {
		return model.UploadResult{}, transportError(op, fmt.Errorf("create form file: %w", err))
	}
	if _, err := io.Copy(part, content); err != nil {
		return model.UploadResult{}, transportError(op, fmt.Errorf("read %s: %w", filename, err))
	}

	flag := "0"
	if privacy {
		flag = "1"
	}
	if err := form.WriteField("privacy", flag); err != nil {
		return model.UploadResult{}, transportError(op, err)
	}
	if err := form.Close(); err != nil {
		return model.UploadResult{}, transportError(op, err)
	}

	resp, err := c.do(ctx, op, http.MethodPost, "/api/upload", buf.Bytes(), form.FormDataContentType())
	if err != nil {
		return model.UploadResult{}, err
	}
	if err := c.validated(op, validate.SchemaUpload, resp.body); err != nil {
		return model.UploadResult{}, err
	}

	result, err := c.extractor.Upload(resp.body)
	if err != nil {
		return model.UploadResult{}, transportError(op, err)
	}
	if result.Warning != "" {
		c.log.Warn("backend could not record upload", "id", result.ID, "warning", result.Warning)
	}
	return result, nil
}

// Health probes GET /api/health
func (c *Client) Health(ctx context.Context) (model.HealthStatus, error) {
	const op = "health"

	resp, err := c.do(ctx, op, http.MethodGet, "/api/health", nil, "")
	if err != nil {
		return model.HealthStatus{}, err
	}
	if err := c.validated(op, validate.SchemaHealth, resp.body); err != nil {
		return model.HealthStatus{}, err
	}

	h, err := extract.Health(resp.body)
	if err != nil {
		return model.HealthStatus{}, transportError(op, err)
	}
	return h, nil
}
