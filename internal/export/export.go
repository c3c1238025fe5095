// Package export downloads a report's rendered document and saves it.
package export

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"

	"github.com/RoNRiShaV/dfd/internal/api"
	"github.com/RoNRiShaV/dfd/internal/model"
)

// ErrBusy is returned when an export is already in progress
var ErrBusy = errors.New("export already in progress")

// DefaultFilename is used when the caller suggests no name
const DefaultFilename = "report.pdf"

// State is the export client's busy flag
type State int

const (
	Idle State = iota
	Exporting
)

func (s State) String() string {
	if s == Exporting {
		return "exporting"
	}
	return "idle"
}

// Downloader retrieves the binary report document
type Downloader interface {
	DownloadReport(ctx context.Context, id string) (*api.Document, error)
}

// Notification is a user-facing failure message
type Notification struct {
	Title   string
	Message string
	Err     error
}

// Notifier surfaces export failures to the user
type Notifier interface {
	Notify(n Notification)
}

// NotifierFunc adapts a function to Notifier
type NotifierFunc func(Notification)

func (f NotifierFunc) Notify(n Notification) { f(n) }

// Saver stores a downloaded document under filename and returns where it went
type Saver interface {
	Save(filename string, data []byte) (string, error)
}

// Client runs at most one export at a time
type Client struct {
	downloader  Downloader
	saver       Saver
	notifier    Notifier
	defaultName string
	log         *slog.Logger

	mu    sync.Mutex
	state State
}

// Option configures a Client
type Option func(*Client)

// WithNotifier sets the failure notifier
func WithNotifier(n Notifier) Option {
	return func(c *Client) { c.notifier = n }
}

// WithDefaultFilename sets the name used when no filename is suggested
func WithDefaultFilename(name string) Option {
	return func(c *Client) {
		if strings.TrimSpace(name) != "" {
			c.defaultName = name
		}
	}
}

// WithLogger sets the logger
func WithLogger(log *slog.Logger) Option {
	return func(c *Client) { c.log = log }
}

// NewClient creates an export client
func NewClient(downloader Downloader, saver Saver, opts ...Option) *Client {
	c := &Client{
		downloader:  downloader,
		saver:       saver,
		notifier:    NotifierFunc(func(Notification) {}),
		defaultName: DefaultFilename,
		log:         slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// State returns the current state
func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Busy reports whether an export is running
func (c *Client) Busy() bool {
	return c.State() == Exporting
}

// Export downloads the document for id and saves it under a name derived
// from suggested. It returns the saved path. A failed download or save
// notifies the user once and leaves nothing on disk.
func (c *Client) Export(ctx context.Context, id, suggested string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", fmt.Errorf("export: report id is required")
	}

	c.mu.Lock()
	if c.state == Exporting {
		c.mu.Unlock()
		return "", ErrBusy
	}
	c.state = Exporting
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.state = Idle
		c.mu.Unlock()
	}()

	doc, err := c.downloader.DownloadReport(ctx, id)
	if err != nil {
		return "", c.fail(id, "Could not download the report document.", err)
	}

	name := c.defaultName
	if strings.TrimSpace(suggested) != "" {
		name = suggested
	}
	filename := DeriveFilename(name, doc.ContentType)

	path, err := c.saver.Save(filename, doc.Data)
	if err != nil {
		return "", c.fail(id, "Could not save the report document.", err)
	}

	c.log.Info("report exported", "id", id, "path", path, "bytes", len(doc.Data), "server_filename", doc.Filename)
	return path, nil
}

func (c *Client) fail(id, message string, cause error) error {
	err := fmt.Errorf("export %s: %w", id, errors.Join(model.ErrExportError, cause))
	c.log.Debug("export failed", "id", id, "error", cause)
	c.notifier.Notify(Notification{Title: "Export failed", Message: message, Err: err})
	return err
}

var extensions = map[string]string{
	"application/pdf":  ".pdf",
	"application/json": ".json",
	"application/zip":  ".zip",
	"text/html":        ".html",
	"text/plain":       ".txt",
	"text/csv":         ".csv",
	"image/png":        ".png",
	"image/jpeg":       ".jpg",
}

// DeriveFilename replaces the extension of suggested with the one matching
// contentType (".pdf" when unknown). Directory components are dropped and
// an empty name becomes "report".
func DeriveFilename(suggested, contentType string) string {
	ext, ok := extensions[strings.ToLower(strings.TrimSpace(contentType))]
	if !ok {
		ext = ".pdf"
	}

	base := filepath.Base(strings.TrimSpace(suggested))
	if base == "." || base == string(filepath.Separator) {
		base = ""
	}
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	if stem == "" {
		stem = "report"
	}
	return stem + ext
}
