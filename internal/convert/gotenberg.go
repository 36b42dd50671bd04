// Package convert holds the HTTP client for the document-conversion service
// (Gotenberg wire format).
package convert

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"github.com/tanjoen/forenaide/internal/common"
)

// Routes by source format. HTML and markdown render through the Chromium
// engine, everything else through LibreOffice.
const (
	routeChromiumHTML     = "/forms/chromium/convert/html"
	routeChromiumMarkdown = "/forms/chromium/convert/markdown"
	routeLibreOffice      = "/forms/libreoffice/convert"
)

type Config struct {
	BaseURL string
	Timeout time.Duration
}

// Client posts raw file bytes to the conversion service and returns PDF bytes.
type Client struct {
	cfg    Config
	http   *http.Client
	logger *slog.Logger
}

func NewClient(cfg Config, logger *slog.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://localhost:3000"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		cfg:    cfg,
		http:   &http.Client{Timeout: cfg.Timeout},
		logger: logger,
	}
}

func (c *Client) ConvertToPDF(ctx context.Context, filename, mimetype string, fileBytes []byte) ([]byte, error) {
	route, name := routeFor(mimetype, filename)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	hdr := make(textproto.MIMEHeader)
	hdr.Set("Content-Disposition", fmt.Sprintf(`form-data; name="files"; filename=%q`, name))
	hdr.Set("Content-Type", mimetype)
	part, err := mw.CreatePart(hdr)
	if err != nil {
		return nil, fmt.Errorf("build multipart: %w", err)
	}
	if _, err := part.Write(fileBytes); err != nil {
		return nil, fmt.Errorf("write multipart: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("close multipart: %w", err)
	}

	url := strings.TrimRight(c.cfg.BaseURL, "/") + route
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	start := time.Now()
	c.logger.Debug("convert.request", "route", route, "filename", name, "bytes", len(fileBytes))

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrConversionFailed, err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	c.logger.Debug("convert.response",
		"status", resp.StatusCode,
		"bytes", len(raw),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)

	if resp.StatusCode/100 != 2 {
		return nil, fmt.Errorf("%w: status %d: %s", common.ErrConversionFailed, resp.StatusCode, truncate(string(raw), 512))
	}
	return raw, nil
}

// routeFor picks the conversion route; HTML bodies must be named index.html.
func routeFor(mimetype, filename string) (route, name string) {
	switch mimetype {
	case "text/html":
		return routeChromiumHTML, "index.html"
	case "text/markdown", "text/x-markdown":
		return routeChromiumMarkdown, filename
	default:
		return routeLibreOffice, filename
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "...(truncated)"
}
