// Package textextract extracts text from uploaded PDF and Office documents using Apache Tika,
// so scanned forms that arrive as PDFs can be recognised like images.
package textextract

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// Supported MIME types for text extraction
var SupportedMimeTypes = []string{
	"application/pdf",
	"application/msword",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	"application/rtf",
	"text/plain",
	"text/rtf",
}

// Config holds the text extraction configuration
type Config struct {
	// TikaServerURL is the URL of the Tika server (e.g., http://localhost:9998)
	TikaServerURL string
	// TikaJarPath is the path to tika-app.jar (for embedded mode)
	TikaJarPath string
	// JavaPath is the path to the java executable
	JavaPath string
	// Timeout is the HTTP timeout for Tika server requests
	Timeout time.Duration
}

// DefaultConfig returns the default text extraction configuration
func DefaultConfig() *Config {
	return &Config{
		TikaServerURL: "http://localhost:9998",
		JavaPath:      "java",
		Timeout:       30 * time.Second,
	}
}

// Client provides text extraction functionality
type Client struct {
	config     *Config
	httpClient *http.Client
}

// NewClient creates a new text extraction client
func NewClient(config *Config) *Client {
	if config == nil {
		config = DefaultConfig()
	}
	return &Client{
		config:     config,
		httpClient: &http.Client{Timeout: config.Timeout},
	}
}

// ExtractText extracts plain text from a document.
// The Tika server is tried first; tika-app.jar is the fallback when configured.
func (c *Client) ExtractText(ctx context.Context, data []byte, contentType string) (string, error) {
	if !c.IsSupported(contentType) {
		return "", errors.Errorf("unsupported content type: %s", contentType)
	}

	if strings.HasPrefix(strings.ToLower(contentType), "text/plain") {
		return strings.TrimSpace(string(data)), nil
	}

	if c.config.TikaServerURL != "" {
		text, err := c.extractFromServer(ctx, data, contentType)
		if err == nil {
			return text, nil
		}
		if c.config.TikaJarPath == "" {
			return "", err
		}
		slog.Warn("Tika server request failed, trying embedded", "error", err)
	}

	if c.config.TikaJarPath != "" {
		return c.extractEmbedded(ctx, data)
	}
	return "", errors.New("no Tika server or jar available")
}

func (c *Client) extractFromServer(ctx context.Context, data []byte, contentType string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, c.config.TikaServerURL+"/tika", bytes.NewReader(data))
	if err != nil {
		return "", errors.Wrap(err, "failed to create request")
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "text/plain")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", errors.Wrap(err, "tika server request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", errors.Errorf("tika server returned status %d: %s", resp.StatusCode, string(body))
	}

	text, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", errors.Wrap(err, "failed to read response")
	}
	return strings.TrimSpace(string(text)), nil
}

// extractEmbedded extracts text using embedded Tika (java -jar tika-app.jar)
func (c *Client) extractEmbedded(ctx context.Context, data []byte) (string, error) {
	inputFile, err := os.CreateTemp("", "tika_input_*")
	if err != nil {
		return "", errors.Wrap(err, "failed to create temp input file")
	}
	defer func() {
		inputFile.Close()
		os.Remove(inputFile.Name())
	}()

	if _, err := inputFile.Write(data); err != nil {
		return "", errors.Wrap(err, "failed to write input file")
	}

	cmd := exec.CommandContext(ctx, c.config.JavaPath, "-jar", c.config.TikaJarPath, "-t", inputFile.Name())
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		slog.Warn("Tika embedded failed", "error", err, "stderr", stderr.String())
		return "", errors.Wrap(err, "tika-app.jar failed")
	}
	return strings.TrimSpace(stdout.String()), nil
}

// IsAvailable checks if the Tika server answers.
func (c *Client) IsAvailable(ctx context.Context) bool {
	if c.config.TikaServerURL == "" {
		return false
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.TikaServerURL+"/tika", nil)
	if err != nil {
		return false
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// IsSupported checks if a MIME type is supported
func (c *Client) IsSupported(contentType string) bool {
	ct := strings.ToLower(strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0]))
	for _, supported := range SupportedMimeTypes {
		if ct == supported {
			return true
		}
	}
	return false
}
