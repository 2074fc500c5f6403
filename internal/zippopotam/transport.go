package zippopotam

import (
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httputil"
	"strings"
	"time"
)

// headerTransport sets fixed headers on every outgoing request.
type headerTransport struct {
	next    http.RoundTripper
	headers map[string]string
}

func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	for k, v := range t.headers {
		if v != "" {
			req.Header.Set(k, v)
		}
	}
	return t.next.RoundTrip(req)
}

// traceTransport logs request and response dumps at debug level.
type traceTransport struct {
	next     http.RoundTripper
	logger   *slog.Logger
	dumpBody bool
}

func (t *traceTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if dump, err := httputil.DumpRequestOut(req, false); err == nil {
		t.logger.Debug("lookup request", "dump", abbreviate(string(dump), '>'))
	}

	start := time.Now()
	resp, err := t.next.RoundTrip(req)
	if err != nil {
		t.logger.Debug("lookup transport error", "error", err, "duration", time.Since(start))
		return nil, err
	}

	dump, err := httputil.DumpResponse(resp, t.dumpBody)
	if err != nil {
		_ = resp.Body.Close()
		return nil, fmt.Errorf("tracing lookup response: %w", err)
	}
	t.logger.Debug("lookup response",
		"status", resp.StatusCode,
		"duration", time.Since(start),
		"dump", abbreviate(string(dump), '<'),
	)

	return resp, nil
}

// abbreviate prefixes each dump line and trims long dumps.
func abbreviate(dump string, prefix rune) string {
	const maxLines, maxChars = 64, 256

	lines := strings.Split(strings.TrimRight(dump, "\r\n"), "\n")
	truncated := len(lines) > maxLines
	if truncated {
		lines = lines[:maxLines]
	}

	for i, line := range lines {
		line = strings.TrimRight(line, "\r")
		if len(line) > maxChars {
			line = line[:maxChars] + "…"
		}
		lines[i] = fmt.Sprintf("%c %s", prefix, line)
	}
	if truncated {
		lines = append(lines, "…")
	}

	return strings.Join(lines, "\n")
}
