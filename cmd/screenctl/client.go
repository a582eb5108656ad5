package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Screenings fan out to several sources and may run an LLM pass.
const defaultTimeout = 90 * time.Second

type clientOptions struct {
	addr    string
	apiKey  string
	timeout time.Duration
}

type apiError struct {
	Status  int
	Message string
}

func (e *apiError) Error() string {
	return fmt.Sprintf("api returned %d: %s", e.Status, e.Message)
}

// post sends body as JSON and writes the indented response to out.
func post(ctx context.Context, opts *clientOptions, path string, body any, out io.Writer) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}
	return call(ctx, opts, http.MethodPost, path, bytes.NewReader(payload), out)
}

func get(ctx context.Context, opts *clientOptions, path string, out io.Writer) error {
	return call(ctx, opts, http.MethodGet, path, http.NoBody, out)
}

func call(ctx context.Context, opts *clientOptions, method, path string, body io.Reader, out io.Writer) error {
	ctx, cancel := context.WithTimeout(ctx, opts.timeout)
	defer cancel()

	url := strings.TrimRight(opts.addr, "/") + path
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if method == http.MethodPost {
		req.Header.Set("Content-Type", "application/json")
	}
	if opts.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+opts.apiKey)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("call %s: %w", path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var e struct {
			Error string `json:"error"`
		}
		msg := strings.TrimSpace(string(raw))
		if json.Unmarshal(raw, &e) == nil && e.Error != "" {
			msg = e.Error
		}
		return &apiError{Status: resp.StatusCode, Message: msg}
	}

	var pretty bytes.Buffer
	if err := json.Indent(&pretty, raw, "", "  "); err != nil {
		_, err = out.Write(raw)
		return err //nolint:wrapcheck // plain passthrough
	}
	pretty.WriteByte('\n')
	_, err = pretty.WriteTo(out)
	return err //nolint:wrapcheck // plain passthrough
}
