package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/iho/tradebook/internal/adapter/http/dto"
	"github.com/iho/tradebook/internal/adapter/http/handler"
)

// apiError is a non-2xx answer from the server.
type apiError struct {
	Status  int
	Code    string
	Message string
}

func (e *apiError) Error() string {
	switch {
	case e.Code != "" && e.Message != "":
		return fmt.Sprintf("%s (%d): %s", e.Code, e.Status, e.Message)
	case e.Code != "":
		return fmt.Sprintf("%s (%d)", e.Code, e.Status)
	default:
		return fmt.Sprintf("request failed with status %d", e.Status)
	}
}

type apiClient struct {
	baseURL string
	token   string
	http    *http.Client
}

func newClient(opts *cliOptions) *apiClient {
	return &apiClient{
		baseURL: strings.TrimRight(opts.baseURL, "/"),
		token:   opts.token,
		http:    &http.Client{Timeout: opts.timeout},
	}
}

func accountPath(id string, rest ...string) string {
	p := "/api/v1/accounts/" + url.PathEscape(id)
	for _, r := range rest {
		p += "/" + r
	}
	return p
}

func (c *apiClient) do(ctx context.Context, method, path string, body io.Reader, contentType string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	return resp, nil
}

// call sends in as JSON when non-nil and decodes a successful body into out.
func (c *apiClient) call(ctx context.Context, method, path string, in, out any) error {
	var (
		body        io.Reader
		contentType string
	)
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(payload)
		contentType = "application/json"
	}

	resp, err := c.do(ctx, method, path, body, contentType)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusMultipleChoices {
		return readAPIError(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// download copies a successful body to w.
func (c *apiClient) download(ctx context.Context, path string, w io.Writer) (int64, error) {
	resp, err := c.do(ctx, http.MethodGet, path, nil, "")
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, readAPIError(resp)
	}
	return io.Copy(w, resp.Body)
}

// upload posts a statement file. A failed import still returns the summary
// the server produced, together with the error.
func (c *apiClient) upload(ctx context.Context, accountID, file, provider string, mapping []byte) (*dto.ImportSummaryResponse, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if provider != "" {
		if err := mw.WriteField("provider", provider); err != nil {
			return nil, err
		}
	}
	if len(mapping) > 0 {
		if err := mw.WriteField("mapping", string(mapping)); err != nil {
			return nil, err
		}
	}
	part, err := mw.CreateFormFile(handler.UploadField, filepath.Base(file))
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(part, f); err != nil {
		return nil, fmt.Errorf("read %s: %w", file, err)
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	resp, err := c.do(ctx, http.MethodPost, accountPath(accountID, "imports"), &buf, mw.FormDataContentType())
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var summary dto.ImportSummaryResponse
	decoded := json.Unmarshal(body, &summary) == nil && summary.ImportID != ""

	if resp.StatusCode == http.StatusOK && decoded {
		return &summary, nil
	}
	if decoded {
		return &summary, &apiError{Status: resp.StatusCode, Code: "import_failed", Message: summary.Error}
	}
	return nil, apiErrorFrom(resp.StatusCode, body)
}

func readAPIError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	return apiErrorFrom(resp.StatusCode, body)
}

func apiErrorFrom(status int, body []byte) error {
	var e dto.ErrorResponse
	if err := json.Unmarshal(body, &e); err != nil {
		return &apiError{Status: status, Message: strings.TrimSpace(string(body))}
	}
	return &apiError{Status: status, Code: e.Error, Message: e.Message}
}
