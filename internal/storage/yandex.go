package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/m3rciful/billbot/core/logger"
	"github.com/m3rciful/billbot/core/netutil"
)

// Yandex talks to the Yandex Disk REST API.
type Yandex struct {
	baseURL string
	token   string
	http    *http.Client
}

// YandexOptions configures NewYandex.
type YandexOptions struct {
	BaseURL string
	Token   string
	Timeout time.Duration
	// HTTPClient overrides the default client, mostly for tests.
	HTTPClient *http.Client
}

// NewYandex constructs a Yandex Disk client. Storage calls are never retried.
func NewYandex(opts YandexOptions) *Yandex {
	hc := opts.HTTPClient
	if hc == nil {
		hc = netutil.BuildHTTPClient(netutil.ClientOptions{Timeout: opts.Timeout})
	}
	return &Yandex{
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		token:   opts.Token,
		http:    hc,
	}
}

func (y *Yandex) Name() string { return "yandex" }

// EnsureFolder issues one create call per prefix. 201 and 409 both count as present.
func (y *Yandex) EnsureFolder(ctx context.Context, path string) error {
	return ensureEach(ctx, diskPath(path), func(ctx context.Context, prefix string) error {
		resp, err := y.do(ctx, http.MethodPut, "", url.Values{"path": {prefix}}, nil)
		if err != nil {
			return fmt.Errorf("create folder %s: %w", prefix, err)
		}
		defer drain(resp)
		switch resp.StatusCode {
		case http.StatusCreated, http.StatusOK, http.StatusConflict:
			return nil
		default:
			return fmt.Errorf("create folder %s: %w", prefix, apiError(resp))
		}
	})
}

// Exists probes the resource metadata. Anything but 200 reads as absent.
func (y *Yandex) Exists(ctx context.Context, path string) bool {
	resp, err := y.do(ctx, http.MethodGet, "", url.Values{"path": {diskPath(path)}, "fields": {"path"}}, nil)
	if err != nil {
		logger.Warn(ctx, "storage", "storage.exists",
			slog.String("status", "fail"),
			slog.String("backend", y.Name()),
			slog.String("path", path),
			logger.Err(err),
		)
		return false
	}
	defer drain(resp)
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNotFound {
		logger.Warn(ctx, "storage", "storage.exists",
			slog.String("status", "fail"),
			slog.String("backend", y.Name()),
			slog.String("path", path),
			slog.Int("http_code", resp.StatusCode),
		)
	}
	return resp.StatusCode == http.StatusOK
}

// Upload requests an upload link and then PUTs the bytes to it.
func (y *Yandex) Upload(ctx context.Context, path string, data []byte, overwrite bool) error {
	href, err := y.uploadLink(ctx, diskPath(path), overwrite)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, href, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("upload %s: %w", path, err)
	}
	req.Header.Set("Content-Type", "application/pdf")
	resp, err := y.http.Do(req)
	if err != nil {
		return fmt.Errorf("upload %s: %w", path, err)
	}
	defer drain(resp)
	switch resp.StatusCode {
	case http.StatusCreated, http.StatusAccepted, http.StatusOK:
		return nil
	default:
		return fmt.Errorf("upload %s: %w", path, apiError(resp))
	}
}

type uploadLink struct {
	Href   string `json:"href"`
	Method string `json:"method"`
}

func (y *Yandex) uploadLink(ctx context.Context, path string, overwrite bool) (string, error) {
	q := url.Values{"path": {path}, "overwrite": {strconv.FormatBool(overwrite)}}
	resp, err := y.do(ctx, http.MethodGet, "/upload", q, nil)
	if err != nil {
		return "", fmt.Errorf("upload link %s: %w", path, err)
	}
	defer drain(resp)
	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusConflict:
		if !overwrite {
			return "", ErrAlreadyExists
		}
		return "", fmt.Errorf("upload link %s: %w", path, apiError(resp))
	default:
		return "", fmt.Errorf("upload link %s: %w", path, apiError(resp))
	}
	var link uploadLink
	if err := json.NewDecoder(resp.Body).Decode(&link); err != nil {
		return "", fmt.Errorf("upload link %s: decode: %w", path, err)
	}
	if link.Href == "" {
		return "", fmt.Errorf("upload link %s: empty href", path)
	}
	return link.Href, nil
}

// Delete removes the resource permanently. 404 counts as success.
func (y *Yandex) Delete(ctx context.Context, path string) error {
	q := url.Values{"path": {diskPath(path)}, "permanently": {"true"}}
	resp, err := y.do(ctx, http.MethodDelete, "", q, nil)
	if err != nil {
		return fmt.Errorf("delete %s: %w", path, err)
	}
	defer drain(resp)
	switch resp.StatusCode {
	case http.StatusNoContent, http.StatusAccepted, http.StatusOK, http.StatusNotFound:
		return nil
	default:
		return fmt.Errorf("delete %s: %w", path, apiError(resp))
	}
}

func (y *Yandex) do(ctx context.Context, method, suffix string, q url.Values, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, y.baseURL+suffix+"?"+q.Encode(), body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "OAuth "+y.token)
	req.Header.Set("Accept", "application/json")
	return y.http.Do(req)
}

// YandexAPIError carries the decoded error body of a failed call.
type YandexAPIError struct {
	StatusCode  int
	Code        string `json:"error"`
	Description string `json:"description"`
}

func (e *YandexAPIError) Error() string {
	if e.Description != "" {
		return fmt.Sprintf("yandex disk: %d %s: %s", e.StatusCode, e.Code, e.Description)
	}
	return fmt.Sprintf("yandex disk: HTTP %d", e.StatusCode)
}

func apiError(resp *http.Response) error {
	apiErr := &YandexAPIError{StatusCode: resp.StatusCode}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	_ = json.Unmarshal(raw, apiErr)
	return apiErr
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64*1024))
	_ = resp.Body.Close()
}

// diskPath anchors a path at the disk root the way the REST API expects.
func diskPath(p string) string {
	if strings.HasPrefix(p, "/") {
		return p
	}
	return "/" + p
}
