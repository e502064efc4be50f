package utils

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"
)

var httpClient = &http.Client{Timeout: 5 * time.Minute}

// RequestOption adjusts an outgoing request
type RequestOption func(req *http.Request)

// WithBearerToken sends token in the Authorization header; an empty token
// sends nothing.
func WithBearerToken(token string) RequestOption {
	return func(req *http.Request) {
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}
}

func newGetRequest(ctx context.Context, urlStr string, params map[string]string, opts []RequestOption) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, urlStr, nil)
	if err != nil {
		return nil, err
	}
	for _, opt := range opts {
		opt(req)
	}
	if len(params) > 0 {
		vals := req.URL.Query()
		for k, v := range params {
			vals.Set(k, v)
		}
		req.URL.RawQuery = vals.Encode()
	}
	return req, nil
}

/**
 *	Fetch the content of a remote file
 */
func GetBytes(ctx context.Context, urlStr string, params map[string]string, opts ...RequestOption) ([]byte, error) {
	req, err := newGetRequest(ctx, urlStr, params, opts)
	if err != nil {
		return nil, fmt.Errorf("GetBytes: %v", err)
	}
	rsp, err := httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("GetBytes: %v", err)
	}
	defer rsp.Body.Close()
	if rsp.StatusCode != http.StatusOK {
		rspBody, _ := io.ReadAll(io.LimitReader(rsp.Body, 4096))
		return nil, fmt.Errorf("GetBytes('%s') code:%d, error:%s",
			req.URL.String(), rsp.StatusCode, string(rspBody))
	}
	return io.ReadAll(rsp.Body)
}

/**
 *	Download a remote file to savePath
 * @description
 * - Writes to "<savePath>.part" and renames on success
 */
func GetFile(ctx context.Context, urlStr string, params map[string]string, savePath string, opts ...RequestOption) error {
	req, err := newGetRequest(ctx, urlStr, params, opts)
	if err != nil {
		return fmt.Errorf("GetFile('%s') failed: %v", urlStr, err)
	}
	rsp, err := httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("GetFile('%s') failed: %v", urlStr, err)
	}
	defer rsp.Body.Close()
	if rsp.StatusCode != http.StatusOK {
		rspBody, _ := io.ReadAll(io.LimitReader(rsp.Body, 4096))
		return fmt.Errorf("GetFile('%s') code: %d, error:%s",
			req.URL.String(), rsp.StatusCode, string(rspBody))
	}

	if err = os.MkdirAll(filepath.Dir(savePath), 0755); err != nil {
		return fmt.Errorf("GetFile('%s'): MkdirAll('%s') error:%v", urlStr, savePath, err)
	}
	partPath := savePath + ".part"
	out, err := os.Create(partPath)
	if err != nil {
		return fmt.Errorf("GetFile('%s'): create('%s') error: %v", urlStr, partPath, err)
	}
	if _, err = io.Copy(out, rsp.Body); err != nil {
		out.Close()
		os.Remove(partPath)
		return fmt.Errorf("GetFile('%s'): copy error: %v", urlStr, err)
	}
	if err = out.Close(); err != nil {
		os.Remove(partPath)
		return fmt.Errorf("GetFile('%s'): close error: %v", urlStr, err)
	}
	return os.Rename(partPath, savePath)
}

// ResolveURL resolves ref against base; absolute refs are returned unchanged
func ResolveURL(base, ref string) (string, error) {
	b, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	r, err := url.Parse(ref)
	if err != nil {
		return "", err
	}
	if b.Path != "" && b.Path[len(b.Path)-1] != '/' {
		b.Path += "/"
	}
	return b.ResolveReference(r).String(), nil
}

// CalcFileSha256 returns the hex sha256 of a file
func CalcFileSha256(fname string) (string, error) {
	f, err := os.Open(fname)
	if err != nil {
		return "", err
	}
	defer f.Close()
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
