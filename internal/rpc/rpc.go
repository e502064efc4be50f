package rpc

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"nudeploy/internal/config"
	"nudeploy/internal/models"
)

// HTTPClient talks to a running nudeploy server
type HTTPClient interface {
	Get(path string, params map[string]interface{}) (*HTTPResponse, error)
	Post(path string, data interface{}) (*HTTPResponse, error)
	Delete(path string, params map[string]interface{}) (*HTTPResponse, error)
	Close() error
}

// HTTPConfig 定义HTTP客户端配置
type HTTPConfig struct {
	Address string        // socket path or host:port
	Network string        // unix, tcp
	Timeout time.Duration // request timeout, zero waits for pipelines to finish
	BaseURL string
}

/**
 * Client configuration for the configured server
 * @param {config.ServerConfig} cfg - Server section of the configuration
 * @returns {*HTTPConfig} Unix socket when its file exists, else the TCP address
 */
func ConfigFromServer(cfg config.ServerConfig) *HTTPConfig {
	c := &HTTPConfig{
		Address: cfg.Address,
		Network: "tcp",
		BaseURL: "http://localhost",
	}
	if cfg.Socket != "" {
		if _, err := os.Stat(cfg.Socket); err == nil {
			c.Address = cfg.Socket
			c.Network = "unix"
		}
	}
	if c.Address == "" {
		c.Address = "127.0.0.1:8089"
	}
	return c
}

// HTTPResponse 定义HTTP响应结构
type HTTPResponse struct {
	StatusCode int                 `json:"status_code"`
	Headers    map[string][]string `json:"headers"`
	Body       []byte              `json:"body"`
	Error      string              `json:"error"`
}

// Decode unmarshals the response body into v
func (r *HTTPResponse) Decode(v interface{}) error {
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("decode response (status %d): %w", r.StatusCode, err)
	}
	return nil
}

// buildURL 构建完整的URL
func buildURL(baseURL, path string, params map[string]interface{}) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid base URL: %w", err)
	}

	if u.Path == "" {
		u.Path = path
	} else {
		u.Path = strings.TrimSuffix(u.Path, "/") + "/" + strings.TrimPrefix(path, "/")
	}

	if len(params) > 0 {
		q := u.Query()
		for key, value := range params {
			switch v := value.(type) {
			case string:
				q.Set(key, v)
			case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
				q.Set(key, fmt.Sprintf("%d", v))
			case bool:
				q.Set(key, fmt.Sprintf("%t", v))
			default:
				q.Set(key, fmt.Sprintf("%v", v))
			}
		}
		u.RawQuery = q.Encode()
	}

	return u.String(), nil
}

// serializeData 序列化请求数据
func serializeData(data interface{}) (io.Reader, error) {
	if data == nil {
		return nil, nil
	}

	jsonData, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize data: %w", err)
	}

	return bytes.NewReader(jsonData), nil
}

/**
 * Read an HTTP response
 * @description
 * - Non-2xx responses carry the "error" field of models.ErrorResponse,
 *   or the status line when the body has none
 */
func deserializeResponse(resp *http.Response) (*HTTPResponse, error) {
	defer resp.Body.Close()
	httpResp := &HTTPResponse{
		StatusCode: resp.StatusCode,
		Headers:    resp.Header,
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	httpResp.Body = body
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return httpResp, nil
	}
	var errBody models.ErrorResponse
	if len(body) > 0 && json.Unmarshal(body, &errBody) == nil && errBody.Error != "" {
		httpResp.Error = errBody.Error
	} else {
		httpResp.Error = resp.Status
	}
	return httpResp, nil
}
