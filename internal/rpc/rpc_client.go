package rpc

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"

	"nudeploy/internal/logger"
)

type httpClient struct {
	config    *HTTPConfig
	client    *http.Client
	transport *http.Transport
}

/**
 * Create new HTTP client
 * @param {*HTTPConfig} config - Client configuration, nil for the default server
 * @returns {HTTPClient} HTTP client interface
 * @description
 * - The transport dials config.Network/config.Address whatever the URL host is,
 *   so one BaseURL serves both unix socket and TCP servers
 * @example
 * client := NewHTTPClient(ConfigFromServer(config.App().Server))
 * defer client.Close()
 */
func NewHTTPClient(config *HTTPConfig) HTTPClient {
	if config == nil {
		config = &HTTPConfig{Network: "tcp", Address: "127.0.0.1:8089", BaseURL: "http://localhost"}
	}
	c := &httpClient{config: config}

	var dialer net.Dialer
	c.transport = &http.Transport{
		DialContext: func(ctx context.Context, _, _ string) (net.Conn, error) {
			return dialer.DialContext(ctx, config.Network, config.Address)
		},
	}
	c.client = &http.Client{
		Transport: c.transport,
		Timeout:   config.Timeout,
	}
	return c
}

func (c *httpClient) Get(path string, params map[string]interface{}) (*HTTPResponse, error) {
	return c.do(http.MethodGet, path, params, nil)
}

/**
 * Send POST request with a JSON body
 * @param {string} path - API endpoint path
 * @param {interface{}} data - Request body, nil for none
 * @returns {*HTTPResponse} Response with status and body
 * @throws
 * - Serialization and connection errors; HTTP error statuses are not errors
 */
func (c *httpClient) Post(path string, data interface{}) (*HTTPResponse, error) {
	body, err := serializeData(data)
	if err != nil {
		return nil, err
	}
	return c.do(http.MethodPost, path, nil, body)
}

func (c *httpClient) Delete(path string, params map[string]interface{}) (*HTTPResponse, error) {
	return c.do(http.MethodDelete, path, params, nil)
}

func (c *httpClient) do(method, path string, params map[string]interface{}, body io.Reader) (*HTTPResponse, error) {
	url, err := buildURL(c.config.BaseURL, path, params)
	if err != nil {
		return nil, fmt.Errorf("failed to build URL: %w", err)
	}
	logger.Debugf("Sending %s request to %s via %s://%s", method, url, c.config.Network, c.config.Address)

	req, err := http.NewRequest(method, url, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request to %s://%s failed: %w", c.config.Network, c.config.Address, err)
	}
	return deserializeResponse(resp)
}

// Close releases idle connections
func (c *httpClient) Close() error {
	c.client.CloseIdleConnections()
	return nil
}
