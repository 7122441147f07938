package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/penwyp/gitpane/internal/errors"
)

// Settings 是 Client 的注入配置，对应宿主应用的服务器连接设置。
type Settings struct {
	BaseURL    string       // 服务器基础地址，例如 http://localhost:8888
	Token      string       // 服务器 token，非空时以 "Authorization: token <Token>" 发送
	HTTPClient *http.Client // 可注入自定义 http.Client，用于测试
	Logger     *zap.Logger
}

// Client 负责与 git 扩展后端交互。
// 每个操作对应一次 POST 请求，JSON 请求体，返回解析后的 JSON 结果。
//
// 注意：所有公共方法都接受 context.Context 以便调用方控制取消与超时。
//
// Example:
//
//	c := client.NewClient(client.Settings{BaseURL: "http://localhost:8888", Token: token})
//	res, err := c.Pull(ctx, "/home/jovyan/project", nil)
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient 创建 Client。未设置 HTTPClient 时不设置 Timeout，
// 完全依赖 context 控制超时和取消。
func NewClient(s Settings) *Client {
	httpClient := s.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	logger := s.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL:    s.BaseURL,
		token:      s.Token,
		httpClient: httpClient,
		logger:     logger,
	}
}

// BaseURL returns the server address the client talks to.
func (c *Client) BaseURL() string { return c.baseURL }

// post 发送请求并返回 200 响应体。
// 非 200 返回 *errors.ResponseError（保留状态码与 message），
// 传输层失败返回 *errors.NetworkError（保留原始错误）。
func (c *Client) post(ctx context.Context, endpoint string, body interface{}) ([]byte, int, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, 0, errors.Wrap(errors.ErrTypeValidation, "failed to marshal request", err)
	}

	fullURL, err := url.JoinPath(c.baseURL, endpoint)
	if err != nil {
		return nil, 0, errors.Wrap(errors.ErrTypeConfig, "invalid server base URL", err)
	}

	requestID := uuid.NewString()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, fullURL, bytes.NewReader(data))
	if err != nil {
		return nil, 0, errors.Wrap(errors.ErrTypeConfig, "failed to create request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if c.token != "" {
		req.Header.Set("Authorization", "token "+c.token)
	}

	// 请求体可能包含凭据，只记录大小
	c.logger.Debug("Git API request",
		zap.String("endpoint", endpoint),
		zap.String("request_id", requestID),
		zap.Int("body_size", len(data)))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// context 取消或超时直接返回，调用方可用 errors.Is 区分
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, 0, ctxErr
		}
		return nil, 0, &errors.NetworkError{Endpoint: endpoint, Cause: err}
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, &errors.NetworkError{Endpoint: endpoint, Cause: fmt.Errorf("failed to read response: %w", err)}
	}

	c.logger.Debug("Git API response",
		zap.String("endpoint", endpoint),
		zap.String("request_id", requestID),
		zap.Int("status_code", resp.StatusCode),
		zap.Int("response_size", len(respBody)))

	if resp.StatusCode != http.StatusOK {
		return nil, resp.StatusCode, &errors.ResponseError{
			Endpoint:   endpoint,
			StatusCode: resp.StatusCode,
			Message:    errorMessage(respBody),
		}
	}

	return respBody, resp.StatusCode, nil
}

// postJSON 发送请求并将 200 响应体解析到 out。
func (c *Client) postJSON(ctx context.Context, endpoint string, body, out interface{}) error {
	data, _, err := c.post(ctx, endpoint, body)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, out); err != nil {
		return errors.Wrap(errors.ErrTypeResponse, fmt.Sprintf("failed to parse %s response", endpoint), err)
	}
	return nil
}

// postRaw 发送请求并返回原始 200 响应。
func (c *Client) postRaw(ctx context.Context, endpoint string, body interface{}) (*RawResponse, error) {
	data, status, err := c.post(ctx, endpoint, body)
	if err != nil {
		return nil, err
	}
	return &RawResponse{StatusCode: status, Body: data}, nil
}

// errorMessage extracts the "message" field of a JSON error body and falls
// back to the trimmed body text.
func errorMessage(body []byte) string {
	var payload struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Message != "" {
		return payload.Message
	}
	return strings.TrimSpace(string(body))
}
