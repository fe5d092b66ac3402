package jsonrpc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/uber-go/tally/v4"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"golang.org/x/xerrors"

	"github.com/coinbase/chaingov/internal/utils/finalizer"
	"github.com/coinbase/chaingov/internal/utils/fxparams"
	"github.com/coinbase/chaingov/internal/utils/instrument"
	"github.com/coinbase/chaingov/internal/utils/log"
	"github.com/coinbase/chaingov/internal/utils/ratelimiter"
	"github.com/coinbase/chaingov/internal/utils/retry"
)

//go:generate mockgen -destination=mocks/mocks.go -package=jsonrpcmocks github.com/coinbase/chaingov/internal/blockchain/jsonrpc Client,HTTPClient

type (
	Client interface {
		Call(ctx context.Context, method *RequestMethod, params Params, opts ...Option) (*Response, error)
	}

	HTTPClient interface {
		Do(req *http.Request) (*http.Response, error)
	}

	ClientParams struct {
		fx.In
		fxparams.Params
		HTTPClient HTTPClient `optional:"true"` // Injected by unit test.
	}

	Request struct {
		JSONRPC string `json:"jsonrpc"`
		Method  string `json:"method"`
		Params  any    `json:"params,omitempty"`
		ID      uint   `json:"id"`
	}

	Response struct {
		JSONRPC string          `json:"jsonrpc"`
		Result  json.RawMessage `json:"result,omitempty"`
		Error   *RPCError       `json:"error,omitempty"`
		ID      uint            `json:"id"`
	}

	RPCError struct {
		Code    int             `json:"code"`
		Message string          `json:"message"`
		Data    json.RawMessage `json:"data"`
	}

	HTTPError struct {
		Code     int
		Response string
	}

	RequestMethod struct {
		Name    string
		Timeout time.Duration
	}

	Params []any

	Option func(opts *options)

	options struct {
		allowsRPCError bool
	}

	clientImpl struct {
		logger       *zap.Logger
		metrics      tally.Scope
		httpClient   HTTPClient
		retry        *retry.Policy
		rateLimiter  *ratelimiter.RateLimiter
		endpoint     *url.URL
		endpointName string
	}
)

const (
	jsonrpcVersion = "2.0"

	instrumentName = "jsonrpc.request"
)

func New(params ClientParams) (Client, error) {
	logger := log.WithPackage(params.Logger)
	cfg := params.Config.Chain.Client

	endpoint, err := url.Parse(cfg.Endpoint)
	if err != nil {
		return nil, xerrors.Errorf("failed to parse endpoint: %w", err)
	}

	httpClient := params.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.HttpTimeout}
	}

	maxAttempts := cfg.Retry.MaxAttempts
	if maxAttempts == 0 {
		maxAttempts = retry.DefaultMaxAttempts
	}

	return &clientImpl{
		logger:      logger,
		metrics:     params.Metrics.SubScope("jsonrpc"),
		httpClient:  httpClient,
		retry:       retry.New(retry.WithLogger(logger), retry.WithMaxAttempts(maxAttempts)),
		rateLimiter: ratelimiter.New(cfg.RPS),
		endpoint:    endpoint,
		// The host is logged and tagged in place of the url, which may embed an API key.
		endpointName: endpoint.Hostname(),
	}, nil
}

// WithAllowsRPCError returns the response instead of an error when the node replies with an rpc error.
func WithAllowsRPCError() Option {
	return func(opts *options) {
		opts.allowsRPCError = true
	}
}

func (c *clientImpl) Call(ctx context.Context, method *RequestMethod, params Params, opts ...Option) (*Response, error) {
	var options options
	for _, opt := range opts {
		opt(&options)
	}

	request := &Request{
		JSONRPC: jsonrpcVersion,
		Method:  method.Name,
		Params:  params,
		ID:      0,
	}

	response := new(Response)
	if err := c.wrap(ctx, method.Name, params, func(ctx context.Context) error {
		if err := c.rateLimiter.Wait(ctx); err != nil {
			return err
		}

		response = new(Response)
		if err := c.makeHTTPRequest(ctx, method.Timeout, request, response); err != nil {
			return xerrors.Errorf("failed to make http request (method=%v, params=%v, endpoint=%v): %w", method.Name, params, c.endpointName, err)
		}

		return nil
	}); err != nil && response.Error == nil {
		return nil, err
	}

	if response.Error != nil && !options.allowsRPCError {
		return nil, xerrors.Errorf("received rpc error (method=%v, params=%v, endpoint=%v): %w", method.Name, params, c.endpointName, response.Error)
	}

	return response, nil
}

func (c *clientImpl) makeHTTPRequest(ctx context.Context, timeout time.Duration, data any, out any) error {
	requestBody, err := json.Marshal(data)
	if err != nil {
		return xerrors.Errorf("failed to marshal request: %w", err)
	}

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint.String(), bytes.NewReader(requestBody))
	if err != nil {
		return xerrors.Errorf("failed to create request: %w", sanitizedError(err))
	}

	request.Header.Set("Content-Type", "application/json")
	request.Header.Set("Accept", "application/json")

	if user := c.endpoint.User; user != nil {
		if password, ok := user.Password(); ok {
			request.SetBasicAuth(user.Username(), password)
		}
	}

	response, err := c.httpClient.Do(request)
	if err != nil {
		return retry.Retryable(xerrors.Errorf("failed to send http request: %w", sanitizedError(err)))
	}

	finalizer := finalizer.WithCloser(response.Body)
	defer finalizer.Finalize()

	responseBody, err := io.ReadAll(response.Body)
	if err != nil {
		return retry.Retryable(xerrors.Errorf("failed to read http response: %w", err))
	}

	if response.StatusCode != http.StatusOK {
		errHTTP := xerrors.Errorf("received http error: %w", &HTTPError{
			Code:     response.StatusCode,
			Response: string(responseBody),
		})

		// Preserve the rpc error, if any, so that Call surfaces RPCError instead of HTTPError.
		_ = json.Unmarshal(responseBody, out)

		if response.StatusCode == http.StatusTooManyRequests {
			return retry.RateLimit(errHTTP)
		}

		if response.StatusCode >= http.StatusInternalServerError {
			return retry.Retryable(errHTTP)
		}

		return errHTTP
	}

	if err := json.Unmarshal(responseBody, out); err != nil {
		return retry.Retryable(xerrors.Errorf("failed to decode response %v: %w", string(responseBody), err))
	}

	return finalizer.Close()
}

// wrap wraps the operation with metrics, logging, and retry.
func (c *clientImpl) wrap(ctx context.Context, method string, params Params, operation instrument.OperationFn) error {
	tags := map[string]string{
		"method":   method,
		"endpoint": c.endpointName,
	}
	logger := c.logger.With(
		zap.String("method", method),
		zap.String("endpoint", c.endpointName),
		zap.Reflect("params", params),
	)
	return instrument.New(
		c.metrics.Tagged(tags),
		"request",
		instrument.WithTracer(instrumentName, tags),
		instrument.WithLogger(logger, instrumentName),
		instrument.WithRetry(c.retry),
	).Instrument(ctx, operation)
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("RPCError %v: %v", e.Code, e.Message)
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTPError %v: %v", e.Code, e.Response)
}

func (r *Response) Unmarshal(out any) error {
	return json.Unmarshal(r.Result, out)
}

func IsNullOrEmpty(r json.RawMessage) bool {
	trimmed := bytes.TrimSpace(r)
	return len(trimmed) == 0 ||
		bytes.Equal(trimmed, []byte("{}")) ||
		bytes.Equal(trimmed, []byte("null"))
}

// sanitizedError drops the url from url.Error since it may contain an API key.
func sanitizedError(err error) error {
	var uerr *url.Error
	if xerrors.As(err, &uerr) {
		return uerr.Err
	}
	return err
}
