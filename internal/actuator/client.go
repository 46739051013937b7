package actuator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"time"

	"github.com/avast/retry-go"
	"go.uber.org/zap"

	"github.com/eugenenazirov/config-console/internal/future"
)

const (
	DefaultBeansPath = "configprops"
	DefaultEnvPath   = "env"

	defaultTimeout    = 10 * time.Second
	defaultAttempts   = 3
	defaultRetryDelay = 200 * time.Millisecond
	maxBodyBytes      = 16 << 20
)

// Client reads beans and property sources from a Spring Boot management endpoint.
type Client struct {
	baseURL    *url.URL
	beansPath  string
	envPath    string
	token      string
	httpClient *http.Client
	timeout    time.Duration
	attempts   uint
	retryDelay time.Duration
	logger     *zap.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		if httpClient != nil {
			c.httpClient = httpClient
		}
	}
}

// WithBearerToken sends the token in the Authorization header of every request.
func WithBearerToken(token string) ClientOption {
	return func(c *Client) {
		c.token = token
	}
}

// WithTimeout bounds every single attempt.
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		if timeout > 0 {
			c.timeout = timeout
		}
	}
}

// WithRetry sets how many attempts are made and the pause between them.
func WithRetry(attempts uint, delay time.Duration) ClientOption {
	return func(c *Client) {
		if attempts > 0 {
			c.attempts = attempts
		}
		if delay >= 0 {
			c.retryDelay = delay
		}
	}
}

// WithPaths overrides the endpoint paths, relative to the base URL.
func WithPaths(beansPath, envPath string) ClientOption {
	return func(c *Client) {
		if beansPath != "" {
			c.beansPath = beansPath
		}
		if envPath != "" {
			c.envPath = envPath
		}
	}
}

// WithLogger sets the logger used for fetch diagnostics.
func WithLogger(logger *zap.Logger) ClientOption {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewClient creates a Client for the management base URL, e.g. http://localhost:8080/management.
func NewClient(baseURL string, opts ...ClientOption) (*Client, error) {
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse management url: %w", err)
	}
	if (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return nil, fmt.Errorf("management url must be an absolute http(s) url, got %q", baseURL)
	}

	c := &Client{
		baseURL:    parsed,
		beansPath:  DefaultBeansPath,
		envPath:    DefaultEnvPath,
		httpClient: http.DefaultClient,
		timeout:    defaultTimeout,
		attempts:   defaultAttempts,
		retryDelay: defaultRetryDelay,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// GetBeans starts fetching the configuration-properties beans.
func (c *Client) GetBeans(ctx context.Context) *future.Future[[]Bean] {
	return future.Go(func() ([]Bean, error) {
		return c.FetchBeans(ctx)
	})
}

// GetPropertySources starts fetching the environment property sources.
func (c *Client) GetPropertySources(ctx context.Context) *future.Future[[]PropertySource] {
	return future.Go(func() ([]PropertySource, error) {
		return c.FetchPropertySources(ctx)
	})
}

// FetchBeans reads the configprops endpoint and merges the beans of every
// application context. Contexts are applied in name order, so a bean defined
// in several contexts keeps the value of the last one. The result is sorted
// by bean name.
func (c *Client) FetchBeans(ctx context.Context) ([]Bean, error) {
	var resp configPropsResponse
	if err := c.getAndParse(ctx, c.beansPath, &resp); err != nil {
		return nil, fmt.Errorf("%w: beans: %w", ErrFetchFailed, err)
	}

	contextNames := make([]string, 0, len(resp.Contexts))
	for name := range resp.Contexts {
		contextNames = append(contextNames, name)
	}
	sort.Strings(contextNames)

	merged := make(map[string]Bean)
	for _, name := range contextNames {
		for beanName, bean := range resp.Contexts[name].Beans {
			merged[beanName] = bean
		}
	}

	beanNames := make([]string, 0, len(merged))
	for name := range merged {
		beanNames = append(beanNames, name)
	}
	sort.Strings(beanNames)

	beans := make([]Bean, 0, len(beanNames))
	for _, name := range beanNames {
		beans = append(beans, merged[name])
	}
	c.logger.Debug("fetched beans", zap.Int("contexts", len(contextNames)), zap.Int("beans", len(beans)))
	return beans, nil
}

// FetchPropertySources reads the env endpoint. Sources keep the order in
// which the endpoint reports them, which is their precedence order.
func (c *Client) FetchPropertySources(ctx context.Context) ([]PropertySource, error) {
	var resp envResponse
	if err := c.getAndParse(ctx, c.envPath, &resp); err != nil {
		return nil, fmt.Errorf("%w: property sources: %w", ErrFetchFailed, err)
	}
	sources := resp.PropertySources
	if sources == nil {
		sources = []PropertySource{}
	}
	c.logger.Debug("fetched property sources",
		zap.Strings("active_profiles", resp.ActiveProfiles),
		zap.Int("sources", len(sources)),
	)
	return sources, nil
}

func (c *Client) getAndParse(ctx context.Context, path string, out any) error {
	endpoint := c.baseURL.JoinPath(path).String()

	err := retry.Do(
		func() error {
			return c.get(ctx, endpoint, out)
		},
		retry.Attempts(c.attempts),
		retry.Delay(c.retryDelay),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
		retry.Context(ctx),
		retry.RetryIf(isRetryable),
		retry.OnRetry(func(n uint, err error) {
			// retry-go also calls this after the final attempt and for errors RetryIf rejects.
			if n+1 >= c.attempts || !isRetryable(err) {
				return
			}
			c.logger.Warn("management request failed, retrying",
				zap.String("endpoint", endpoint),
				zap.Uint("attempt", n+1),
				zap.Uint("attempts", c.attempts),
				zap.Error(err),
			)
		}),
	)
	return err
}

func (c *Client) get(ctx context.Context, endpoint string, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		return &StatusError{Endpoint: endpoint, StatusCode: resp.StatusCode}
	}

	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(out); err != nil {
		return fmt.Errorf("%w: %w", ErrDecode, err)
	}
	return nil
}

func isRetryable(err error) bool {
	if errors.Is(err, ErrDecode) || errors.Is(err, context.Canceled) {
		return false
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Temporary()
	}
	return true
}
