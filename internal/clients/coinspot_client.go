package clients

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/vadiminshakov/coinfolio/pkg/retrier"
)

const (
	defaultCoinSpotTimeout = 30 * time.Second
	defaultMinInterval     = time.Second
	defaultPaceMargin      = 10 * time.Millisecond
	defaultPublicRetries   = 2
	defaultPublicRetryWait = 500 * time.Millisecond
)

// Credential CoinSpot API key pair. Its String method never prints either half.
type Credential struct {
	Key    string `json:"-" yaml:"-"`
	Secret []byte `json:"-" yaml:"-"`
}

func (c Credential) String() string {
	return "Credential{redacted}"
}

// CoinSpotConfig holds everything NewCoinSpotClient needs.
type CoinSpotConfig struct {
	BaseURL    string
	Credential Credential
	// Timeout bounds one HTTP round trip.
	Timeout time.Duration
	// MinInterval is the floor between two private calls.
	MinInterval time.Duration
	// PaceMargin is added to the remaining wait when pacing kicks in.
	PaceMargin time.Duration
	// PublicRetries for PublicCall; negative disables retries.
	PublicRetries   int
	PublicRetryWait time.Duration
}

// SignedRequest the exact bytes sent to a private endpoint and their signature.
type SignedRequest struct {
	Endpoint  string
	Body      []byte
	Signature string
}

// CoinSpotClient talks to the CoinSpot REST API. Private calls are signed,
// carry a strictly increasing nonce and are paced; a client may be shared
// between goroutines.
type CoinSpotClient struct {
	baseURL     string
	cred        Credential
	httpClient  *http.Client
	retrier     *retrier.Retrier
	logger      *zap.Logger
	minInterval time.Duration
	paceMargin  time.Duration
	now         func() time.Time

	mu        sync.Mutex
	lastCall  time.Time
	lastNonce int64
}

// NewCoinSpotClient creates a client for the given site.
func NewCoinSpotClient(cfg CoinSpotConfig, logger *zap.Logger) (*CoinSpotClient, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("coinspot base url is empty")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultCoinSpotTimeout
	}
	if cfg.MinInterval <= 0 {
		cfg.MinInterval = defaultMinInterval
	}
	if cfg.PaceMargin < 0 {
		cfg.PaceMargin = 0
	} else if cfg.PaceMargin == 0 {
		cfg.PaceMargin = defaultPaceMargin
	}
	switch {
	case cfg.PublicRetries < 0:
		cfg.PublicRetries = 0
	case cfg.PublicRetries == 0:
		cfg.PublicRetries = defaultPublicRetries
	}
	if cfg.PublicRetryWait <= 0 {
		cfg.PublicRetryWait = defaultPublicRetryWait
	}

	return &CoinSpotClient{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		cred:    cfg.Credential,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				Proxy:             http.ProxyFromEnvironment,
				DisableKeepAlives: true,
			},
		},
		retrier: retrier.New(
			retrier.WithMaxRetries(cfg.PublicRetries),
			retrier.WithInitialInterval(cfg.PublicRetryWait),
			retrier.WithRetryIf(transient),
		),
		logger:      logger,
		minInterval: cfg.MinInterval,
		paceMargin:  cfg.PaceMargin,
		now:         time.Now,
	}, nil
}

// Call sends a signed POST to a private endpoint and returns the response body.
// jsonBody must be a JSON object; the nonce is spliced in as its first field.
// Every failure is an *APIError.
func (c *CoinSpotClient) Call(ctx context.Context, endpoint, jsonBody string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	defer func() { c.lastCall = c.now() }()

	if err := c.pace(ctx); err != nil {
		return "", newAPIError(KindCanceled, endpoint, err)
	}

	signed := c.sign(endpoint, SpliceNonce(jsonBody, c.nextNonce()))

	requestID := uuid.NewString()
	c.logger.Debug("coinspot private call",
		zap.String("request_id", requestID),
		zap.String("endpoint", endpoint),
		zap.Int("body_bytes", len(signed.Body)))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, bytes.NewReader(signed.Body))
	if err != nil {
		return "", newAPIError(KindRequest, endpoint, err)
	}
	req.Close = true
	req.Header.Set("key", c.cred.Key)
	req.Header.Set("sign", signed.Signature)
	req.Header.Set("Content-Type", "application/json")

	body, err := c.do(ctx, req, endpoint)
	if err != nil {
		c.logger.Warn("coinspot private call failed",
			zap.String("request_id", requestID),
			zap.String("endpoint", endpoint),
			zap.Error(err))
		return "", err
	}

	return body, nil
}

// PublicCall performs an unauthenticated GET. It is neither signed nor paced,
// and is retried on transport and server errors.
func (c *CoinSpotClient) PublicCall(ctx context.Context, endpoint string) (string, error) {
	body, err := retrier.DoWithData(c.retrier, ctx, func(ctx context.Context) (string, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+endpoint, nil)
		if err != nil {
			return "", newAPIError(KindRequest, endpoint, err)
		}
		return c.do(ctx, req, endpoint)
	})
	if err != nil {
		var apiErr *APIError
		if !errors.As(err, &apiErr) {
			// retrier gave up on context cancellation between attempts
			err = newAPIError(KindCanceled, endpoint, err)
		}
		c.logger.Warn("coinspot public call failed", zap.String("endpoint", endpoint), zap.Error(err))
		return "", err
	}

	return body, nil
}

// transient reports whether a public call failure may go away on retry:
// transport and read failures, and 5xx answers.
func transient(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	switch apiErr.Kind {
	case KindTransport, KindRead:
		return true
	case KindStatus:
		return apiErr.StatusCode >= http.StatusInternalServerError
	default:
		return false
	}
}

func (c *CoinSpotClient) do(ctx context.Context, req *http.Request, endpoint string) (string, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		kind := KindTransport
		if ctx.Err() != nil {
			kind = KindCanceled
		}
		return "", newAPIError(kind, endpoint, err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", newAPIError(KindRead, endpoint, err)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return "", &APIError{
			Kind:       KindStatus,
			Endpoint:   endpoint,
			StatusCode: resp.StatusCode,
			Body:       string(payload),
		}
	}

	return string(payload), nil
}

// pace blocks until MinInterval has passed since the previous call completed.
func (c *CoinSpotClient) pace(ctx context.Context) error {
	if c.lastCall.IsZero() {
		return nil
	}

	elapsed := c.now().Sub(c.lastCall)
	if elapsed >= c.minInterval {
		return nil
	}

	wait := c.minInterval - elapsed + c.paceMargin
	c.logger.Debug("pacing coinspot call", zap.Duration("wait", wait))

	timer := time.NewTimer(wait)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// nextNonce returns unix seconds, bumped past the previous nonce if the clock
// has not moved on.
func (c *CoinSpotClient) nextNonce() int64 {
	nonce := c.now().Unix()
	if nonce <= c.lastNonce {
		nonce = c.lastNonce + 1
	}
	c.lastNonce = nonce
	return nonce
}

func (c *CoinSpotClient) sign(endpoint, body string) SignedRequest {
	payload := []byte(body)
	return SignedRequest{
		Endpoint:  endpoint,
		Body:      payload,
		Signature: Sign(c.cred.Secret, payload),
	}
}

// Sign returns the lower-case hex HMAC-SHA512 of body keyed by secret.
func Sign(secret, body []byte) string {
	mac := hmac.New(sha512.New, secret)
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// SpliceNonce compacts a JSON object and inserts "nonce":<nonce> as its first
// field. The body is never re-encoded, so the caller's field order survives.
func SpliceNonce(jsonBody string, nonce int64) string {
	body := compact(jsonBody)
	if body == "" {
		body = "{}"
	}

	field := `"nonce":` + strconv.FormatInt(nonce, 10)
	if body != "{}" {
		field += ","
	}

	return body[:1] + field + body[1:]
}

func compact(jsonBody string) string {
	var buf bytes.Buffer
	if err := json.Compact(&buf, []byte(jsonBody)); err != nil {
		return strings.TrimSpace(jsonBody)
	}
	return buf.String()
}
