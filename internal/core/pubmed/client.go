package pubmed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	apperrors "github.com/lueurxax/nutrimatch/internal/core/errors"
	"github.com/lueurxax/nutrimatch/internal/platform/observability"
)

const (
	defaultBaseURL     = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils"
	defaultTimeout     = 15 * time.Second
	defaultMinInterval = 350 * time.Millisecond
	defaultTool        = "nutrimatch"
	maxFetchBodyBytes  = 16 << 20
	maxErrorBodyBytes  = 512

	searchPath = "/esearch.fcgi"
	fetchPath  = "/efetch.fcgi"

	operationSearch = "search"
	operationFetch  = "fetch"
	statusOK        = "ok"
	statusError     = "error"

	logKeyTerm      = "term"
	logKeyOperation = "operation"
	logKeyCount     = "count"
	logKeyStatus    = "status"
	logKeyDuration  = "duration"
)

// Search keywords appended to the first-stage query.
var studyTypeKeywords = []string{
	"randomized controlled trial",
	"systematic review",
	"meta-analysis",
}

// Config holds the E-utilities client settings.
type Config struct {
	BaseURL     string
	APIKey      string
	Tool        string
	Email       string
	MinInterval time.Duration
	Timeout     time.Duration
}

// Client talks to the NCBI E-utilities search and fetch endpoints. Every
// call waits on a shared pacer so consecutive calls start at least
// MinInterval apart.
type Client struct {
	baseURL    string
	apiKey     string
	tool       string
	email      string
	httpClient *http.Client
	pacer      *rate.Limiter
	logger     *zerolog.Logger
}

// New creates an E-utilities client.
func New(cfg Config, logger *zerolog.Logger) *Client {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	interval := cfg.MinInterval
	if interval <= 0 {
		interval = defaultMinInterval
	}

	tool := cfg.Tool
	if tool == "" {
		tool = defaultTool
	}

	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	return &Client{
		baseURL:    baseURL,
		apiKey:     cfg.APIKey,
		tool:       tool,
		email:      cfg.Email,
		httpClient: &http.Client{Timeout: timeout},
		pacer:      rate.NewLimiter(rate.Every(interval), 1),
		logger:     logger,
	}
}

// BuildTerm joins an ingredient and a goal into a search term. With
// studyTypes set, clinical study keywords are OR-combined onto it.
func BuildTerm(ingredient, goal string, studyTypes bool) string {
	parts := make([]string, 0, 3)

	for _, p := range []string{ingredient, goal} {
		if p = strings.Join(strings.Fields(p), " "); p != "" {
			parts = append(parts, p)
		}
	}

	if studyTypes {
		parts = append(parts, "("+strings.Join(studyTypeKeywords, " OR ")+")")
	}

	return strings.Join(parts, " ")
}

type esearchResponse struct {
	Result struct {
		Count  string   `json:"count"`
		IDList []string `json:"idlist"`
		Error  string   `json:"ERROR"`
	} `json:"esearchresult"`
}

// Search returns record identifiers for term in the index's relevance
// order. Zero matches is an empty list, not an error.
func (c *Client) Search(ctx context.Context, term string, maxResults int) ([]string, error) {
	if strings.TrimSpace(term) == "" {
		return nil, fmt.Errorf("%w: empty search term", apperrors.ErrSearchUnavailable)
	}

	params := c.baseParams()
	params.Set("term", term)
	params.Set("retmax", strconv.Itoa(maxResults))
	params.Set("retmode", "json")
	params.Set("sort", "relevance")

	body, err := c.get(ctx, operationSearch, searchPath, params)
	if err != nil {
		return nil, err
	}

	var resp esearchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: decode esearch response: %w", apperrors.ErrSearchUnavailable, err)
	}

	if resp.Result.Error != "" {
		return nil, fmt.Errorf("%w: esearch: %s", apperrors.ErrSearchUnavailable, resp.Result.Error)
	}

	ids := make([]string, 0, len(resp.Result.IDList))

	for _, id := range resp.Result.IDList {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}

	if maxResults > 0 && len(ids) > maxResults {
		ids = ids[:maxResults]
	}

	c.logger.Debug().Str(logKeyTerm, term).Int(logKeyCount, len(ids)).Msg("esearch completed")

	return ids, nil
}

// Fetch returns the raw XML metadata payload for the given identifiers.
func (c *Client) Fetch(ctx context.Context, ids []string) (string, error) {
	if len(ids) == 0 {
		return "", nil
	}

	params := c.baseParams()
	params.Set("id", strings.Join(ids, ","))
	params.Set("retmode", "xml")

	body, err := c.get(ctx, operationFetch, fetchPath, params)
	if err != nil {
		return "", err
	}

	return string(body), nil
}

func (c *Client) baseParams() url.Values {
	params := url.Values{}
	params.Set("db", "pubmed")
	params.Set("tool", c.tool)

	if c.apiKey != "" {
		params.Set("api_key", c.apiKey)
	}

	if c.email != "" {
		params.Set("email", c.email)
	}

	return params
}

func (c *Client) get(ctx context.Context, operation, path string, params url.Values) ([]byte, error) {
	if err := c.pacer.Wait(ctx); err != nil {
		return nil, fmt.Errorf("pubmed pacer: %w", err)
	}

	start := time.Now()
	status := statusError

	defer func() {
		observability.PubMedRequests.WithLabelValues(operation, status).Inc()
		observability.PubMedRequestDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create %s request: %w", operation, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%s request: %w", operation, ctx.Err())
		}

		return nil, fmt.Errorf("%w: %s request: %w", apperrors.ErrSearchUnavailable, operation, err)
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))

		c.logger.Warn().
			Str(logKeyOperation, operation).
			Int(logKeyStatus, resp.StatusCode).
			Str("body", string(snippet)).
			Msg("E-utilities returned non-2xx status")

		return nil, fmt.Errorf("%w: %s: %w %d", apperrors.ErrSearchUnavailable, operation, apperrors.ErrUnexpectedStatus, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxFetchBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: read %s response: %w", apperrors.ErrSearchUnavailable, operation, err)
	}

	status = statusOK

	c.logger.Debug().Str(logKeyOperation, operation).Dur(logKeyDuration, time.Since(start)).Msg("E-utilities call completed")

	return body, nil
}
