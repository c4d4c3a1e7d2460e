// Package arxiv provides a client for the arXiv search API that converts
// Atom XML results into domain papers.
package arxiv

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/nishipippi/kiga-ers/internal/domain"
	"github.com/nishipippi/kiga-ers/internal/httpx"
)

const (
	// DefaultBaseURL is the default arXiv API base URL.
	DefaultBaseURL = "https://export.arxiv.org/api"

	// DefaultRateLimit keeps well under arXiv's one-request-per-three-seconds
	// guidance.
	DefaultRateLimit = 0.34

	// DefaultBurstSize is the default burst size for rate limiting.
	DefaultBurstSize = 1

	// DefaultTimeout is the default request timeout.
	DefaultTimeout = 30 * time.Second

	// DefaultCategory is the category filter substituted for an empty query.
	DefaultCategory = "cs.AI"

	// sourceName is the human-readable name for this source.
	sourceName = "arXiv"
)

// arxivIDRegex extracts the arXiv ID from the full entry URL.
// Matches patterns like "http://arxiv.org/abs/2301.12345v1" or
// "http://arxiv.org/abs/hep-th/9901001v1". The version suffix is kept so the
// ID matches the record URL exactly.
var arxivIDRegex = regexp.MustCompile(`arxiv\.org/abs/(.+)$`)

// Config holds configuration for the arXiv client.
type Config struct {
	// BaseURL is the arXiv API base URL.
	BaseURL string

	// Timeout is the request timeout.
	Timeout time.Duration

	// RateLimit is the maximum requests per second.
	RateLimit float64

	// BurstSize is the maximum burst of requests allowed.
	BurstSize int

	// DefaultCategory is the category filter used when the query is empty.
	DefaultCategory string
}

// applyDefaults sets default values for unset configuration fields.
func (c *Config) applyDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.Timeout == 0 {
		c.Timeout = DefaultTimeout
	}
	if c.RateLimit == 0 {
		c.RateLimit = DefaultRateLimit
	}
	if c.BurstSize == 0 {
		c.BurstSize = DefaultBurstSize
	}
	if c.DefaultCategory == "" {
		c.DefaultCategory = DefaultCategory
	}
}

// Client queries the arXiv search API.
type Client struct {
	config     Config
	httpClient *httpx.Client
}

// New creates a new arXiv client with the given configuration.
// Each Search call makes a single request attempt; retry policy belongs to
// the caller, not this client.
func New(cfg Config) *Client {
	cfg.applyDefaults()

	httpClient := httpx.NewClient(httpx.Config{
		Timeout:   cfg.Timeout,
		RateLimit: cfg.RateLimit,
		BurstSize: cfg.BurstSize,
	})

	return &Client{
		config:     cfg,
		httpClient: httpClient,
	}
}

// NewWithHTTPClient creates a new arXiv client with a custom HTTP client.
// This is useful for testing with mock servers.
func NewWithHTTPClient(cfg Config, httpClient *httpx.Client) *Client {
	cfg.applyDefaults()

	return &Client{
		config:     cfg,
		httpClient: httpClient,
	}
}

// Search fetches one page of results.
//
// An empty query browses the configured default category ordered by
// submission date; a non-empty query searches all fields ordered by
// relevance. A returned page shorter than pageSize means the source has no
// further results for this query.
func (c *Client) Search(ctx context.Context, query string, offset, pageSize int) ([]*domain.Paper, error) {
	searchURL, err := c.buildSearchURL(query, offset, pageSize)
	if err != nil {
		return nil, fmt.Errorf("building search URL: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, domain.NewFetchError(sourceName, 0, "executing request", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		return nil, domain.NewFetchError(sourceName, resp.StatusCode, string(body), nil)
	}

	// Parse the Atom XML response (limit body to 10MB).
	var feed Feed
	if err := xml.NewDecoder(io.LimitReader(resp.Body, 10<<20)).Decode(&feed); err != nil {
		return nil, domain.NewFetchError(sourceName, resp.StatusCode, "decoding response", err)
	}

	papers := make([]*domain.Paper, 0, len(feed.Entries))
	for i := range feed.Entries {
		paper := entryToPaper(&feed.Entries[i])
		if paper != nil {
			papers = append(papers, paper)
		}
	}

	return papers, nil
}

// Name returns the human-readable name for this source.
func (c *Client) Name() string {
	return sourceName
}

// buildSearchURL constructs the arXiv search API URL.
func (c *Client) buildSearchURL(query string, offset, pageSize int) (string, error) {
	baseURL, err := url.Parse(c.config.BaseURL)
	if err != nil {
		return "", fmt.Errorf("parsing base URL: %w", err)
	}

	baseURL.Path = strings.TrimRight(baseURL.Path, "/") + "/query"

	values := url.Values{}

	query = strings.TrimSpace(query)
	if query == "" {
		// Browsing mode: newest papers in the default category.
		values.Set("search_query", "cat:"+c.config.DefaultCategory)
		values.Set("sortBy", "submittedDate")
	} else {
		values.Set("search_query", "all:"+query)
		values.Set("sortBy", "relevance")
	}
	values.Set("sortOrder", "descending")

	values.Set("start", strconv.Itoa(offset))
	values.Set("max_results", strconv.Itoa(pageSize))

	baseURL.RawQuery = values.Encode()
	return baseURL.String(), nil
}

// entryToPaper converts an arXiv Atom entry to a domain Paper.
func entryToPaper(entry *Entry) *domain.Paper {
	if entry == nil {
		return nil
	}

	arxivID := extractArXivID(entry.ID)
	if arxivID == "" {
		return nil
	}

	authors := make([]domain.Author, 0, len(entry.Authors))
	for _, a := range entry.Authors {
		name := strings.TrimSpace(a.Name)
		if name == "" {
			continue
		}
		authors = append(authors, domain.Author{
			Name:        name,
			Affiliation: strings.TrimSpace(a.Affiliation),
		})
	}

	// arXiv pads titles and abstracts with newlines and indentation.
	title := normalizeWhitespace(entry.Title)
	abstract := normalizeWhitespace(entry.Summary)

	pdfURL := ""
	for _, link := range entry.Links {
		if link.Title == "pdf" || link.Type == "application/pdf" {
			pdfURL = link.Href
			break
		}
	}

	categories := make([]string, 0, len(entry.Categories))
	for _, cat := range entry.Categories {
		if cat.Term != "" {
			categories = append(categories, cat.Term)
		}
	}

	return &domain.Paper{
		ID:         arxivID,
		Title:      title,
		Abstract:   abstract,
		Authors:    authors,
		Published:  strings.TrimSpace(entry.Published),
		Updated:    strings.TrimSpace(entry.Updated),
		PDFURL:     pdfURL,
		Categories: categories,
	}
}

// extractArXivID extracts the arXiv ID from the full entry URL.
// Input: "http://arxiv.org/abs/2301.12345v1" -> "2301.12345v1"
func extractArXivID(entryURL string) string {
	matches := arxivIDRegex.FindStringSubmatch(entryURL)
	if len(matches) < 2 {
		return ""
	}
	return matches[1]
}

// normalizeWhitespace trims and collapses multiple whitespace characters.
func normalizeWhitespace(s string) string {
	fields := strings.Fields(s)
	return strings.Join(fields, " ")
}
