// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package arxiv fetches bibliographic records from the arXiv API and
// normalizes them into Paper values. It is a translation and
// pagination layer: the only side effect is network I/O, performed
// through the shared rate limiter under the "source" backend name.
package arxiv

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/pdiddy/research-assistant/internal/ratelimit"
	"github.com/pdiddy/research-assistant/pkg/types"
)

// Backend is the rate-limiter backend name for arXiv calls.
const Backend = "source"

// apiBase is the arXiv search endpoint. Declared as a var so tests
// can substitute an httptest server.
var apiBase = "https://export.arxiv.org/api/query"

const (
	defaultPageSize  = 25
	defaultMaxPapers = 15
)

// SourceUnavailableError is returned when arXiv stayed unreachable
// through the full retry budget.
type SourceUnavailableError struct {
	Err error
}

func (e *SourceUnavailableError) Error() string {
	return fmt.Sprintf("paper source unavailable: %v", e.Err)
}

func (e *SourceUnavailableError) Unwrap() error { return e.Err }

// Client queries the arXiv API.
type Client struct {
	HTTP    *http.Client
	Limiter *ratelimit.Limiter
	Config  types.SourceConfig
}

// NewClient builds a Client from cfg. Calls are paced through limiter.
func NewClient(cfg types.SourceConfig, limiter *ratelimit.Limiter) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		HTTP:    &http.Client{Timeout: timeout},
		Limiter: limiter,
		Config:  cfg,
	}
}

// FetchOptions narrows a fetch. Zero values fall back to the client's
// configured defaults.
type FetchOptions struct {
	// MaxResults caps the number of returned papers.
	MaxResults int

	// DaysBack bounds results to papers published within the window.
	// Zero means no date bound.
	DaysBack int

	// Categories restricts results to an OR of category labels.
	Categories []string
}

// Fetch queries arXiv for papers matching query, most recent first. It
// paginates transparently until MaxResults is satisfied or the feed is
// exhausted; exhaustion short of MaxResults is not an error. Records
// missing an identifier or title are skipped and counted in the second
// return value. Results are deduplicated by identifier.
func (c *Client) Fetch(ctx context.Context, query string, opts FetchOptions) ([]types.Paper, int, error) {
	maxResults := opts.MaxResults
	if maxResults <= 0 {
		maxResults = c.Config.MaxPapers
	}
	if maxResults <= 0 {
		maxResults = defaultMaxPapers
	}
	pageSize := c.Config.PageSize
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}

	searchQuery := buildQuery(query, opts.Categories)
	if searchQuery == "" {
		return nil, 0, fmt.Errorf("empty arXiv query")
	}

	var threshold time.Time
	if opts.DaysBack > 0 {
		threshold = time.Now().UTC().AddDate(0, 0, -opts.DaysBack)
	}

	var (
		papers  []types.Paper
		seen    = make(map[string]bool)
		skipped int
	)

	for start := 0; len(papers) < maxResults; start += pageSize {
		feed, err := c.fetchPage(ctx, searchQuery, start, pageSize)
		if err != nil {
			return nil, skipped, err
		}
		if len(feed.Entries) == 0 {
			break
		}

		pastThreshold := false
		for _, entry := range feed.Entries {
			paper, ok := normalizeEntry(entry)
			if !ok {
				skipped++
				continue
			}
			// Results arrive sorted by submission date descending, so
			// the first entry past the threshold ends the scan.
			if !threshold.IsZero() && paper.Published.Before(threshold) {
				pastThreshold = true
				break
			}
			if seen[paper.ID] {
				continue
			}
			seen[paper.ID] = true
			papers = append(papers, paper)
			if len(papers) >= maxResults {
				break
			}
		}

		if pastThreshold || len(feed.Entries) < pageSize {
			break
		}
	}

	return papers, skipped, nil
}

// fetchPage requests one page of results through the rate limiter.
func (c *Client) fetchPage(ctx context.Context, searchQuery string, start, pageSize int) (*atomFeed, error) {
	reqURL := fmt.Sprintf("%s?search_query=%s&start=%d&max_results=%d&sortBy=submittedDate&sortOrder=descending",
		apiBase, url.QueryEscape(searchQuery), start, pageSize)

	var feed atomFeed
	err := c.Limiter.Do(ctx, Backend, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return err
		}
		req.Header.Set("User-Agent", c.Config.UserAgent)

		resp, err := c.HTTP.Do(req)
		if err != nil {
			// Network failures and timeouts are retryable.
			return ratelimit.Transient(fmt.Errorf("arXiv API request: %w", err))
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusOK:
		case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
			return ratelimit.Transient(fmt.Errorf("arXiv API returned HTTP %d", resp.StatusCode))
		default:
			return fmt.Errorf("arXiv API returned HTTP %d", resp.StatusCode)
		}

		feed = atomFeed{}
		if err := xml.NewDecoder(resp.Body).Decode(&feed); err != nil {
			return fmt.Errorf("parsing arXiv response: %w", err)
		}
		return nil
	})

	if err != nil {
		var exhausted *ratelimit.ExhaustedError
		if errors.As(err, &exhausted) {
			return nil, &SourceUnavailableError{Err: exhausted}
		}
		return nil, err
	}
	return &feed, nil
}

// buildQuery constructs the search_query parameter. Queries that
// already carry arXiv operators pass through untouched; plain text is
// searched across title and abstract, ANDed with an OR of category
// filters when categories are given.
func buildQuery(query string, categories []string) string {
	query = strings.TrimSpace(query)
	if query == "" {
		return ""
	}

	if hasArxivOperators(query) {
		return query
	}

	base := fmt.Sprintf("(ti:%q OR abs:%q)", query, query)
	if len(categories) == 0 {
		return base
	}

	cats := make([]string, 0, len(categories))
	for _, cat := range categories {
		cats = append(cats, "cat:"+cat)
	}
	return fmt.Sprintf("%s AND (%s)", base, strings.Join(cats, " OR "))
}

// hasArxivOperators reports whether the query already uses arXiv
// query syntax.
func hasArxivOperators(query string) bool {
	for _, op := range []string{"au:", "ti:", "abs:", "cat:", " AND ", " OR ", " ANDNOT "} {
		if strings.Contains(query, op) {
			return true
		}
	}
	return false
}

// ValidateQuery performs basic syntax checks on a raw arXiv query.
func ValidateQuery(query string) error {
	if strings.TrimSpace(query) == "" {
		return fmt.Errorf("query cannot be empty")
	}
	if strings.Count(query, "(") != strings.Count(query, ")") {
		return fmt.Errorf("unbalanced parentheses in query")
	}
	return nil
}

// normalizeEntry converts one Atom entry into a Paper. It returns
// false when the record cannot be normalized (missing identifier or
// title); such records are skipped, not fatal.
func normalizeEntry(entry atomEntry) (types.Paper, bool) {
	id := extractArxivID(entry.ID)
	title := collapseWhitespace(entry.Title)
	if id == "" || title == "" {
		return types.Paper{}, false
	}

	p := types.Paper{
		ID:              id,
		Title:           title,
		Abstract:        collapseWhitespace(entry.Summary),
		PrimaryCategory: entry.PrimaryCategory.Term,
		URL:             entry.ID,
		DOI:             strings.TrimSpace(entry.DOI),
		JournalRef:      collapseWhitespace(entry.JournalRef),
		Comment:         collapseWhitespace(entry.Comment),
	}

	for _, a := range entry.Authors {
		name := strings.TrimSpace(a.Name)
		if name != "" {
			p.Authors = append(p.Authors, name)
		}
	}
	for _, cat := range entry.Categories {
		if cat.Term != "" {
			p.Categories = append(p.Categories, cat.Term)
		}
	}
	if p.PrimaryCategory == "" && len(p.Categories) > 0 {
		p.PrimaryCategory = p.Categories[0]
	}

	if t, err := time.Parse(time.RFC3339, entry.Published); err == nil {
		p.Published = t
	}
	if t, err := time.Parse(time.RFC3339, entry.Updated); err == nil {
		p.Updated = t
	}

	for _, link := range entry.Links {
		if link.Title == "pdf" || strings.Contains(link.Href, "/pdf/") {
			p.PDFURL = link.Href
		}
	}

	return p, true
}

// arXiv Atom feed XML structures.
type atomFeed struct {
	Entries []atomEntry `xml:"entry"`
}

type atomEntry struct {
	ID              string         `xml:"id"`
	Title           string         `xml:"title"`
	Summary         string         `xml:"summary"`
	Published       string         `xml:"published"`
	Updated         string         `xml:"updated"`
	Authors         []atomAuthor   `xml:"author"`
	Categories      []atomCategory `xml:"category"`
	PrimaryCategory atomCategory   `xml:"primary_category"`
	Links           []atomLink     `xml:"link"`
	Comment         string         `xml:"comment"`
	JournalRef      string         `xml:"journal_ref"`
	DOI             string         `xml:"doi"`
}

type atomAuthor struct {
	Name string `xml:"name"`
}

type atomCategory struct {
	Term string `xml:"term,attr"`
}

type atomLink struct {
	Href  string `xml:"href,attr"`
	Title string `xml:"title,attr"`
}

// extractArxivID pulls the arXiv ID from the entry's <id> URL
// (e.g. "http://arxiv.org/abs/2301.07041v1" -> "2301.07041").
func extractArxivID(idURL string) string {
	const prefix = "/abs/"
	idx := strings.Index(idURL, prefix)
	if idx < 0 {
		return ""
	}
	id := idURL[idx+len(prefix):]

	// Strip version suffix (e.g. "v1", "v2").
	if vIdx := strings.LastIndex(id, "v"); vIdx > 0 {
		if _, err := strconv.Atoi(id[vIdx+1:]); err == nil {
			id = id[:vIdx]
		}
	}
	return id
}

// collapseWhitespace trims the string and folds internal runs of
// whitespace (arXiv wraps abstracts with hard newlines).
func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
