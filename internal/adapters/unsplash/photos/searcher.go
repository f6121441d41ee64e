package photos

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

const DefaultBaseURL = "https://api.unsplash.com"

// Searcher is an Unsplash implementation of photos.Searcher.
type Searcher struct {
	baseURL   string
	accessKey string
	http      *http.Client
}

type Option func(*Searcher)

func WithBaseURL(u string) Option { return func(s *Searcher) { s.baseURL = u } }

func WithHTTPClient(c *http.Client) Option { return func(s *Searcher) { s.http = c } }

func NewSearcher(accessKey string, opts ...Option) *Searcher {
	s := &Searcher{
		baseURL:   DefaultBaseURL,
		accessKey: accessKey,
		http:      &http.Client{Timeout: 10 * time.Second},
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

type searchResponse struct {
	Results []struct {
		URLs struct {
			Regular string `json:"regular"`
		} `json:"urls"`
	} `json:"results"`
}

// Search returns the regular-size URLs of the first n results that carry one.
func (s *Searcher) Search(ctx context.Context, query string, n int) ([]string, error) {
	if s.accessKey == "" {
		return nil, errors.New("unsplash access key is required")
	}
	if n <= 0 {
		return []string{}, nil
	}

	q := url.Values{}
	q.Set("query", query)
	q.Set("per_page", strconv.Itoa(n))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/search/photos?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Client-ID "+s.accessKey)
	req.Header.Set("Accept-Version", "v1")

	resp, err := s.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("unsplash search: status %d: %s", resp.StatusCode, string(b))
	}

	var out searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode unsplash response: %w", err)
	}
	urls := make([]string, 0, n)
	for _, r := range out.Results {
		if r.URLs.Regular == "" {
			continue
		}
		urls = append(urls, r.URLs.Regular)
		if len(urls) == n {
			break
		}
	}
	return urls, nil
}
