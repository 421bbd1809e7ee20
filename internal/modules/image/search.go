package image

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/tanishqkrk-asymmetri/bookleaf-mvp-sub000/internal/config"
)

// Photo is one search hit as the editor consumes it.
type Photo struct {
	ID          string `json:"id"`
	Description string `json:"description"`
	Thumb       string `json:"thumb"`
	Regular     string `json:"regular"`
	Full        string `json:"full"`
	Author      string `json:"author"`
	AuthorURL   string `json:"authorUrl"`
}

type SearchResult struct {
	Total      int     `json:"total"`
	TotalPages int     `json:"totalPages"`
	Page       int     `json:"page"`
	Results    []Photo `json:"results"`
}

// Cache is the string cache in front of the photo API. *redis.Client satisfies it.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// Searcher queries Unsplash. Identical concurrent queries share one upstream call.
type Searcher struct {
	baseURL   string
	accessKey string
	perPage   int
	ttl       time.Duration
	cache     Cache
	http      *http.Client
	group     singleflight.Group
	logger    *zap.Logger
}

func NewSearcher(cfg config.UnsplashRuntimeConfig, cache Cache, logger *zap.Logger) *Searcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Searcher{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		accessKey: cfg.AccessKey,
		perPage:   cfg.PerPage,
		ttl:       time.Duration(cfg.CacheTTLSeconds) * time.Second,
		cache:     cache,
		http:      &http.Client{Timeout: 10 * time.Second},
		logger:    logger,
	}
}

func (s *Searcher) Enabled() bool { return s != nil && s.accessKey != "" }

type unsplashResponse struct {
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
	Results    []struct {
		ID             string `json:"id"`
		Description    string `json:"description"`
		AltDescription string `json:"alt_description"`
		URLs           struct {
			Thumb   string `json:"thumb"`
			Regular string `json:"regular"`
			Full    string `json:"full"`
		} `json:"urls"`
		User struct {
			Name  string `json:"name"`
			Links struct {
				HTML string `json:"html"`
			} `json:"links"`
		} `json:"user"`
	} `json:"results"`
}

// Search returns one page of photos for query.
func (s *Searcher) Search(ctx context.Context, query string, page int) (SearchResult, error) {
	if !s.Enabled() {
		return SearchResult{}, ErrNotConfigured
	}
	query = strings.TrimSpace(query)
	if page < 1 {
		page = 1
	}
	key := cacheKey(query, page, s.perPage)

	if s.cache != nil {
		if raw, err := s.cache.Get(ctx, key); err != nil {
			s.logger.Debug("image search cache read failed", zap.Error(err))
		} else if raw != "" {
			var cached SearchResult
			if json.Unmarshal([]byte(raw), &cached) == nil {
				return cached, nil
			}
		}
	}

	v, err, _ := s.group.Do(key, func() (interface{}, error) {
		res, err := s.fetch(ctx, query, page)
		if err != nil {
			return SearchResult{}, err
		}
		if s.cache != nil && s.ttl > 0 {
			if raw, err := json.Marshal(res); err == nil {
				if err := s.cache.Set(ctx, key, string(raw), s.ttl); err != nil {
					s.logger.Debug("image search cache write failed", zap.Error(err))
				}
			}
		}
		return res, nil
	})
	if err != nil {
		return SearchResult{}, err
	}
	return v.(SearchResult), nil
}

func (s *Searcher) fetch(ctx context.Context, query string, page int) (SearchResult, error) {
	q := url.Values{}
	q.Set("query", query)
	q.Set("page", strconv.Itoa(page))
	q.Set("per_page", strconv.Itoa(s.perPage))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/search/photos?"+q.Encode(), nil)
	if err != nil {
		return SearchResult{}, err
	}
	req.Header.Set("Authorization", "Client-ID "+s.accessKey)
	req.Header.Set("Accept-Version", "v1")

	resp, err := s.http.Do(req)
	if err != nil {
		return SearchResult{}, fmt.Errorf("unsplash search: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return SearchResult{}, fmt.Errorf("unsplash search: status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var raw unsplashResponse
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return SearchResult{}, fmt.Errorf("unsplash search: decode: %w", err)
	}

	out := SearchResult{Total: raw.Total, TotalPages: raw.TotalPages, Page: page, Results: make([]Photo, 0, len(raw.Results))}
	for _, r := range raw.Results {
		desc := r.Description
		if desc == "" {
			desc = r.AltDescription
		}
		out.Results = append(out.Results, Photo{
			ID:          r.ID,
			Description: desc,
			Thumb:       r.URLs.Thumb,
			Regular:     r.URLs.Regular,
			Full:        r.URLs.Full,
			Author:      r.User.Name,
			AuthorURL:   r.User.Links.HTML,
		})
	}
	return out, nil
}

func cacheKey(query string, page, perPage int) string {
	sum := sha1.Sum([]byte(strings.ToLower(query)))
	return fmt.Sprintf("cover:unsplash:%s:%d:%d", hex.EncodeToString(sum[:8]), page, perPage)
}
