package image

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/tanishqkrk-asymmetri/bookleaf-mvp-sub000/internal/config"
)

var (
	ErrBlockedTarget = errors.New("target address is not allowed")
	ErrTooLarge      = errors.New("image exceeds the size limit")
	ErrNotImage      = errors.New("upstream response is not an image")
)

// Proxy re-serves remote images so the canvas can read them cross-origin.
type Proxy struct {
	client   *http.Client
	maxBytes int64
}

// NewProxy builds a proxy that refuses private and loopback targets unless allowPrivate is set.
func NewProxy(cfg config.ProxyRuntimeConfig, allowPrivate bool) *Proxy {
	dialer := &net.Dialer{Timeout: 10 * time.Second}
	if !allowPrivate {
		dialer.Control = func(_, address string, _ syscall.RawConn) error {
			host, _, err := net.SplitHostPort(address)
			if err != nil {
				return err
			}
			if ip := net.ParseIP(host); ip == nil || blockedIP(ip) {
				return fmt.Errorf("%w: %s", ErrBlockedTarget, host)
			}
			return nil
		}
	}
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.Proxy = nil
	transport.DialContext = dialer.DialContext
	return &Proxy{
		client: &http.Client{
			Timeout:   time.Duration(cfg.TimeoutSeconds) * time.Second,
			Transport: transport,
		},
		maxBytes: cfg.MaxBytes,
	}
}

func blockedIP(ip net.IP) bool {
	return ip.IsLoopback() || ip.IsPrivate() || ip.IsLinkLocalUnicast() ||
		ip.IsLinkLocalMulticast() || ip.IsUnspecified() || ip.IsMulticast()
}

// Fetched is a proxied image.
type Fetched struct {
	Body        []byte
	ContentType string
}

// ParseTarget accepts absolute http and https URLs only.
func ParseTarget(raw string) (*url.URL, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return nil, fmt.Errorf("invalid url: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("url must be absolute http or https")
	}
	return u, nil
}

func (p *Proxy) Fetch(ctx context.Context, target *url.URL) (Fetched, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return Fetched{}, err
	}
	req.Header.Set("Accept", "image/*")

	resp, err := p.client.Do(req)
	if err != nil {
		return Fetched{}, fmt.Errorf("fetch image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Fetched{}, fmt.Errorf("fetch image: upstream status %d", resp.StatusCode)
	}
	if n, err := strconv.ParseInt(resp.Header.Get("Content-Length"), 10, 64); err == nil && n > p.maxBytes {
		return Fetched{}, ErrTooLarge
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, p.maxBytes+1))
	if err != nil {
		return Fetched{}, fmt.Errorf("read image: %w", err)
	}
	if int64(len(body)) > p.maxBytes {
		return Fetched{}, ErrTooLarge
	}

	ct := resp.Header.Get("Content-Type")
	if !strings.HasPrefix(ct, "image/") {
		ct = http.DetectContentType(body)
	}
	if !strings.HasPrefix(ct, "image/") {
		return Fetched{}, ErrNotImage
	}
	return Fetched{Body: body, ContentType: ct}, nil
}
