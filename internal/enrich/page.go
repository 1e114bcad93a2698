package enrich

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/netip"
	"strings"
	"syscall"
	"time"

	"github.com/MrSnakeDoc/smartmark/internal/logger"
	"github.com/MrSnakeDoc/smartmark/internal/utils"
	"golang.org/x/net/html"
)

const (
	DefaultPageTimeout = 5 * time.Second
	pagePreviewLimit   = 3000
	maxPageBytes       = 2 << 20
	userAgent          = "Mozilla/5.0 (compatible; SmartMark/1.0)"
)

// PageSource returns a plain-text preview of a page, "" when unavailable.
type PageSource interface {
	Preview(ctx context.Context, rawURL string) string
}

// PageFetcher downloads a page once with a fixed short timeout and keeps the
// first characters of its visible text.
type PageFetcher struct {
	client  *http.Client
	timeout time.Duration
	log     logger.Logger
}

// NewPageFetcher returns a fetcher that only connects to public unicast
// addresses, redirects included.
func NewPageFetcher(timeout time.Duration, log logger.Logger) *PageFetcher {
	return newPageFetcher(timeout, log, publicOnly)
}

// newPageFetcher with a nil control dials anything; tests use it against
// loopback servers.
func newPageFetcher(timeout time.Duration, log logger.Logger, control func(string, string, syscall.RawConn) error) *PageFetcher {
	if timeout <= 0 {
		timeout = DefaultPageTimeout
	}
	if log == nil {
		log = logger.Nop()
	}
	dialer := &net.Dialer{Timeout: timeout, Control: control}
	transport := &http.Transport{
		DialContext:         dialer.DialContext,
		TLSHandshakeTimeout: timeout,
		MaxIdleConns:        10,
		IdleConnTimeout:     30 * time.Second,
	}
	return &PageFetcher{
		client:  &http.Client{Timeout: timeout, Transport: transport},
		timeout: timeout,
		log:     log,
	}
}

var errBlockedAddress = errors.New("address not allowed")

// sharedAddressSpace is the carrier-grade NAT range, not covered by IsPrivate.
var sharedAddressSpace = netip.MustParsePrefix("100.64.0.0/10")

func publicOnly(_, address string, _ syscall.RawConn) error {
	host, _, err := net.SplitHostPort(address)
	if err != nil {
		return err
	}
	ip, err := netip.ParseAddr(host)
	if err != nil {
		return err
	}
	if !isPublic(ip) {
		return fmt.Errorf("%w: %s", errBlockedAddress, ip)
	}
	return nil
}

// isPublic rejects loopback, private, link-local, multicast, unspecified
// and shared addresses.
func isPublic(ip netip.Addr) bool {
	ip = ip.Unmap()
	return ip.IsGlobalUnicast() && !ip.IsPrivate() && !sharedAddressSpace.Contains(ip)
}

func (f *PageFetcher) Preview(ctx context.Context, rawURL string) string {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return ""
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		f.log.Debug("page preview fetch failed", logger.String("url", rawURL), logger.Error(err))
		return ""
	}
	defer utils.Close(resp.Body)

	if resp.StatusCode != http.StatusOK {
		f.log.Debug("page preview skipped", logger.String("url", rawURL), logger.Int("status", resp.StatusCode))
		return ""
	}

	doc, err := html.Parse(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return ""
	}
	return truncate(extractText(doc), pagePreviewLimit)
}

// extractText concatenates the visible text of n, whitespace collapsed.
func extractText(n *html.Node) string {
	var buf strings.Builder
	var f func(*html.Node)
	f = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript", "template":
				return
			}
		}
		if n.Type == html.TextNode {
			for _, word := range strings.Fields(n.Data) {
				buf.WriteString(word)
				buf.WriteByte(' ')
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			f(c)
		}
	}
	f(n)
	return strings.TrimSpace(buf.String())
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
