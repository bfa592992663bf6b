// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package assistant

import (
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/netip"
	"net/url"
	"syscall"
	"time"

	"github.com/go-shiori/go-readability"
)

// pageBodyLimit caps how much of a page is read for text extraction.
const pageBodyLimit = 4 << 20

// ErrBlockedAddress means a document URL resolved to an address the
// service must not contact (loopback, private, link-local, unspecified).
var ErrBlockedAddress = errors.New("address not allowed")

// publicOnlyControl runs after DNS resolution for every connection,
// including the ones made while following redirects.
func publicOnlyControl(network, address string, _ syscall.RawConn) error {
	ap, err := netip.ParseAddrPort(address)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrBlockedAddress, address)
	}
	if !publicAddr(ap.Addr()) {
		return fmt.Errorf("%w: %s", ErrBlockedAddress, ap.Addr())
	}
	return nil
}

func publicAddr(ip netip.Addr) bool {
	ip = ip.Unmap()
	return ip.IsValid() &&
		!ip.IsLoopback() &&
		!ip.IsPrivate() &&
		!ip.IsLinkLocalUnicast() &&
		!ip.IsLinkLocalMulticast() &&
		!ip.IsInterfaceLocalMulticast() &&
		!ip.IsMulticast() &&
		!ip.IsUnspecified()
}

// newPageClient returns a client that only dials public addresses.
func newPageClient(timeout time.Duration) *http.Client {
	dialer := &net.Dialer{Timeout: 10 * time.Second, Control: publicOnlyControl}
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			Proxy:               nil,
			DialContext:         dialer.DialContext,
			TLSHandshakeTimeout: 10 * time.Second,
			MaxIdleConns:        10,
			IdleConnTimeout:     30 * time.Second,
		},
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= 5 {
				return errors.New("too many redirects")
			}
			if req.URL.Scheme != "http" && req.URL.Scheme != "https" {
				return fmt.Errorf("redirect to %s scheme", req.URL.Scheme)
			}
			return nil
		},
	}
}

// readableText downloads pageURL through a public-only client and returns
// its main text.
func readableText(pageURL string, timeout time.Duration) (string, error) {
	u, err := url.Parse(pageURL)
	if err != nil {
		return "", fmt.Errorf("parsing document url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}

	resp, err := newPageClient(timeout).Get(u.String())
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetching document: HTTP %d", resp.StatusCode)
	}

	article, err := readability.FromReader(io.LimitReader(resp.Body, pageBodyLimit), resp.Request.URL)
	if err != nil {
		return "", fmt.Errorf("extracting document text: %w", err)
	}
	return article.TextContent, nil
}
