// Package transport provides the HTTP transports used by the backend API
// client.
//
// The default transport is plain net/http. The Chrome transport exists for
// store backends fronted by CDNs that rate-limit on TLS (JA3) fingerprints:
// Go's standard TLS client stack has a distinctive fingerprint, and some
// storefront deployments sit behind exactly that kind of filtering. uTLS with
// HelloChrome_Auto presents a Chrome-like fingerprint, ALPN negotiates h2 or
// http/1.1 naturally, and Go's http2.Transport handles HTTP/2 framing when
// negotiated.
package transport

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/http"
	"time"

	utls "github.com/refraction-networking/utls"
	"golang.org/x/net/http2"
)

// NewDefault returns the standard library transport with sane defaults.
// Use this unless the backend is known to fingerprint TLS clients.
func NewDefault() http.RoundTripper {
	return &http.Transport{
		MaxIdleConns:        20,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	}
}

// NewChrome returns an http.RoundTripper presenting Chrome's TLS fingerprint
// to the backend. Supports HTTP/2 and HTTP/1.1 based on ALPN negotiation.
func NewChrome(timeout time.Duration) http.RoundTripper {
	dialer := &net.Dialer{Timeout: timeout}

	h2 := &http2.Transport{
		DialTLSContext: func(ctx context.Context, network, addr string, _ *tls.Config) (net.Conn, error) {
			return dialChromeTLS(ctx, dialer, network, addr)
		},
	}
	h1 := &http.Transport{
		DialTLSContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
			return dialChromeTLS(ctx, dialer, network, addr)
		},
		ForceAttemptHTTP2: false,
	}

	return &chromeTransport{h2: h2, h1: h1}
}

// chromeTransport tries HTTP/2 first and falls back to HTTP/1.1 for servers
// that never negotiated h2.
type chromeTransport struct {
	h2 *http2.Transport
	h1 *http.Transport
}

func (t *chromeTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := t.h2.RoundTrip(req)
	if err == nil {
		return resp, nil
	}
	return t.h1.RoundTrip(req)
}

// dialChromeTLS establishes a TLS connection with Chrome's fingerprint.
func dialChromeTLS(ctx context.Context, dialer *net.Dialer, network, addr string) (net.Conn, error) {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		host = addr
	}

	conn, err := dialer.DialContext(ctx, network, addr)
	if err != nil {
		return nil, fmt.Errorf("dial: %w", err)
	}

	tlsConn := utls.UClient(conn, &utls.Config{ServerName: host}, utls.HelloChrome_Auto)
	if err := tlsConn.Handshake(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("tls handshake: %w", err)
	}
	return tlsConn, nil
}
