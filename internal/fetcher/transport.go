package fetcher

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	utls "github.com/refraction-networking/utls"
)

// stealthClientHelloSpec is a Chrome-like ClientHello with ALPN forced to
// http/1.1, computed once since Go's http.Transport cannot speak h2 over a
// utls connection.
var stealthClientHelloSpec utls.ClientHelloSpec

func init() {
	spec, err := utls.UTLSIdToSpec(utls.HelloChrome_Auto)
	if err != nil {
		return
	}
	for i, ext := range spec.Extensions {
		if alpn, ok := ext.(*utls.ALPNExtension); ok {
			alpn.AlpnProtocols = []string{"http/1.1"}
			spec.Extensions[i] = alpn
			break
		}
	}
	stealthClientHelloSpec = spec
}

// newStealthTransport returns an http.RoundTripper that presents a
// Chrome-accurate TLS ClientHello instead of Go's default fingerprint, for
// hosts known to fingerprint-block the stdlib TLS stack (fetch.stealthTLS).
// Off by default: the static fetcher's observable behavior is unchanged
// unless a caller opts in.
func newStealthTransport() http.RoundTripper {
	return &http.Transport{
		DialTLSContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
			dialer := &net.Dialer{Timeout: 10 * time.Second}
			conn, err := dialer.DialContext(ctx, network, addr)
			if err != nil {
				return nil, err
			}
			host, _, _ := net.SplitHostPort(addr)
			tlsConn := utls.UClient(conn, &utls.Config{ServerName: host}, utls.HelloCustom)
			if err := tlsConn.ApplyPreset(&stealthClientHelloSpec); err != nil {
				conn.Close()
				return nil, fmt.Errorf("stealth transport: apply tls spec: %w", err)
			}
			if err := tlsConn.HandshakeContext(ctx); err != nil {
				conn.Close()
				return nil, err
			}
			return tlsConn, nil
		},
		ForceAttemptHTTP2: false,
	}
}
