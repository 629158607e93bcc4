package ucpclient

import (
	"crypto/tls"
	"net/http"
	"time"

	"golang.org/x/net/http2"
)

// newTransport centralizes http.Transport creation with TLS options/timeouts.
func newTransport(insecureTLS bool) *http.Transport {
	tr := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
	if insecureTLS {
		tr.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}
	// HTTP/2 for HTTPS where possible; on error we stay on HTTP/1.1
	_ = http2.ConfigureTransport(tr)
	return tr
}
