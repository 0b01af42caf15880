package network

import (
	"crypto/tls"
	"crypto/x509"
	"log/slog"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v5"
)

type PeerOption func(*Peer)

// WithTimeout bounds both the wait for an incoming broadcast and the retries
// of an outgoing one. Zero means wait forever.
func WithTimeout(timeout time.Duration) PeerOption {
	return func(p *Peer) {
		p.timeout = timeout
	}
}

// WithTLS serves and dials over mutually authenticated TLS. Peers present
// cert and only trust certificates issued by (or equal to) those in pool.
func WithTLS(cert tls.Certificate, pool *x509.CertPool) PeerOption {
	return func(p *Peer) {
		p.tlsConfig = &tls.Config{
			Certificates: []tls.Certificate{cert},
			RootCAs:      pool,
			ClientCAs:    pool,
			ClientAuth:   tls.RequireAndVerifyClientCert,
			MinVersion:   tls.VersionTLS12,
		}
		p.client.Transport = &http.Transport{
			TLSClientConfig: p.tlsConfig,
		}
		p.scheme = "https"
	}
}

// WithBackOff replaces the retry policy used when delivering a broadcast.
func WithBackOff(newBackOff func() backoff.BackOff) PeerOption {
	return func(p *Peer) {
		p.backOff = newBackOff
	}
}

func WithLogger(logger *slog.Logger) PeerOption {
	return func(p *Peer) {
		p.logger = logger
	}
}
