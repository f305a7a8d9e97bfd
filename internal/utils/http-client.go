package utils

import (
	"context"
	"fmt"
	"io"
	"maps"
	"net"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/net/proxy"
)

type HTTPClientConfig struct {
	ConnectTimeout  time.Duration // dial, TLS handshake and response headers
	TransferTimeout time.Duration // whole request including the body, per Do
	KATimeout       time.Duration
	ProxyURL        string
	ProxyUsername   string
	ProxyPassword   string
	UserAgent       string
	Headers         map[string]string
}

type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// FetchHTTPClient wraps one pooled transport shared by every worker.
// Its configuration is copied at construction and never mutated, so Do is
// safe for concurrent use.
type FetchHTTPClient struct {
	client          *http.Client
	agent           string
	headers         map[string]string
	transferTimeout time.Duration
}

func NewFetchHTTPClient(cfg HTTPClientConfig) (*FetchHTTPClient, error) {
	if cfg.ConnectTimeout == 0 {
		cfg.ConnectTimeout = DefaultConnectTimeout
	}
	if cfg.KATimeout == 0 {
		cfg.KATimeout = DefaultKATimeout
	}
	dialer := &net.Dialer{
		Timeout:   cfg.ConnectTimeout,
		KeepAlive: 30 * time.Second,
	}
	transport := &http.Transport{
		DialContext:           dialer.DialContext,
		TLSHandshakeTimeout:   cfg.ConnectTimeout,
		ResponseHeaderTimeout: cfg.ConnectTimeout,
		IdleConnTimeout:       cfg.KATimeout,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   100,
		ForceAttemptHTTP2:     true,
	}
	if cfg.ProxyURL != "" {
		if err := applyProxy(transport, dialer, cfg); err != nil {
			return nil, err
		}
	}
	agent := cfg.UserAgent
	if agent == "" {
		agent = DefaultUserAgent
	}
	return &FetchHTTPClient{
		client:  &http.Client{Transport: transport},
		agent:   agent,
		headers: maps.Clone(cfg.Headers),

		transferTimeout: cfg.TransferTimeout,
	}, nil
}

func applyProxy(transport *http.Transport, dialer *net.Dialer, cfg HTTPClientConfig) error {
	proxyURL, err := url.Parse(cfg.ProxyURL)
	if err != nil {
		return fmt.Errorf("invalid proxy URL: %w", err)
	}
	if cfg.ProxyUsername != "" {
		if cfg.ProxyPassword != "" {
			proxyURL.User = url.UserPassword(cfg.ProxyUsername, cfg.ProxyPassword)
		} else {
			proxyURL.User = url.User(cfg.ProxyUsername)
		}
	}
	switch proxyURL.Scheme {
	case "http", "https":
		transport.Proxy = http.ProxyURL(proxyURL)
	case "socks5", "socks5h":
		socks, err := proxy.FromURL(proxyURL, dialer)
		if err != nil {
			return fmt.Errorf("socks proxy: %w", err)
		}
		ctxDialer, ok := socks.(proxy.ContextDialer)
		if !ok {
			return fmt.Errorf("socks proxy dialer does not support contexts")
		}
		transport.DialContext = func(ctx context.Context, network, addr string) (net.Conn, error) {
			return ctxDialer.DialContext(ctx, network, addr)
		}
	default:
		return fmt.Errorf("unsupported proxy type: %s", proxyURL.Scheme)
	}
	return nil
}

func (c *FetchHTTPClient) Do(req *http.Request) (*http.Response, error) {
	req.Header.Set("User-Agent", c.agent)
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}
	if c.transferTimeout <= 0 {
		return c.client.Do(req)
	}
	ctx, cancel := context.WithTimeout(req.Context(), c.transferTimeout)
	resp, err := c.client.Do(req.WithContext(ctx))
	if err != nil {
		cancel()
		return nil, err
	}
	resp.Body = &cancelOnClose{ReadCloser: resp.Body, cancel: cancel}
	return resp, nil
}

// cancelOnClose keeps the transfer deadline alive until the body is closed.
type cancelOnClose struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (b *cancelOnClose) Close() error {
	err := b.ReadCloser.Close()
	b.cancel()
	return err
}
