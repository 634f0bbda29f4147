package client

/*
rxtld — fetch and tidy the IANA list of top-level domains
Copyright (C) 2025  Pepijn van der Stap <rxtls@vanderstap.info>

This program is free software: you can redistribute it and/or modify
it under the terms of the GNU Affero General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

This program is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU Affero General Public License for more details.

You should have received a copy of the GNU Affero General Public License
along with this program.  If not, see <https://www.gnu.org/licenses/>.
*/

/*
Package client builds the HTTP client used to download the TLD list.

Every timeout is set explicitly from a Config instead of inheriting whatever net/http
defaults to, so a hanging upstream can never block a run forever. The client is built
per run and handed to the fetcher; there is no package-level shared instance.
*/

import (
	"net"
	"net/http"
	"time"
)

var (
	// defaultDialTimeout specifies the default timeout for establishing a new connection.
	defaultDialTimeout = 5 * time.Second
	// defaultKeepAliveTimeout specifies the default keep-alive period for an active network connection.
	defaultKeepAliveTimeout = 30 * time.Second
	// defaultTLSHandshakeTimeout bounds the TLS handshake with the list host.
	defaultTLSHandshakeTimeout = 10 * time.Second
	// defaultResponseHeaderTimeout bounds the wait for response headers once the request is written.
	defaultResponseHeaderTimeout = 10 * time.Second
	// defaultIdleConnTimeout is the maximum amount of time an idle (keep-alive) connection will remain
	// idle before closing itself.
	defaultIdleConnTimeout = 30 * time.Second
	// defaultRequestTimeout specifies the default timeout for a complete HTTP request,
	// body included.
	defaultRequestTimeout = 30 * time.Second
)

// Config holds configuration parameters for the HTTP client.
// A zero-value Config results in default settings being used.
type Config struct {
	// DialTimeout is the maximum duration for establishing a new connection.
	DialTimeout time.Duration
	// KeepAliveTimeout specifies the keep-alive period for an active network connection.
	KeepAliveTimeout time.Duration
	// TLSHandshakeTimeout is the maximum duration of the TLS handshake.
	TLSHandshakeTimeout time.Duration
	// ResponseHeaderTimeout is the maximum wait for the response headers.
	ResponseHeaderTimeout time.Duration
	// IdleConnTimeout is the maximum amount of time an idle (keep-alive) connection
	// will remain idle before closing itself.
	IdleConnTimeout time.Duration
	// RequestTimeout is the timeout for the entire HTTP request, including connection time,
	// all redirects, and reading the response body.
	RequestTimeout time.Duration
}

// DefaultConfig returns a new Config populated with default HTTP client settings.
func DefaultConfig() *Config {
	return &Config{
		DialTimeout:           defaultDialTimeout,
		KeepAliveTimeout:      defaultKeepAliveTimeout,
		TLSHandshakeTimeout:   defaultTLSHandshakeTimeout,
		ResponseHeaderTimeout: defaultResponseHeaderTimeout,
		IdleConnTimeout:       defaultIdleConnTimeout,
		RequestTimeout:        defaultRequestTimeout,
	}
}

// withDefaults returns a copy of config with every zero field filled from DefaultConfig.
// A nil config yields the defaults.
func withDefaults(config *Config) Config {
	def := DefaultConfig()
	if config == nil {
		return *def
	}

	c := *config
	// Any non zero vals coming in from flags or tests
	// are kept as is - fill the rest, don't assume.
	if c.DialTimeout == 0 {
		c.DialTimeout = def.DialTimeout
	}
	if c.KeepAliveTimeout == 0 {
		c.KeepAliveTimeout = def.KeepAliveTimeout
	}
	if c.TLSHandshakeTimeout == 0 {
		c.TLSHandshakeTimeout = def.TLSHandshakeTimeout
	}
	if c.ResponseHeaderTimeout == 0 {
		c.ResponseHeaderTimeout = def.ResponseHeaderTimeout
	}
	if c.IdleConnTimeout == 0 {
		c.IdleConnTimeout = def.IdleConnTimeout
	}
	if c.RequestTimeout == 0 {
		c.RequestTimeout = def.RequestTimeout
	}
	return c
}

// New builds an *http.Client from config. A nil config uses DefaultConfig().
//
// The response header timeout never exceeds the overall request timeout, so a short
// --timeout is honoured at every stage of the request.
func New(config *Config) *http.Client {
	c := withDefaults(config)

	headerTimeout := c.ResponseHeaderTimeout
	if headerTimeout > c.RequestTimeout {
		headerTimeout = c.RequestTimeout
	}

	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment, // Respect standard proxy environment variables.
		DialContext: (&net.Dialer{
			Timeout:   c.DialTimeout,
			KeepAlive: c.KeepAliveTimeout,
		}).DialContext,
		MaxIdleConns:          1,
		IdleConnTimeout:       c.IdleConnTimeout,
		TLSHandshakeTimeout:   c.TLSHandshakeTimeout,
		ResponseHeaderTimeout: headerTimeout,
		ExpectContinueTimeout: 1 * time.Second,
		ForceAttemptHTTP2:     true,
	}

	return &http.Client{
		Transport: transport,
		Timeout:   c.RequestTimeout, // Overall request timeout.
	}
}
