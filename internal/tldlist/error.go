package tldlist

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

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// ErrorKind buckets fetch failures for logs and metrics. Users only ever see
// ErrorMessage; the kind is operational detail.
type ErrorKind string

const (
	KindTimeout    ErrorKind = "timeout"
	KindDNS        ErrorKind = "dns"
	KindConnection ErrorKind = "connection"
	KindRequest    ErrorKind = "request"
	KindStatus     ErrorKind = "status"
	KindRead       ErrorKind = "read"
	KindTooLarge   ErrorKind = "too_large"
	KindDecode     ErrorKind = "decode"
	KindCanceled   ErrorKind = "canceled"
	KindFile       ErrorKind = "file"
)

var (
	// ErrUnexpectedStatus is wrapped by status failures.
	ErrUnexpectedStatus = errors.New("unexpected HTTP status")
	// ErrTooLarge is returned when a body exceeds the configured byte limit.
	ErrTooLarge = errors.New("list body exceeds size limit")
	// ErrInvalidUTF8 is returned when a line is not valid UTF-8.
	ErrInvalidUTF8 = errors.New("line is not valid UTF-8")
)

// FetchError reports a failed fetch together with where it was attempted and why.
type FetchError struct {
	URL        string
	Kind       ErrorKind
	StatusCode int // set for KindStatus
	Err        error
}

// Error implements the error interface.
func (e *FetchError) Error() string {
	if e.Kind == KindStatus {
		return fmt.Sprintf("fetch %s: %v %d", e.URL, e.Err, e.StatusCode)
	}
	return fmt.Sprintf("fetch %s (%s): %v", e.URL, e.Kind, e.Err)
}

// Unwrap returns the underlying cause.
func (e *FetchError) Unwrap() error {
	return e.Err
}

// KindOf returns the ErrorKind of err if it is (or wraps) a *FetchError, and ""
// otherwise.
func KindOf(err error) ErrorKind {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return ""
}

// classify maps a transport error to an ErrorKind. Cancellation wins over timeout;
// DNS failures are reported as such even when the resolver timed out.
func classify(err error) ErrorKind {
	if err == nil {
		return ""
	}
	if errors.Is(err, context.Canceled) {
		return KindCanceled
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return KindDNS
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return KindTimeout
	}
	// refused, reset, TLS and anything else the transport returns
	return KindConnection
}
