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
	"io"
	"net/http"
	"os"

	"github.com/x-stp/rxtld/internal/client"
)

// HTTPSource fetches the list with a single GET. It never retries.
type HTTPSource struct {
	URL      string       // defaults to DefaultURL
	Client   *http.Client // defaults to client.New(nil)
	MaxBytes int64        // defaults to DefaultMaxBytes
}

// Name implements Source.
func (s *HTTPSource) Name() string { return "http" }

func (s *HTTPSource) url() string {
	if s.URL == "" {
		return DefaultURL
	}
	return s.URL
}

// Fetch implements Source. Any non-2xx status is a failure.
func (s *HTTPSource) Fetch(ctx context.Context) (*Document, error) {
	url := s.url()
	httpClient := s.Client
	if httpClient == nil {
		httpClient = client.New(nil)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &FetchError{URL: url, Kind: KindRequest, Err: err}
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, &FetchError{URL: url, Kind: classify(err), Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &FetchError{URL: url, Kind: KindStatus, StatusCode: resp.StatusCode, Err: ErrUnexpectedStatus}
	}

	body, err := readLimited(resp.Body, s.MaxBytes)
	if err != nil {
		kind := KindRead
		if errors.Is(err, ErrTooLarge) {
			kind = KindTooLarge
		} else if k := classify(err); k == KindTimeout || k == KindCanceled {
			kind = k
		}
		return nil, &FetchError{URL: url, Kind: kind, Err: err}
	}

	doc, err := NewDocument(url, body)
	if err != nil {
		return nil, &FetchError{URL: url, Kind: KindDecode, Err: err}
	}
	return doc, nil
}

// FileSource reads a copy of the list previously stored with `rxtld save`.
// It makes no network call.
type FileSource struct {
	Path     string
	MaxBytes int64 // defaults to DefaultMaxBytes
}

// Name implements Source.
func (s *FileSource) Name() string { return "file" }

// Fetch implements Source.
func (s *FileSource) Fetch(ctx context.Context) (*Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, &FetchError{URL: s.Path, Kind: KindCanceled, Err: err}
	}

	f, err := os.Open(s.Path)
	if err != nil {
		return nil, &FetchError{URL: s.Path, Kind: KindFile, Err: err}
	}
	defer f.Close()

	body, err := readLimited(f, s.MaxBytes)
	if err != nil {
		kind := KindFile
		if errors.Is(err, ErrTooLarge) {
			kind = KindTooLarge
		}
		return nil, &FetchError{URL: s.Path, Kind: kind, Err: err}
	}

	doc, err := NewDocument(s.Path, body)
	if err != nil {
		return nil, &FetchError{URL: s.Path, Kind: KindDecode, Err: err}
	}
	return doc, nil
}

// readLimited reads all of r, failing with ErrTooLarge past max bytes.
// A max of zero or less means DefaultMaxBytes.
func readLimited(r io.Reader, max int64) ([]byte, error) {
	if max <= 0 {
		max = DefaultMaxBytes
	}
	body, err := io.ReadAll(io.LimitReader(r, max+1))
	if err != nil {
		return nil, err
	}
	if int64(len(body)) > max {
		return nil, fmt.Errorf("%w (%d bytes)", ErrTooLarge, max)
	}
	return body, nil
}
