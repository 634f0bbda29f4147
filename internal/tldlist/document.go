/*
Package tldlist downloads the IANA list of top-level domains and turns it into the
list rxtld prints: fetch, strip matching lines, optionally lowercase, report.

The list is small (tens of kilobytes), so a Source reads the whole body into memory
before anything else happens. The read is capped by a byte limit instead of trusting
the upstream to stay small.
*/
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
	"bytes"
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/zeebo/xxh3"
)

const (
	// DefaultURL is the IANA endpoint serving the current TLD list.
	DefaultURL = "https://data.iana.org/TLD/tlds-alpha-by-domain.txt"

	// DefaultMaxBytes caps how much of a list body is buffered. The real list is
	// well under 100KB.
	DefaultMaxBytes int64 = 16 << 20

	// ErrorMessage is printed in place of the list when it could not be read.
	ErrorMessage = "Encountered an error while reading the file."
)

// Source produces the TLD list document.
type Source interface {
	// Fetch reads the whole list. Failures are returned as *FetchError.
	Fetch(ctx context.Context) (*Document, error)
	// Name labels the source kind in logs and metrics ("http", "file").
	Name() string
}

// Line is a single record of the list, with its line terminator removed.
type Line struct {
	Raw  []byte
	Text string
}

// Trimmed returns the text without leading or trailing whitespace.
func (l Line) Trimmed() string {
	return strings.TrimSpace(l.Text)
}

// Document is one fetched copy of the list.
type Document struct {
	Origin string // URL or path the body was read from
	Body   []byte
	Lines  []Line
	Digest uint64 // xxh3 of Body
}

// NewDocument splits body into lines and computes its digest.
func NewDocument(origin string, body []byte) (*Document, error) {
	lines, err := ParseLines(body)
	if err != nil {
		return nil, err
	}
	return &Document{
		Origin: origin,
		Body:   body,
		Lines:  lines,
		Digest: xxh3.Hash(body),
	}, nil
}

// DigestHex returns the digest as 16 hex digits.
func (d *Document) DigestHex() string {
	return fmt.Sprintf("%016x", d.Digest)
}

// ParseLines splits body on '\n' in order of appearance. A trailing '\r' is removed from
// each line; other whitespace is kept. A terminator at the very end of body does not
// produce an extra empty line. Every line must be valid UTF-8.
func ParseLines(body []byte) ([]Line, error) {
	if len(body) == 0 {
		return nil, nil
	}

	parts := bytes.Split(body, []byte{'\n'})
	if len(parts[len(parts)-1]) == 0 {
		parts = parts[:len(parts)-1]
	}

	lines := make([]Line, 0, len(parts))
	for i, raw := range parts {
		raw = bytes.TrimSuffix(raw, []byte{'\r'})
		if !utf8.Valid(raw) {
			return nil, fmt.Errorf("line %d: %w", i+1, ErrInvalidUTF8)
		}
		lines = append(lines, Line{Raw: raw, Text: string(raw)})
	}
	return lines, nil
}

// Texts returns the trimmed text of every line.
func Texts(lines []Line) []string {
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = l.Trimmed()
	}
	return out
}
