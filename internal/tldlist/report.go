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
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"unicode"
)

// Format selects how a Result is printed.
type Format string

const (
	FormatList  Format = "list"  // ['COM', 'NET']
	FormatLines Format = "lines" // one entry per line
	FormatJSON  Format = "json"
)

// ParseFormat validates a --format value.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatList, FormatLines, FormatJSON:
		return f, nil
	case "":
		return FormatList, nil
	default:
		return "", fmt.Errorf("unknown format %q (want list, lines or json)", s)
	}
}

// Reporter prints results.
type Reporter struct {
	Out    io.Writer
	Format Format
}

// Report prints res in the configured format, or ErrorMessage when res is nil.
// An empty result is still a success and prints an empty list.
func (r *Reporter) Report(res *Result) error {
	if res == nil {
		return r.Failure()
	}

	w := bufio.NewWriter(r.Out)
	var err error
	switch r.Format {
	case FormatLines:
		for _, l := range res.Lines {
			if _, err = fmt.Fprintln(w, l); err != nil {
				break
			}
		}
	case FormatJSON:
		err = writeJSON(w, res)
	default:
		_, err = fmt.Fprintln(w, listRepr(res.Lines))
	}
	if err != nil {
		return fmt.Errorf("failed to write result: %w", err)
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("failed to write result: %w", err)
	}
	return nil
}

// Failure prints ErrorMessage.
func (r *Reporter) Failure() error {
	_, err := fmt.Fprintln(r.Out, ErrorMessage)
	return err
}

type jsonResult struct {
	Source   string   `json:"source"`
	XXH3     string   `json:"xxh3"`
	Fetched  int      `json:"fetched"`
	Stripped int      `json:"stripped"`
	Count    int      `json:"count"`
	TLDs     []string `json:"tlds"`
}

func writeJSON(w io.Writer, res *Result) error {
	tlds := res.Lines
	if tlds == nil {
		tlds = []string{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(jsonResult{
		Source:   res.Origin,
		XXH3:     fmt.Sprintf("%016x", res.Digest),
		Fetched:  res.Fetched,
		Stripped: res.Stripped,
		Count:    len(res.Lines),
		TLDs:     tlds,
	})
}

// listRepr renders entries as a bracketed, comma separated list of quoted strings.
func listRepr(entries []string) string {
	var sb strings.Builder
	sb.WriteByte('[')
	for i, e := range entries {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(quote(e))
	}
	sb.WriteByte(']')
	return sb.String()
}

// quote wraps s in single quotes, or double quotes when s holds a single quote and no
// double quote. Backslashes, the chosen quote and non-printable runes are escaped.
func quote(s string) string {
	q := '\''
	if strings.ContainsRune(s, '\'') && !strings.ContainsRune(s, '"') {
		q = '"'
	}

	var sb strings.Builder
	sb.Grow(len(s) + 2)
	sb.WriteRune(q)
	for _, c := range s {
		switch {
		case c == '\\' || c == q:
			sb.WriteByte('\\')
			sb.WriteRune(c)
		case c == '\n':
			sb.WriteString(`\n`)
		case c == '\r':
			sb.WriteString(`\r`)
		case c == '\t':
			sb.WriteString(`\t`)
		case !unicode.IsPrint(c):
			switch {
			case c < 0x100:
				fmt.Fprintf(&sb, `\x%02x`, c)
			case c < 0x10000:
				fmt.Fprintf(&sb, `\u%04x`, c)
			default:
				fmt.Fprintf(&sb, `\U%08x`, c)
			}
		default:
			sb.WriteRune(c)
		}
	}
	sb.WriteRune(q)
	return sb.String()
}
