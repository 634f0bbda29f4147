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
	"io"
	"log/slog"
	"time"

	"github.com/x-stp/rxtld/internal/metrics"
)

// Options selects what the pipeline does to the fetched lines.
type Options struct {
	StripPatterns []string // lines containing any of these are dropped
	Lowercase     bool
	Unicode       bool // render punycode entries in Unicode
}

// Result is the list produced by one run.
type Result struct {
	Origin   string
	Digest   uint64
	Lines    []string // trimmed, in source order
	Fetched  int      // lines in the fetched document
	Stripped int      // lines removed by the strip patterns
}

// Pipeline wires a Source to the filter and normalization stages.
type Pipeline struct {
	Source  Source
	Options Options
	Logger  *slog.Logger     // nil discards logs
	Metrics *metrics.Metrics // nil records nothing
	Now     func() time.Time // defaults to time.Now
}

// Fetch fetches the document once, recording metrics. On failure it logs the cause
// and returns a *FetchError.
func (p *Pipeline) Fetch(ctx context.Context) (*Document, error) {
	logger := p.logger()
	source := p.Source.Name()

	logger.Debug("Fetching TLD list", "source", source)
	stop := p.Metrics.MeasureFetch(source)
	doc, err := p.Source.Fetch(ctx)
	stop()
	if err != nil {
		var fe *FetchError
		if !errors.As(err, &fe) {
			fe = &FetchError{URL: source, Kind: classify(err), Err: err}
		}
		p.Metrics.RecordFetchFailure(source, string(fe.Kind))
		logger.Error("Error fetching data from URL",
			"url", fe.URL,
			"kind", fe.Kind,
			"status", fe.StatusCode,
			"error", fe.Err,
		)
		return nil, fe
	}

	p.Metrics.RecordFetchSuccess(source, len(doc.Body), doc.Digest)
	p.Metrics.RecordLines(metrics.StageFetched, len(doc.Lines))
	logger.Debug("Fetched TLD list",
		"url", doc.Origin,
		"bytes", len(doc.Body),
		"lines", len(doc.Lines),
		"xxh3", doc.DigestHex(),
	)
	return doc, nil
}

// Run fetches the list once and applies the configured stages. On failure it logs the
// cause and returns a *FetchError with no partial result.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	doc, err := p.Fetch(ctx)
	if err != nil {
		return nil, err
	}

	kept := Filter(doc.Lines, p.Options.StripPatterns)
	stripped := len(doc.Lines) - len(kept)
	p.Metrics.RecordLines(metrics.StageStripped, stripped)
	if len(p.Options.StripPatterns) > 0 {
		p.logger().Debug("Stripped lines", "patterns", p.Options.StripPatterns, "removed", stripped, "kept", len(kept))
	}

	texts := Normalize(Texts(kept), p.Options.Lowercase)
	if p.Options.Unicode {
		texts = DecodeIDN(texts)
	}

	p.Metrics.RecordLines(metrics.StageEmitted, len(texts))
	p.Metrics.MarkSuccess(p.now())

	return &Result{
		Origin:   doc.Origin,
		Digest:   doc.Digest,
		Lines:    texts,
		Fetched:  len(doc.Lines),
		Stripped: stripped,
	}, nil
}

func (p *Pipeline) logger() *slog.Logger {
	if p.Logger == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return p.Logger
}

func (p *Pipeline) now() time.Time {
	if p.Now == nil {
		return time.Now()
	}
	return p.Now()
}
