package tldlist

import (
	"errors"
	"reflect"
	"testing"

	"github.com/zeebo/xxh3"
)

func TestParseLines(t *testing.T) {
	t.Parallel()
	testCases := []struct {
		name     string
		input    string
		expected []string
	}{
		{"Empty body", "", nil},
		{"Single line no terminator", "COM", []string{"COM"}},
		{"Trailing newline", "COM\nNET\n", []string{"COM", "NET"}},
		{"CRLF", "COM\r\nNET\r\n", []string{"COM", "NET"}},
		{"Inner blank line kept", "COM\n\nNET\n", []string{"COM", "", "NET"}},
		{"Whitespace kept", "  COM \t\n", []string{"  COM \t"}},
		{"Only newline", "\n", []string{""}},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			lines, err := ParseLines([]byte(tc.input))
			if err != nil {
				t.Fatalf("ParseLines(%q): %v", tc.input, err)
			}
			var got []string
			for _, l := range lines {
				if string(l.Raw) != l.Text {
					t.Fatalf("raw %q and text %q differ", l.Raw, l.Text)
				}
				got = append(got, l.Text)
			}
			if !reflect.DeepEqual(got, tc.expected) {
				t.Errorf("ParseLines(%q) = %q; want %q", tc.input, got, tc.expected)
			}
		})
	}
}

func TestParseLinesRejectsInvalidUTF8(t *testing.T) {
	t.Parallel()

	_, err := ParseLines([]byte("COM\n\xff\xfe\n"))
	if !errors.Is(err, ErrInvalidUTF8) {
		t.Fatalf("expected ErrInvalidUTF8, got %v", err)
	}
}

func TestLineTrimmed(t *testing.T) {
	t.Parallel()

	l := Line{Raw: []byte("  XN--P1AI \t"), Text: "  XN--P1AI \t"}
	if got := l.Trimmed(); got != "XN--P1AI" {
		t.Fatalf("Trimmed() = %q; want %q", got, "XN--P1AI")
	}
}

func TestNewDocumentDigest(t *testing.T) {
	t.Parallel()

	body := []byte(sampleBody)
	doc, err := NewDocument("https://example.test/tlds.txt", body)
	if err != nil {
		t.Fatalf("NewDocument: %v", err)
	}
	if doc.Digest != xxh3.Hash(body) {
		t.Fatalf("digest mismatch: %x", doc.Digest)
	}
	if len(doc.DigestHex()) != 16 {
		t.Fatalf("expected 16 hex digits, got %q", doc.DigestHex())
	}
	if len(doc.Lines) != 4 {
		t.Fatalf("expected 4 lines, got %d", len(doc.Lines))
	}
}
