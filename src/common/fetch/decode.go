package fetch

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zlib"
	"golang.org/x/net/html/charset"
)

const maxBodyBytes = 10 << 20

// decodeBody undoes the Content-Encoding of raw. Unsupported encodings are
// returned untouched.
func decodeBody(encoding string, raw []byte) ([]byte, error) {
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "gzip", "x-gzip":
		zr, err := gzip.NewReader(bytes.NewReader(raw))
		if err != nil {
			return nil, fmt.Errorf("gzip: %w", err)
		}
		defer zr.Close()
		return readCapped(zr, "gzip")

	case "deflate":
		// Servers disagree on whether "deflate" carries the zlib wrapper.
		if zr, err := zlib.NewReader(bytes.NewReader(raw)); err == nil {
			defer zr.Close()
			if body, err := readCapped(zr, "deflate"); err == nil {
				return body, nil
			}
		}
		fr := flate.NewReader(bytes.NewReader(raw))
		defer fr.Close()
		return readCapped(fr, "deflate")

	case "br":
		return readCapped(brotli.NewReader(bytes.NewReader(raw)), "br")

	default:
		return raw, nil
	}
}

func readCapped(r io.Reader, encoding string) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(r, maxBodyBytes+1))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", encoding, err)
	}
	if len(body) > maxBodyBytes {
		return nil, fmt.Errorf("%s: decoded body exceeds %d bytes", encoding, maxBodyBytes)
	}
	return body, nil
}

// toUTF8 converts body to UTF-8 using the charset declared in contentType or
// sniffed from the document. Valid UTF-8 is returned as is.
func toUTF8(body []byte, contentType string) []byte {
	if utf8.Valid(body) {
		return body
	}
	_, name, _ := charset.DetermineEncoding(body, contentType)
	if name == "utf-8" || name == "" {
		return body
	}

	r, err := charset.NewReaderLabel(name, bytes.NewReader(body))
	if err != nil {
		return body
	}
	converted, err := io.ReadAll(r)
	if err != nil {
		return body
	}
	return converted
}
