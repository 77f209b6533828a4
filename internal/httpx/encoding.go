package httpx

import (
	"compress/gzip"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/andybalholm/brotli"
)

// Setting Accept-Encoding by hand turns off the transport's transparent gzip
// handling, so readBody decodes both encodings itself.
const acceptEncoding = "br, gzip"

func readBody(resp *http.Response) ([]byte, error) {
	defer resp.Body.Close()

	r, err := decodingReader(resp.Header.Get("Content-Encoding"), resp.Body)
	if err != nil {
		return nil, err
	}
	return io.ReadAll(r)
}

func decodingReader(encoding string, body io.Reader) (io.Reader, error) {
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "", "identity":
		return body, nil
	case "br":
		return brotli.NewReader(body), nil
	case "gzip", "x-gzip":
		zr, err := gzip.NewReader(body)
		if err != nil {
			return nil, fmt.Errorf("httpx: gzip body: %w", err)
		}
		return zr, nil
	default:
		return nil, fmt.Errorf("httpx: unsupported content encoding %q", encoding)
	}
}
