package covers

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"strings"

	"bookimg/internal/types"
)

// URLSource resolves a remote cover image URL for an ISBN; metadata sources
// that also know cover art implement it.
type URLSource interface {
	Name() string
	CoverURL(ctx context.Context, isbn string) (string, error)
}

// FromSource adapts a URL source into a download provider.
func FromSource(src URLSource, client *http.Client) Provider {
	return &sourceProvider{src: src, client: client}
}

type sourceProvider struct {
	src    URLSource
	client *http.Client
}

func (s *sourceProvider) Name() string {
	return s.src.Name()
}

func (s *sourceProvider) DownloadCover(ctx context.Context, book *types.Book) (string, error) {
	coverURL, err := s.src.CoverURL(ctx, book.Isbn)
	if err != nil {
		return "", err
	}
	if coverURL == "" {
		return "", nil
	}

	return downloadToFile(ctx, s.client, coverURL)
}

// downloadToFile fetches the image into a temporary file and returns its
// path. The extension is taken from the URL, defaulting to .jpg.
func downloadToFile(ctx context.Context, client *http.Client, rawURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("building cover download request: %w", err)
	}

	res, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("downloading cover: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return "", fmt.Errorf("cover host responded %s", res.Status)
	}

	f, err := os.CreateTemp("", "bookimg-cover-*"+urlSuffix(rawURL))
	if err != nil {
		return "", fmt.Errorf("creating cover temp file: %w", err)
	}

	_, err = io.Copy(f, res.Body)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("writing cover temp file: %w", err)
	}

	return f.Name(), nil
}

func urlSuffix(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ".jpg"
	}

	switch ext := strings.ToLower(path.Ext(u.Path)); ext {
	case ".png", ".jpg", ".jpeg", ".webp", ".gif":
		return ext
	default:
		return ".jpg"
	}
}
