package metadata

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"bookimg/internal/types"
)

const GoogleBooksBaseURL = "https://www.googleapis.com/books/v1/volumes"

// GoogleBooks queries the public Google Books volumes API.
type GoogleBooks struct {
	Client  *http.Client
	BaseURL string
}

func NewGoogleBooks(client *http.Client) *GoogleBooks {
	return &GoogleBooks{Client: client, BaseURL: GoogleBooksBaseURL}
}

func (g *GoogleBooks) Name() string {
	return "google-books"
}

type googleVolumes struct {
	Items []struct {
		VolumeInfo googleVolumeInfo `json:"volumeInfo"`
	} `json:"items"`
}

type googleVolumeInfo struct {
	Title         string            `json:"title"`
	Authors       []string          `json:"authors"`
	PublishedDate string            `json:"publishedDate"`
	PageCount     *int              `json:"pageCount"`
	Description   string            `json:"description"`
	ImageLinks    map[string]string `json:"imageLinks"`
}

func (g *GoogleBooks) LookupISBN(ctx context.Context, isbn string) (*types.Book, error) {
	volumes, err := g.queryVolumes(ctx, isbn)
	if err != nil {
		return nil, err
	}

	if len(volumes.Items) == 0 {
		return nil, nil
	}

	info := volumes.Items[0].VolumeInfo

	var year *int
	// publishedDate is a year or a full date
	if info.PublishedDate != "" {
		if y, err := strconv.Atoi(strings.SplitN(info.PublishedDate, "-", 2)[0]); err == nil {
			year = &y
		}
	}

	return &types.Book{
		Isbn:        isbn,
		Title:       info.Title,
		Author:      strings.Join(info.Authors, ", "),
		Year:        year,
		Pages:       info.PageCount,
		Description: info.Description,
	}, nil
}

// CoverURL returns the largest available cover image link for the ISBN, or
// "" if the API knows none.
func (g *GoogleBooks) CoverURL(ctx context.Context, isbn string) (string, error) {
	volumes, err := g.queryVolumes(ctx, isbn)
	if err != nil {
		return "", err
	}

	if len(volumes.Items) == 0 {
		return "", nil
	}

	links := volumes.Items[0].VolumeInfo.ImageLinks
	for _, size := range []string{"extraLarge", "large", "medium", "small", "thumbnail"} {
		if link, ok := links[size]; ok {
			return strings.Replace(link, "http://", "https://", 1), nil
		}
	}

	return "", nil
}

func (g *GoogleBooks) queryVolumes(ctx context.Context, isbn string) (*googleVolumes, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		g.BaseURL+"?q=isbn:"+url.QueryEscape(isbn), nil)
	if err != nil {
		return nil, fmt.Errorf("building google books request: %w", err)
	}

	res, err := g.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching google books volumes: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("google books responded %s", res.Status)
	}

	var volumes googleVolumes
	if err := json.NewDecoder(res.Body).Decode(&volumes); err != nil {
		return nil, fmt.Errorf("decoding google books response: %w", err)
	}

	return &volumes, nil
}
