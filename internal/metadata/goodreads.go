package metadata

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"bookimg/internal/types"
)

const GoodreadsBaseURL = "https://www.goodreads.com"

// Browser-ish agent, the site serves a stripped page to unknown clients
const goodreadsUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

var (
	regGoodreadsBookHref = regexp.MustCompile(`href="(/book/show/[^"?]+)`)

	regGoodreadsTitle  = regexp.MustCompile(`<h1[^>]*data-testid="bookTitle"[^>]*>([^<]+)</h1>`)
	regGoodreadsAuthor = regexp.MustCompile(`<span[^>]*data-testid="name"[^>]*>([^<]+)</span>`)
	regGoodreadsPages  = regexp.MustCompile(`(\d+)\s*pages`)
	regGoodreadsYear   = regexp.MustCompile(`First published.*?(\d{4})`)
	regGoodreadsDescr  = regexp.MustCompile(`(?s)<span[^>]*data-testid="description"[^>]*>(.*?)</span>`)
	regGoodreadsCover  = regexp.MustCompile(`<img[^>]*class="[^"]*ResponsiveImage[^"]*"[^>]*src="([^"]+)"`)

	regStripTags = regexp.MustCompile(`<[^>]*>`)
)

// Goodreads scrapes the public book page. The search endpoint usually
// redirects an ISBN query straight to the book; if it does not, the first
// book link on the results page is followed.
type Goodreads struct {
	Client  *http.Client
	BaseURL string
}

func NewGoodreads(client *http.Client) *Goodreads {
	return &Goodreads{Client: client, BaseURL: GoodreadsBaseURL}
}

func (g *Goodreads) Name() string {
	return "goodreads"
}

func (g *Goodreads) LookupISBN(ctx context.Context, isbn string) (*types.Book, error) {
	html, err := g.fetchBookPage(ctx, isbn)
	if err != nil {
		return nil, err
	}
	if html == "" {
		return nil, nil
	}

	title := submatch(regGoodreadsTitle, html)
	author := submatch(regGoodreadsAuthor, html)
	if title == "" && author == "" {
		return nil, nil
	}

	book := &types.Book{
		Isbn:   isbn,
		Title:  strings.TrimSpace(title),
		Author: strings.TrimSpace(author),
	}

	if s := submatch(regGoodreadsPages, html); s != "" {
		if pages, err := strconv.Atoi(s); err == nil {
			book.Pages = &pages
		}
	}

	if s := submatch(regGoodreadsYear, html); s != "" {
		if year, err := strconv.Atoi(s); err == nil {
			book.Year = &year
		}
	}

	if s := submatch(regGoodreadsDescr, html); s != "" {
		book.Description = strings.TrimSpace(regStripTags.ReplaceAllString(s, " "))
	}

	return book, nil
}

// CoverURL scrapes the book page for its cover image, upgrading known
// small-size URL markers to the larger variants.
func (g *Goodreads) CoverURL(ctx context.Context, isbn string) (string, error) {
	html, err := g.fetchBookPage(ctx, isbn)
	if err != nil {
		return "", err
	}

	cover := submatch(regGoodreadsCover, html)
	if cover == "" || strings.HasPrefix(cover, "data:") {
		return "", nil
	}

	cover = strings.Replace(cover, "_SX98_", "_SX318_", 1)
	cover = strings.Replace(cover, "_SY160_", "_SY475_", 1)
	return cover, nil
}

// fetchBookPage returns the HTML of the book page for the ISBN, or "" when
// the search finds nothing.
func (g *Goodreads) fetchBookPage(ctx context.Context, isbn string) (string, error) {
	finalURL, html, err := g.get(ctx, g.BaseURL+"/search?q="+url.QueryEscape(isbn))
	if err != nil {
		return "", err
	}

	if strings.Contains(finalURL.Path, "/book/show/") {
		return html, nil
	}

	href := submatch(regGoodreadsBookHref, html)
	if href == "" {
		return "", nil
	}

	_, html, err = g.get(ctx, g.BaseURL+href)
	if err != nil {
		return "", fmt.Errorf("fetching book page: %w", err)
	}

	return html, nil
}

func (g *Goodreads) get(ctx context.Context, rawURL string) (*url.URL, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("building goodreads request: %w", err)
	}
	req.Header.Set("User-Agent", goodreadsUserAgent)

	res, err := g.Client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("fetching goodreads page: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("goodreads responded %s", res.Status)
	}

	bs, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, "", fmt.Errorf("reading goodreads response: %w", err)
	}

	return res.Request.URL, string(bs), nil
}

func submatch(reg *regexp.Regexp, s string) string {
	m := reg.FindStringSubmatch(s)
	if m == nil {
		return ""
	}

	return m[1]
}
