package metadata

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/opds-community/libopds2-go/opds1"

	"bookimg/internal/types"
)

const opdsLinkRelImage = "http://opds-spec.org/image"

var regOPDSLinkTypeImage = regexp.MustCompile("^image/[^/]+$")

// OPDS queries an OPDS 1.x acquisition/search feed (a Calibre or
// Standard-Ebooks style catalog). The ISBN goes into the feed's q query
// parameter; the matching entry is the one whose atom id mentions the ISBN,
// falling back to the first entry of the already-filtered feed.
type OPDS struct {
	Client *http.Client
	Feed   *url.URL
}

func NewOPDS(client *http.Client, feed *url.URL) *OPDS {
	return &OPDS{Client: client, Feed: feed}
}

func (o *OPDS) Name() string {
	return "opds-catalog"
}

func (o *OPDS) LookupISBN(ctx context.Context, isbn string) (*types.Book, error) {
	entry, err := o.findEntry(ctx, isbn)
	if err != nil || entry == nil {
		return nil, err
	}

	var year *int
	if issued := strings.TrimSpace(entry.Issued); issued != "" {
		// issued is a year or a full date
		if y, err := strconv.Atoi(strings.SplitN(issued, "-", 2)[0]); err == nil {
			year = &y
		}
	}

	var authors []string
	for _, auth := range entry.Author {
		if name := strings.TrimSpace(auth.Name); name != "" {
			authors = append(authors, name)
		}
	}

	return &types.Book{
		Isbn:        isbn,
		Title:       strings.TrimSpace(entry.Title),
		Author:      strings.Join(authors, ", "),
		Year:        year,
		Description: strings.TrimSpace(entry.Content.Content),
	}, nil
}

// CoverURL returns the entry's image-rel link resolved against the feed URL.
func (o *OPDS) CoverURL(ctx context.Context, isbn string) (string, error) {
	entry, err := o.findEntry(ctx, isbn)
	if err != nil || entry == nil {
		return "", err
	}

	for _, link := range entry.Links {
		if strings.TrimSpace(link.Rel) != opdsLinkRelImage {
			continue
		}
		if !regOPDSLinkTypeImage.MatchString(strings.TrimSpace(link.TypeLink)) {
			continue
		}

		href, err := url.Parse(link.Href)
		if err != nil {
			return "", fmt.Errorf("parsing cover link %s: %w", link.Href, err)
		}

		return o.Feed.ResolveReference(href).String(), nil
	}

	return "", nil
}

func (o *OPDS) findEntry(ctx context.Context, isbn string) (*opds1.Entry, error) {
	searchURL := *o.Feed
	q := searchURL.Query()
	q.Set("q", isbn)
	searchURL.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("building opds request: %w", err)
	}

	res, err := o.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching opds feed: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("opds catalog responded %s", res.Status)
	}

	bs, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("reading opds feed: %w", err)
	}

	var feed opds1.Feed
	if err := xml.Unmarshal(bs, &feed); err != nil {
		return nil, fmt.Errorf("unmarshalling opds feed: %w", err)
	}

	if len(feed.Entries) == 0 {
		return nil, nil
	}

	for i := range feed.Entries {
		if strings.Contains(feed.Entries[i].ID, isbn) {
			return &feed.Entries[i], nil
		}
	}

	return &feed.Entries[0], nil
}
