package metadata

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
)

const opdsFeedXML = `<?xml version="1.0" encoding="utf-8"?>
<feed xmlns="http://www.w3.org/2005/Atom" xmlns:dc="http://purl.org/dc/terms/">
  <title>Catalog search</title>
  <entry>
    <id>urn:isbn:9999999999999</id>
    <title>Some Other Book</title>
    <author><name>Nobody</name></author>
  </entry>
  <entry>
    <id>urn:isbn:9780140328721</id>
    <title>Matilda</title>
    <author><name>Roald Dahl</name></author>
    <dc:issued>1988</dc:issued>
    <content type="text">A girl with powers.</content>
    <link rel="http://opds-spec.org/image" type="image/jpeg" href="/covers/matilda.jpg"/>
    <link rel="http://opds-spec.org/acquisition" type="application/epub+zip" href="/books/matilda.epub"/>
  </entry>
</feed>`

func opdsServer(t *testing.T) (*httptest.Server, *url.URL) {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if q := r.URL.Query().Get("q"); q != "9780140328721" {
			t.Errorf("q = %q, want the ISBN", q)
		}
		w.Header().Set("Content-Type", "application/atom+xml")
		_, _ = w.Write([]byte(opdsFeedXML))
	}))

	feed, err := url.Parse(server.URL + "/opds/search")
	if err != nil {
		t.Fatalf("parsing feed url: %v", err)
	}

	return server, feed
}

func TestOPDSLookupISBNMatchesEntryById(t *testing.T) {
	server, feed := opdsServer(t)
	defer server.Close()

	o := NewOPDS(server.Client(), feed)

	book, err := o.LookupISBN(context.Background(), "9780140328721")
	if err != nil {
		t.Fatalf("LookupISBN returned error: %v", err)
	}
	if book == nil {
		t.Fatal("LookupISBN returned nil book")
	}

	if book.Title != "Matilda" {
		t.Errorf("Title = %q, want the entry whose id carries the ISBN", book.Title)
	}
	if book.Author != "Roald Dahl" {
		t.Errorf("Author = %q", book.Author)
	}
	if book.Year == nil || *book.Year != 1988 {
		t.Errorf("Year = %v, want 1988", book.Year)
	}
	if book.Description != "A girl with powers." {
		t.Errorf("Description = %q", book.Description)
	}
}

func TestOPDSCoverURLResolvesAgainstFeed(t *testing.T) {
	server, feed := opdsServer(t)
	defer server.Close()

	o := NewOPDS(server.Client(), feed)

	coverURL, err := o.CoverURL(context.Background(), "9780140328721")
	if err != nil {
		t.Fatalf("CoverURL returned error: %v", err)
	}

	if coverURL != server.URL+"/covers/matilda.jpg" {
		t.Errorf("CoverURL = %q, want the image link resolved against the feed", coverURL)
	}
}

func TestOPDSLookupEmptyFeed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<?xml version="1.0"?><feed xmlns="http://www.w3.org/2005/Atom"></feed>`))
	}))
	defer server.Close()

	feed, _ := url.Parse(server.URL + "/opds/search")
	o := NewOPDS(server.Client(), feed)

	book, err := o.LookupISBN(context.Background(), "123")
	if err != nil {
		t.Fatalf("LookupISBN returned error: %v", err)
	}
	if book != nil {
		t.Errorf("LookupISBN = %+v, want nil for an empty feed", book)
	}
}
