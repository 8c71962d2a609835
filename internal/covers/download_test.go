package covers

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"bookimg/internal/llm"
	"bookimg/internal/types"
)

type fakeURLSource struct {
	url string
	err error
}

func (f *fakeURLSource) Name() string {
	return "fake-source"
}

func (f *fakeURLSource) CoverURL(ctx context.Context, isbn string) (string, error) {
	return f.url, f.err
}

func imageServer() *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "missing.jpg") {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte("image-bytes"))
	}))
}

func TestFromSourceDownloadsToTempFile(t *testing.T) {
	server := imageServer()
	defer server.Close()

	p := FromSource(&fakeURLSource{url: server.URL + "/covers/book.png"}, server.Client())

	path, err := p.DownloadCover(context.Background(), &types.Book{Isbn: "x"})
	if err != nil {
		t.Fatalf("DownloadCover returned error: %v", err)
	}
	if path == "" {
		t.Fatal("DownloadCover returned empty path")
	}
	defer os.Remove(path)

	if !strings.HasSuffix(path, ".png") {
		t.Errorf("path = %q, want extension taken from the URL", path)
	}

	bs, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading downloaded file: %v", err)
	}
	if string(bs) != "image-bytes" {
		t.Errorf("downloaded content = %q", bs)
	}
}

func TestFromSourceNoURLMeansNotFound(t *testing.T) {
	p := FromSource(&fakeURLSource{}, http.DefaultClient)

	path, err := p.DownloadCover(context.Background(), &types.Book{Isbn: "x"})
	if err != nil {
		t.Fatalf("DownloadCover returned error: %v", err)
	}
	if path != "" {
		t.Errorf("path = %q, want empty when the source knows no cover", path)
	}
}

func TestFromSourceUpstreamFailure(t *testing.T) {
	server := imageServer()
	defer server.Close()

	p := FromSource(&fakeURLSource{url: server.URL + "/covers/missing.jpg"}, server.Client())

	if _, err := p.DownloadCover(context.Background(), &types.Book{Isbn: "x"}); err == nil {
		t.Error("expected error for a 404 cover download")
	}
}

type fakeSynth struct {
	llm.Provider

	url string
	err error
}

func (f *fakeSynth) Name() string {
	return "fake-model"
}

func (f *fakeSynth) GenerateCoverImage(ctx context.Context, book *types.Book) (string, error) {
	return f.url, f.err
}

func TestGeneratedDownloadsSynthesizedImage(t *testing.T) {
	server := imageServer()
	defer server.Close()

	g := NewGenerated(&fakeSynth{url: server.URL + "/gen.png"}, server.Client(), slog.Default())

	path, err := g.DownloadCover(context.Background(), &types.Book{Isbn: "x"})
	if err != nil {
		t.Fatalf("DownloadCover returned error: %v", err)
	}
	if path == "" {
		t.Fatal("DownloadCover returned empty path")
	}
	os.Remove(path)
}

func TestGeneratedUnsupportedIsNotAnError(t *testing.T) {
	g := NewGenerated(&fakeSynth{err: llm.ErrUnsupported}, http.DefaultClient, slog.Default())

	path, err := g.DownloadCover(context.Background(), &types.Book{Isbn: "x"})
	if err != nil {
		t.Fatalf("unsupported synthesis must not surface as an error, got: %v", err)
	}
	if path != "" {
		t.Errorf("path = %q, want empty", path)
	}
}
