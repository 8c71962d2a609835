package server

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"bookimg/internal/generate"
	"bookimg/internal/metadata"
	"bookimg/internal/response"
	"bookimg/internal/storage/books"
	"bookimg/internal/storage/fails"
	"bookimg/internal/types"
)

var regImageName = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*\.svg$`)

// Handler serves the preview API: cached/looked-up book metadata and the
// generated SVG images on disk. br and fr may be nil when no database is
// configured; lookups then always go to the providers.
func Handler(br books.Repository, fr fails.Repository, ms *metadata.Service, outputDir string,
	rr *response.Responder) http.Handler {

	r := chi.NewRouter()

	r.Get("/books", func(w http.ResponseWriter, r *http.Request) {
		if br == nil {
			rr.RespondAndLogCustom(w, r.Context(),
				errors.New("book listing requires a configured database"),
				slog.LevelInfo, http.StatusNotImplemented)
			return
		}

		rows, err := br.ListRecent(r.Context(), uint(getIntOrDefault("limit", r.URL.Query(), 20)))
		if err != nil {
			rr.RespondAndLogError(w, r.Context(), err)
			return
		}

		if rows == nil {
			rows = make([]*types.Book, 0)
		}

		rr.SendJson(w, r.Context(), struct {
			Books []*types.Book `json:"books"`
		}{Books: rows})
	})

	r.Get("/fails", func(w http.ResponseWriter, r *http.Request) {
		if fr == nil {
			rr.RespondAndLogCustom(w, r.Context(),
				errors.New("fail journal requires a configured database"),
				slog.LevelInfo, http.StatusNotImplemented)
			return
		}

		now := time.Now()
		rows, err := fr.GetFails(r.Context(), &now, uint(getIntOrDefault("limit", r.URL.Query(), 20)))
		if err != nil {
			rr.RespondAndLogError(w, r.Context(), err)
			return
		}

		if rows == nil {
			rows = make([]*fails.Record, 0)
		}

		rr.SendJson(w, r.Context(), struct {
			Fails []*fails.Record `json:"fails"`
		}{Fails: rows})
	})

	r.Get("/books/{isbn}", func(w http.ResponseWriter, r *http.Request) {
		isbn := chi.URLParam(r, "isbn")

		if br != nil {
			book, err := br.GetByISBN(r.Context(), isbn)
			if err != nil {
				rr.RespondAndLogError(w, r.Context(), err)
				return
			}
			if book != nil {
				rr.SendJson(w, r.Context(), book)
				return
			}
		}

		book := ms.Lookup(r.Context(), isbn)
		if book == nil {
			if fr != nil {
				now := time.Now()
				if err := fr.Save(r.Context(), &now, isbn, errors.New("all providers exhausted")); err != nil {
					slog.ErrorContext(r.Context(), "Failed to journal lookup failure: "+err.Error())
				}
			}

			rr.RespondAndLogCustom(w, r.Context(),
				errors.New("no metadata found for ISBN "+isbn),
				slog.LevelInfo, http.StatusNotFound)
			return
		}

		if br != nil {
			if err := br.Save(r.Context(), book); err != nil {
				slog.ErrorContext(r.Context(), "Failed to cache book "+isbn+": "+err.Error())
			}
		}
		if fr != nil {
			if err := fr.DeleteByIsbn(r.Context(), isbn); err != nil {
				slog.ErrorContext(r.Context(), "Failed to clear fail journal for "+isbn+": "+err.Error())
			}
		}

		rr.SendJson(w, r.Context(), book)
	})

	r.Get("/images", func(w http.ResponseWriter, r *http.Request) {
		entries, err := os.ReadDir(outputDir)
		if err != nil {
			rr.RespondAndLogError(w, r.Context(), err)
			return
		}

		files := make([]string, 0, len(entries))
		for _, entry := range entries {
			if entry.IsDir() || !regImageName.MatchString(entry.Name()) {
				continue
			}
			files = append(files, entry.Name())
		}

		rr.SendJson(w, r.Context(), struct {
			Images []string        `json:"images"`
			Pairs  []generate.Pair `json:"pairs"`
		}{
			Images: files,
			Pairs:  generate.Pairs(files),
		})
	})

	r.Get("/images/{name}", func(w http.ResponseWriter, r *http.Request) {
		name := chi.URLParam(r, "name")
		if !regImageName.MatchString(name) {
			rr.RespondAndLogCustom(w, r.Context(),
				errors.New("invalid image name"),
				slog.LevelInfo, http.StatusBadRequest)
			return
		}

		bs, err := os.ReadFile(filepath.Join(outputDir, name))
		if err != nil {
			if os.IsNotExist(err) {
				rr.RespondAndLogCustom(w, r.Context(),
					errors.New("no such image: "+name),
					slog.LevelInfo, http.StatusNotFound)
				return
			}

			rr.RespondAndLogError(w, r.Context(), err)
			return
		}

		rr.SendSvg(w, r.Context(), bs)
	})

	return r
}

func getIntOrDefault(key string, q url.Values, default_ int) int {
	if ls := q.Get(key); ls != "" {
		limit, err := strconv.Atoi(ls)
		if err == nil {
			return limit
		}
	}

	return default_
}
