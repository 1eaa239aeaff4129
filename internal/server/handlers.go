package server

import (
	"encoding/json"
	"mime"
	"net/http"
	"net/url"
	"strings"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"

	"github.com/gaurav-prasanna/faleproxy/core"
	"github.com/gaurav-prasanna/faleproxy/internal/logging"
)

const maxRequestBody = 1 << 20

// Client-visible error messages.
const (
	msgURLRequired = "URL is required"
	msgURLInvalid  = "URL must be an absolute http(s) URL"
	msgBadBody     = "Invalid request body"
	msgFetchFailed = "Failed to fetch content: "
)

type fetchRequest struct {
	URL string `json:"url"`
}

// handleFetch fetches the requested page, rewrites it and returns the
// core.FetchResponse envelope. Accepts JSON or form-encoded bodies.
func (s *Server) handleFetch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := zerolog.Ctx(ctx)

	rawURL, err := readURL(w, r)
	if err != nil {
		log.Debug().Err(err).Msg("rejecting request body")
		writeError(w, http.StatusBadRequest, msgBadBody)
		return
	}
	if rawURL == "" {
		writeError(w, http.StatusBadRequest, msgURLRequired)
		return
	}
	if !isHTTPURL(rawURL) {
		writeError(w, http.StatusBadRequest, msgURLInvalid)
		return
	}

	page, err := s.fetcher.Fetch(ctx, rawURL)
	if err != nil {
		log.Error().Err(err).Str(logging.KeyURL, rawURL).Msg("error fetching URL")
		writeError(w, http.StatusInternalServerError, msgFetchFailed+err.Error())
		return
	}

	res, err := s.rewriter.Rewrite(ctx, page.HTML)
	if err != nil {
		log.Error().Err(err).Str(logging.KeyURL, rawURL).Msg("error rewriting page")
		writeError(w, http.StatusInternalServerError, msgFetchFailed+err.Error())
		return
	}

	log.Info().Str(logging.KeyURL, rawURL).Int(logging.KeyReplacements, res.Stats.Replacements).Msg("rewrote page")
	writeJSON(w, http.StatusOK, core.FetchResponse{
		Success:      true,
		Content:      res.HTML,
		Title:        res.Title,
		OriginalURL:  rawURL,
		Replacements: res.Stats.Replacements,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// readURL pulls the url field from a JSON or form body.
func readURL(w http.ResponseWriter, r *http.Request) (string, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		var req fetchRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return "", errors.Errorf("decoding JSON body: %w", err)
		}
		return strings.TrimSpace(req.URL), nil
	}

	if err := r.ParseForm(); err != nil {
		return "", errors.Errorf("parsing form body: %w", err)
	}
	return strings.TrimSpace(r.PostForm.Get("url")), nil
}

func isHTTPURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return false
	}
	return u.Scheme == "http" || u.Scheme == "https"
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, core.ErrorResponse{Error: msg})
}
