package server

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/sw33tLie/qrsafe/pkg/whttp"
)

type errorBody struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	var body errorBody
	body.Error.Message = msg
	writeJSON(w, status, body)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.Write([]byte("ok"))
}

func (s *Server) handleSubmitURL(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, "invalid form body")
		return
	}
	target := strings.TrimSpace(r.PostForm.Get("url"))
	if target == "" {
		writeError(w, http.StatusBadRequest, "missing url")
		return
	}

	s.relay(w, r, &whttp.WHTTPReq{
		Method: http.MethodPost,
		URL:    s.cfg.UpstreamBaseURL + "/urls",
		Headers: []whttp.WHTTPHeader{
			{Name: "Content-Type", Value: "application/x-www-form-urlencoded"},
			{Name: "x-apikey", Value: s.cfg.UpstreamAPIKey},
		},
		Body: url.Values{"url": {target}}.Encode(),
	})
}

func (s *Server) handleGetAnalysis(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.relay(w, r, &whttp.WHTTPReq{
		Method:  http.MethodGet,
		URL:     s.cfg.UpstreamBaseURL + "/analyses/" + url.PathEscape(id),
		Headers: []whttp.WHTTPHeader{{Name: "x-apikey", Value: s.cfg.UpstreamAPIKey}},
	})
}

// relay forwards req upstream and copies status and body back unchanged.
func (s *Server) relay(w http.ResponseWriter, r *http.Request, req *whttp.WHTTPReq) {
	res, err := whttp.SendHTTPRequest(r.Context(), req, s.cfg.Client)
	if err != nil {
		s.log.Warnf("Upstream request to %s failed: %v", req.URL, err)
		writeError(w, http.StatusBadGateway, "upstream request failed")
		return
	}
	contentType := res.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/json"
	}
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(res.StatusCode)
	w.Write([]byte(res.BodyString))
}

type resolveRequest struct {
	URL string `json:"url"`
}

func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request) {
	var req resolveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.URL) == "" {
		writeError(w, http.StatusBadRequest, "expected a JSON body with a url")
		return
	}
	if s.cfg.Resolver == nil {
		writeError(w, http.StatusServiceUnavailable, "internal list is not configured")
		return
	}

	result := s.cfg.Resolver.Resolve(r.Context(), req.URL)
	if result == nil {
		writeError(w, http.StatusUnprocessableEntity, "could not extract a host from url")
		return
	}
	writeJSON(w, http.StatusOK, result)
}
