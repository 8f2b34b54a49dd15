package rest

import (
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/clintrovert/prbranches/internal/dom"
	"github.com/clintrovert/prbranches/internal/feature"
	"github.com/clintrovert/prbranches/internal/location"
	"github.com/clintrovert/prbranches/internal/prbranches"
	"github.com/clintrovert/prbranches/pkg/types"
)

// Handler serves annotated pull request list pages and annotation fragments
type Handler struct {
	annotator *prbranches.Annotator
	upstream  *http.Client
	webURL    string
	logger    *zap.Logger
}

// NewHandler creates a new REST handler. webURL is the site whose pages are
// proxied, e.g. https://github.com.
func NewHandler(annotator *prbranches.Annotator, upstream *http.Client, webURL string, logger *zap.Logger) *Handler {
	return &Handler{
		annotator: annotator,
		upstream:  upstream,
		webURL:    strings.TrimSuffix(webURL, "/"),
		logger:    logger,
	}
}

// AnnotationsResponse maps row ids to annotation markup. Rows whose
// annotation is suppressed are absent.
type AnnotationsResponse struct {
	Repository  string                   `json:"repository"`
	Annotations map[string]template.HTML `json:"annotations"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// RegisterRoutes registers REST API routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/{owner}/{repo}/pulls", h.PullList)
	r.Get("/api/repos/{owner}/{repo}/annotations", h.Annotations)
}

// PullList handles GET /{owner}/{repo}/pulls by fetching the upstream page and
// returning it with branch annotations applied
func (h *Handler) PullList(w http.ResponseWriter, r *http.Request) {
	repo, ok := h.repository(w, r)
	if !ok {
		return
	}

	pageURL := h.webURL + "/" + repo.Owner + "/" + repo.Name + "/pulls"
	if r.URL.RawQuery != "" {
		pageURL += "?" + r.URL.RawQuery
	}

	doc, err := h.fetchPage(r, pageURL)
	if err != nil {
		h.logger.Error("failed to fetch page", zap.String("url", pageURL), zap.Error(err))
		h.writeError(w, http.StatusBadGateway, "failed to fetch page")
		return
	}

	_, err = feature.Run(r.Context(), h.annotator.Feature(), pageURL, doc, h.logger)
	if err != nil {
		h.logger.Error("failed to annotate page",
			zap.String("repository", repo.String()),
			zap.Error(err),
		)
		status := http.StatusBadGateway
		if errors.Is(err, prbranches.ErrMetaRegionMissing) {
			status = http.StatusInternalServerError
		}
		h.writeError(w, status, "failed to annotate page")
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := doc.Render(w); err != nil {
		h.logger.Error("failed to write page", zap.Error(err))
	}
}

// Annotations handles GET /api/repos/{owner}/{repo}/annotations?ids=issue_1,issue_2
func (h *Handler) Annotations(w http.ResponseWriter, r *http.Request) {
	repo, ok := h.repository(w, r)
	if !ok {
		return
	}

	ids, err := parseIDs(r.URL.Query().Get("ids"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	annotations, err := h.annotator.Annotations(r.Context(), repo, ids)
	if err != nil {
		h.logger.Error("failed to build annotations",
			zap.String("repository", repo.String()),
			zap.Error(err),
		)
		h.writeError(w, http.StatusBadGateway, "failed to fetch branches")
		return
	}

	resp := AnnotationsResponse{
		Repository:  repo.String(),
		Annotations: annotations,
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

func (h *Handler) repository(w http.ResponseWriter, r *http.Request) (types.Repository, bool) {
	owner := chi.URLParam(r, "owner")
	name := chi.URLParam(r, "repo")
	if !location.ValidName(owner) || !location.ValidName(name) {
		h.writeError(w, http.StatusBadRequest, "invalid repository")
		return types.Repository{}, false
	}
	return types.Repository{Owner: owner, Name: name}, true
}

func (h *Handler) fetchPage(r *http.Request, pageURL string) (*dom.Document, error) {
	req, err := http.NewRequestWithContext(r.Context(), http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "text/html")

	resp, err := h.upstream.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("upstream returned %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}

	return dom.Parse(resp.Body)
}

func (h *Handler) writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(errorResponse{Error: msg})
}

func parseIDs(raw string) ([]string, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, errors.New("ids is required")
	}
	var ids []string
	for _, part := range strings.Split(raw, ",") {
		id := strings.TrimSpace(part)
		if _, err := prbranches.ParseRowID(id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}
