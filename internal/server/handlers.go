package server

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"drivesearch/internal/domain"
)

// SearchRequest is the search trigger payload.
type SearchRequest struct {
	Query string `json:"query"`
	TopK  int    `json:"top_k"`
}

// SearchResponse carries ranked matches.
type SearchResponse struct {
	Results []domain.SearchMatch `json:"results"`
}

// MessageResponse is a plain informational envelope.
type MessageResponse struct {
	Message string `json:"message"`
}

// FileResponse is one candidate document in the listing endpoint.
type FileResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Link string `json:"link"`
}

// Handlers exposes the pipeline over HTTP.
type Handlers struct {
	ingestor domain.Ingestor
	searcher domain.Searcher
	source   domain.DocumentSource
}

func NewHandlers(ingestor domain.Ingestor, searcher domain.Searcher, source domain.DocumentSource) *Handlers {
	return &Handlers{
		ingestor: ingestor,
		searcher: searcher,
		source:   source,
	}
}

// Register wires the API routes; auth guards every one of them.
func (h *Handlers) Register(g *echo.Group, auth echo.MiddlewareFunc) {
	g.Use(auth)
	g.GET("/drive/files", h.handleListFiles)
	g.POST("/ingest", h.handleIngest)
	g.POST("/search", h.handleSearch)
}

func (h *Handlers) handleListFiles(c echo.Context) error {
	sess := sessionFromContext(c)
	refs, err := h.source.List(c.Request().Context(), sess.AccessToken)
	if err != nil {
		return httpError(err)
	}
	files := make([]FileResponse, 0, len(refs))
	for _, ref := range refs {
		files = append(files, FileResponse{ID: ref.ID, Name: ref.Title, Link: ref.Link})
	}
	return c.JSON(http.StatusOK, files)
}

func (h *Handlers) handleIngest(c echo.Context) error {
	sess := sessionFromContext(c)
	report, err := h.ingestor.Ingest(c.Request().Context(), sess.AccessToken)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, report)
}

func (h *Handlers) handleSearch(c echo.Context) error {
	var req SearchRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	results, err := h.searcher.Search(c.Request().Context(), req.Query, req.TopK)
	if err != nil {
		return httpError(err)
	}
	if len(results) == 0 {
		return c.JSON(http.StatusOK, MessageResponse{Message: "no results"})
	}
	return c.JSON(http.StatusOK, SearchResponse{Results: results})
}

// httpError maps domain errors to HTTP statuses.
func httpError(err error) *echo.HTTPError {
	switch {
	case errors.Is(err, domain.ErrAuthRequired):
		return echo.NewHTTPError(http.StatusUnauthorized, err.Error())
	case errors.Is(err, domain.ErrInvalidQuery):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrEmbedding), errors.Is(err, domain.ErrIndex):
		return echo.NewHTTPError(http.StatusBadGateway, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}
