package handler

import (
	"context"
	"errors"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"newsrag/internal/app"
	"newsrag/internal/model"
	"newsrag/internal/pkg/pdfextract"
	"newsrag/internal/transport/http/response"
)

const maxPDFSize = 10 << 20 // 10 MB

type Ingester interface {
	Ingest(ctx context.Context, input app.IngestInput) (*app.IngestResult, error)
}

type Searcher interface {
	Search(ctx context.Context, query string, topK int) ([]app.Result, error)
}

type DocumentLister interface {
	ListDocuments(ctx context.Context, limit, offset int) ([]model.Document, error)
}

type RAGHandler struct {
	ingester  Ingester
	searcher  Searcher
	documents DocumentLister
}

type IngestTextRequest struct {
	SourceName string `json:"source_name" binding:"required"`
	SourceURL  string `json:"source_url"`
	Title      string `json:"title"`
	URL        string `json:"url"`
	Content    string `json:"content" binding:"required"`
}

type SearchRequest struct {
	Query string `json:"query" binding:"required"`
	TopK  int    `json:"top_k"`
}

func NewRAGHandler(ingester Ingester, searcher Searcher, documents DocumentLister) *RAGHandler {
	return &RAGHandler{
		ingester:  ingester,
		searcher:  searcher,
		documents: documents,
	}
}

func (h *RAGHandler) IngestText(c *gin.Context) {
	var req IngestTextRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}
	h.ingest(c, app.IngestInput{
		SourceName: req.SourceName,
		SourceURL:  req.SourceURL,
		Title:      req.Title,
		URL:        req.URL,
		Content:    req.Content,
		Origin:     app.OriginDirect,
	})
}

// IngestPDF accepts a multipart form with "file" (PDF) and "source_name";
// "title", "url" and "source_url" are optional.
func (h *RAGHandler) IngestPDF(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "missing file")
		return
	}
	if file.Size > maxPDFSize {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "file too large (max 10MB)")
		return
	}
	if strings.ToLower(filepath.Ext(file.Filename)) != ".pdf" {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "only PDF files are allowed")
		return
	}

	f, err := file.Open()
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "failed to read file")
		return
	}
	defer f.Close()

	text, err := pdfextract.ExtractText(f)
	if err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "failed to extract text from PDF: "+err.Error())
		return
	}
	text = strings.TrimSpace(text)
	if text == "" {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "PDF contains no extractable text")
		return
	}

	title := strings.TrimSpace(c.PostForm("title"))
	if title == "" {
		title = strings.TrimSuffix(file.Filename, filepath.Ext(file.Filename))
	}

	h.ingest(c, app.IngestInput{
		SourceName: c.PostForm("source_name"),
		SourceURL:  c.PostForm("source_url"),
		Title:      title,
		URL:        c.PostForm("url"),
		Content:    text,
		Origin:     app.OriginDirect,
	})
}

func (h *RAGHandler) ingest(c *gin.Context, input app.IngestInput) {
	result, err := h.ingester.Ingest(c.Request.Context(), input)
	if err != nil {
		if errors.Is(err, app.ErrInvalidInput) {
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, err.Error())
			return
		}
		logrus.WithError(err).Error("ingest failed")
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "ingest failed")
		return
	}
	response.OK(c, result)
}

func (h *RAGHandler) Search(c *gin.Context) {
	var req SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}
	results, err := h.searcher.Search(c.Request.Context(), req.Query, req.TopK)
	if err != nil {
		if errors.Is(err, app.ErrInvalidInput) {
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, err.Error())
			return
		}
		logrus.WithError(err).Error("search failed")
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "search failed")
		return
	}
	response.OK(c, results)
}

func (h *RAGHandler) ListDocuments(c *gin.Context) {
	limit := parseIntQuery(c, "limit", 50)
	offset := parseIntQuery(c, "offset", 0)
	docs, err := h.documents.ListDocuments(c.Request.Context(), limit, offset)
	if err != nil {
		logrus.WithError(err).Error("list documents failed")
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "list documents failed")
		return
	}
	response.OK(c, docs)
}

func parseIntQuery(c *gin.Context, key string, fallback int) int {
	raw := c.Query(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return fallback
	}
	return v
}
