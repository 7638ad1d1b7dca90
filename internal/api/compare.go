package api

import (
	"errors"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/bkooistra/factuurcheck/internal/adapters/classifier"
	"github.com/bkooistra/factuurcheck/internal/adapters/readers"
	"github.com/bkooistra/factuurcheck/internal/adapters/supplierpdf"
	"github.com/bkooistra/factuurcheck/internal/application/pipeline"
	"github.com/bkooistra/factuurcheck/internal/domain/canonical"
	"github.com/bkooistra/factuurcheck/internal/domain/comparator"
)

// compareResponse is the JSON shape of a finished comparison.
type compareResponse struct {
	RunID     string                 `json:"run_id"`
	Rows      []comparator.ResultRow `json:"rows"`
	Summary   comparator.Summary     `json:"summary"`
	Warnings  []string               `json:"warnings"`
	Documents []documentInfo         `json:"documents"`
}

type documentInfo struct {
	Label   string         `json:"label"`
	Role    canonical.Role `json:"role"`
	Message string         `json:"message"`
	Rows    int            `json:"rows"`
}

// handleCompare accepts a multipart upload with "system" files (the
// internal export) and "supplier" files (delivery notes, invoices) and
// runs the full comparison.
func (s *Server) handleCompare(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid multipart form"})
		return
	}

	systemFiles := form.File["system"]
	supplierFiles := form.File["supplier"]
	if len(systemFiles) == 0 || len(supplierFiles) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "both a system export and at least one supplier document are required",
		})
		return
	}

	var input pipeline.Input
	var docs []documentInfo

	for _, fh := range systemFiles {
		doc, info, err := s.loadDocument(c, fh)
		if err != nil {
			s.renderLoadError(c, fh.Filename, err)
			return
		}
		input.SystemDocuments = append(input.SystemDocuments, doc)
		docs = append(docs, info)
	}
	for _, fh := range supplierFiles {
		doc, info, err := s.loadDocument(c, fh)
		if err != nil {
			s.renderLoadError(c, fh.Filename, err)
			return
		}
		input.SupplierDocuments = append(input.SupplierDocuments, doc)
		docs = append(docs, info)
	}

	out, err := s.pipeline.Run(c.Request.Context(), input)
	if err != nil {
		var verr *pipeline.ValidationError
		if errors.As(err, &verr) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"error":  "input validation failed",
				"issues": verr.Issues,
			})
			return
		}
		s.logger.Error("comparison failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "comparison failed"})
		return
	}

	warnings := out.Warnings
	if warnings == nil {
		warnings = []string{}
	}
	c.JSON(http.StatusOK, compareResponse{
		RunID:     out.RunID,
		Rows:      out.Rows,
		Summary:   out.Summary,
		Warnings:  warnings,
		Documents: docs,
	})
}

// loadDocument saves an uploaded file to a temp location, reads it with
// the reader matching its extension and classifies its role.
func (s *Server) loadDocument(c *gin.Context, fh *multipart.FileHeader) (pipeline.Document, documentInfo, error) {
	ext := strings.ToLower(filepath.Ext(fh.Filename))

	tmp, err := os.CreateTemp("", "upload-*"+ext)
	if err != nil {
		return pipeline.Document{}, documentInfo{}, err
	}
	tmpPath := tmp.Name()
	_ = tmp.Close()
	defer os.Remove(tmpPath)

	if err := c.SaveUploadedFile(fh, tmpPath); err != nil {
		return pipeline.Document{}, documentInfo{}, err
	}

	var table canonical.RawTable
	switch ext {
	case ".csv":
		if info, ierr := readers.Inspect(tmpPath); ierr == nil {
			s.logger.Debug("csv upload received",
				"file", fh.Filename, "size_bytes", info.SizeBytes, "rows", info.RowCount)
		}
		table, err = readers.ReadCSV(tmpPath)
	case ".xlsx":
		table, err = readers.ReadXLSX(tmpPath)
	case ".pdf":
		if s.converter == nil {
			return pipeline.Document{}, documentInfo{}, errors.New("pdf uploads are not supported on this server")
		}
		table, err = s.converter.Convert(tmpPath)
	default:
		return pipeline.Document{}, documentInfo{}, errors.New("unsupported file type " + ext)
	}
	if err != nil {
		return pipeline.Document{}, documentInfo{}, err
	}
	table.Source = fh.Filename

	// Filename hints plus header hints cover both "pakbon_03.pdf" and a
	// CSV with a pakbonnummer column.
	result := classifier.ClassifyHeaders(append([]string{fh.Filename}, table.Headers...))

	doc := pipeline.Document{
		Table: table,
		Label: fh.Filename,
		Role:  result.Role,
	}
	info := documentInfo{
		Label:   fh.Filename,
		Role:    result.Role,
		Message: result.Message,
		Rows:    len(table.Rows),
	}
	return doc, info, nil
}

func (s *Server) renderLoadError(c *gin.Context, filename string, err error) {
	status := http.StatusBadRequest
	switch {
	case errors.Is(err, supplierpdf.ErrUnknownSupplier),
		errors.Is(err, supplierpdf.ErrParseFailed),
		errors.Is(err, supplierpdf.ErrScannedDocument),
		errors.Is(err, supplierpdf.ErrImplausibleExtraction),
		errors.Is(err, readers.ErrEmptyFile),
		errors.Is(err, readers.ErrNoRows):
		status = http.StatusUnprocessableEntity
	}
	c.JSON(status, gin.H{"error": err.Error(), "file": filename})
}
