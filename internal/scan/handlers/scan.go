package handlers

import (
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"scanmap-server/internal/scan"
	"scanmap-server/internal/shared/errors"
	"scanmap-server/internal/shared/response"
	"scanmap-server/internal/view"
)

const (
	defaultPage  = 1
	defaultLimit = 100
)

// ScanHandler serves the scan surface on "/": multipart uploads, admin
// actions and the fetch/render queries, dispatched by form field and query
// parameter the way the browser client drives them.
type ScanHandler struct {
	service        *scan.Service
	maxUploadBytes int64
}

func NewScanHandler(service *scan.Service, maxUploadBytes int64) *ScanHandler {
	return &ScanHandler{
		service:        service,
		maxUploadBytes: maxUploadBytes,
	}
}

func (h *ScanHandler) Root(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.handleGet(w, r)
	case http.MethodPost:
		h.handlePost(w, r)
	default:
		logger := slog.With("handler", "scan_root")
		response.Failure(w, r, logger, errors.MethodNotAllowed(r.Method))
	}
}

func (h *ScanHandler) handlePost(w http.ResponseWriter, r *http.Request) {
	logger := slog.With("handler", "scan_post")

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)

	switch {
	case r.FormValue("resetDB") != "":
		h.handleReset(w, r, logger)
	case r.FormValue("deleteScan") != "":
		h.handleDelete(w, r, logger)
	default:
		h.handleUpload(w, r, logger)
	}
}

func (h *ScanHandler) handleUpload(w http.ResponseWriter, r *http.Request, logger *slog.Logger) {
	logger = logger.With("operation", "upload")

	file, header, err := r.FormFile("xmlFile")
	if err != nil {
		response.Failure(w, r, logger, errors.WrapValidation("Error: No XML file uploaded.", err))
		return
	}
	defer func() {
		if err := file.Close(); err != nil {
			logger.Error("Failed to close uploaded file", "error", err)
		}
	}()

	data, err := io.ReadAll(file)
	if err != nil {
		response.Failure(w, r, logger, errors.WrapValidation("Error: Failed to read the uploaded file.", err))
		return
	}

	scanID, err := h.service.Ingest(r.Context(), data, header.Header.Get("Content-Type"))
	if err != nil {
		response.Failure(w, r, logger, err)
		return
	}

	logger.Info("Scan uploaded", "scan_id", scanID, "filename", header.Filename)
	response.Success(w, "Database updated successfully!")
}

func (h *ScanHandler) handleReset(w http.ResponseWriter, r *http.Request, logger *slog.Logger) {
	logger = logger.With("operation", "reset")

	if err := h.service.Reset(r.Context()); err != nil {
		response.FailureWithMessage(w, r, logger, err, "Error resetting the database: "+errors.Message(err))
		return
	}

	response.Success(w, "Database reset successfully!")
}

func (h *ScanHandler) handleDelete(w http.ResponseWriter, r *http.Request, logger *slog.Logger) {
	logger = logger.With("operation", "delete")

	scanID, err := strconv.Atoi(r.FormValue("scanId"))
	if err != nil || scanID <= 0 {
		response.FailureWithMessage(w, r, logger, errors.Validationf("invalid scan id %q", r.FormValue("scanId")), "Invalid scan ID")
		return
	}

	if err := h.service.Delete(r.Context(), scanID); err != nil {
		response.FailureWithMessage(w, r, logger, err, "Error deleting scan: "+errors.Message(err))
		return
	}

	response.Success(w, "Scan deleted successfully!")
}

func (h *ScanHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	logger := slog.With("handler", "scan_get")
	query := r.URL.Query()

	switch {
	case query.Get("fetchScans") != "":
		h.handleFetchScans(w, r, logger)
	case query.Get("fetchScannedObjects") != "":
		h.handleFetchScannedObjects(w, r, logger)
	case query.Get("renderView") != "":
		h.handleRenderView(w, r, logger)
	default:
		http.NotFound(w, r)
	}
}

func (h *ScanHandler) handleFetchScans(w http.ResponseWriter, r *http.Request, logger *slog.Logger) {
	scans, err := h.service.ListScans(r.Context())
	if err != nil {
		response.Failure(w, r, logger, err)
		return
	}

	if scans == nil {
		scans = []scan.ScanSummary{}
	}

	response.JSON(w, http.StatusOK, scans)
}

func (h *ScanHandler) handleFetchScannedObjects(w http.ResponseWriter, r *http.Request, logger *slog.Logger) {
	query := r.URL.Query()

	scanID, err := strconv.Atoi(query.Get("scanID"))
	if err != nil || scanID <= 0 {
		response.FailureWithMessage(w, r, logger, errors.Validationf("invalid scan id %q", query.Get("scanID")), "Invalid scan ID")
		return
	}

	page, limit := paginationParams(query.Get("page"), query.Get("limit"))

	objects, err := h.service.ListScannedObjects(r.Context(), scanID, page, limit)
	if err != nil {
		response.Failure(w, r, logger, err)
		return
	}

	if objects == nil {
		objects = []scan.ScannedObject{}
	}

	response.JSON(w, http.StatusOK, objects)
}

func (h *ScanHandler) handleRenderView(w http.ResponseWriter, r *http.Request, logger *slog.Logger) {
	query := r.URL.Query()

	scanID, err := strconv.Atoi(query.Get("scanID"))
	if err != nil || scanID <= 0 {
		response.FailureWithMessage(w, r, logger, errors.Validationf("invalid scan id %q", query.Get("scanID")), "Invalid scan ID")
		return
	}

	objects, err := h.service.ListScannedObjects(r.Context(), scanID, 0, 0)
	if err != nil {
		response.Failure(w, r, logger, err)
		return
	}

	vs := viewStateFromQuery(query, view.GroupSquads(objects))

	renderer := newJSONRenderer(vs)
	view.Render(objects, vs, renderer)

	response.JSON(w, http.StatusOK, renderer.payload())
}

// viewStateFromQuery rebuilds a view state from query parameters: fold
// controls first, then the (mutually exclusive) filter, so a status filter
// still triggers its fold-all side effect last.
func viewStateFromQuery(query url.Values, squads []view.Squad) view.ViewState {
	vs := view.NewViewState()

	if query.Get("unfoldAll") == "true" {
		vs = vs.UnfoldAll(squads)
	} else if expand := query.Get("expand"); expand != "" {
		for _, key := range strings.Split(expand, ",") {
			if key != "" {
				vs = vs.ToggleSquad(key)
			}
		}
	}

	xStr, yStr := query.Get("x"), query.Get("y")
	switch {
	case query.Get("search") != "":
		vs = vs.WithSearch(query.Get("search"))
	case xStr != "" && yStr != "":
		x, xErr := strconv.Atoi(xStr)
		y, yErr := strconv.Atoi(yStr)
		if xErr == nil && yErr == nil {
			vs = vs.WithCoordFilter(x, y)
		}
	case query.Get("status") != "":
		if status := view.ParseStatusFilter(query.Get("status")); status != view.StatusFilterNone {
			vs = vs.WithStatusFilter(status)
		}
	}

	return vs
}

func paginationParams(pageStr, limitStr string) (page, limit int) {
	if pageStr == "" && limitStr == "" {
		// No pagination requested: full list
		return 0, 0
	}

	page = defaultPage
	if n, err := strconv.Atoi(pageStr); err == nil && n > 0 {
		page = n
	}

	limit = defaultLimit
	if n, err := strconv.Atoi(limitStr); err == nil && n > 0 {
		limit = n
	}

	return page, limit
}
