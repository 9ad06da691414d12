package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scanmap-server/internal/scan"
	"scanmap-server/internal/shared/errors"
	"scanmap-server/internal/shared/response"
	"scanmap-server/internal/view"
)

const sampleScanXML = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <characterName>Kestrel</characterName>
    <cgt>
      <years>423</years>
      <days>211</days>
      <hours>7</hours>
      <minutes>33</minutes>
      <seconds>12</seconds>
    </cgt>
    <location>
      <galX>12</galX>
      <galY>7</galY>
      <layer>2</layer>
    </location>
    <item>
      <name>Falcon</name>
      <entityUID>uid-falcon</entityUID>
      <iffStatus>Enemy</iffStatus>
      <x>3</x>
      <y>14</y>
    </item>
  </channel>
</rss>`

// stubStore is a hand-rolled scan.Store whose behavior each test overrides.
type stubStore struct {
	createScan func(ctx context.Context, s *scan.Scan, objects []scan.ScannedObject) (int, error)
	listScans  func(ctx context.Context) ([]scan.ScanSummary, error)
	listObjs   func(ctx context.Context, scanID, page, limit int) ([]scan.ScannedObject, error)
	deleteScan func(ctx context.Context, scanID int) error
	reset      func(ctx context.Context) error
}

func (s *stubStore) CreateScan(ctx context.Context, sc *scan.Scan, objects []scan.ScannedObject) (int, error) {
	if s.createScan == nil {
		return 1, nil
	}
	return s.createScan(ctx, sc, objects)
}

func (s *stubStore) ListScans(ctx context.Context) ([]scan.ScanSummary, error) {
	if s.listScans == nil {
		return nil, nil
	}
	return s.listScans(ctx)
}

func (s *stubStore) ListScannedObjects(ctx context.Context, scanID, page, limit int) ([]scan.ScannedObject, error) {
	if s.listObjs == nil {
		return nil, nil
	}
	return s.listObjs(ctx, scanID, page, limit)
}

func (s *stubStore) DeleteScan(ctx context.Context, scanID int) error {
	if s.deleteScan == nil {
		return nil
	}
	return s.deleteScan(ctx, scanID)
}

func (s *stubStore) Reset(ctx context.Context) error {
	if s.reset == nil {
		return nil
	}
	return s.reset(ctx)
}

func newTestHandler(store scan.Store) *ScanHandler {
	service := scan.NewService(store, nil, time.Minute, slog.Default())
	return NewScanHandler(service, 16<<20)
}

func uploadRequest(t *testing.T, contentType string, data []byte) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="xmlFile"; filename=%q`, "scan.xml"))
	header.Set("Content-Type", contentType)

	part, err := writer.CreatePart(header)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func formRequest(values url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func decodeResult(t *testing.T, rec *httptest.ResponseRecorder) response.Result {
	t.Helper()

	var result response.Result
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&result))
	return result
}

func TestUploadSuccess(t *testing.T) {
	var gotObjects int
	store := &stubStore{
		createScan: func(_ context.Context, s *scan.Scan, objects []scan.ScannedObject) (int, error) {
			assert.Equal(t, "Kestrel", s.CharacterName)
			gotObjects = len(objects)
			return 42, nil
		},
	}

	rec := httptest.NewRecorder()
	newTestHandler(store).Root(rec, uploadRequest(t, "text/xml", []byte(sampleScanXML)))

	assert.Equal(t, http.StatusOK, rec.Code)
	result := decodeResult(t, rec)
	assert.Equal(t, "success", result.Type)
	assert.Equal(t, "Database updated successfully!", result.Message)
	assert.Equal(t, 1, gotObjects)
}

func TestUploadDuplicateScan(t *testing.T) {
	store := &stubStore{
		createScan: func(context.Context, *scan.Scan, []scan.ScannedObject) (int, error) {
			return 0, errors.Conflict("Scan already added")
		},
	}

	rec := httptest.NewRecorder()
	newTestHandler(store).Root(rec, uploadRequest(t, "text/xml", []byte(sampleScanXML)))

	// Failures still travel as HTTP 200; the envelope type carries the outcome
	assert.Equal(t, http.StatusOK, rec.Code)
	result := decodeResult(t, rec)
	assert.Equal(t, "error", result.Type)
	assert.Equal(t, "Scan already added", result.Message)
}

func TestUploadRejectsNonXMLFile(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestHandler(&stubStore{}).Root(rec, uploadRequest(t, "text/plain", []byte("plain text payload")))

	result := decodeResult(t, rec)
	assert.Equal(t, "error", result.Type)
	assert.Equal(t, "Error: The uploaded file is not a valid XML file.", result.Message)
}

func TestUploadWithoutFile(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestHandler(&stubStore{}).Root(rec, formRequest(url.Values{"unrelated": {"1"}}))

	result := decodeResult(t, rec)
	assert.Equal(t, "error", result.Type)
	assert.Equal(t, "Error: No XML file uploaded.", result.Message)
}

func TestResetDatabase(t *testing.T) {
	called := false
	store := &stubStore{
		reset: func(context.Context) error {
			called = true
			return nil
		},
	}

	rec := httptest.NewRecorder()
	newTestHandler(store).Root(rec, formRequest(url.Values{"resetDB": {"true"}}))

	result := decodeResult(t, rec)
	assert.Equal(t, "success", result.Type)
	assert.Equal(t, "Database reset successfully!", result.Message)
	assert.True(t, called)
}

func TestDeleteScan(t *testing.T) {
	var deleted int
	store := &stubStore{
		deleteScan: func(_ context.Context, scanID int) error {
			deleted = scanID
			return nil
		},
	}

	rec := httptest.NewRecorder()
	newTestHandler(store).Root(rec, formRequest(url.Values{
		"deleteScan": {"true"},
		"scanId":     {"12"},
	}))

	result := decodeResult(t, rec)
	assert.Equal(t, "success", result.Type)
	assert.Equal(t, "Scan deleted successfully!", result.Message)
	assert.Equal(t, 12, deleted)
}

func TestDeleteScanInvalidID(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestHandler(&stubStore{}).Root(rec, formRequest(url.Values{
		"deleteScan": {"true"},
		"scanId":     {"abc"},
	}))

	result := decodeResult(t, rec)
	assert.Equal(t, "error", result.Type)
	assert.Equal(t, "Invalid scan ID", result.Message)
}

func TestFetchScans(t *testing.T) {
	store := &stubStore{
		listScans: func(context.Context) ([]scan.ScanSummary, error) {
			return []scan.ScanSummary{
				{ID: 2, CharacterName: "Kestrel"},
				{ID: 1, CharacterName: "Vireo"},
			}, nil
		},
	}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/?fetchScans=true", nil)
	newTestHandler(store).Root(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var scans []scan.ScanSummary
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&scans))
	require.Len(t, scans, 2)
	assert.Equal(t, 2, scans[0].ID)
}

func TestFetchScansEmptyCatalogIsArray(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/?fetchScans=true", nil)
	newTestHandler(&stubStore{}).Root(rec, req)

	assert.Equal(t, "[]\n", rec.Body.String())
}

func TestFetchScannedObjectsPagination(t *testing.T) {
	var gotPage, gotLimit int
	store := &stubStore{
		listObjs: func(_ context.Context, scanID, page, limit int) ([]scan.ScannedObject, error) {
			gotPage, gotLimit = page, limit
			return nil, nil
		},
	}
	handler := newTestHandler(store)

	// Without pagination params the full list comes back
	rec := httptest.NewRecorder()
	handler.Root(rec, httptest.NewRequest(http.MethodGet, "/?fetchScannedObjects=true&scanID=1", nil))
	assert.Equal(t, 0, gotLimit)

	// Either param alone activates paging with defaults
	rec = httptest.NewRecorder()
	handler.Root(rec, httptest.NewRequest(http.MethodGet, "/?fetchScannedObjects=true&scanID=1&page=2", nil))
	assert.Equal(t, 2, gotPage)
	assert.Equal(t, 100, gotLimit)
}

func TestFetchScannedObjectsInvalidID(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/?fetchScannedObjects=true&scanID=abc", nil)
	newTestHandler(&stubStore{}).Root(rec, req)

	result := decodeResult(t, rec)
	assert.Equal(t, "error", result.Type)
	assert.Equal(t, "Invalid scan ID", result.Message)
}

func TestRenderViewWithSearch(t *testing.T) {
	uid := func(s string) *string { return &s }
	num := func(n int) *int { return &n }

	store := &stubStore{
		listObjs: func(context.Context, int, int, int) ([]scan.ScannedObject, error) {
			return []scan.ScannedObject{
				{EntityUID: uid("uid-falcon"), Name: uid("Falcon"), IFFStatus: uid("Enemy"), X: num(3), Y: num(14)},
				{EntityUID: uid("uid-hawk"), Name: uid("Hawk"), IFFStatus: uid("Friend"), X: num(5), Y: num(5)},
			}, nil
		},
	}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/?renderView=true&scanID=1&search=falcon", nil)
	newTestHandler(store).Root(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var payload struct {
		Summary view.Summary `json:"summary"`
		Grid    []struct {
			Classification string `json:"classification"`
		} `json:"grid"`
		Squads []struct {
			Key     string `json:"key"`
			Visible bool   `json:"visible"`
		} `json:"squads"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&payload))

	assert.Equal(t, view.Summary{Enemy: 1}, payload.Summary)
	// The grid ignores the search filter
	require.Len(t, payload.Grid, 2)
	require.Len(t, payload.Squads, 2)
	assert.True(t, payload.Squads[0].Visible)
	assert.False(t, payload.Squads[1].Visible)
}

func TestMethodNotAllowed(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, "/", nil)
	newTestHandler(&stubStore{}).Root(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	result := decodeResult(t, rec)
	assert.Equal(t, "error", result.Type)
}
