package scan

import (
	"context"
	"log/slog"
	"time"

	"scanmap-server/internal/shared/cache"
)

const (
	cacheTagScans   = "scans"
	cacheTagObjects = "scannedObjects"

	scanListCacheKey = "scan_list"
)

// Store is the persistence gateway the service drives. Repository is the
// production implementation; tests substitute their own.
type Store interface {
	CreateScan(ctx context.Context, scan *Scan, objects []ScannedObject) (int, error)
	ListScans(ctx context.Context) ([]ScanSummary, error)
	ListScannedObjects(ctx context.Context, scanID, page, limit int) ([]ScannedObject, error)
	DeleteScan(ctx context.Context, scanID int) error
	Reset(ctx context.Context) error
}

type Service struct {
	store       Store
	cache       *cache.Cache
	scanListTTL time.Duration
	logger      *slog.Logger
}

func NewService(store Store, c *cache.Cache, scanListTTL time.Duration, logger *slog.Logger) *Service {
	logger.Debug("Initializing scan service", "scan_list_ttl", scanListTTL)

	return &Service{
		store:       store,
		cache:       c,
		scanListTTL: scanListTTL,
		logger:      logger,
	}
}

// Ingest parses an uploaded telemetry file and persists it. A re-submission
// of an already stored sweep surfaces as a conflict error and writes nothing.
func (s *Service) Ingest(ctx context.Context, data []byte, declaredType string) (int, error) {
	logger := s.logger.With("component", "scan_service", "operation", "ingest", "size_bytes", len(data))
	logger.Debug("Ingesting scan upload")

	scan, objects, err := ParseScan(data, declaredType)
	if err != nil {
		return 0, err
	}

	scanID, err := s.store.CreateScan(ctx, scan, objects)
	if err != nil {
		return 0, err
	}

	s.cache.Invalidate(ctx, cacheTagScans, cacheTagObjects)

	logger.Info("Scan ingested",
		"scan_id", scanID,
		"character", scan.CharacterName,
		"objects", len(objects),
	)
	return scanID, nil
}

// ListScans returns the scan catalog newest first, served from the tag cache
// when fresh.
func (s *Service) ListScans(ctx context.Context) ([]ScanSummary, error) {
	var cached []ScanSummary
	if s.cache.Get(ctx, scanListCacheKey, []string{cacheTagScans}, &cached) {
		return cached, nil
	}

	scans, err := s.store.ListScans(ctx)
	if err != nil {
		return nil, err
	}

	s.cache.Set(ctx, scanListCacheKey, []string{cacheTagScans}, scans, s.scanListTTL)
	return scans, nil
}

// ListScannedObjects returns one scan's objects in squad-clustering order.
func (s *Service) ListScannedObjects(ctx context.Context, scanID, page, limit int) ([]ScannedObject, error) {
	return s.store.ListScannedObjects(ctx, scanID, page, limit)
}

// Delete removes a scan and all of its objects.
func (s *Service) Delete(ctx context.Context, scanID int) error {
	if err := s.store.DeleteScan(ctx, scanID); err != nil {
		return err
	}

	s.cache.Invalidate(ctx, cacheTagScans, cacheTagObjects)

	s.logger.Info("Scan deleted", "component", "scan_service", "scan_id", scanID)
	return nil
}

// Reset truncates all scan data.
func (s *Service) Reset(ctx context.Context) error {
	if err := s.store.Reset(ctx); err != nil {
		return err
	}

	s.cache.Invalidate(ctx, cacheTagScans, cacheTagObjects)

	s.logger.Info("Scan data reset", "component", "scan_service")
	return nil
}
