package scan

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"strings"

	"scanmap-server/internal/shared/database"
	"scanmap-server/internal/shared/errors"

	"github.com/lib/pq"
)

// uniqueViolation is the Postgres error code raised when the scans dedup
// constraint rejects an insert.
const uniqueViolation = "23505"

const scannedObjectColumns = `scan_id, in_party, name, type_name, type_uid, entity_id, entity_type,
		entity_type_name, entity_uid, hull, hull_max, shield, shield_max, ionic, ionic_max,
		under_construction, sharing_sensors, x, y, travel_direction, owner_name, owner_uid,
		iff_status, image, party_leader_uid, party_leader_name`

type Repository struct {
	db        *database.DB
	batchSize int
	logger    *slog.Logger
}

func NewRepository(db *database.DB, batchSize int, logger *slog.Logger) *Repository {
	logger.Debug("Initializing scan repository", "batch_size", batchSize)

	return &Repository{
		db:        db,
		batchSize: batchSize,
		logger:    logger,
	}
}

// CreateScan inserts a scan and its objects in one transaction. The
// application-level duplicate probe gives a friendly error on the common
// path; the unique constraint on the dedup tuple is what actually prevents
// two concurrent identical uploads from both landing.
func (r *Repository) CreateScan(ctx context.Context, scan *Scan, objects []ScannedObject) (int, error) {
	logger := r.logger.With(
		"component", "scan_repository",
		"operation", "create_scan",
		"character", scan.CharacterName,
		"objects", len(objects),
	)
	logger.Debug("Creating scan")

	tx, err := r.db.BeginTxContext(ctx)
	if err != nil {
		return 0, errors.WrapExternal("failed to begin upload transaction", err)
	}
	defer func() {
		if err := tx.Rollback(); err != nil && err.Error() != "sql: transaction has already been committed or rolled back" {
			logger.Error("Failed to rollback transaction", "error", err)
		}
	}()

	duplicate, err := r.scanExists(ctx, tx, scan)
	if err != nil {
		logger.Error("Failed to check for duplicate scan", "error", err)
		return 0, errors.WrapInternal("failed to check for duplicate scan", err)
	}
	if duplicate {
		return 0, errors.Conflict("Scan already added")
	}

	const insertScan = `
		INSERT INTO scans (character_name, years, days, hours, minutes, seconds, gal_x, gal_y, layer)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id`

	var scanID int
	err = tx.QueryRowContext(ctx, insertScan,
		scan.CharacterName,
		scan.Years,
		scan.Days,
		scan.Hours,
		scan.Minutes,
		scan.Seconds,
		scan.GalX,
		scan.GalY,
		scan.Layer,
	).Scan(&scanID)
	if err != nil {
		if isUniqueViolation(err) {
			// Lost the race against a concurrent identical upload
			return 0, errors.Conflict("Scan already added")
		}
		logger.Error("Failed to insert scan", "error", err)
		return 0, errors.WrapInternal("failed to insert scan", err)
	}

	if err := r.insertScannedObjects(ctx, tx, scanID, objects); err != nil {
		logger.Error("Failed to insert scanned objects", "scan_id", scanID, "error", err)
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		logger.Error("Failed to commit upload transaction", "error", err)
		return 0, errors.WrapInternal("failed to commit upload transaction", err)
	}

	logger.Info("Scan created", "scan_id", scanID)
	return scanID, nil
}

func (r *Repository) scanExists(ctx context.Context, tx *database.Tx, scan *Scan) (bool, error) {
	const query = `
		SELECT EXISTS(
			SELECT 1 FROM scans
			WHERE character_name = $1
			AND years = $2 AND days = $3 AND hours = $4 AND minutes = $5 AND seconds = $6
			AND gal_x = $7 AND gal_y = $8 AND layer = $9
		)`

	var exists bool
	err := tx.QueryRowContext(ctx, query,
		scan.CharacterName,
		scan.Years,
		scan.Days,
		scan.Hours,
		scan.Minutes,
		scan.Seconds,
		scan.GalX,
		scan.GalY,
		scan.Layer,
	).Scan(&exists)
	return exists, err
}

func (r *Repository) insertScannedObjects(ctx context.Context, tx *database.Tx, scanID int, objects []ScannedObject) error {
	if len(objects) == 0 {
		return nil
	}

	for start := 0; start < len(objects); start += r.batchSize {
		end := start + r.batchSize
		if end > len(objects) {
			end = len(objects)
		}

		if err := r.insertObjectBatch(ctx, tx, scanID, objects[start:end]); err != nil {
			return err
		}
	}

	r.logger.Debug("Scanned objects inserted", "scan_id", scanID, "count", len(objects))
	return nil
}

// insertObjectBatch issues one multi-row INSERT for up to batchSize objects.
func (r *Repository) insertObjectBatch(ctx context.Context, tx *database.Tx, scanID int, objects []ScannedObject) error {
	const columnsPerRow = 26

	var sb strings.Builder
	fmt.Fprintf(&sb, "INSERT INTO scanned_objects (%s) VALUES ", scannedObjectColumns)

	args := make([]interface{}, 0, len(objects)*columnsPerRow)
	for i, obj := range objects {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString("(")
		for col := 0; col < columnsPerRow; col++ {
			if col > 0 {
				sb.WriteString(", ")
			}
			fmt.Fprintf(&sb, "$%d", i*columnsPerRow+col+1)
		}
		sb.WriteString(")")

		args = append(args,
			scanID,
			obj.InParty,
			obj.Name,
			obj.TypeName,
			obj.TypeUID,
			obj.EntityID,
			obj.EntityType,
			obj.EntityTypeName,
			obj.EntityUID,
			obj.Hull,
			obj.HullMax,
			obj.Shield,
			obj.ShieldMax,
			obj.Ionic,
			obj.IonicMax,
			obj.UnderConstruction,
			obj.SharingSensors,
			obj.X,
			obj.Y,
			obj.TravelDirection,
			obj.OwnerName,
			obj.OwnerUID,
			obj.IFFStatus,
			obj.Image,
			obj.PartyLeaderUID,
			obj.PartyLeaderName,
		)
	}

	if _, err := tx.ExecContext(ctx, sb.String(), args...); err != nil {
		return errors.WrapInternal("failed to insert scanned objects", err)
	}
	return nil
}

// ListScans returns catalog rows newest first.
func (r *Repository) ListScans(ctx context.Context) ([]ScanSummary, error) {
	logger := r.logger.With("component", "scan_repository", "operation", "list_scans")

	const query = `
		SELECT id, character_name, gal_x, gal_y, years, days, hours, minutes, seconds
		FROM scans
		ORDER BY id DESC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		logger.Error("Failed to query scans", "error", err)
		return nil, errors.WrapInternal("failed to query scans", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			logger.Error("Failed to close rows", "error", err)
		}
	}()

	var scans []ScanSummary
	for rows.Next() {
		var s ScanSummary
		err := rows.Scan(
			&s.ID,
			&s.CharacterName,
			&s.GalX,
			&s.GalY,
			&s.Years,
			&s.Days,
			&s.Hours,
			&s.Minutes,
			&s.Seconds,
		)
		if err != nil {
			logger.Error("Failed to scan catalog row", "error", err)
			return nil, errors.WrapInternal("failed to scan catalog row", err)
		}
		scans = append(scans, s)
	}

	if err := rows.Err(); err != nil {
		logger.Error("Error during rows iteration", "error", err)
		return nil, errors.WrapInternal("error iterating scans", err)
	}

	logger.Debug("Scans retrieved", "count", len(scans))
	return scans, nil
}

// ListScannedObjects returns the objects of one scan ordered so party members
// cluster together: in_party first, then by leader, then by grid position.
// limit <= 0 returns the full list.
func (r *Repository) ListScannedObjects(ctx context.Context, scanID, page, limit int) ([]ScannedObject, error) {
	logger := r.logger.With(
		"component", "scan_repository",
		"operation", "list_scanned_objects",
		"scan_id", scanID,
	)

	query := fmt.Sprintf(`
		SELECT id, %s
		FROM scanned_objects
		WHERE scan_id = $1
		ORDER BY in_party DESC NULLS LAST, party_leader_uid ASC NULLS FIRST, x ASC NULLS FIRST, y ASC NULLS FIRST`,
		scannedObjectColumns)

	args := []interface{}{scanID}
	if limit > 0 {
		if page < 1 {
			page = 1
		}
		query += " LIMIT $2 OFFSET $3"
		args = append(args, limit, (page-1)*limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		logger.Error("Failed to query scanned objects", "error", err)
		return nil, errors.WrapInternal("failed to query scanned objects", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			logger.Error("Failed to close rows", "error", err)
		}
	}()

	var objects []ScannedObject
	for rows.Next() {
		var o ScannedObject
		err := rows.Scan(
			&o.ID,
			&o.ScanID,
			&o.InParty,
			&o.Name,
			&o.TypeName,
			&o.TypeUID,
			&o.EntityID,
			&o.EntityType,
			&o.EntityTypeName,
			&o.EntityUID,
			&o.Hull,
			&o.HullMax,
			&o.Shield,
			&o.ShieldMax,
			&o.Ionic,
			&o.IonicMax,
			&o.UnderConstruction,
			&o.SharingSensors,
			&o.X,
			&o.Y,
			&o.TravelDirection,
			&o.OwnerName,
			&o.OwnerUID,
			&o.IFFStatus,
			&o.Image,
			&o.PartyLeaderUID,
			&o.PartyLeaderName,
		)
		if err != nil {
			logger.Error("Failed to scan object row", "error", err)
			return nil, errors.WrapInternal("failed to scan object row", err)
		}
		objects = append(objects, o)
	}

	if err := rows.Err(); err != nil {
		logger.Error("Error during rows iteration", "error", err)
		return nil, errors.WrapInternal("error iterating scanned objects", err)
	}

	logger.Debug("Scanned objects retrieved", "count", len(objects))
	return objects, nil
}

// DeleteScan removes one scan and its objects in a single transaction.
func (r *Repository) DeleteScan(ctx context.Context, scanID int) error {
	logger := r.logger.With(
		"component", "scan_repository",
		"operation", "delete_scan",
		"scan_id", scanID,
	)
	logger.Debug("Deleting scan")

	tx, err := r.db.BeginTxContext(ctx)
	if err != nil {
		return errors.WrapExternal("failed to begin delete transaction", err)
	}
	defer func() {
		if err := tx.Rollback(); err != nil && err.Error() != "sql: transaction has already been committed or rolled back" {
			logger.Error("Failed to rollback transaction", "error", err)
		}
	}()

	if _, err := tx.ExecContext(ctx, "DELETE FROM scanned_objects WHERE scan_id = $1", scanID); err != nil {
		logger.Error("Failed to delete scanned objects", "error", err)
		return errors.WrapInternal("failed to delete scanned objects", err)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM scans WHERE id = $1", scanID); err != nil {
		logger.Error("Failed to delete scan", "error", err)
		return errors.WrapInternal("failed to delete scan", err)
	}

	if err := tx.Commit(); err != nil {
		logger.Error("Failed to commit delete transaction", "error", err)
		return errors.WrapInternal("failed to commit delete transaction", err)
	}

	logger.Info("Scan deleted")
	return nil
}

// Reset truncates both scan tables.
func (r *Repository) Reset(ctx context.Context) error {
	logger := r.logger.With("component", "scan_repository", "operation", "reset")
	logger.Info("Resetting scan tables")

	_, err := r.db.ExecContext(ctx, "TRUNCATE TABLE scanned_objects, scans RESTART IDENTITY")
	if err != nil {
		logger.Error("Failed to truncate scan tables", "error", err)
		return errors.WrapInternal("failed to truncate scan tables", err)
	}

	logger.Info("Scan tables reset")
	return nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if stderrors.As(err, &pqErr) {
		return pqErr.Code == uniqueViolation
	}
	return false
}
