// Package legacy imports complaints from the old municipal tracking
// system, which runs on SQL Server and still speaks the legacy status
// vocabulary ("PENDING", "UNDER-REVIEW", "IN-PROGRESS").
package legacy

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/denisenkom/go-mssqldb" // SQL Server driver
	"github.com/resolveit/platform/internal/complaint/engine"
	"github.com/resolveit/platform/internal/shared/config"
)

// Importer pulls unmigrated complaints from the legacy database and
// files them through the lifecycle engine, so every imported complaint
// gets a proper timeline and its legacy status is normalized by the
// engine's alias rules.
type Importer struct {
	db     *sql.DB
	engine *engine.Engine
	table  string
}

// New opens the legacy database connection
func New(cfg config.LegacyConfig, e *engine.Engine) (*Importer, error) {
	db, err := sql.Open("sqlserver", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open legacy database: %w", err)
	}

	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(time.Hour)

	return &Importer{
		db:     db,
		engine: e,
		table:  "dbo.Complaints",
	}, nil
}

// Close closes the legacy database connection
func (i *Importer) Close() error {
	return i.db.Close()
}

type legacyComplaint struct {
	LegacyID    int64
	Category    string
	Description string
	Urgency     string
	Status      string
}

// Run imports all unmigrated legacy complaints. Each one is submitted
// anonymously (the legacy system had no account linkage) and then moved
// to its legacy status through the normal status path. Returns the
// number of complaints imported.
func (i *Importer) Run(ctx context.Context) (int, error) {
	if err := i.db.PingContext(ctx); err != nil {
		return 0, fmt.Errorf("failed to ping legacy database: %w", err)
	}

	rows, err := i.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT LegacyID, Category, Description, Urgency, Status
		FROM %s
		WHERE Migrated = 0
		ORDER BY LegacyID`, i.table))
	if err != nil {
		return 0, fmt.Errorf("failed to query legacy complaints: %w", err)
	}
	defer rows.Close()

	var pending []legacyComplaint
	for rows.Next() {
		var lc legacyComplaint
		if err := rows.Scan(&lc.LegacyID, &lc.Category, &lc.Description, &lc.Urgency, &lc.Status); err != nil {
			return 0, fmt.Errorf("failed to scan legacy complaint: %w", err)
		}
		pending = append(pending, lc)
	}
	if err := rows.Err(); err != nil {
		return 0, fmt.Errorf("failed to read legacy complaints: %w", err)
	}

	imported := 0
	for _, lc := range pending {
		if err := i.importOne(ctx, lc); err != nil {
			fmt.Printf("Warning: failed to import legacy complaint %d: %v\n", lc.LegacyID, err)
			continue
		}
		imported++
	}

	return imported, nil
}

func (i *Importer) importOne(ctx context.Context, lc legacyComplaint) error {
	description := fmt.Sprintf("%s\n\n[imported from legacy system, ref %d]", lc.Description, lc.LegacyID)

	c, err := i.engine.Submit(ctx, engine.SubmitRequest{
		Category:    lc.Category,
		Description: description,
		Urgency:     lc.Urgency,
		Anonymous:   true,
	})
	if err != nil {
		return err
	}

	// The legacy vocabulary goes through the engine's alias table;
	// "PENDING" lands on NEW, unknown values leave the status alone
	if lc.Status != "" {
		if _, err := i.engine.SetStatus(ctx, c.ID, lc.Status); err != nil {
			return err
		}
	}

	_, err = i.db.ExecContext(ctx,
		fmt.Sprintf(`UPDATE %s SET Migrated = 1 WHERE LegacyID = @p1`, i.table), lc.LegacyID)
	if err != nil {
		return fmt.Errorf("failed to mark legacy complaint migrated: %w", err)
	}

	return nil
}
