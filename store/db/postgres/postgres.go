package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	// Import the PostgreSQL driver.
	_ "github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/hrygo/notescopilot/internal/profile"
	"github.com/hrygo/notescopilot/store"
)

// PostgreSQL keeps the embedding in a pgvector column. Ranking still happens in the
// application over a full scan, so results match the SQLite driver exactly.

type DB struct {
	db      *sqlx.DB
	profile *profile.Profile
}

func NewDB(profile *profile.Profile) (store.Driver, error) {
	if profile == nil {
		return nil, errors.New("profile is nil")
	}

	db, err := sqlx.Open("postgres", profile.DSN)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open database")
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(2 * time.Hour)
	db.SetConnMaxIdleTime(15 * time.Minute)

	// Verify connection is working before returning
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "failed to ping database")
	}

	return &DB{db: db, profile: profile}, nil
}

func (d *DB) GetDB() *sql.DB {
	return d.db.DB
}

func (d *DB) Close() error {
	return d.db.Close()
}

func (d *DB) IsInitialized(ctx context.Context) (bool, error) {
	var exists bool
	err := d.db.GetContext(ctx, &exists, `
		SELECT EXISTS (
			SELECT 1 FROM information_schema.tables
			WHERE table_schema = current_schema() AND table_name = 'note'
		)`)
	if err != nil {
		return false, errors.Wrap(err, "failed to check if database is initialized")
	}
	return exists, nil
}

type systemSettingRow struct {
	Name        string `db:"name"`
	Value       string `db:"value"`
	Description string `db:"description"`
}

func (d *DB) GetSystemSetting(ctx context.Context, name string) (*store.SystemSetting, error) {
	var row systemSettingRow
	if err := d.db.GetContext(ctx, &row, "SELECT name, value, description FROM system_setting WHERE name = $1", name); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "failed to get system setting")
	}
	return &store.SystemSetting{Name: row.Name, Value: row.Value, Description: row.Description}, nil
}

func (d *DB) UpsertSystemSetting(ctx context.Context, upsert *store.SystemSetting) (*store.SystemSetting, error) {
	stmt := `
		INSERT INTO system_setting (name, value, description)
		VALUES (:name, :value, :description)
		ON CONFLICT(name) DO UPDATE
		SET
			value = EXCLUDED.value,
			description = EXCLUDED.description
	`
	row := systemSettingRow{Name: upsert.Name, Value: upsert.Value, Description: upsert.Description}
	if _, err := d.db.NamedExecContext(ctx, stmt, row); err != nil {
		return nil, errors.Wrap(err, "failed to upsert system setting")
	}
	return upsert, nil
}
