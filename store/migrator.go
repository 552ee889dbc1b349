package store

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"log/slog"

	"github.com/pkg/errors"

	"github.com/hrygo/notescopilot/internal/version"
)

// Schema bootstrap:
//
// A fresh database gets store/migration/{driver}/LATEST.sql applied in one transaction and the
// bundled schema version recorded in system_setting. An existing database is left untouched,
// except that a recorded schema version newer than the bundled one is refused.

//go:embed migration
var migrationFS embed.FS

const (
	// LatestSchemaFileName is the name of the latest schema file.
	LatestSchemaFileName = "LATEST.sql"

	schemaVersionSettingName = "schema_version"
)

// Migrate bootstraps the schema when needed and verifies the recorded schema version.
func (s *Store) Migrate(ctx context.Context) error {
	if err := s.preMigrate(ctx); err != nil {
		return errors.Wrap(err, "failed to pre-migrate")
	}

	setting, err := s.driver.GetSystemSetting(ctx, schemaVersionSettingName)
	if err != nil {
		return errors.Wrap(err, "failed to get schema version")
	}
	if setting == nil || setting.Value == "" {
		return s.updateCurrentSchemaVersion(ctx, version.SchemaVersion)
	}
	if version.IsVersionGreaterThan(setting.Value, version.SchemaVersion) {
		slog.Error("cannot downgrade schema version",
			slog.String("databaseVersion", setting.Value),
			slog.String("currentVersion", version.SchemaVersion),
		)
		return errors.Errorf("cannot downgrade schema version from %s to %s", setting.Value, version.SchemaVersion)
	}
	return nil
}

// preMigrate applies the latest schema if the database is not initialized.
func (s *Store) preMigrate(ctx context.Context) error {
	initialized, err := s.driver.IsInitialized(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to check if database is initialized")
	}
	if initialized {
		return nil
	}

	filePath := s.getMigrationBasePath() + LatestSchemaFileName
	bytes, err := migrationFS.ReadFile(filePath)
	if err != nil {
		return errors.Errorf("failed to read latest schema file: %s", err)
	}

	tx, err := s.driver.GetDB().BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "failed to start transaction")
	}
	defer tx.Rollback()

	slog.Info("initializing new database with latest schema", slog.String("file", filePath))
	if err := s.execute(ctx, tx, string(bytes)); err != nil {
		return errors.Errorf("failed to execute SQL file %s, err %s", filePath, err)
	}
	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "failed to commit transaction")
	}

	slog.Info("database initialized successfully", slog.String("schemaVersion", version.SchemaVersion))
	return s.updateCurrentSchemaVersion(ctx, version.SchemaVersion)
}

func (s *Store) getMigrationBasePath() string {
	return fmt.Sprintf("migration/%s/", s.profile.Driver)
}

// execute runs a multi-statement script within the transaction.
func (*Store) execute(ctx context.Context, tx *sql.Tx, stmt string) error {
	if _, err := tx.ExecContext(ctx, stmt); err != nil {
		return errors.Wrap(err, "failed to execute statement")
	}
	return nil
}

func (s *Store) updateCurrentSchemaVersion(ctx context.Context, schemaVersion string) error {
	_, err := s.driver.UpsertSystemSetting(ctx, &SystemSetting{
		Name:        schemaVersionSettingName,
		Value:       schemaVersion,
		Description: "bundled schema version applied to this database",
	})
	if err != nil {
		return errors.Wrap(err, "failed to upsert schema version")
	}
	return nil
}
