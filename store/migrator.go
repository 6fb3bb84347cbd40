package store

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/mod/semver"
)

// Migration files live in migration/{driver}/:
//   - LATEST.sql is the full schema, applied to fresh databases.
//   - {minor}/NN__description.sql are patches; the file's schema version is {minor}.NN.
//
// The applied schema version is kept in system_setting under SchemaVersionSetting.

//go:embed migration
var migrationFS embed.FS

const (
	// MigrateFileNameSplit is the split character between the patch version and the description in the migration file name.
	MigrateFileNameSplit = "__"
	// LatestSchemaFileName is the name of the latest schema file.
	LatestSchemaFileName = "LATEST.sql"
	// SchemaVersionSetting is the system_setting key holding the applied schema version.
	SchemaVersionSetting = "schema_version"

	defaultSchemaVersion = "0.0.0"
)

// Migrate creates or upgrades the schema.
func (s *Store) Migrate(ctx context.Context) error {
	if err := s.preMigrate(ctx); err != nil {
		return errors.Wrap(err, "failed to pre-migrate")
	}

	current, err := s.driver.GetSystemSetting(ctx, SchemaVersionSetting)
	if err != nil {
		return errors.Wrap(err, "failed to get schema version")
	}
	if current == "" {
		current = defaultSchemaVersion
	}
	target, err := s.GetCurrentSchemaVersion()
	if err != nil {
		return errors.Wrap(err, "failed to get current schema version")
	}

	switch cmpVersion(current, target) {
	case 1:
		slog.Error("cannot downgrade schema version",
			slog.String("databaseVersion", current),
			slog.String("currentVersion", target))
		return errors.Errorf("cannot downgrade schema version from %s to %s", current, target)
	case -1:
		if err := s.applyMigrations(ctx, current, target); err != nil {
			return errors.Wrap(err, "failed to apply migrations")
		}
	}
	return nil
}

// preMigrate applies LATEST.sql when the database has no schema yet.
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

	schemaVersion, err := s.GetCurrentSchemaVersion()
	if err != nil {
		return errors.Wrap(err, "failed to get current schema version")
	}
	slog.Info("database initialized successfully", slog.String("schemaVersion", schemaVersion))
	return s.driver.UpsertSystemSetting(ctx, SchemaVersionSetting, schemaVersion)
}

// applyMigrations applies every patch newer than current and not newer than target in one transaction.
func (s *Store) applyMigrations(ctx context.Context, current, target string) error {
	filePaths, err := s.patchFiles()
	if err != nil {
		return err
	}

	tx, err := s.driver.GetDB().BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "failed to start transaction")
	}
	defer tx.Rollback()

	slog.Info("start migration",
		slog.String("currentSchemaVersion", current),
		slog.String("targetSchemaVersion", target))

	applied := 0
	for _, filePath := range filePaths {
		v, err := schemaVersionOf(filePath)
		if err != nil {
			return err
		}
		if cmpVersion(v, current) <= 0 || cmpVersion(v, target) > 0 {
			continue
		}
		slog.Info("applying migration", slog.String("file", filePath), slog.String("version", v))
		bytes, err := migrationFS.ReadFile(filePath)
		if err != nil {
			return errors.Wrapf(err, "failed to read migration file: %s", filePath)
		}
		if err := s.execute(ctx, tx, string(bytes)); err != nil {
			return errors.Wrapf(err, "failed to execute migration %s", filePath)
		}
		applied++
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "failed to commit migration transaction")
	}
	slog.Info("migration completed", slog.Int("migrationsApplied", applied))
	return s.driver.UpsertSystemSetting(ctx, SchemaVersionSetting, target)
}

// GetCurrentSchemaVersion returns the version of the newest embedded patch.
func (s *Store) GetCurrentSchemaVersion() (string, error) {
	filePaths, err := s.patchFiles()
	if err != nil {
		return "", err
	}
	latest := defaultSchemaVersion
	for _, p := range filePaths {
		v, err := schemaVersionOf(p)
		if err != nil {
			return "", err
		}
		if cmpVersion(v, latest) > 0 {
			latest = v
		}
	}
	return latest, nil
}

func (s *Store) getMigrationBasePath() string {
	return fmt.Sprintf("migration/%s/", s.profile.Driver)
}

func (s *Store) patchFiles() ([]string, error) {
	filePaths, err := fs.Glob(migrationFS, s.getMigrationBasePath()+"*/*.sql")
	if err != nil {
		return nil, errors.Wrap(err, "failed to read migration files")
	}
	sort.Strings(filePaths)
	return filePaths, nil
}

// schemaVersionOf maps migration/sqlite/0.1/02__x.sql to 0.1.2.
func schemaVersionOf(filePath string) (string, error) {
	minor := filepath.Base(filepath.Dir(filePath))
	filename := filepath.Base(filePath)
	if err := validateMigrationFileName(filename); err != nil {
		return "", err
	}
	patch, _ := strconv.Atoi(strings.Split(filename, MigrateFileNameSplit)[0])
	v := fmt.Sprintf("%s.%d", minor, patch)
	if !semver.IsValid("v" + v) {
		return "", errors.Errorf("invalid schema version %q from %s", v, filePath)
	}
	return v, nil
}

// validateMigrationFileName checks the "NN__description.sql" naming convention.
func validateMigrationFileName(filename string) error {
	parts := strings.SplitN(filename, MigrateFileNameSplit, 2)
	if len(parts) < 2 {
		return errors.Errorf("invalid migration filename format (missing %s): %s", MigrateFileNameSplit, filename)
	}
	if _, err := strconv.Atoi(parts[0]); err != nil {
		return errors.Errorf("migration filename must start with a number: %s", filename)
	}
	return nil
}

func cmpVersion(a, b string) int {
	return semver.Compare("v"+a, "v"+b)
}

// execute runs a possibly multi-statement script. PostgreSQL rejects several statements per Exec.
func (s *Store) execute(ctx context.Context, tx *sql.Tx, script string) error {
	if s.profile.Driver != "postgres" {
		if _, err := tx.ExecContext(ctx, script); err != nil {
			return errors.Wrap(err, "failed to execute statement")
		}
		return nil
	}
	for i, stmt := range splitSQL(script) {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return errors.Wrapf(err, "failed to execute statement %d: %s", i+1, stmt)
		}
	}
	return nil
}

// splitSQL splits a script on semicolons outside single-quoted strings, dropping -- comments.
func splitSQL(script string) []string {
	var (
		statements []string
		current    strings.Builder
		inQuote    bool
	)
	for _, line := range strings.Split(script, "\n") {
		if !inQuote && strings.HasPrefix(strings.TrimSpace(line), "--") {
			continue
		}
		for i := 0; i < len(line); i++ {
			ch := line[i]
			switch {
			case ch == '\'':
				inQuote = !inQuote
				current.WriteByte(ch)
			case ch == ';' && !inQuote:
				if stmt := strings.TrimSpace(current.String()); stmt != "" {
					statements = append(statements, stmt)
				}
				current.Reset()
			default:
				current.WriteByte(ch)
			}
		}
		current.WriteByte('\n')
	}
	if stmt := strings.TrimSpace(current.String()); stmt != "" {
		statements = append(statements, stmt)
	}
	return statements
}
