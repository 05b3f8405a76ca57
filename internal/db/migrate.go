package db

import (
	"database/sql"
	"embed"
	"fmt"
	stdfs "io/fs"
	"path"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// noTxMarker opts a script out of the surrounding transaction.
const noTxMarker = "-- NO_TX"

var migrationName = regexp.MustCompile(`^([0-9]{4})_([a-z0-9_]+)\.(up|down)\.sql$`)

// step is one numbered schema change with its forward and reverse scripts.
type step struct {
	version int
	name    string
	up      string
	down    string
}

// migrator applies the embedded schema steps in version order and records
// each applied step, by version and name, in schema_migrations.
type migrator struct {
	d   *sql.DB
	src stdfs.FS
}

func newMigrator(d *sql.DB, src stdfs.FS) *migrator {
	return &migrator{d: d, src: src}
}

// plan reads the migrations directory into steps sorted by version. Files
// that do not follow the naming scheme, duplicate versions and steps without
// an up script are errors rather than silently skipped.
func (m *migrator) plan() ([]step, error) {
	entries, err := stdfs.ReadDir(m.src, "migrations")
	if err != nil {
		return nil, errors.Wrap(err, "read migrations")
	}
	byVersion := map[int]*step{}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		parts := migrationName.FindStringSubmatch(e.Name())
		if parts == nil {
			return nil, fmt.Errorf("migration %q: name must look like 0001_name.up.sql", e.Name())
		}
		version, _ := strconv.Atoi(parts[1])
		st, ok := byVersion[version]
		if !ok {
			st = &step{version: version, name: parts[2]}
			byVersion[version] = st
		} else if st.name != parts[2] {
			return nil, fmt.Errorf("migration %04d has two names: %s and %s", version, st.name, parts[2])
		}
		file := path.Join("migrations", e.Name())
		if parts[3] == "up" {
			st.up = file
		} else {
			st.down = file
		}
	}
	steps := make([]step, 0, len(byVersion))
	for _, st := range byVersion {
		if st.up == "" {
			return nil, fmt.Errorf("migration %04d_%s has no up script", st.version, st.name)
		}
		steps = append(steps, *st)
	}
	sort.Slice(steps, func(i, j int) bool { return steps[i].version < steps[j].version })
	return steps, nil
}

func (m *migrator) ensureTable() error {
	_, err := m.d.Exec(`CREATE TABLE IF NOT EXISTS schema_migrations (
		version    INTEGER PRIMARY KEY,
		name       TEXT NOT NULL DEFAULT '',
		applied_at TEXT NOT NULL DEFAULT (CURRENT_TIMESTAMP)
	)`)
	return errors.Wrap(err, "ensure schema_migrations")
}

// current returns the highest applied version, or 0 on a fresh database.
func (m *migrator) current() (int, error) {
	if err := m.ensureTable(); err != nil {
		return 0, err
	}
	var v sql.NullInt64
	if err := m.d.QueryRow(`SELECT MAX(version) FROM schema_migrations`).Scan(&v); err != nil {
		return 0, errors.Wrap(err, "read schema version")
	}
	return int(v.Int64), nil
}

// up applies every step newer than the current version and returns the
// versions it applied.
func (m *migrator) up() ([]int, error) {
	steps, err := m.plan()
	if err != nil {
		return nil, err
	}
	cur, err := m.current()
	if err != nil {
		return nil, err
	}
	var applied []int
	for _, st := range steps {
		if st.version <= cur {
			continue
		}
		err := m.run(st.up, `INSERT INTO schema_migrations (version, name) VALUES (?, ?)`, st.version, st.name)
		if err != nil {
			return applied, errors.Wrapf(err, "migration %04d_%s", st.version, st.name)
		}
		applied = append(applied, st.version)
	}
	return applied, nil
}

// down reverts the newest applied step. It reports the reverted version, or
// 0 when nothing was applied.
func (m *migrator) down() (int, error) {
	cur, err := m.current()
	if err != nil || cur == 0 {
		return 0, err
	}
	steps, err := m.plan()
	if err != nil {
		return 0, err
	}
	for _, st := range steps {
		if st.version != cur {
			continue
		}
		if st.down == "" {
			return 0, fmt.Errorf("migration %04d_%s has no down script", st.version, st.name)
		}
		if err := m.run(st.down, `DELETE FROM schema_migrations WHERE version = ?`, st.version); err != nil {
			return 0, errors.Wrapf(err, "revert %04d_%s", st.version, st.name)
		}
		return cur, nil
	}
	return 0, fmt.Errorf("applied migration %04d is not embedded in this build", cur)
}

// run executes a script and its bookkeeping statement atomically, unless the
// script starts with noTxMarker.
func (m *migrator) run(file, bookkeeping string, args ...any) error {
	raw, err := stdfs.ReadFile(m.src, file)
	if err != nil {
		return err
	}
	script := string(raw)
	if strings.HasPrefix(strings.TrimSpace(script), noTxMarker) {
		if _, err := m.d.Exec(script); err != nil {
			return err
		}
		_, err := m.d.Exec(bookkeeping, args...)
		return err
	}
	tx, err := m.d.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()
	if _, err := tx.Exec(script); err != nil {
		return err
	}
	if _, err := tx.Exec(bookkeeping, args...); err != nil {
		return err
	}
	return tx.Commit()
}

// SchemaVersion reports the highest applied migration.
func SchemaVersion(d *sql.DB) (int, error) {
	return newMigrator(d, migrationsFS).current()
}

// RollbackLast reverts the most recently applied migration. It is a no-op
// on a database with nothing applied.
func RollbackLast(d *sql.DB) error {
	if d == nil {
		return errors.New("nil db")
	}
	_, err := newMigrator(d, migrationsFS).down()
	return err
}
