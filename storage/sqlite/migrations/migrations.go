package migrations

import (
	"database/sql"
	"fmt"
)

type Migration struct {
	Version int
	Fn      func(tx *sql.Tx) error
}

var all = []Migration{
	{1, Migrate_0001},
}

// The applied version is tracked in sqlite's user_version pragma.
// Each migration runs, along with the version bump, in its own
// transaction.
func Run(db *sql.DB) error {
	current, err := GetCurrent(db)
	if err != nil {
		return err
	}

	latest := all[len(all)-1].Version
	if current > latest {
		return fmt.Errorf("sqlite schema version %d is newer than supported version %d", current, latest)
	}

	for _, m := range all {
		if m.Version <= current {
			continue
		}
		if err := run(db, m); err != nil {
			return err
		}
	}
	return nil
}

func GetCurrent(db *sql.DB) (int, error) {
	var version int
	if err := db.QueryRow("pragma user_version").Scan(&version); err != nil {
		return 0, fmt.Errorf("sqlite migrations version - %w", err)
	}
	return version, nil
}

func run(db *sql.DB, m Migration) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("sqlite migration %d begin - %w", m.Version, err)
	}
	defer tx.Rollback()

	if err := m.Fn(tx); err != nil {
		return err
	}

	// pragmas don't accept bound parameters
	if _, err := tx.Exec(fmt.Sprintf("pragma user_version = %d", m.Version)); err != nil {
		return fmt.Errorf("sqlite migration %d version - %w", m.Version, err)
	}
	return tx.Commit()
}
