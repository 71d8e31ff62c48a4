package migrations

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Migration struct {
	Version int
	Fn      func(tx pgx.Tx) error
}

var all = []Migration{
	{1, Migrate_0001},
}

func Run(db *pgxpool.Pool) error {
	bg := context.Background()
	if _, err := db.Exec(bg, `
		create table if not exists portal_migrations (
			version int not null primary key,
			created timestamptz not null default now()
		)`); err != nil {
		return fmt.Errorf("pg migrations table - %w", err)
	}

	current, err := GetCurrent(db)
	if err != nil {
		return err
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

func GetCurrent(db *pgxpool.Pool) (int, error) {
	var version int
	err := db.QueryRow(context.Background(), `
		select coalesce(max(version), 0) from portal_migrations
	`).Scan(&version)
	if err != nil {
		return 0, fmt.Errorf("pg migrations version - %w", err)
	}
	return version, nil
}

func run(db *pgxpool.Pool, m Migration) error {
	bg := context.Background()
	return pgx.BeginFunc(bg, db, func(tx pgx.Tx) error {
		if err := m.Fn(tx); err != nil {
			return err
		}
		if _, err := tx.Exec(bg, "insert into portal_migrations (version) values ($1)", m.Version); err != nil {
			return fmt.Errorf("pg migration %d version - %w", m.Version, err)
		}
		return nil
	})
}
