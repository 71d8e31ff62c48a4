package migrations

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

func Migrate_0001(tx pgx.Tx) error {
	bg := context.Background()

	if _, err := tx.Exec(bg, `
		create table portal_committees (
			id uuid not null primary key,
			name text not null,
			members text[] not null default '{}',
			secret text not null,
			created timestamptz not null default now()
		)`); err != nil {
		return fmt.Errorf("pg 0001 migration portal_committees - %w", err)
	}

	if _, err := tx.Exec(bg, `
		create index portal_committees_members on portal_committees using gin(members)
	`); err != nil {
		return fmt.Errorf("pg 0001 migration portal_committees_members - %w", err)
	}

	return nil
}
