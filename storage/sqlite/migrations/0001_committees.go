package migrations

import (
	"database/sql"
	"fmt"
)

// called from within a transaction
func Migrate_0001(tx *sql.Tx) error {
	if _, err := tx.Exec(`
		create table portal_committees (
			id text not null primary key,
			name text not null,
			secret text not null,
			created int not null
	)`); err != nil {
		return fmt.Errorf("sqlite 0001 portal_committees - %w", err)
	}

	if _, err := tx.Exec(`
		create table portal_committee_members (
			committee_id text not null references portal_committees(id) on delete cascade,
			member_id text not null,
			position int not null,
			primary key (committee_id, member_id)
	)`); err != nil {
		return fmt.Errorf("sqlite 0001 portal_committee_members - %w", err)
	}

	if _, err := tx.Exec(`
		create index portal_committee_members_member on portal_committee_members(member_id)
	`); err != nil {
		return fmt.Errorf("sqlite 0001 portal_committee_members_member - %w", err)
	}

	return nil
}
