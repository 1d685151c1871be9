package database

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
)

// Timestamps are stored as unix seconds (BIGINT) so the same schema and
// queries work unchanged on MySQL, PostgreSQL and SQLite.
var tables = []string{
	`CREATE TABLE IF NOT EXISTS events (
		id          BIGINT       NOT NULL PRIMARY KEY,
		title       VARCHAR(255) NOT NULL,
		event_date  VARCHAR(64)  NOT NULL DEFAULT '',
		event_type  VARCHAR(64)  NOT NULL DEFAULT '',
		description TEXT         NOT NULL,
		poster_path VARCHAR(512) NOT NULL DEFAULT '',
		seat_rows   INT          NOT NULL,
		seat_cols   INT          NOT NULL,
		created_at  BIGINT       NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS seats (
		event_id     BIGINT      NOT NULL,
		seat_id      VARCHAR(32) NOT NULL,
		seat_row     INT         NOT NULL,
		seat_col     INT         NOT NULL,
		status       VARCHAR(16) NOT NULL DEFAULT 'FREE',
		reserved_by  BIGINT      NULL,
		reserved_at  BIGINT      NULL,
		price        BIGINT      NOT NULL,
		PRIMARY KEY (event_id, seat_id){{seat_indexes}}
	)`,
	`CREATE TABLE IF NOT EXISTS payments (
		event_id  BIGINT      NOT NULL,
		seat_id   VARCHAR(32) NOT NULL,
		user_id   BIGINT      NOT NULL,
		paid_at   BIGINT      NOT NULL,
		PRIMARY KEY (event_id, seat_id)
	)`,
	`CREATE TABLE IF NOT EXISTS reviewers (
		user_id   BIGINT       NOT NULL PRIMARY KEY,
		added_by  BIGINT       NOT NULL,
		added_at  BIGINT       NOT NULL,
		username  VARCHAR(255) NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS user_sessions (
		user_id     BIGINT      NOT NULL PRIMARY KEY,
		kind        VARCHAR(48) NOT NULL,
		data        TEXT        NOT NULL,
		updated_at  BIGINT      NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS support_messages (
		id          {{serial_id}},
		user_id     BIGINT      NOT NULL,
		body        TEXT        NOT NULL,
		status      VARCHAR(16) NOT NULL DEFAULT 'pending',
		created_at  BIGINT      NOT NULL,
		handled_by  BIGINT      NULL,
		handled_at  BIGINT      NULL,
		reply       TEXT        NULL{{support_indexes}}
	)`,
}

// serialID is the auto-increment primary key column per driver.
var serialID = map[string]string{
	DriverMySQL:    "BIGINT NOT NULL AUTO_INCREMENT PRIMARY KEY",
	DriverPostgres: "BIGSERIAL PRIMARY KEY",
	DriverSQLite:   "INTEGER PRIMARY KEY AUTOINCREMENT",
}

// MySQL has no CREATE INDEX IF NOT EXISTS, so its indexes live inside
// the CREATE TABLE statement instead.
const (
	mysqlSeatIndexes = `,
		INDEX idx_seats_status (status),
		INDEX idx_seats_reserved_by (reserved_by)`
	mysqlSupportIndexes = `,
		INDEX idx_support_status (status, created_at),
		INDEX idx_support_user (user_id)`
)

var portableIndexes = []string{
	`CREATE INDEX IF NOT EXISTS idx_seats_status ON seats (status)`,
	`CREATE INDEX IF NOT EXISTS idx_seats_reserved_by ON seats (reserved_by)`,
	`CREATE INDEX IF NOT EXISTS idx_support_status ON support_messages (status, created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_support_user ON support_messages (user_id)`,
}

// Migrate creates any missing tables.  It is safe to call on every
// start-up.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	driver := db.DriverName()
	serial, ok := serialID[driver]
	if !ok {
		return fmt.Errorf("migrate: unsupported driver %q", driver)
	}
	mysql := driver == DriverMySQL
	seatIdx, supportIdx := "", ""
	if mysql {
		seatIdx, supportIdx = mysqlSeatIndexes, mysqlSupportIndexes
	}
	fill := strings.NewReplacer(
		"{{seat_indexes}}", seatIdx,
		"{{support_indexes}}", supportIdx,
		"{{serial_id}}", serial,
	)
	for _, stmt := range tables {
		if _, err := db.ExecContext(ctx, fill.Replace(stmt)); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	if mysql {
		return nil
	}
	for _, stmt := range portableIndexes {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate index: %w", err)
		}
	}
	return nil
}
