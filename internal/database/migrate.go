package database

import (
	"context"
	"database/sql"
	"fmt"
)

// migrations holds the portal schema as idempotent statements executed
// in order at startup.  CREATE TABLE IF NOT EXISTS keeps reruns safe;
// anything more elaborate (column changes) gets a new statement appended
// to the end.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS halls (
		id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		name VARCHAR(150) NOT NULL,
		total_seats INT NOT NULL,
		occupied_seats INT NOT NULL DEFAULT 0,
		PRIMARY KEY (id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS startups (
		id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		name VARCHAR(200) NOT NULL,
		founder VARCHAR(200) NOT NULL DEFAULT '',
		email VARCHAR(200) NOT NULL,
		phone VARCHAR(50) NOT NULL DEFAULT '',
		status VARCHAR(20) NOT NULL DEFAULT 'applied',
		hall_id BIGINT UNSIGNED NULL,
		seats_allocated INT NOT NULL DEFAULT 0,
		role VARCHAR(20) NOT NULL DEFAULT 'USER',
		password_hash VARCHAR(255) NOT NULL DEFAULT '',
		PRIMARY KEY (id),
		UNIQUE KEY uq_startups_email (email),
		KEY idx_startups_hall_status (hall_id, status),
		CONSTRAINT fk_startups_hall FOREIGN KEY (hall_id) REFERENCES halls (id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS allocations (
		id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		startup_id BIGINT UNSIGNED NOT NULL,
		hall_id BIGINT UNSIGNED NOT NULL,
		seats INT NOT NULL,
		allocated_at DATETIME NOT NULL,
		released_at DATETIME NULL,
		PRIMARY KEY (id),
		KEY idx_allocations_open (startup_id, released_at),
		CONSTRAINT fk_allocations_startup FOREIGN KEY (startup_id) REFERENCES startups (id),
		CONSTRAINT fk_allocations_hall FOREIGN KEY (hall_id) REFERENCES halls (id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS seat_change_requests (
		id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		startup_id BIGINT UNSIGNED NOT NULL,
		current_seats INT NOT NULL,
		requested_seats INT NOT NULL,
		user_note TEXT,
		status VARCHAR(20) NOT NULL DEFAULT 'pending',
		decision VARCHAR(20) NULL,
		requested_at DATETIME NOT NULL,
		decided_at DATETIME NULL,
		PRIMARY KEY (id),
		KEY idx_requests_pending (startup_id, status),
		CONSTRAINT fk_requests_startup FOREIGN KEY (startup_id) REFERENCES startups (id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

// Migrate applies all schema statements in order.  It stops at the first
// failure and wraps the error with the statement index for diagnosis.
func Migrate(ctx context.Context, db *sql.DB) error {
	for i, stmt := range migrations {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	return nil
}
