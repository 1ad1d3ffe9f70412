package database

import (
	"context"
	"database/sql"
	"fmt"
)

// schema lists the DDL statements in dependency order.  Every statement is
// idempotent so Apply can run on every start.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id            BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		name          VARCHAR(120)    NOT NULL,
		email         VARCHAR(190)    NOT NULL,
		password_hash VARCHAR(255)    NOT NULL,
		role          ENUM('student','owner','admin') NOT NULL DEFAULT 'student',
		phone         VARCHAR(40)     NULL,
		university    VARCHAR(160)    NULL,
		created_at    DATETIME        NOT NULL DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (id),
		UNIQUE KEY uq_users_email (email)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS announcements (
		id            BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		owner_id      BIGINT UNSIGNED NOT NULL,
		title         VARCHAR(200)    NOT NULL,
		description   TEXT            NULL,
		price         DECIMAL(10,2)   NOT NULL,
		district      VARCHAR(120)    NOT NULL,
		latitude      DOUBLE          NULL,
		longitude     DOUBLE          NULL,
		bedrooms      INT UNSIGNED    NOT NULL DEFAULT 1,
		bathrooms     INT UNSIGNED    NOT NULL DEFAULT 1,
		state         VARCHAR(20)     NOT NULL DEFAULT 'activo',
		views_count   INT UNSIGNED    NOT NULL DEFAULT 0,
		creation_date DATETIME        NOT NULL DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (id),
		KEY idx_announcements_owner (owner_id),
		KEY idx_announcements_district (district),
		CONSTRAINT fk_announcements_owner FOREIGN KEY (owner_id) REFERENCES users (id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS announcement_images (
		id              BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		announcement_id BIGINT UNSIGNED NOT NULL,
		url             VARCHAR(500)    NOT NULL,
		PRIMARY KEY (id),
		KEY idx_images_announcement (announcement_id),
		CONSTRAINT fk_images_announcement FOREIGN KEY (announcement_id) REFERENCES announcements (id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS announcement_services (
		id              BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		announcement_id BIGINT UNSIGNED NOT NULL,
		service         VARCHAR(80)     NOT NULL,
		PRIMARY KEY (id),
		UNIQUE KEY uq_service_announcement (announcement_id, service),
		CONSTRAINT fk_services_announcement FOREIGN KEY (announcement_id) REFERENCES announcements (id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS favorites (
		id              BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		user_id         BIGINT UNSIGNED NOT NULL,
		announcement_id BIGINT UNSIGNED NOT NULL,
		created_at      DATETIME        NOT NULL DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (id),
		UNIQUE KEY uq_favorite_user_announcement (user_id, announcement_id),
		CONSTRAINT fk_favorites_user FOREIGN KEY (user_id) REFERENCES users (id) ON DELETE CASCADE,
		CONSTRAINT fk_favorites_announcement FOREIGN KEY (announcement_id) REFERENCES announcements (id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	// contact_key is 1 for contact reservations and NULL for review anchors;
	// NULLs never collide in a unique key.
	`CREATE TABLE IF NOT EXISTS reservations (
		id              BIGINT UNSIGNED  NOT NULL AUTO_INCREMENT,
		student_id      BIGINT UNSIGNED  NOT NULL,
		announcement_id BIGINT UNSIGNED  NOT NULL,
		state           VARCHAR(20)      NOT NULL DEFAULT 'pendiente',
		contact_key     TINYINT UNSIGNED NULL,
		creation_date   DATETIME         NOT NULL DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (id),
		UNIQUE KEY uq_reservation_contact (student_id, announcement_id, contact_key),
		KEY idx_reservations_announcement (announcement_id),
		CONSTRAINT fk_reservations_student FOREIGN KEY (student_id) REFERENCES users (id) ON DELETE CASCADE,
		CONSTRAINT fk_reservations_announcement FOREIGN KEY (announcement_id) REFERENCES announcements (id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS messages (
		id             BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		reservation_id BIGINT UNSIGNED NOT NULL,
		sender_id      BIGINT UNSIGNED NOT NULL,
		content        TEXT            NOT NULL,
		sent_date      DATETIME(3)     NOT NULL DEFAULT CURRENT_TIMESTAMP(3),
		read_at        DATETIME(3)     NULL,
		PRIMARY KEY (id),
		KEY idx_messages_reservation (reservation_id, sent_date),
		CONSTRAINT fk_messages_reservation FOREIGN KEY (reservation_id) REFERENCES reservations (id) ON DELETE CASCADE,
		CONSTRAINT fk_messages_sender FOREIGN KEY (sender_id) REFERENCES users (id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS reviews (
		id              BIGINT UNSIGNED  NOT NULL AUTO_INCREMENT,
		reservation_id  BIGINT UNSIGNED  NOT NULL,
		user_id         BIGINT UNSIGNED  NOT NULL,
		announcement_id BIGINT UNSIGNED  NOT NULL,
		stars           TINYINT UNSIGNED NOT NULL,
		comment         TEXT             NOT NULL,
		image_url       VARCHAR(500)     NULL,
		created_at      DATETIME         NOT NULL DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (id),
		UNIQUE KEY uq_review_reservation (reservation_id),
		UNIQUE KEY uq_review_user_announcement (user_id, announcement_id),
		KEY idx_reviews_announcement (announcement_id),
		CONSTRAINT fk_reviews_reservation FOREIGN KEY (reservation_id) REFERENCES reservations (id) ON DELETE CASCADE,
		CONSTRAINT fk_reviews_user FOREIGN KEY (user_id) REFERENCES users (id) ON DELETE CASCADE,
		CONSTRAINT fk_reviews_announcement FOREIGN KEY (announcement_id) REFERENCES announcements (id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

// Apply runs every schema statement in order and stops at the first error.
func Apply(ctx context.Context, db *sql.DB) error {
	for i, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration %d: %w", i+1, err)
		}
	}
	return nil
}
