package storage

import (
	"context"
	"fmt"
)

// schemaQueries создают схему ozon. Отсутствующий вариант продукта хранится
// как нулевой UUID, поэтому ключи не содержат NULL.
var schemaQueries = []string{
	`CREATE SCHEMA IF NOT EXISTS ozon`,

	`CREATE TABLE IF NOT EXISTS ozon.seller_profiles (
		id             TEXT PRIMARY KEY,
		label          TEXT NOT NULL,
		client_id      TEXT NOT NULL,
		token          TEXT NOT NULL,
		active         BOOLEAN NOT NULL DEFAULT TRUE,
		environment    TEXT NOT NULL DEFAULT 'sandbox',
		markup_percent NUMERIC(6, 2) NOT NULL DEFAULT 0,
		warehouse_id   BIGINT NOT NULL DEFAULT 0,
		position       INT NOT NULL DEFAULT 0
	)`,

	`CREATE TABLE IF NOT EXISTS ozon.product_identities (
		product_id         UUID NOT NULL,
		offer_const        UUID NOT NULL DEFAULT '00000000-0000-0000-0000-000000000000',
		variation_const    UUID NOT NULL DEFAULT '00000000-0000-0000-0000-000000000000',
		modification_const UUID NOT NULL DEFAULT '00000000-0000-0000-0000-000000000000',
		position           BIGSERIAL,
		PRIMARY KEY (product_id, offer_const, variation_const, modification_const)
	)`,

	`CREATE TABLE IF NOT EXISTS ozon.cards (
		profile_id             TEXT NOT NULL REFERENCES ozon.seller_profiles(id) ON DELETE CASCADE,
		product_id             UUID NOT NULL,
		offer_const            UUID NOT NULL DEFAULT '00000000-0000-0000-0000-000000000000',
		variation_const        UUID NOT NULL DEFAULT '00000000-0000-0000-0000-000000000000',
		modification_const     UUID NOT NULL DEFAULT '00000000-0000-0000-0000-000000000000',
		article                TEXT NOT NULL,
		price                  NUMERIC(12, 2),
		quantity               INT NOT NULL DEFAULT 0,
		barcode                TEXT NOT NULL DEFAULT '',
		category_id            BIGINT NOT NULL DEFAULT 0,
		type_id                BIGINT NOT NULL DEFAULT 0,
		type_key               TEXT NOT NULL DEFAULT '',
		attributes             JSONB,
		product_name           TEXT NOT NULL DEFAULT '',
		offer_value            TEXT NOT NULL DEFAULT '',
		offer_postfix          TEXT NOT NULL DEFAULT '',
		variation_value        TEXT NOT NULL DEFAULT '',
		variation_postfix      TEXT NOT NULL DEFAULT '',
		modification_value     TEXT NOT NULL DEFAULT '',
		modification_postfix   TEXT NOT NULL DEFAULT '',
		weight                 INT NOT NULL DEFAULT 0,
		width                  INT NOT NULL DEFAULT 0,
		height                 INT NOT NULL DEFAULT 0,
		depth                  INT NOT NULL DEFAULT 0,
		images                 TEXT[] NOT NULL DEFAULT '{}',
		marketplace_product_id BIGINT,
		updated_at             TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		PRIMARY KEY (profile_id, product_id, offer_const, variation_const, modification_const)
	)`,

	`CREATE INDEX IF NOT EXISTS cards_article_idx ON ozon.cards (profile_id, LOWER(article))`,
}

// Migrate создает таблицы, если их нет. Схема применяется целиком или не применяется.
func (s *PostgresStorage) Migrate(ctx context.Context) error {
	return s.InTx(ctx, func(ctx context.Context) error {
		for _, query := range schemaQueries {
			if _, err := s.conn(ctx).Exec(ctx, query); err != nil {
				return fmt.Errorf("failed to apply schema: %w", err)
			}
		}
		return nil
	})
}
