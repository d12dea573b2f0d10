package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/athebyme/gomarket-platform/marketplace-service/internal/domain/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// PostgresStorage источник профилей, вариантов продуктов и карточек Ozon
type PostgresStorage struct {
	pool *pgxpool.Pool
	tx   TxManager
}

// NewPostgresStorage создает новый экземпляр PostgresStorage
func NewPostgresStorage(ctx context.Context, connectionString string) (*PostgresStorage, error) {
	pool, err := pgxpool.New(ctx, connectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	return &PostgresStorage{pool: pool, tx: NewTxManager(pool)}, nil
}

// Close закрывает соединение с БД
func (s *PostgresStorage) Close() error {
	s.pool.Close()
	return nil
}

type executor interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

// conn возвращает транзакцию из контекста или пул
func (s *PostgresStorage) conn(ctx context.Context) executor {
	if tx, ok := txFromContext(ctx); ok {
		return tx
	}
	return s.pool
}

// InTx выполняет fn в одной транзакции
func (s *PostgresStorage) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return s.tx.Do(ctx, fn)
}

const profileColumns = `id, label, client_id, token, active, environment, markup_percent, warehouse_id`

func scanProfile(row pgx.Row) (models.SellerProfile, error) {
	var (
		p   models.SellerProfile
		env string
	)
	if err := row.Scan(&p.ID, &p.Label, &p.ClientID, &p.Token, &p.Active, &env, &p.MarkupPercent, &p.WarehouseID); err != nil {
		return models.SellerProfile{}, err
	}
	p.Environment = models.Environment(env)
	return p, nil
}

// ListActiveProfiles возвращает активные профили в порядке position
func (s *PostgresStorage) ListActiveProfiles(ctx context.Context) ([]models.SellerProfile, error) {
	rows, err := s.conn(ctx).Query(ctx, `
		SELECT `+profileColumns+`
		FROM ozon.seller_profiles
		WHERE active
		ORDER BY position, label`)
	if err != nil {
		return nil, fmt.Errorf("failed to query profiles: %w", err)
	}
	defer rows.Close()

	var profiles []models.SellerProfile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan profile: %w", err)
		}
		profiles = append(profiles, p)
	}

	return profiles, rows.Err()
}

// GetProfile возвращает профиль по ID, nil если его нет
func (s *PostgresStorage) GetProfile(ctx context.Context, id string) (*models.SellerProfile, error) {
	p, err := scanProfile(s.conn(ctx).QueryRow(ctx, `
		SELECT `+profileColumns+`
		FROM ozon.seller_profiles
		WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	return &p, nil
}

// ListAllIdentities возвращает все варианты продуктов в порядке добавления
func (s *PostgresStorage) ListAllIdentities(ctx context.Context) ([]models.ProductIdentity, error) {
	rows, err := s.conn(ctx).Query(ctx, `
		SELECT product_id, offer_const, variation_const, modification_const
		FROM ozon.product_identities
		ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("failed to query product identities: %w", err)
	}
	defer rows.Close()

	identities := make([]models.ProductIdentity, 0)
	for rows.Next() {
		var id models.ProductIdentity
		if err := rows.Scan(&id.ProductID, &id.OfferConst, &id.VariationConst, &id.ModificationConst); err != nil {
			return nil, fmt.Errorf("failed to scan product identity: %w", err)
		}
		identities = append(identities, id)
	}

	return identities, rows.Err()
}

// FindCard возвращает карточку варианта для профиля, nil если ее нет
func (s *PostgresStorage) FindCard(ctx context.Context, profileID string, identity models.ProductIdentity) (*models.CardRecord, error) {
	return findCard(ctx, s.conn(ctx), profileID, identity)
}

func findCard(ctx context.Context, db executor, profileID string, identity models.ProductIdentity) (*models.CardRecord, error) {
	var (
		card       models.CardRecord
		price      decimal.NullDecimal
		attributes []byte
	)

	err := db.QueryRow(ctx, `
		SELECT article, price, quantity, barcode, category_id, type_id, type_key, attributes,
			product_name, offer_value, offer_postfix, variation_value, variation_postfix,
			modification_value, modification_postfix, weight, width, height, depth, images,
			marketplace_product_id
		FROM ozon.cards
		WHERE profile_id = $1 AND product_id = $2 AND offer_const = $3
			AND variation_const = $4 AND modification_const = $5`,
		profileID, identity.ProductID, identity.OfferConst, identity.VariationConst, identity.ModificationConst,
	).Scan(
		&card.Article, &price, &card.Quantity, &card.Barcode, &card.CategoryID, &card.TypeID, &card.TypeKey, &attributes,
		&card.ProductName, &card.OfferValue, &card.OfferPostfix, &card.VariationValue, &card.VariationPostfix,
		&card.ModificationValue, &card.ModificationPostfix,
		&card.Dimensions.Weight, &card.Dimensions.Width, &card.Dimensions.Height, &card.Dimensions.Depth, &card.Images,
		&card.MarketplaceProductID,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get card: %w", err)
	}

	card.Identity = identity
	if price.Valid {
		card.Price = price.Decimal
	}
	card.Attributes = attributes

	return &card, nil
}

// SaveMarketplaceProductID сохраняет идентификатор, присвоенный Ozon
func (s *PostgresStorage) SaveMarketplaceProductID(ctx context.Context, profileID string, identity models.ProductIdentity, productID int64) error {
	tag, err := s.conn(ctx).Exec(ctx, `
		UPDATE ozon.cards
		SET marketplace_product_id = $6, updated_at = NOW()
		WHERE profile_id = $1 AND product_id = $2 AND offer_const = $3
			AND variation_const = $4 AND modification_const = $5`,
		profileID, identity.ProductID, identity.OfferConst, identity.VariationConst, identity.ModificationConst, productID)
	if err != nil {
		return fmt.Errorf("failed to save marketplace product id: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("card %s not found for profile %s", identity.Key(), profileID)
	}
	return nil
}

// FindCardState возвращает текущие цену и остаток карточки, nil если карточки нет
func (s *PostgresStorage) FindCardState(ctx context.Context, profileID string, identity models.ProductIdentity) (*models.CardState, error) {
	var (
		state models.CardState
		price decimal.NullDecimal
	)
	err := s.conn(ctx).QueryRow(ctx, `
		SELECT price, quantity
		FROM ozon.cards
		WHERE profile_id = $1 AND product_id = $2 AND offer_const = $3
			AND variation_const = $4 AND modification_const = $5`,
		profileID, identity.ProductID, identity.OfferConst, identity.VariationConst, identity.ModificationConst,
	).Scan(&price, &state.Quantity)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get card state: %w", err)
	}
	if price.Valid {
		state.Price = price.Decimal
	}
	return &state, nil
}
