package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Domenick1991/visitbooking/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type AvailabilityRepository interface {
	Get(ctx context.Context, sellerID string) (*domain.AvailabilityConfig, error)
	Save(ctx context.Context, cfg *domain.AvailabilityConfig) error
}

type StoreSettingsRepository interface {
	Get(ctx context.Context) (*domain.StoreSettings, error)
	Save(ctx context.Context, settings *domain.StoreSettings) error
}

type PGAvailabilityRepository struct {
	db *pgxpool.Pool
}

func NewAvailabilityRepository(db *pgxpool.Pool) AvailabilityRepository {
	return &PGAvailabilityRepository{db: db}
}

func (r *PGAvailabilityRepository) Get(ctx context.Context, sellerID string) (*domain.AvailabilityConfig, error) {
	var payload []byte
	err := r.db.QueryRow(ctx, `SELECT config FROM seller_availability WHERE seller_id=$1`, sellerID).Scan(&payload)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrAvailabilityNotFound
		}
		return nil, fmt.Errorf("get availability: %w", err)
	}

	var cfg domain.AvailabilityConfig
	if err := json.Unmarshal(payload, &cfg); err != nil {
		return nil, fmt.Errorf("decode availability: %w", err)
	}
	return &cfg, nil
}

// Save upserts the whole configuration; concurrent saves are last-write-wins.
func (r *PGAvailabilityRepository) Save(ctx context.Context, cfg *domain.AvailabilityConfig) error {
	payload, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode availability: %w", err)
	}
	_, err = r.db.Exec(ctx, `INSERT INTO seller_availability (seller_id, mode, config, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (seller_id) DO UPDATE SET mode=EXCLUDED.mode, config=EXCLUDED.config, updated_at=EXCLUDED.updated_at`,
		cfg.SellerID, cfg.Mode, payload, cfg.UpdatedAt)
	if err != nil {
		return fmt.Errorf("save availability: %w", err)
	}
	return nil
}

type PGStoreSettingsRepository struct {
	db *pgxpool.Pool
}

func NewStoreSettingsRepository(db *pgxpool.Pool) StoreSettingsRepository {
	return &PGStoreSettingsRepository{db: db}
}

func (r *PGStoreSettingsRepository) Get(ctx context.Context) (*domain.StoreSettings, error) {
	var payload []byte
	err := r.db.QueryRow(ctx, `SELECT settings FROM store_settings WHERE id=1`).Scan(&payload)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrStoreSettingsNotFound
		}
		return nil, fmt.Errorf("get store settings: %w", err)
	}

	var settings domain.StoreSettings
	if err := json.Unmarshal(payload, &settings); err != nil {
		return nil, fmt.Errorf("decode store settings: %w", err)
	}
	return &settings, nil
}

func (r *PGStoreSettingsRepository) Save(ctx context.Context, settings *domain.StoreSettings) error {
	payload, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("encode store settings: %w", err)
	}
	_, err = r.db.Exec(ctx, `INSERT INTO store_settings (id, settings, updated_at) VALUES (1, $1, $2)
		ON CONFLICT (id) DO UPDATE SET settings=EXCLUDED.settings, updated_at=EXCLUDED.updated_at`,
		payload, settings.UpdatedAt)
	if err != nil {
		return fmt.Errorf("save store settings: %w", err)
	}
	return nil
}

var (
	_ AvailabilityRepository  = (*PGAvailabilityRepository)(nil)
	_ StoreSettingsRepository = (*PGStoreSettingsRepository)(nil)
)
