package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/wavenote-dev/community-api/internal/models"
)

// PackRepository persists beatmap pack listings.
type PackRepository struct {
	db *sqlx.DB
}

// NewPackRepository constructs the repository.
func NewPackRepository(db *sqlx.DB) *PackRepository {
	return &PackRepository{db: db}
}

// FetchCategories lists the distinct pack categories in alphabetical order.
func (r *PackRepository) FetchCategories(ctx context.Context) ([]string, error) {
	const query = `SELECT DISTINCT category FROM beatmap_packs ORDER BY category`
	var categories []string
	if err := r.db.SelectContext(ctx, &categories, query); err != nil {
		return nil, fmt.Errorf("fetch pack categories: %w", err)
	}
	return categories, nil
}

// FetchByCategory lists packs under one category, newest first.
func (r *PackRepository) FetchByCategory(ctx context.Context, category string) ([]models.BeatmapPack, error) {
	const query = `SELECT id, name, category, creator, download_link, created_at
        FROM beatmap_packs WHERE category = $1 ORDER BY created_at DESC`
	var packs []models.BeatmapPack
	if err := r.db.SelectContext(ctx, &packs, query, category); err != nil {
		return nil, fmt.Errorf("fetch packs by category: %w", err)
	}
	return packs, nil
}
