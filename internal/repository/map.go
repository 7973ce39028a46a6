package repository

import (
	"context"

	"github.com/fafcommunity/backend/internal/entity"
	"github.com/fafcommunity/backend/pkg/xcontext"
)

type MapRepository interface {
	GetByDisplayName(ctx context.Context, displayName string) (*entity.Map, error)
	Save(ctx context.Context, data *entity.Map) error
}

type mapRepository struct {
}

func NewMapRepository() MapRepository {
	return &mapRepository{}
}

func (r *mapRepository) GetByDisplayName(ctx context.Context, displayName string) (*entity.Map, error) {
	var record entity.Map
	err := xcontext.DB(ctx).
		Preload("Versions").
		Preload("Author").
		Where("display_name=?", displayName).
		Take(&record).Error
	if err != nil {
		return nil, err
	}

	return &record, nil
}

func (r *mapRepository) Save(ctx context.Context, data *entity.Map) error {
	return xcontext.DB(ctx).Save(data).Error
}
