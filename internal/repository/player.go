package repository

import (
	"context"

	"github.com/fafcommunity/backend/internal/entity"
	"github.com/fafcommunity/backend/pkg/xcontext"
)

type PlayerRepository interface {
	Create(ctx context.Context, data *entity.Player) error
	GetByID(ctx context.Context, id string) (*entity.Player, error)
}

type playerRepository struct {
}

func NewPlayerRepository() PlayerRepository {
	return &playerRepository{}
}

func (r *playerRepository) Create(ctx context.Context, data *entity.Player) error {
	return xcontext.DB(ctx).Create(data).Error
}

func (r *playerRepository) GetByID(ctx context.Context, id string) (*entity.Player, error) {
	var record entity.Player
	if err := xcontext.DB(ctx).Where("id=?", id).Take(&record).Error; err != nil {
		return nil, err
	}

	return &record, nil
}
