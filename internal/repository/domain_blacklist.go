package repository

import (
	"context"

	"github.com/fafcommunity/backend/internal/entity"
	"github.com/fafcommunity/backend/pkg/xcontext"
)

type DomainBlacklistRepository interface {
	Create(ctx context.Context, data *entity.DomainBlacklist) error
	ExistsByDomain(ctx context.Context, domain string) (bool, error)
}

type domainBlacklistRepository struct {
}

func NewDomainBlacklistRepository() DomainBlacklistRepository {
	return &domainBlacklistRepository{}
}

func (r *domainBlacklistRepository) Create(ctx context.Context, data *entity.DomainBlacklist) error {
	return xcontext.DB(ctx).Create(data).Error
}

func (r *domainBlacklistRepository) ExistsByDomain(ctx context.Context, domain string) (bool, error) {
	var count int64
	err := xcontext.DB(ctx).
		Model(&entity.DomainBlacklist{}).
		Where("domain=?", domain).
		Count(&count).Error
	if err != nil {
		return false, err
	}

	return count > 0, nil
}
