package repository

import (
	"context"

	"github.com/fafcommunity/backend/internal/entity"
	"github.com/fafcommunity/backend/pkg/xcontext"
)

type FeaturedModRepository interface {
	Create(ctx context.Context, data *entity.FeaturedMod) error
	GetList(ctx context.Context) ([]entity.FeaturedMod, error)
	GetByTechnicalName(ctx context.Context, technicalName string) (*entity.FeaturedMod, error)

	// GetFileIDs returns the registered update-server slot for every known
	// source file of the mod, keyed by source name.
	GetFileIDs(ctx context.Context, technicalName string) (map[string]int16, error)
	SaveFiles(ctx context.Context, files []entity.FeaturedModFile) error
}

type featuredModRepository struct {
}

func NewFeaturedModRepository() FeaturedModRepository {
	return &featuredModRepository{}
}

func (r *featuredModRepository) Create(ctx context.Context, data *entity.FeaturedMod) error {
	return xcontext.DB(ctx).Create(data).Error
}

func (r *featuredModRepository) GetList(ctx context.Context) ([]entity.FeaturedMod, error) {
	var records []entity.FeaturedMod
	if err := xcontext.DB(ctx).Find(&records).Error; err != nil {
		return nil, err
	}

	return records, nil
}

func (r *featuredModRepository) GetByTechnicalName(ctx context.Context, technicalName string) (*entity.FeaturedMod, error) {
	var record entity.FeaturedMod
	err := xcontext.DB(ctx).Where("technical_name=?", technicalName).Take(&record).Error
	if err != nil {
		return nil, err
	}

	return &record, nil
}

func (r *featuredModRepository) GetFileIDs(ctx context.Context, technicalName string) (map[string]int16, error) {
	var records []entity.FeaturedModFile
	err := xcontext.DB(ctx).
		Where("mod_technical_name=?", technicalName).
		Order("version").
		Find(&records).Error
	if err != nil {
		return nil, err
	}

	result := map[string]int16{}
	for _, record := range records {
		result[record.SourceName] = record.FileID
	}

	return result, nil
}

func (r *featuredModRepository) SaveFiles(ctx context.Context, files []entity.FeaturedModFile) error {
	if len(files) == 0 {
		return nil
	}

	return xcontext.DB(ctx).Create(&files).Error
}
