package migration

import (
	"context"

	"github.com/fafcommunity/backend/internal/entity"
)

func Migrate(ctx context.Context) error {
	return entity.MigrateTable(ctx)
}
