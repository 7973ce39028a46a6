package entity

import (
	"context"

	"github.com/fafcommunity/backend/pkg/xcontext"
)

func MigrateTable(ctx context.Context) error {
	return xcontext.DB(ctx).AutoMigrate(
		&Player{},
		&Map{},
		&MapVersion{},
		&DomainBlacklist{},
		&FeaturedMod{},
		&FeaturedModFile{},
	)
}
