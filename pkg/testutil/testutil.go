package testutil

import (
	"context"

	"github.com/fafcommunity/backend/config"
	"github.com/fafcommunity/backend/internal/entity"
	"github.com/fafcommunity/backend/pkg/logger"
	"github.com/fafcommunity/backend/pkg/xcontext"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func MockContext() context.Context {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		panic(err)
	}

	cfg := config.Configs{
		Map: config.MapConfigs{
			MaxSize:          256 * 1024 * 1024,
			PreviewSizeSmall: 128,
			PreviewSizeLarge: 512,
		},
		Mail: config.MailConfigs{
			FromEmailAddress: "foo@bar.com",
			FromEmailName:    "foobar",
		},
	}

	ctx := context.Background()
	ctx = xcontext.WithConfigs(ctx, cfg)
	ctx = xcontext.WithLogger(ctx, logger.NewLogger(logger.SILENCE))
	ctx = xcontext.WithDB(ctx, db)

	if err := entity.MigrateTable(ctx); err != nil {
		panic(err)
	}

	return ctx
}

func MockContextWithUserID(userID string) context.Context {
	return xcontext.WithRequestUserID(MockContext(), userID)
}
