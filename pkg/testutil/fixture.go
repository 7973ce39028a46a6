package testutil

import (
	"context"

	"github.com/fafcommunity/backend/internal/entity"
	"github.com/fafcommunity/backend/pkg/xcontext"
)

var (
	Player1 = entity.Player{
		Base:  entity.Base{ID: "player1"},
		Login: "alpha",
		Email: "alpha@example.com",
	}

	Player2 = entity.Player{
		Base:  entity.Base{ID: "player2"},
		Login: "bravo",
		Email: "bravo@example.com",
	}
)

// CreateFixtureDb inserts the fixture players into the context database.
func CreateFixtureDb(ctx context.Context) {
	for _, player := range []entity.Player{Player1, Player2} {
		record := player
		if err := xcontext.DB(ctx).Create(&record).Error; err != nil {
			panic(err)
		}
	}
}
