package entity

// Map is the identity-bearing side of a published map. The display name is
// claimed by the first uploader; the unique index closes the race between the
// existence check and the commit.
type Map struct {
	Base
	DisplayName string `gorm:"uniqueIndex"`
	MapType     string
	BattleType  string
	AuthorID    string
	Author      Player       `gorm:"foreignKey:AuthorID"`
	Versions    []MapVersion `gorm:"foreignKey:MapID"`
}

// MapVersion is one published revision of a Map. The version number comes
// verbatim from the uploaded descriptor and is immutable after the upload.
type MapVersion struct {
	Base
	MapID       string `gorm:"uniqueIndex:idx_map_version"`
	Version     int    `gorm:"uniqueIndex:idx_map_version"`
	Description string
	Width       int
	Height      int
	MaxPlayers  int
	Hidden      bool
	Ranked      bool
	Filename    string
}
