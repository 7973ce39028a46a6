package entity

// Player is managed by the account system. The map pipeline only references
// players as authors and never creates or mutates them.
type Player struct {
	Base
	Login string `gorm:"unique"`
	Email string
}
