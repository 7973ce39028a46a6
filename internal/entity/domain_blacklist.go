package entity

// DomainBlacklist lists email domains that are rejected during registration
// and password reset.
type DomainBlacklist struct {
	Domain string `gorm:"primarykey"`
}
