package entity

type FeaturedMod struct {
	Base
	TechnicalName     string `gorm:"unique"`
	DisplayName       string
	Description       string
	GitURL            string
	GitBranch         string
	FileExtension     string
	DeploymentWebhook string
	AllowOverride     bool
	Visible           bool
}

// FeaturedModFile records one deployed file of a featured-mod version. The
// FileID is the legacy update-server slot of the file; SourceName is the name
// of the repository entry it was built from, before version stamping.
type FeaturedModFile struct {
	Base
	ModTechnicalName string `gorm:"index"`
	FileID           int16
	SourceName       string
	Name             string
	Version          int
	MD5              string
}
