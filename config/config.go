package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

type Configs struct {
	Env      string
	LogLevel string

	ApiServer  ServerConfigs
	Database   DatabaseConfigs
	Map        MapConfigs
	Mail       MailConfigs
	Deployment DeploymentConfigs
}

type ServerConfigs struct {
	Host string
	Port string
	Cert string
	Key  string
}

type DatabaseConfigs struct {
	Host     string
	Port     string
	Database string
	User     string
	Password string
}

func (d *DatabaseConfigs) ConnectionString() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		d.User,
		d.Password,
		d.Host,
		d.Port,
		d.Database,
	)
}

type MapConfigs struct {
	// MaxSize limits the accepted upload body in bytes.
	MaxSize int64

	FinalDirectory   string
	PreviewPathSmall string
	PreviewPathLarge string
	PreviewSizeSmall int
	PreviewSizeLarge int
}

type MailConfigs struct {
	Host             string
	Port             string
	Username         string
	Password         string
	FromEmailAddress string
	FromEmailName    string

	Registration  EmailTemplateConfigs
	PasswordReset EmailTemplateConfigs
}

// EmailTemplateConfigs holds the subject and body of a transactional mail. The
// body is a fmt format string receiving the username and the action URL.
type EmailTemplateConfigs struct {
	Subject    string
	HtmlFormat string
}

type DeploymentConfigs struct {
	RepositoriesDirectory       string
	FeaturedModsTargetDirectory string
	ForgedAllianceExePath       string
}

func Load(path string) (Configs, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Configs{}, err
	}

	var cfg Configs
	if err := toml.Unmarshal(raw, &cfg); err != nil {
		return Configs{}, fmt.Errorf("cannot parse config file %s: %w", path, err)
	}

	return cfg, nil
}
