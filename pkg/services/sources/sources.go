package sources

import (
	"context"
	"fmt"

	"github.com/warehouse-tools/priceplan/pkg/models/domain"
	"gopkg.in/ini.v1"
)

// Config holds the connection settings of one source profile. The fields are
// a union over the supported backends; each factory reads the ones it needs.
type Config struct {
	Profile domain.SourceProfile

	// duckdb, csv
	Path string

	// snowflake
	Account   string
	User      string
	Password  string
	Database  string
	Schema    string
	Warehouse string

	// databricks
	Host     string
	Token    string
	HTTPPath string

	// snowflake, databricks
	Table string

	// s3
	Bucket     string
	Prefix     string
	Region     string
	AWSProfile string
}

type Registry interface {
	GetProfiles(ctx context.Context) ([]domain.SourceProfile, error)
	GetConfig(ctx context.Context, profile string) (*Config, error)
}

type iniRegistry struct {
	cfg *ini.File
}

// NewRegistry loads the source profiles from an ini file, one section per
// profile with a mandatory "type" key.
func NewRegistry(path string) (Registry, error) {
	cfg, err := ini.Load(path)
	if err != nil {
		return nil, err
	}
	return &iniRegistry{cfg: cfg}, nil
}

func (r *iniRegistry) GetProfiles(_ context.Context) ([]domain.SourceProfile, error) {
	var profiles []domain.SourceProfile
	for _, section := range r.cfg.Sections() {
		if len(section.Keys()) == 0 {
			continue
		}
		profiles = append(profiles, domain.SourceProfile{
			Name: section.Name(),
			Type: domain.SourceType(section.Key("type").String()),
		})
	}
	return profiles, nil
}

func (r *iniRegistry) GetConfig(_ context.Context, profile string) (*Config, error) {
	section, err := r.cfg.GetSection(profile)
	if err != nil {
		return nil, fmt.Errorf("profile %s not found", profile)
	}

	sourceType := domain.SourceType(section.Key("type").String())
	if sourceType == "" {
		return nil, fmt.Errorf("profile %s has no type", profile)
	}

	return &Config{
		Profile: domain.SourceProfile{
			Name: profile,
			Type: sourceType,
		},
		Path:       section.Key("path").String(),
		Account:    section.Key("account").String(),
		User:       section.Key("user").String(),
		Password:   section.Key("password").String(),
		Database:   section.Key("database").String(),
		Schema:     section.Key("schema").String(),
		Warehouse:  section.Key("warehouse").String(),
		Host:       section.Key("host").String(),
		Token:      section.Key("token").String(),
		HTTPPath:   section.Key("http_path").String(),
		Table:      section.Key("table").String(),
		Bucket:     section.Key("bucket").String(),
		Prefix:     section.Key("prefix").String(),
		Region:     section.Key("region").String(),
		AWSProfile: section.Key("aws_profile").String(),
	}, nil
}
