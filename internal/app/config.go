package app

import (
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/shrimpsizemoose/trekker/logger"
)

type HeaderConfig struct {
	Name  string `toml:"name"`
	Value string `toml:"value"`
}

type GSheetConfig struct {
	SheetID         string `toml:"sheet_id"`
	SpreadsheetID   string `toml:"spreadsheet_id"`
	SheetName       string `toml:"sheet_name"`
	CredentialsPath string `toml:"credentials_path"`
	Schedule        string `toml:"schedule"`
}

type Config struct {
	Server struct {
		Port       string `toml:"port"`
		EnableAuth bool   `toml:"enable_auth"`
	} `toml:"server"`

	Auth struct {
		RedisURL         string `toml:"redis_url"`
		TokenHeader      string `toml:"token_header"`
		TokenKeyTemplate string `toml:"token_key_template"`
	} `toml:"auth"`

	API struct {
		ActorHeader     string         `toml:"actor_header"`
		RequiredHeaders []HeaderConfig `toml:"required_headers"`
	} `toml:"api"`

	Database struct {
		DSN           string `toml:"dsn"`
		MigrationsDir string `toml:"migrations_dir"`
	} `toml:"database"`

	Scheduling struct {
		WithdrawLeadTimeMinutes int `toml:"withdraw_lead_time_minutes"`
	} `toml:"scheduling"`

	Grading struct {
		GradeMax       int `toml:"grade_max"`
		BonusMin       int `toml:"bonus_min"`
		BonusMax       int `toml:"bonus_max"`
		LegacyBonusMin int `toml:"legacy_bonus_min"`
		LegacyBonusMax int `toml:"legacy_bonus_max"`
	} `toml:"grading"`

	Bot struct {
		Token    string  `toml:"token"`
		AdminIDs []int64 `toml:"admin_ids"`
	} `toml:"bot"`

	GSheet []GSheetConfig `toml:"gsheet"`
}

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	var config Config
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf(
			"error reading config file %s\n> Error: %w\n> Content:\n%s",
			path,
			err,
			string(data),
		)
	}

	if config.Server.Port == "" {
		return nil, fmt.Errorf("Server port is not specified in config, use a value like :9999")
	}

	if config.Scheduling.WithdrawLeadTimeMinutes == 0 {
		config.Scheduling.WithdrawLeadTimeMinutes = 120
	}
	if config.Grading.GradeMax == 0 {
		config.Grading.GradeMax = 999
	}
	if config.Grading.BonusMin == 0 && config.Grading.BonusMax == 0 {
		config.Grading.BonusMin = -50
		config.Grading.BonusMax = 50
	}
	if config.Grading.LegacyBonusMin == 0 && config.Grading.LegacyBonusMax == 0 {
		config.Grading.LegacyBonusMin = -999
		config.Grading.LegacyBonusMax = 999
	}

	logger.Debug.Printf("Loaded scheduling config: %+v", config.Scheduling)

	return &config, nil
}

// WithdrawLeadTime is the minimum gap between now and slot start for a
// withdrawal to go through.
func (c *Config) WithdrawLeadTime() time.Duration {
	return time.Duration(c.Scheduling.WithdrawLeadTimeMinutes) * time.Minute
}
