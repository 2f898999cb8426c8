package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"linisco-sync-layer/internal/domain"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config is the process configuration, read from the environment
type Config struct {
	Port string `env:"PORT" env-default:"8080"`

	MongoURI      string `env:"MONGODB_URI"`
	MongoDatabase string `env:"MONGODB_DATABASE" env-default:"linisco_sync"`
	RedisURL      string `env:"REDIS_URL"`

	LiniscoAPIURL   string        `env:"LINISCO_API_URL" env-default:"https://pos.linisco.com.ar"`
	LiniscoTimeout  time.Duration `env:"LINISCO_TIMEOUT" env-default:"10s"`
	TokenTTL        time.Duration `env:"TOKEN_TTL" env-default:"24h"`
	DefaultEmail    string        `env:"LINISCO_DEFAULT_EMAIL"`
	DefaultPassword string        `env:"LINISCO_DEFAULT_PASSWORD"`

	StoresFile   string `env:"STORES_FILE" env-default:"config/stores.json"`
	StoresConfig string `env:"STORES_CONFIG"`

	ParallelStores int    `env:"PARALLEL_STORES" env-default:"1"`
	RetentionDays  int    `env:"RETENTION_DAYS" env-default:"90"`
	LogLevel       string `env:"LOG_LEVEL" env-default:"info"`

	Stores []domain.Store
}

// storeEntry is a store as written in the stores file or STORES_CONFIG
type storeEntry struct {
	StoreID   string `json:"store_id" yaml:"store_id"`
	StoreName string `json:"store_name" yaml:"store_name"`
	Email     string `json:"email" yaml:"email"`
	Password  string `json:"password" yaml:"password"`
	Active    *bool  `json:"active" yaml:"active"` // omitted means active
}

type storesFile struct {
	Stores []storeEntry `json:"stores" yaml:"stores"`
}

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Load reads the environment, then the stores from STORES_FILE if it exists, else
// from the STORES_CONFIG JSON array
func Load() (*Config, error) {
	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}

	entries, err := loadStoreEntries(cfg.StoresFile, cfg.StoresConfig)
	if err != nil {
		return nil, err
	}
	stores, err := validateStores(entries)
	if err != nil {
		return nil, err
	}
	cfg.Stores = stores

	if cfg.ParallelStores < 1 {
		cfg.ParallelStores = 1
	}
	return &cfg, nil
}

func loadStoreEntries(path, inline string) ([]storeEntry, error) {
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			var file storesFile
			if err := cleanenv.ReadConfig(path, &file); err != nil {
				return nil, fmt.Errorf("failed to read stores file %s: %w", path, err)
			}
			return file.Stores, nil
		}
	}

	if strings.TrimSpace(inline) == "" {
		return nil, errors.New("no stores configured: set STORES_FILE or STORES_CONFIG")
	}
	var entries []storeEntry
	if err := json.Unmarshal([]byte(stripComments(inline)), &entries); err != nil {
		return nil, fmt.Errorf("STORES_CONFIG must be a JSON array of stores: %w", err)
	}
	return entries, nil
}

var (
	lineComment  = regexp.MustCompile(`(?m)^\s*//.*$`)
	blockComment = regexp.MustCompile(`(?s)/\*.*?\*/`)
)

// stripComments drops comment lines and block comments from hand-edited JSON
func stripComments(s string) string {
	s = blockComment.ReplaceAllString(s, "")
	s = lineComment.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

func validateStores(entries []storeEntry) ([]domain.Store, error) {
	if len(entries) == 0 {
		return nil, errors.New("at least one store must be configured")
	}

	var problems []string
	seen := make(map[string]bool, len(entries))
	stores := make([]domain.Store, 0, len(entries))

	for i, e := range entries {
		var missing []string
		if strings.TrimSpace(e.StoreID) == "" {
			missing = append(missing, "store_id")
		}
		if strings.TrimSpace(e.StoreName) == "" {
			missing = append(missing, "store_name")
		}
		if strings.TrimSpace(e.Email) == "" {
			missing = append(missing, "email")
		}
		if strings.TrimSpace(e.Password) == "" {
			missing = append(missing, "password")
		}
		if len(missing) > 0 {
			problems = append(problems, fmt.Sprintf("store %d: missing %s", i+1, strings.Join(missing, ", ")))
			continue
		}
		if !emailPattern.MatchString(e.Email) {
			problems = append(problems, fmt.Sprintf("store %d: invalid email %q", i+1, e.Email))
		}
		if seen[e.StoreID] {
			problems = append(problems, fmt.Sprintf("store %d: duplicate store_id %s", i+1, e.StoreID))
		}
		seen[e.StoreID] = true

		active := true
		if e.Active != nil {
			active = *e.Active
		}
		stores = append(stores, domain.Store{
			StoreID:   e.StoreID,
			StoreName: e.StoreName,
			Email:     e.Email,
			Password:  e.Password,
			Active:    active,
		})
	}

	if len(problems) > 0 {
		return nil, fmt.Errorf("invalid store configuration:\n%s", strings.Join(problems, "\n"))
	}
	return stores, nil
}
