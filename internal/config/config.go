package config

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

var singleConfig *Config = nil

type Config struct {
	Database  *dbConfig
	Service   *svcConfig
	Stages    *stagesConfig
	Quota     *quotaConfig
	Artifacts *artifactsConfig
}

type dbConfig struct {
	Type     string `envconfig:"DB_TYPE" default:"pgsql"`
	Hostname string `envconfig:"DB_HOST" default:"localhost"`
	Port     int    `envconfig:"DB_PORT" default:"5432"`
	Name     string `envconfig:"DB_NAME" default:"sitegrader"`
	User     string `envconfig:"DB_USER" default:"admin"`
	Password string `envconfig:"DB_PASS" default:"adminpass"`
}

type svcConfig struct {
	Address          string `envconfig:"SITEGRADER_ADDRESS" default:":3443"`
	MetricsAddress   string `envconfig:"SITEGRADER_METRICS_ADDRESS" default:":8080"`
	BaseUrl          string `envconfig:"SITEGRADER_BASE_URL" default:"https://localhost:3443"`
	LogLevel         string `envconfig:"SITEGRADER_LOG_LEVEL" default:"info"`
	MigrationFolder  string `envconfig:"SITEGRADER_MIGRATIONS_FOLDER" default:""`
	RunHistoryLimit  int    `envconfig:"SITEGRADER_RUN_HISTORY_LIMIT" default:"100"`
	ShutdownTimeout  time.Duration `envconfig:"SITEGRADER_SHUTDOWN_TIMEOUT" default:"10s"`
}

// stagesConfig holds the upstream analyzer endpoints. A stage whose URL is
// empty runs against the built-in stub transport, which keeps local
// development working without any provider accounts.
type stagesConfig struct {
	PageSpeedURL          string `envconfig:"SITEGRADER_PAGESPEED_URL" default:""`
	PageSpeedAPIKey       string `envconfig:"SITEGRADER_PAGESPEED_API_KEY" default:""`
	SecurityURL           string `envconfig:"SITEGRADER_SECURITY_URL" default:""`
	SecurityAPIKey        string `envconfig:"SITEGRADER_SECURITY_API_KEY" default:""`
	BusinessProfileURL    string `envconfig:"SITEGRADER_BUSINESS_PROFILE_URL" default:""`
	BusinessProfileAPIKey string `envconfig:"SITEGRADER_BUSINESS_PROFILE_API_KEY" default:""`
	ScreenshotURL         string `envconfig:"SITEGRADER_SCREENSHOT_URL" default:""`
	ScreenshotAPIKey      string `envconfig:"SITEGRADER_SCREENSHOT_API_KEY" default:""`
	DomainAuthorityURL    string `envconfig:"SITEGRADER_DOMAIN_AUTHORITY_URL" default:""`
	DomainAuthorityAPIKey string `envconfig:"SITEGRADER_DOMAIN_AUTHORITY_API_KEY" default:""`
	VisualCritiqueURL     string `envconfig:"SITEGRADER_VISUAL_CRITIQUE_URL" default:""`
	VisualCritiqueAPIKey  string `envconfig:"SITEGRADER_VISUAL_CRITIQUE_API_KEY" default:""`
}

type quotaConfig struct {
	DailyBudgetDollars float64       `envconfig:"SITEGRADER_DAILY_BUDGET_DOLLARS" default:"50"`
	RequestsPerSecond  float64       `envconfig:"SITEGRADER_REQUESTS_PER_SECOND" default:"5"`
	Burst              int           `envconfig:"SITEGRADER_QUOTA_BURST" default:"10"`
	ResetInterval      time.Duration `envconfig:"SITEGRADER_QUOTA_RESET_INTERVAL" default:"24h"`
}

type artifactsConfig struct {
	Endpoint  string `envconfig:"SITEGRADER_S3_ENDPOINT" default:""`
	AccessKey string `envconfig:"SITEGRADER_S3_ACCESS_KEY" default:""`
	SecretKey string `envconfig:"SITEGRADER_S3_SECRET_KEY" default:""`
	Bucket    string `envconfig:"SITEGRADER_S3_BUCKET" default:"sitegrader-screenshots"`
	UseSSL    bool   `envconfig:"SITEGRADER_S3_USE_SSL" default:"true"`
}

func New() (*Config, error) {
	if singleConfig == nil {
		singleConfig = new(Config)
		if err := envconfig.Process("", singleConfig); err != nil {
			return nil, err
		}
	}
	return singleConfig, nil
}
