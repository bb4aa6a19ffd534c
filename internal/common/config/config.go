// internal/common/config/config.go
package config

import "fmt"

// Config is the main application configuration struct.
type Config struct {
	App           AppConfig           `mapstructure:"app"`
	Server        ServerConfig        `mapstructure:"server"`
	Database      DatabaseConfig      `mapstructure:"database"`
	Connectors    ConnectorsConfig    `mapstructure:"connectors"`
	Scoring       ScoringConfig       `mapstructure:"scoring"`
	Collector     CollectorConfig     `mapstructure:"collector"`
	Miner         MinerConfig         `mapstructure:"miner"`
	Evidence      EvidenceConfig      `mapstructure:"evidence"`
	Search        SearchConfig        `mapstructure:"search"`
	Catalog       CatalogConfig       `mapstructure:"catalog"`
	Notifications NotificationConfig  `mapstructure:"notifications"`
	Logging       LoggingConfig       `mapstructure:"logging"`
	Observability ObservabilityConfig `mapstructure:"observability"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type ServerConfig struct {
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	ReadTimeout     int    `mapstructure:"read_timeout"`     // seconds
	WriteTimeout    int    `mapstructure:"write_timeout"`    // seconds
	ShutdownTimeout int    `mapstructure:"shutdown_timeout"` // seconds
	JWTSecret       string `mapstructure:"jwt_secret"`       // empty disables auth
}

// Addr returns the listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// AuthEnabled reports whether bearer-token auth guards mutating routes.
func (s ServerConfig) AuthEnabled() bool {
	return s.JWTSecret != ""
}

type DatabaseConfig struct {
	Driver        string              `mapstructure:"driver"` // postgres | sqlite
	Postgres      PostgresConfig      `mapstructure:"postgres"`
	SQLite        SQLiteConfig        `mapstructure:"sqlite"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
	Redis         RedisConfig         `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

// GetDSN returns the PostgreSQL connection string
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type SQLiteConfig struct {
	Path string `mapstructure:"path"`
}

// GetDSN returns the sqlite connection string with the pragmas the service
// relies on (WAL journaling, enforced foreign keys for cascade deletes).
func (s SQLiteConfig) GetDSN() string {
	return "file:" + s.Path +
		"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(ON)"
}

type ElasticsearchConfig struct {
	Addresses []string `mapstructure:"addresses"`
	Username  string   `mapstructure:"username"`
	Password  string   `mapstructure:"password"`
	URL       string   `mapstructure:"url"` // single-node shorthand, used when addresses is empty
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// --- Connector Configuration ---

// ConnectorsConfig holds settings shared by all four connectors plus the
// per-source credential blocks. A source with no credential runs in mock
// mode; MockMode forces it everywhere.
type ConnectorsConfig struct {
	Timeout      int           `mapstructure:"timeout"` // seconds, bounded 5-10 per call
	MockMode     bool          `mapstructure:"mock_mode"`
	RateLimitRPS int           `mapstructure:"rate_limit_rps"`
	RateBurst    int           `mapstructure:"rate_burst"`
	CacheEnabled bool          `mapstructure:"cache_enabled"`
	CacheTTL     int           `mapstructure:"cache_ttl"` // seconds
	Trends       TrendsConfig  `mapstructure:"trends"`
	Forum        ForumConfig   `mapstructure:"forum"`
	LinkAgg      LinkAggConfig `mapstructure:"linkagg"`
	Video        VideoConfig   `mapstructure:"video"`
}

type TrendsConfig struct {
	BaseURL string `mapstructure:"base_url"`
	APIKey  string `mapstructure:"api_key"`
}

type ForumConfig struct {
	BaseURL      string `mapstructure:"base_url"`
	ClientID     string `mapstructure:"client_id"`
	ClientSecret string `mapstructure:"client_secret"`
}

// LinkAggConfig configures the link-aggregator connector. It needs no
// credential; the base URL points at the public search API.
type LinkAggConfig struct {
	BaseURL string `mapstructure:"base_url"`
}

type VideoConfig struct {
	BaseURL string `mapstructure:"base_url"`
	APIKey  string `mapstructure:"api_key"`
}

// --- Feature Configuration ---

type ScoringConfig struct {
	WeightsPath  string `mapstructure:"weights_path"`
	WatchWeights bool   `mapstructure:"watch_weights"`
}

type CollectorConfig struct {
	MaxQueries     int `mapstructure:"max_queries"`
	MaxConcurrency int `mapstructure:"max_concurrency"`
}

type MinerConfig struct {
	Feeds      []string `mapstructure:"feeds"`
	MaxQueries int      `mapstructure:"max_queries"`
	Timeout    int      `mapstructure:"timeout"` // seconds
}

type EvidenceConfig struct {
	EnrichEnabled bool `mapstructure:"enrich_enabled"`
	FetchTimeout  int  `mapstructure:"fetch_timeout"` // seconds
}

type SearchConfig struct {
	Enabled       bool   `mapstructure:"enabled"`
	IdeasIndex    string `mapstructure:"ideas_index"`
	EvidenceIndex string `mapstructure:"evidence_index"`
}

type CatalogConfig struct {
	Path string `mapstructure:"path"`
}

// NotificationConfig holds settings for the ranking digest notifier.
type NotificationConfig struct {
	Email struct {
		Enabled   bool   `mapstructure:"enabled"`
		FromEmail string `mapstructure:"from_email"`
		ToEmail   string `mapstructure:"to_email"`
	} `mapstructure:"email"`
	SNS struct {
		Enabled  bool   `mapstructure:"enabled"`
		TopicARN string `mapstructure:"topic_arn"`
	} `mapstructure:"sns"`
	AWS struct {
		Region string `mapstructure:"region"`
	} `mapstructure:"aws"`
	DigestSize int `mapstructure:"digest_size"`
}

// Enabled reports whether any notification channel is on.
func (n NotificationConfig) Enabled() bool {
	return n.Email.Enabled || n.SNS.Enabled
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

type ObservabilityConfig struct {
	TracingEnabled bool   `mapstructure:"tracing_enabled"`
	JaegerEndpoint string `mapstructure:"jaeger_endpoint"`
}
