package models

// MConfig Structure
type MConfig struct {
	Name     string         `yaml:"name"`
	Host     string         `yaml:"host"`
	Port     int            `yaml:"port"`
	LogLevel string         `yaml:"log_level"`
	Storage  MStorageConfig `yaml:"storage"`
	Query    MQueryConfig   `yaml:"query"`
	Summary  MSummaryConfig `yaml:"summary"`
	Client   MClientConfig  `yaml:"client"`
}

type MStorageConfig struct {
	DBType             string `yaml:"db_type"`
	DBPath             string `yaml:"db_path"`
	DBConnectionString string `yaml:"db_connection_string"`
}

// MQueryConfig bounds the readings endpoint. MaxLimit is enforced
// server-side regardless of what clients ask for.
type MQueryConfig struct {
	DefaultLimit int `yaml:"default_limit"`
	MaxLimit     int `yaml:"max_limit"`
}

// MSummaryConfig carries the static per-metric classification: metrics listed
// as additive default their card to sum, everything else to avg.
type MSummaryConfig struct {
	AdditiveMetrics []string `yaml:"additive_metrics"`
}

type MClientConfig struct {
	ServerURL           string `yaml:"server_url"`
	PollIntervalSeconds int    `yaml:"poll_interval_seconds"`
	WindowSeconds       int64  `yaml:"window_seconds"`
	FetchLimit          int    `yaml:"fetch_limit"`
	DisplayBudget       int    `yaml:"display_budget"`
}
