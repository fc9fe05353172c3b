package models

// MConfig Structure
type MConfig struct {
	Name     string         `yaml:"name"`
	Host     string         `yaml:"host"`
	Port     int            `yaml:"port"`
	LogLevel string         `yaml:"log_level"`
	Storage  MStorageConfig `yaml:"storage"`
	Network  MNetworkConfig `yaml:"network"`
	Venue    MVenueConfig   `yaml:"venue"`
	Stream   MStreamConfig  `yaml:"stream"`
	Symbols  []string       `yaml:"symbols"`
}

type MStorageConfig struct {
	DBType             string `yaml:"db_type"`
	DBPath             string `yaml:"db_path"`
	DBConnectionString string `yaml:"db_connection_string"`
}

type MNetworkConfig struct {
	RequestTimeout int    `yaml:"timeout"`
	MaxRetries     int    `yaml:"retries"`
	UserAgent      string `yaml:"user_agent"`
}

// MVenueConfig holds the venue endpoints and application identity.
// Username, password and the app secret are NOT part of the yaml file;
// they are read from the environment in cmd/main (VENUE_USERNAME,
// VENUE_PASSWORD, VENUE_SECRET).
type MVenueConfig struct {
	RestURL    string `yaml:"rest_url"`
	WsURL      string `yaml:"ws_url"`
	AppID      string `yaml:"app_id"`
	AppVersion string `yaml:"app_version"`
	DeviceID   string `yaml:"device_id"`
	CID        string `yaml:"cid"`
}

// MStreamConfig controls the per-phase budgets of the streaming session.
type MStreamConfig struct {
	PhaseTimeoutSeconds int `yaml:"phase_timeout_seconds"`
	HeartbeatSeconds    int `yaml:"heartbeat_seconds"`
	AuthDelayMs         int `yaml:"auth_delay_ms"`
}
