package config

// Version information, set at build time

var Version = "development"
var CommitHash = "development"
var BuildTimestamp = "0000-00-00T00:00:00Z"

// Environment variable prefix used by the env loader

var DefaultNamePrefix = "ESIAGATE_"

// Headers

var RequestIDHeader = "X-Request-ID"
var ProcessTimeHeader = "X-Process-Time"

// ESIA data providers accepted by the gateway

var AllowedProviders = []string{"esia_oauth", "ebs_oauth", "cpg_oauth"}

func NewDefaultConfiguration() *Config {
	return &Config{
		Database: DatabaseConfig{
			Driver:         "sqlite",
			Path:           "./esiagate.db",
			ConnectRetries: 5,
		},
		Server: ServerConfig{
			Port:    8000,
			Address: "0.0.0.0",
			Prefix:  "/api/v1",
		},
		ESIA: ESIAConfig{
			BaseURL:        "https://demo.gate.esia.pro",
			UserAgent:      "ESIA-Gateway/" + Version,
			Timeout:        30,
			DefaultScope:   "openid",
			UserScope:      "openid fullname",
			OrgScope:       "usr_org",
			ScopeNamespace: "http://esia.gosuslugi.ru/",
			AllowedScopes: []string{
				"openid",
				"fullname",
				"birthdate",
				"gender",
				"citizenship",
				"id_doc",
				"email",
				"mobile",
				"addresses",
				"usr_org",
				"org_shortname",
				"org_fullname",
				"org_type",
				"org_ogrn",
				"org_inn",
				"org_kpp",
				"org_addrs",
				"org_grps",
				"org_emps",
			},
		},
		CORS: CORSConfig{
			AllowOrigins: []string{"*"},
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
		Log: LogConfig{
			Level: "info",
			Json:  false,
			Streams: LogStreams{
				HTTP:  LogStreamConfig{Enabled: true},
				App:   LogStreamConfig{Enabled: true},
				Audit: LogStreamConfig{Enabled: false},
			},
		},
	}
}

// Main app config

type Config struct {
	Database       DatabaseConfig `description:"Database configuration." yaml:"database"`
	Server         ServerConfig   `description:"Server configuration." yaml:"server"`
	ESIA           ESIAConfig     `description:"ESIA gateway configuration." yaml:"esia"`
	CORS           CORSConfig     `description:"CORS configuration." yaml:"cors"`
	Metrics        MetricsConfig  `description:"Prometheus metrics configuration." yaml:"metrics"`
	Log            LogConfig      `description:"Logging configuration." yaml:"log"`
	TrustedProxies []string       `description:"Comma-separated list of trusted proxy addresses." yaml:"trustedProxies"`
	ConfigFile     string         `description:"Path to a configuration file." yaml:"-"`
}

type DatabaseConfig struct {
	Driver         string `description:"Database driver, sqlite or postgres." yaml:"driver"`
	Path           string `description:"Path to the SQLite database file." yaml:"path"`
	DSN            string `description:"PostgreSQL connection string." yaml:"dsn"`
	DSNFile        string `description:"Path to a file containing the PostgreSQL connection string." yaml:"dsnFile"`
	ConnectRetries int    `description:"Number of connection attempts before giving up." yaml:"connectRetries"`
}

type ServerConfig struct {
	Port    int    `description:"The port on which the server listens." yaml:"port"`
	Address string `description:"The address on which the server listens." yaml:"address"`
	Prefix  string `description:"Path prefix of the API routes." yaml:"prefix"`
}

type ESIAConfig struct {
	BaseURL          string   `description:"Base URL of the ESIA gateway." yaml:"baseUrl"`
	ClientID         string   `description:"OAuth client ID registered in ESIA." yaml:"clientId"`
	ClientSecret     string   `description:"OAuth client secret." yaml:"clientSecret"`
	ClientSecretFile string   `description:"Path to a file containing the OAuth client secret." yaml:"clientSecretFile"`
	RedirectURI      string   `description:"Default redirect URI registered in ESIA." yaml:"redirectUri"`
	UserAgent        string   `description:"User-Agent sent to the ESIA gateway." yaml:"userAgent"`
	Timeout          int      `description:"Timeout of outbound ESIA calls in seconds." yaml:"timeout"`
	DefaultScope     string   `description:"Scope requested when the caller does not provide one." yaml:"defaultScope"`
	UserScope        string   `description:"Scope used when fetching user info." yaml:"userScope"`
	OrgScope         string   `description:"Scope used when fetching the user's organizations." yaml:"orgScope"`
	ScopeNamespace   string   `description:"Namespace prefix for organization scoped requests." yaml:"scopeNamespace"`
	AllowedScopes    []string `description:"Comma-separated list of scopes callers may request." yaml:"allowedScopes"`
}

type CORSConfig struct {
	AllowOrigins     []string `description:"Comma-separated list of allowed origins." yaml:"allowOrigins"`
	AllowCredentials bool     `description:"Allow credentials in CORS requests." yaml:"allowCredentials"`
}

type MetricsConfig struct {
	Enabled bool   `description:"Expose Prometheus metrics." yaml:"enabled"`
	Path    string `description:"Path of the metrics endpoint." yaml:"path"`
}

type LogConfig struct {
	Level   string     `description:"Log level (trace, debug, info, warn, error)." yaml:"level"`
	Json    bool       `description:"Enable JSON formatted logs." yaml:"json"`
	Streams LogStreams `description:"Configuration for specific log streams." yaml:"streams"`
}

type LogStreams struct {
	HTTP  LogStreamConfig `description:"HTTP request logging." yaml:"http"`
	App   LogStreamConfig `description:"Application logging." yaml:"app"`
	Audit LogStreamConfig `description:"Audit logging." yaml:"audit"`
}

type LogStreamConfig struct {
	Enabled bool   `description:"Enable this log stream." yaml:"enabled"`
	Level   string `description:"Log level for this stream. Use global if empty." yaml:"level"`
}
