// Package config holds the query server configuration.
package config

// Config represents the complete server configuration
type Config struct {
	BaseDir     string            `yaml:"-"` // Directory containing config file; relative paths in the config are not resolved against it
	Server      ServerConfig      `yaml:"server"`
	Database    DatabaseConfig    `yaml:"database"`
	Compression CompressionConfig `yaml:"compression"`
	CORS        CORSConfig        `yaml:"cors"`
	Logging     LoggingConfig     `yaml:"logging"`
}

// ServerConfig holds listener settings
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// DatabaseConfig holds the record source settings
type DatabaseConfig struct {
	Driver string `yaml:"driver"` // "sqlite", "mysql", or "postgres"
	DSN    string `yaml:"dsn"`    // Driver-specific connection string; ${VAR} references are expanded
	Table  string `yaml:"table"`  // Table holding the queryable records
	Record string `yaml:"record"` // Display name for the record type in error messages (default: table name)
}

// CompressionConfig holds HTTP response compression settings
type CompressionConfig struct {
	Enabled bool   `yaml:"enabled"`  // Enable gzip compression (default: true)
	Level   string `yaml:"level"`    // Compression level: "fastest", "default", "best" (default: "default")
	MinSize int    `yaml:"min_size"` // Minimum response size to compress in bytes (default: 1024)
}

// CORSConfig holds CORS settings
type CORSConfig struct {
	Origins StringOrSlice `yaml:"origins"` // "*" or list of allowed origins
	Methods []string      `yaml:"methods"` // Allowed HTTP methods (default: GET, HEAD)
}

// LoggingConfig holds request logging settings
type LoggingConfig struct {
	Requests bool   `yaml:"requests"` // Log each request (default: true)
	Format   string `yaml:"format"`   // "text" or "json" (default: "text")
}

// StringOrSlice supports YAML fields that can be either a string or a slice of strings
type StringOrSlice []string

// UnmarshalYAML implements yaml.Unmarshaler to handle both string and []string
func (s *StringOrSlice) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var single string
	if err := unmarshal(&single); err == nil {
		*s = []string{single}
		return nil
	}

	var list []string
	if err := unmarshal(&list); err != nil {
		return err
	}
	*s = list
	return nil
}
