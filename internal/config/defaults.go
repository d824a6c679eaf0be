package config

// DefaultConfig returns a Config populated with all default values.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			URL:            "http://127.0.0.1:5002",
			TimeoutSeconds: 30,
		},
		Paging: PagingConfig{
			PageSize: 1000,
		},
		Storage: StorageConfig{
			Path:       "~/.config/histview",
			SQLiteFile: "state.db",
		},
		Export: ExportConfig{
			Dir:      ".",
			Format:   "csv",
			DataType: "history",
		},
		Logging: LoggingConfig{
			Level:      "info",
			File:       "histview.log",
			MaxSize:    10,
			MaxBackups: 3,
		},
	}
}
