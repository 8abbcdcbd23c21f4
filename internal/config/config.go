package config

import (
	"fmt"
)

type Config struct {
	ServerAddr string
	// ArchiveDSN enables the Postgres message archive when non-empty.
	ArchiveDSN     string
	AllowedOrigins []string
}

func NewConfig(serverAddr, archiveDSN string, allowedOrigins []string) (*Config, error) {
	if serverAddr == "" {
		return nil, fmt.Errorf("server address cannot be empty")
	}

	return &Config{
		ServerAddr:     serverAddr,
		ArchiveDSN:     archiveDSN,
		AllowedOrigins: allowedOrigins,
	}, nil
}
