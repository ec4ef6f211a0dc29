package config_test

import (
	"fmt"

	"github.com/wonny/storagelimits/pkg/config"
)

// Example demonstrates how to use the config package
func Example() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		return
	}

	fmt.Printf("Environment: %s\n", cfg.Env)
	fmt.Printf("Storage: %s://%s/%s\n", cfg.Storage.Backend, cfg.Storage.Bucket, cfg.Storage.Prefix)
	fmt.Printf("Formats: %v\n", cfg.Export.Formats)
}
