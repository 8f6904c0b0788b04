// Package config handles loading and validating dbaccess configuration.
//
// This package manages:
//   - Loading configuration from YAML files
//   - Loading credentials from an optional .env file
//   - Overriding with environment variables
//   - Validation of required fields
//   - Default value handling
//
// Security Considerations:
//   - Database passwords and tokens should be set via environment variables
//     or the .env file, never committed in config.yaml
//   - The config and .env files should have restricted permissions (0600)
//
// Usage:
//
//	cfg, err := config.Load("configs/config.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Database.Host)
package config
