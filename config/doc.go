// Package config loads service configuration from a YAML file, a .env file
// and the process environment.
//
// Values are layered in that order: the YAML file is the base, then every
// environment variable is bound under all of its plausible nested key forms
// (API_KEYS_OPENAI becomes api_keys.openai, among others), and finally the
// result is decoded into the caller's struct with mapstructure tags.
//
//	var cfg app.Config
//	err := config.LoadConfig("voxrelay", &cfg, config.WithConfigFile(path))
package config
