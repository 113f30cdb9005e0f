package config

import "github.com/ilyakaznacheev/cleanenv"

// parseEnv overlays cfg with the variables named in its env tags. Unset
// variables keep the current values. Malformed values panic.
func parseEnv(cfg *Config) {
	if err := cleanenv.ReadEnv(cfg); err != nil {
		panic(err)
	}
}
