package config

import (
	"os"
	"strconv"
	"strings"
)

// ApplyEnv applies TDASH_* environment overrides to cfg.
func ApplyEnv(cfg *Config) {
	if cfg == nil {
		return
	}
	if v := envString("TDASH_URL"); v != "" {
		cfg.DashboardURL = v
	}
	if v := envString("TDASH_SESSION"); v != "" {
		cfg.SessionCookie = v
	}
	if v := envString("TDASH_BOOTSTRAP"); v != "" {
		cfg.BootstrapFile = expandHome(v)
	}
	if v := envString("TDASH_DOWNLOAD_DIR"); v != "" {
		cfg.DownloadDir = expandHome(v)
	}
	if v := envString("TDASH_THEME"); v != "" {
		cfg.Theme = v
	}
	if v := envString("TDASH_TZ"); v != "" {
		cfg.Timezone = v
	}
	if v := envString("TDASH_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := envString("TDASH_LOG_FILE"); v != "" {
		cfg.Log.File = expandHome(v)
	}
	if seconds, ok := envPositiveInt("TDASH_FALLBACK_SECS"); ok {
		cfg.Refresh.FallbackSeconds = seconds
	}
	if seconds, ok := envPositiveInt("TDASH_PERIODIC_SECS"); ok {
		cfg.Refresh.PeriodicSeconds = seconds
	}
	if seconds, ok := envPositiveInt("TDASH_RECONNECT_SECS"); ok {
		cfg.Connection.ReconnectSeconds = seconds
	}
}

func envString(name string) string {
	return strings.TrimSpace(os.Getenv(name))
}

func envPositiveInt(name string) (int, bool) {
	value := envString(name)
	if value == "" {
		return 0, false
	}

	parsed, err := strconv.Atoi(value)
	if err != nil || parsed <= 0 {
		return 0, false
	}

	return parsed, true
}
