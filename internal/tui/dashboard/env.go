package dashboard

import (
	"context"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/timetracker/tdash/internal/logging"
)

// applyDashboardEnvOverrides applies environment overrides that have no
// config file key.
func applyDashboardEnvOverrides(o *Options) {
	if o == nil {
		return
	}
	if seconds, ok := envPositiveInt("TDASH_DASH_BANNER_SECS"); ok {
		o.BannerDuration = time.Duration(seconds) * time.Second
	}
	if seconds, ok := envPositiveInt("TDASH_DASH_HANDSHAKE_SECS"); ok {
		o.HandshakeTimeout = time.Duration(seconds) * time.Second
	}
	if v := strings.TrimSpace(os.Getenv("TDASH_CLIENT_ID")); v != "" {
		o.ClientID = v
	}
}

func envPositiveInt(name string) (int, bool) {
	value := strings.TrimSpace(os.Getenv(name))
	if value == "" {
		return 0, false
	}

	parsed, err := strconv.Atoi(value)
	if err != nil || parsed <= 0 {
		return 0, false
	}

	return parsed, true
}

func logCtx(ctx context.Context, l *slog.Logger) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return logging.With(ctx, l)
}
