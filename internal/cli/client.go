package cli

import (
	"github.com/google/uuid"

	"github.com/timetracker/tdash/internal/api"
	"github.com/timetracker/tdash/internal/config"
)

func newClient(c *config.Config) (*api.Client, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return api.NewClient(c.DashboardURL,
		api.WithSession(c.SessionCookie),
		api.WithClientID(uuid.NewString()))
}
