package dashboard

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/timetracker/tdash/internal/model"
)

// DashboardPath is the tracker's dashboard route.
const DashboardPath = "/dashboard"

// ErrNotDashboard is returned by entry points called outside a dashboard view.
var ErrNotDashboard = errors.New("not a dashboard view")

// Bootstrap is the dashboard data embedded by the hosting page, read here
// from a JSON file.
type Bootstrap struct {
	Users     []model.User    `json:"users"`
	Analytics json.RawMessage `json:"analytics,omitempty"`
}

// LoadBootstrap reads a bootstrap file. An empty path returns nil.
func LoadBootstrap(path string) (*Bootstrap, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading bootstrap file: %w", err)
	}
	var b Bootstrap
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("parsing bootstrap file %s: %w", path, err)
	}
	return &b, nil
}

// Page identifies the view the dashboard is running for.
type Page struct {
	URL       *url.URL
	Bootstrap *Bootstrap
}

// NewPage parses the dashboard URL.
func NewPage(dashboardURL string, boot *Bootstrap) (Page, error) {
	u, err := url.Parse(dashboardURL)
	if err != nil {
		return Page{}, fmt.Errorf("parsing dashboard url: %w", err)
	}
	return Page{URL: u, Bootstrap: boot}, nil
}

// Active reports whether this is a dashboard view: the path is, or starts
// with, the dashboard route, or bootstrap data was supplied.
func (p Page) Active() bool {
	if p.Bootstrap != nil {
		return true
	}
	if p.URL == nil {
		return false
	}
	path := p.URL.Path
	return path == DashboardPath || strings.HasPrefix(path, DashboardPath)
}
