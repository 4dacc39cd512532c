package config

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Site holds the settings for one YouTrack server
type Site struct {
	Name     string `yaml:"name"`
	URL      string `yaml:"url"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`

	StateFieldName string `yaml:"stateFieldName"` // field holding the issue state
	FixedValues    string `yaml:"fixedValues"`    // comma separated states counting as fixed
	SilentCommands bool   `yaml:"silentCommands"` // do not notify watchers
	CommentGroup   string `yaml:"commentGroup"`   // group comments are visible to
}

// Config holds all configuration for the application
type Config struct {
	// Default site, from YOUTRACK_* variables
	Site Site

	// Additional sites from SITES_FILE
	Sites []Site

	// HTTP gateway listen address
	HTTPAddr string

	// S3 bucket for command history, empty keeps history in memory
	CommandBucket string

	// Slack notification, disabled when the token is empty
	SlackBotToken string
	SlackChannel  string

	// Log level
	LogLevel string
}

const defaultSiteName = "default"

// Load creates a new Config instance from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Site: Site{Name: defaultSiteName},
	}

	// Load required values
	requiredVars := map[string]*string{
		"YOUTRACK_URL":      &cfg.Site.URL,
		"YOUTRACK_USERNAME": &cfg.Site.Username,
		"YOUTRACK_PASSWORD": &cfg.Site.Password,
	}

	var missingVars []string
	for env, ptr := range requiredVars {
		*ptr = os.Getenv(env)
		if *ptr == "" {
			missingVars = append(missingVars, env)
		}
	}

	if len(missingVars) > 0 {
		sort.Strings(missingVars)
		return nil, fmt.Errorf("missing required environment variables: %s", strings.Join(missingVars, ", "))
	}

	// Optional values with defaults
	optionalVars := map[string]struct {
		ptr *string
		def string
	}{
		"YOUTRACK_SITE":   {&cfg.Site.Name, defaultSiteName},
		"STATE_FIELD":     {&cfg.Site.StateFieldName, "State"},
		"FIXED_VALUES":    {&cfg.Site.FixedValues, "Fixed"},
		"COMMENT_GROUP":   {&cfg.Site.CommentGroup, ""},
		"HTTP_ADDR":       {&cfg.HTTPAddr, ":8080"},
		"COMMAND_BUCKET":  {&cfg.CommandBucket, ""},
		"SLACK_BOT_TOKEN": {&cfg.SlackBotToken, ""},
		"SLACK_CHANNEL":   {&cfg.SlackChannel, ""},
		"LOG_LEVEL":       {&cfg.LogLevel, "info"},
	}
	for env, v := range optionalVars {
		*v.ptr = os.Getenv(env)
		if *v.ptr == "" {
			*v.ptr = v.def
		}
	}

	if s := os.Getenv("SILENT_COMMANDS"); s != "" {
		silent, err := strconv.ParseBool(s)
		if err != nil {
			return nil, fmt.Errorf("invalid SILENT_COMMANDS: %w", err)
		}
		cfg.Site.SilentCommands = silent
	}

	if path := os.Getenv("SITES_FILE"); path != "" {
		sites, err := LoadSites(path)
		if err != nil {
			return nil, err
		}
		cfg.Sites = sites
	}

	return cfg, nil
}

type sitesFile struct {
	Sites []Site `yaml:"sites"`
}

// LoadSites reads a YAML file with a top level "sites" list
func LoadSites(path string) ([]Site, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read sites file: %w", err)
	}

	var file sitesFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse sites file: %w", err)
	}

	for i, site := range file.Sites {
		if site.Name == "" || site.URL == "" {
			return nil, fmt.Errorf("site %d in %s needs a name and a url", i, path)
		}
		if site.StateFieldName == "" {
			file.Sites[i].StateFieldName = "State"
		}
	}
	return file.Sites, nil
}

// SiteByName returns the site called name. An empty name selects the
// default site.
func (c *Config) SiteByName(name string) (Site, bool) {
	if name == "" || name == c.Site.Name {
		return c.Site, true
	}
	for _, site := range c.Sites {
		if site.Name == name {
			return site, true
		}
	}
	return Site{}, false
}

// FixedValueList splits FixedValues into trimmed, non-empty values
func (s Site) FixedValueList() []string {
	var values []string
	for _, v := range strings.Split(s.FixedValues, ",") {
		if v = strings.TrimSpace(v); v != "" {
			values = append(values, v)
		}
	}
	return values
}
