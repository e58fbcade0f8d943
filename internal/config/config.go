// Package config loads the engine's per-instance configuration, supplied
// by the host before each invocation.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// ConfigFileName is the default on-disk name for a saved instance config.
const ConfigFileName = "syncengine.json"

// Prefix constants for the artifact-id field.
const (
	PrefixIncident    = "IN"
	PrefixRequirement = "RQ"
	PrefixTask        = "TK"
)

// Default auto-created release constants.
// Exposed as named constants so operators can override them via config.
const (
	DefaultReleaseDurationDays = 5
	DefaultReleaseCreatorID    = 1 // "System Administrator"
)

// Config holds the static per-instance configuration a host supplies to
// the engine before each invocation.
type Config struct {
	PlugInID  int `json:"plug_in_id"`
	ProjectID int `json:"project_id"`

	PMSBaseURL string `json:"pms_base_url"`
	PMSLogin   string `json:"pms_login"`
	PMSPassword string `json:"pms_password"`

	WITSConnectionString string `json:"wits_connection_string"`
	WITSProjectName      string `json:"wits_project_name"`
	WITSLogin            string `json:"wits_login"`
	WITSPassword         string `json:"wits_password"`

	TimeOffsetHours int  `json:"time_offset_hours"`
	AutoMapUsers    bool `json:"auto_map_users"`
	WindowsDomain   string `json:"windows_domain"`

	ArtifactIDField string `json:"artifact_id_field"`
	OpenerField     string `json:"opener_field"`

	TaskWorkItemTypes        string `json:"task_work_item_types"`
	RequirementWorkItemTypes string `json:"requirement_work_item_types"`

	TraceLogging bool `json:"trace_logging"`

	// DryRun, when true, computes every would-be create/update without
	// calling the mutating PMS/WITS endpoints.
	DryRun bool `json:"dry_run,omitempty"`

	// ReleaseDurationDays overrides DefaultReleaseDurationDays.
	ReleaseDurationDays int `json:"release_duration_days,omitempty"`
	// ReleaseCreatorID overrides DefaultReleaseCreatorID.
	ReleaseCreatorID int `json:"release_creator_id,omitempty"`

	// UseCorrectTaskCustomPropertyType, when true, fixes a long-standing
	// bug where task custom-property definitions were fetched using the
	// Requirement artifact-type constant. Defaults to false to preserve
	// current behavior.
	UseCorrectTaskCustomPropertyType bool `json:"use_correct_task_custom_property_type,omitempty"`
}

// envOverrides lists the (config field, env var) pairs applied on top of
// a loaded file, mirroring internal/jira/tracker.go's getConfig pattern of
// falling back to an environment variable when the stored value is empty.
var envOverrides = []struct {
	key   string
	env   string
	apply func(c *Config, v string)
}{
	{"pms_base_url", "SYNCENGINE_PMS_BASE_URL", func(c *Config, v string) { c.PMSBaseURL = v }},
	{"pms_login", "SYNCENGINE_PMS_LOGIN", func(c *Config, v string) { c.PMSLogin = v }},
	{"pms_password", "SYNCENGINE_PMS_PASSWORD", func(c *Config, v string) { c.PMSPassword = v }},
	{"wits_connection_string", "SYNCENGINE_WITS_CONNECTION_STRING", func(c *Config, v string) { c.WITSConnectionString = v }},
	{"wits_login", "SYNCENGINE_WITS_LOGIN", func(c *Config, v string) { c.WITSLogin = v }},
	{"wits_password", "SYNCENGINE_WITS_PASSWORD", func(c *Config, v string) { c.WITSPassword = v }},
}

// Load reads a Config from path, falling back to environment variables for
// any credential field left empty in the file (or if the file is absent).
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path) // #nosec G304 - path supplied by operator/host, not user input
	switch {
	case os.IsNotExist(err):
		// No file yet; proceed with env-only config.
	case err != nil:
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	default:
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config %s: %w", path, err)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	for _, o := range envOverrides {
		envVal := os.Getenv(o.env)
		if envVal == "" {
			continue
		}
		// Clearing the field on a copy shows whether the file set it;
		// a value from the file is kept.
		cleared := *cfg
		o.apply(&cleared, "")
		if cleared != *cfg {
			continue
		}
		o.apply(cfg, envVal)
	}
}

// Save writes cfg to path as indented JSON with owner-only permissions,
// matching internal/configfile/configfile.go's Save.
func (c *Config) Save(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Validate checks that the fields required for any cycle to run are present.
func (c *Config) Validate() error {
	var missing []string
	if c.PlugInID == 0 {
		missing = append(missing, "plug_in_id")
	}
	if c.PMSBaseURL == "" {
		missing = append(missing, "pms_base_url")
	}
	if c.PMSLogin == "" {
		missing = append(missing, "pms_login")
	}
	if c.ProjectID == 0 {
		missing = append(missing, "project_id")
	}
	if c.WITSConnectionString == "" {
		missing = append(missing, "wits_connection_string")
	}
	if c.WITSProjectName == "" {
		missing = append(missing, "wits_project_name")
	}
	if c.WindowsDomain == "" && c.WITSLogin == "" {
		missing = append(missing, "wits_login (or windows_domain for network credentials)")
	}
	if len(missing) > 0 {
		return fmt.Errorf("config: missing required fields: %s", strings.Join(missing, ", "))
	}
	return nil
}

// ReleaseDuration returns the configured release duration in days, or
// DefaultReleaseDurationDays if unset.
func (c *Config) ReleaseDuration() int {
	if c.ReleaseDurationDays <= 0 {
		return DefaultReleaseDurationDays
	}
	return c.ReleaseDurationDays
}

// ReleaseCreator returns the configured auto-created-release owner id, or
// DefaultReleaseCreatorID if unset.
func (c *Config) ReleaseCreator() int {
	if c.ReleaseCreatorID <= 0 {
		return DefaultReleaseCreatorID
	}
	return c.ReleaseCreatorID
}

// TaskTypeList splits TaskWorkItemTypes on commas, trimming whitespace.
func (c *Config) TaskTypeList() []string {
	return splitTrim(c.TaskWorkItemTypes)
}

// RequirementTypeList splits RequirementWorkItemTypes on commas, trimming
// whitespace.
func (c *Config) RequirementTypeList() []string {
	return splitTrim(c.RequirementWorkItemTypes)
}

func splitTrim(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// UsesNetworkCredentials reports whether WITS authentication should use
// domain network credentials instead of basic-auth/live credentials.
func (c *Config) UsesNetworkCredentials() bool {
	return c.WindowsDomain != ""
}

// ArtifactIDPrefix maps an artifact kind name to its configured prefix
// constant.
func ArtifactIDPrefix(kind string) (string, bool) {
	switch kind {
	case "incident":
		return PrefixIncident, true
	case "requirement":
		return PrefixRequirement, true
	case "task":
		return PrefixTask, true
	default:
		return "", false
	}
}

// FormatArtifactID renders the prefixed PMS id written to a WITS
// artifact-id field, e.g. "IN123".
func FormatArtifactID(kind string, internalID int) (string, bool) {
	prefix, ok := ArtifactIDPrefix(kind)
	if !ok {
		return "", false
	}
	return prefix + strconv.Itoa(internalID), true
}
