package config

import (
	"strings"
	"time"
)

// Format renders the effective configuration as key=value lines followed by
// the files it was loaded from.
func (cfg Config) Format() string {
	var b strings.Builder

	line := func(k, v string) {
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(v)
		b.WriteByte('\n')
	}

	line("effective_cwd", cfg.EffectiveCwd)
	line("data_dir", cfg.DataDirAbs)
	line("listen", cfg.Listen)

	if len(cfg.CORSOrigins) > 0 {
		line("cors_origins", strings.Join(cfg.CORSOrigins, ","))
	}

	if cfg.CacheTTL != 0 {
		line("cache_ttl", time.Duration(cfg.CacheTTL).String())
	}

	if cfg.LockTimeout != 0 {
		line("lock_timeout", time.Duration(cfg.LockTimeout).String())
	}

	if cfg.RequiredPages != nil {
		line("required_pages", strings.Join(cfg.RequiredPages, ","))
	}

	if cfg.ContactPage != "" {
		line("contact_page", cfg.ContactPage)
	}

	if cfg.RoutesDirAbs != "" {
		line("routes_dir", cfg.RoutesDirAbs)
	}

	line("log_level", cfg.LogLevel)
	line("log_format", cfg.LogFormat)

	b.WriteString("\n# sources\n")

	if cfg.Sources.Global == "" && cfg.Sources.Project == "" && cfg.Sources.DotEnv == "" {
		b.WriteString("(defaults only)\n")

		return b.String()
	}

	if cfg.Sources.Global != "" {
		line("global_config", cfg.Sources.Global)
	}

	if cfg.Sources.Project != "" {
		line("project_config", cfg.Sources.Project)
	}

	if cfg.Sources.DotEnv != "" {
		line("dotenv", cfg.Sources.DotEnv)
	}

	return b.String()
}
