package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/tanq16/gdfetch/internal/utils"
)

const DefaultConfigName = "gdfetch"

type Config struct {
	OutputDir            string                              `mapstructure:"output_dir" yaml:"output_dir"`
	Workers              int                                 `mapstructure:"workers" yaml:"workers"`
	LinksFile            string                              `mapstructure:"links_file" yaml:"links_file"`
	ScrapeURLs           []string                            `mapstructure:"scrape_urls" yaml:"scrape_urls"`
	LinkPatterns         []string                            `mapstructure:"link_patterns" yaml:"link_patterns"`
	UserAgent            string                              `mapstructure:"user_agent" yaml:"user_agent"`
	ConnectTimeout       time.Duration                       `mapstructure:"connect_timeout" yaml:"connect_timeout"`
	TransferTimeout      time.Duration                       `mapstructure:"transfer_timeout" yaml:"transfer_timeout"`
	ChunkSize            int                                 `mapstructure:"chunk_size" yaml:"chunk_size"`
	MaxCollisionAttempts int                                 `mapstructure:"max_collision_attempts" yaml:"max_collision_attempts"`
	Proxy                string                              `mapstructure:"proxy" yaml:"proxy"`
	ProxyUsername        string                              `mapstructure:"proxy_username" yaml:"proxy_username"`
	ProxyPassword        string                              `mapstructure:"proxy_password" yaml:"proxy_password"`
	Headers              []string                            `mapstructure:"headers" yaml:"headers"`
	Formats              map[utils.LinkKind]utils.FormatSet `mapstructure:"formats" yaml:"formats"`
	FormatChoices        []string                            `mapstructure:"format_choices" yaml:"format_choices"`
	Prompt               bool                                `mapstructure:"prompt" yaml:"prompt"`
	Debug                bool                                `mapstructure:"debug" yaml:"debug"`
	LogFile              string                              `mapstructure:"log_file" yaml:"log_file"`
	Mirror               MirrorConfig                        `mapstructure:"mirror" yaml:"mirror"`
}

type MirrorConfig struct {
	Bucket  string `mapstructure:"bucket" yaml:"bucket"`
	Prefix  string `mapstructure:"prefix" yaml:"prefix"`
	Profile string `mapstructure:"profile" yaml:"profile"`
	Region  string `mapstructure:"region" yaml:"region"`
}

func (m MirrorConfig) Enabled() bool {
	return m.Bucket != ""
}

func Defaults() map[string]any {
	formats := map[string]any{}
	for kind, set := range utils.DefaultFormats {
		formats[string(kind)] = map[string]any{"default": set.Default, "valid": set.Valid}
	}
	return map[string]any{
		"output_dir":             "downloaded_files",
		"workers":                5,
		"links_file":             "links.txt",
		"scrape_urls":            []string{},
		"link_patterns":          utils.DefaultLinkPatterns,
		"user_agent":             utils.DefaultUserAgent,
		"connect_timeout":        utils.DefaultConnectTimeout,
		"transfer_timeout":       utils.DefaultTransferTimeout,
		"chunk_size":             utils.DefaultChunkSize,
		"max_collision_attempts": utils.DefaultMaxCollisionAttempts,
		"proxy":                  "",
		"proxy_username":         "",
		"proxy_password":         "",
		"headers":                []string{},
		"formats":                formats,
		"format_choices":         []string{},
		"prompt":                 true,
		"debug":                  false,
		"log_file":               "",
		"mirror.bucket":          "",
		"mirror.prefix":          "",
		"mirror.profile":         "",
		"mirror.region":          "",
	}
}

func New() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix("GDFETCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	for key, value := range Defaults() {
		v.SetDefault(key, value)
	}
	return v
}

// BindFlags maps cobra flag names onto configuration keys.
func BindFlags(v *viper.Viper, cmd *cobra.Command) error {
	flags := cmd.Flags()
	bindings := map[string]string{
		"output_dir":       "output",
		"workers":          "workers",
		"links_file":       "links-file",
		"scrape_urls":      "scrape-url",
		"user_agent":       "user-agent",
		"connect_timeout":  "connect-timeout",
		"transfer_timeout": "timeout",
		"chunk_size":       "chunk-size",
		"proxy":            "proxy",
		"proxy_username":   "proxy-username",
		"proxy_password":   "proxy-password",
		"headers":          "header",
		"format_choices":   "format",
		"debug":            "debug",
		"log_file":         "log-file",
		"mirror.bucket":    "s3-bucket",
		"mirror.prefix":    "s3-prefix",
		"mirror.profile":   "s3-profile",
		"mirror.region":    "s3-region",
	}
	for key, name := range bindings {
		flag := flags.Lookup(name)
		if flag == nil {
			continue
		}
		if err := v.BindPFlag(key, flag); err != nil {
			return fmt.Errorf("binding flag %s: %w", name, err)
		}
	}
	return nil
}

// Load reads an optional config file then decodes everything into a Config.
// An explicit path must exist; otherwise ./gdfetch.yaml is used when present.
func Load(v *viper.Viper, path string) (*Config, error) {
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(DefaultConfigName)
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		log.Debug().Str("op", "config/config").Msg("no config file found, using defaults")
	} else {
		log.Debug().Str("op", "config/config").Msgf("loaded config from %s", v.ConfigFileUsed())
	}
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	cfg.Validate()
	return cfg, nil
}

// Validate clamps numeric settings and repairs format sets in place.
func (c *Config) Validate() {
	if c.Workers < 1 {
		c.Workers = 1
	}
	if c.ChunkSize < 1024 {
		c.ChunkSize = utils.DefaultChunkSize
	}
	if c.MaxCollisionAttempts < 1 {
		c.MaxCollisionAttempts = utils.DefaultMaxCollisionAttempts
	}
	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = utils.DefaultConnectTimeout
	}
	if c.TransferTimeout <= 0 {
		c.TransferTimeout = utils.DefaultTransferTimeout
	}
	if len(c.LinkPatterns) == 0 {
		c.LinkPatterns = utils.DefaultLinkPatterns
	}
	if c.Formats == nil {
		c.Formats = map[utils.LinkKind]utils.FormatSet{}
	}
	for _, kind := range utils.ExportKinds {
		builtin := utils.DefaultFormats[kind]
		set, ok := c.Formats[kind]
		if !ok {
			set = builtin
		}
		if len(set.Valid) == 0 {
			set.Valid = builtin.Valid
		}
		set.Default = strings.ToLower(set.Default)
		if !set.Contains(set.Default) {
			fallback := set.Valid[0]
			if set.Contains(builtin.Default) {
				fallback = builtin.Default
			}
			log.Warn().Str("op", "config/config").Msgf("default format %q is not valid for %s, using %s", set.Default, kind, fallback)
			set.Default = fallback
		}
		c.Formats[kind] = set
	}
}

// HTTPClientConfig derives the transport settings shared by scraping and downloading.
func (c *Config) HTTPClientConfig() utils.HTTPClientConfig {
	agent := c.UserAgent
	if agent == "randomize" {
		agent = utils.GetRandomUserAgent()
	}
	return utils.HTTPClientConfig{
		ConnectTimeout:  c.ConnectTimeout,
		TransferTimeout: c.TransferTimeout,
		ProxyURL:        c.Proxy,
		ProxyUsername:   c.ProxyUsername,
		ProxyPassword:   c.ProxyPassword,
		UserAgent:       agent,
		Headers:         utils.ParseHeaderArgs(c.Headers),
	}
}

// ParseFormatChoices turns "kind=format" pairs into per-kind choices.
// Kinds accept their singular aliases (doc, sheet, slides).
func ParseFormatChoices(pairs []string) (map[utils.LinkKind]string, error) {
	out := make(map[utils.LinkKind]string)
	for _, pair := range pairs {
		name, format, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("format choice %q must look like kind=format", pair)
		}
		kind, ok := ParseKind(name)
		if !ok || !kind.Exportable() {
			return nil, fmt.Errorf("unknown document kind %q", name)
		}
		out[kind] = strings.ToLower(strings.TrimSpace(format))
	}
	return out, nil
}

func ParseKind(name string) (utils.LinkKind, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "doc", "docs", "document":
		return utils.KindDocument, true
	case "sheet", "sheets", "spreadsheet", "spreadsheets":
		return utils.KindSpreadsheet, true
	case "slide", "slides", "presentation":
		return utils.KindPresentation, true
	case "file":
		return utils.KindFile, true
	case "folder":
		return utils.KindFolder, true
	}
	return "", false
}
