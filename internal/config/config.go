/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"gopkg.in/yaml.v3"
)

// AppConfig is the user-editable configuration persisted to a YAML file in the user scope.
// Environment variables are treated as read-only overrides at runtime.
//
// config_version: bump when the structure changes in a backward-incompatible way.
// Unknown fields are ignored on unmarshal.
type AppConfig struct {
	ConfigVersion int           `yaml:"config_version"`
	General       GeneralConfig `yaml:"general"`
	Export        ExportConfig  `yaml:"export"`
	Server        ServerConfig  `yaml:"server"`
	Logging       LoggingConfig `yaml:"logging"`
}

type GeneralConfig struct {
	DefaultTitle  string `yaml:"default_title"`
	DefaultAuthor string `yaml:"default_author"`
	RevisionColor string `yaml:"revision_color"`
}

// ExportConfig controls where and how scripts are exported. FontFile and
// BoldFontFile point to optional TTF files embedded into PDFs.
type ExportConfig struct {
	OutDir       string   `yaml:"out_dir"`
	Formats      []string `yaml:"formats"`
	TitlePage    bool     `yaml:"title_page"`
	CacheDir     string   `yaml:"cache_dir"`
	FontFile     string   `yaml:"font_file"`
	BoldFontFile string   `yaml:"bold_font_file"`
}

type ServerConfig struct {
	Addr string `yaml:"addr"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Source bool   `yaml:"source"`
	File   string `yaml:"file"`
}

// Known values accepted by validation.
var (
	KnownFormats   = []string{"fountain", "fdx", "pdf"}
	RevisionColors = []string{"white", "blue", "pink", "yellow", "green", "goldenrod", "buff", "salmon", "cherry"}
)

// Defaults returns the application defaults.
func Defaults() AppConfig {
	return AppConfig{
		ConfigVersion: 1,
		General:       GeneralConfig{DefaultTitle: "Untitled Screenplay", RevisionColor: "blue"},
		Export:        ExportConfig{OutDir: "exports", Formats: []string{"fountain", "fdx", "pdf"}, TitlePage: true},
		Server:        ServerConfig{Addr: ":8080"},
		Logging:       LoggingConfig{Level: "info", Format: "console"},
	}
}

// Env var names used as overrides.
const (
	EnvConfigFile    = "GSW_CONFIG"
	EnvDefaultTitle  = "GSW_DEFAULT_TITLE"
	EnvDefaultAuthor = "GSW_DEFAULT_AUTHOR"
	EnvRevisionColor = "GSW_REVISION_COLOR"
	EnvOutDir        = "GSW_OUT_DIR"
	EnvFormats       = "GSW_FORMATS"
	EnvTitlePage     = "GSW_TITLE_PAGE"
	EnvCacheDir      = "GSW_CACHE_DIR"
	EnvFontFile      = "GSW_FONT_FILE"
	EnvBoldFontFile  = "GSW_BOLD_FONT_FILE"
	EnvServerAddr    = "GSW_SERVER_ADDR"
	// EnvLogLevel Logging envs
	EnvLogLevel  = "GSW_LOG_LEVEL"
	EnvLogFormat = "GSW_LOG_FORMAT"
	EnvLogSource = "GSW_LOG_SOURCE"
	EnvLogFile   = "GSW_LOG_FILE"
)

// envKeys maps dotted config keys to the env var overriding them.
var envKeys = map[string]string{
	"general.default_title":  EnvDefaultTitle,
	"general.default_author": EnvDefaultAuthor,
	"general.revision_color": EnvRevisionColor,
	"export.out_dir":         EnvOutDir,
	"export.formats":         EnvFormats,
	"export.title_page":      EnvTitlePage,
	"export.cache_dir":       EnvCacheDir,
	"export.font_file":       EnvFontFile,
	"export.bold_font_file":  EnvBoldFontFile,
	"server.addr":            EnvServerAddr,
	"logging.level":          EnvLogLevel,
	"logging.format":         EnvLogFormat,
	"logging.source":         EnvLogSource,
	"logging.file":           EnvLogFile,
}

// ConfigPath returns the per-user config file path. GSW_CONFIG overrides it.
func ConfigPath() (string, error) {
	if p := strings.TrimSpace(os.Getenv(EnvConfigFile)); p != "" {
		return p, nil
	}
	var base string
	switch runtime.GOOS {
	case "windows":
		base = os.Getenv("AppData")
		if base == "" { // fallback
			base = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		base = filepath.Join(base, "GoScreenwriter")
	case "darwin":
		base = filepath.Join(os.Getenv("HOME"), "Library", "Application Support", "GoScreenwriter")
	default: // linux and others
		base = filepath.Join(os.Getenv("HOME"), ".config", "goscreenwriter")
	}
	if base == "" {
		return "", errors.New("cannot resolve config directory")
	}
	return filepath.Join(base, "config.yaml"), nil
}

// Load reads the user config file (if present), applies defaults, merges
// environment overrides and validates the result.
func Load() (AppConfig, error) {
	path, err := ConfigPath()
	if err != nil {
		return Defaults(), err
	}
	return LoadFile(path)
}

// LoadFile is Load for an explicit path. A missing file yields the defaults;
// a malformed one is an error.
func LoadFile(path string) (AppConfig, error) {
	cfg := Defaults()
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		// Start from the defaults so keys absent from the file keep them.
		fileCfg := Defaults()
		if err := yaml.Unmarshal(data, &fileCfg); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", path, err)
		}
		mergeInto(&cfg, &fileCfg)
	case !errors.Is(err, os.ErrNotExist):
		return cfg, fmt.Errorf("read %s: %w", path, err)
	}
	applyEnvOverrides(&cfg)
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Save writes the user config YAML.
func Save(cfg AppConfig) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

// Validate validates the configuration.
func (c *AppConfig) Validate() error {
	if err := c.General.Validate(); err != nil {
		return fmt.Errorf("general: %w", err)
	}
	if err := c.Export.Validate(); err != nil {
		return fmt.Errorf("export: %w", err)
	}
	if err := c.Server.Validate(); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	return nil
}

// Validate validates the general section.
func (c *GeneralConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.DefaultTitle, validation.Required),
		validation.Field(&c.RevisionColor, validation.In(toAny(RevisionColors)...)),
	)
}

// Validate validates the export section.
func (c *ExportConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.OutDir, validation.Required),
		validation.Field(&c.Formats, validation.Required, validation.Each(validation.In(toAny(KnownFormats)...))),
		validation.Field(&c.BoldFontFile, validation.When(c.FontFile == "", validation.Empty.Error("requires font_file"))),
	)
}

// Validate validates the server section.
func (c *ServerConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Addr, validation.Required, validation.By(func(any) error {
			if !strings.Contains(c.Addr, ":") {
				return errors.New("must be host:port or :port")
			}
			return nil
		})),
	)
}

// Validate validates the logging section.
func (c *LoggingConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Level, validation.In("debug", "info", "warn", "warning", "error")),
		validation.Field(&c.Format, validation.In("console", "json")),
	)
}

func toAny(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}

func mergeInto(dst *AppConfig, src *AppConfig) {
	if src.ConfigVersion != 0 {
		dst.ConfigVersion = src.ConfigVersion
	}
	if strings.TrimSpace(src.General.DefaultTitle) != "" {
		dst.General.DefaultTitle = strings.TrimSpace(src.General.DefaultTitle)
	}
	if strings.TrimSpace(src.General.DefaultAuthor) != "" {
		dst.General.DefaultAuthor = strings.TrimSpace(src.General.DefaultAuthor)
	}
	if strings.TrimSpace(src.General.RevisionColor) != "" {
		dst.General.RevisionColor = strings.ToLower(strings.TrimSpace(src.General.RevisionColor))
	}
	if strings.TrimSpace(src.Export.OutDir) != "" {
		dst.Export.OutDir = strings.TrimSpace(src.Export.OutDir)
	}
	if len(src.Export.Formats) > 0 {
		dst.Export.Formats = normalizeFormats(src.Export.Formats)
	}
	// booleans: copy directly from src (file) so user preferences persist
	dst.Export.TitlePage = src.Export.TitlePage
	if strings.TrimSpace(src.Export.CacheDir) != "" {
		dst.Export.CacheDir = strings.TrimSpace(src.Export.CacheDir)
	}
	if strings.TrimSpace(src.Export.FontFile) != "" {
		dst.Export.FontFile = strings.TrimSpace(src.Export.FontFile)
	}
	if strings.TrimSpace(src.Export.BoldFontFile) != "" {
		dst.Export.BoldFontFile = strings.TrimSpace(src.Export.BoldFontFile)
	}
	if strings.TrimSpace(src.Server.Addr) != "" {
		dst.Server.Addr = strings.TrimSpace(src.Server.Addr)
	}
	// logging
	if strings.TrimSpace(src.Logging.Level) != "" {
		dst.Logging.Level = strings.ToLower(strings.TrimSpace(src.Logging.Level))
	}
	if strings.TrimSpace(src.Logging.Format) != "" {
		dst.Logging.Format = strings.ToLower(strings.TrimSpace(src.Logging.Format))
	}
	dst.Logging.Source = src.Logging.Source
	if strings.TrimSpace(src.Logging.File) != "" {
		dst.Logging.File = strings.TrimSpace(src.Logging.File)
	}
}

func applyEnvOverrides(cfg *AppConfig) {
	str := func(key string, dst *string) {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			*dst = v
		}
	}
	boolean := func(key string, dst *bool) {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			*dst = parseBool(v)
		}
	}
	str(EnvDefaultTitle, &cfg.General.DefaultTitle)
	str(EnvDefaultAuthor, &cfg.General.DefaultAuthor)
	if v := strings.TrimSpace(os.Getenv(EnvRevisionColor)); v != "" {
		cfg.General.RevisionColor = strings.ToLower(v)
	}
	str(EnvOutDir, &cfg.Export.OutDir)
	if v := strings.TrimSpace(os.Getenv(EnvFormats)); v != "" {
		cfg.Export.Formats = normalizeFormats(strings.Split(v, ","))
	}
	boolean(EnvTitlePage, &cfg.Export.TitlePage)
	str(EnvCacheDir, &cfg.Export.CacheDir)
	str(EnvFontFile, &cfg.Export.FontFile)
	str(EnvBoldFontFile, &cfg.Export.BoldFontFile)
	str(EnvServerAddr, &cfg.Server.Addr)
	// logging overrides
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFormat)); v != "" {
		cfg.Logging.Format = strings.ToLower(v)
	}
	boolean(EnvLogSource, &cfg.Logging.Source)
	str(EnvLogFile, &cfg.Logging.File)
}

func parseBool(v string) bool {
	lv := strings.ToLower(v)
	return lv == "1" || lv == "true" || lv == "on" || lv == "yes"
}

func normalizeFormats(in []string) []string {
	out := make([]string, 0, len(in))
	for _, f := range in {
		if f = strings.ToLower(strings.TrimSpace(f)); f != "" {
			out = append(out, f)
		}
	}
	return out
}

// EnvOverrideFor returns the env var name if the field is overridden by environment variables.
func EnvOverrideFor(key string) (string, bool) {
	env, ok := envKeys[key]
	if !ok || os.Getenv(env) == "" {
		return "", false
	}
	return env, true
}
