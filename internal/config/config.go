// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/afero"
	"github.com/spf13/viper"
	"gopkg.in/ini.v1"

	"crmngr-cli/internal/issue"
)

const (
	// AppName is the application name.
	AppName = "crmngr"
	// DirName is the configuration directory below the home directory.
	DirName = ".crmngr"
	// PrefsFileName is the preferences file inside the configuration directory.
	PrefsFileName = "prefs"
	// ProfilesFileName is the profiles file inside the configuration directory.
	ProfilesFileName = "profiles"
	// CacheDirName is the version cache directory inside the configuration directory.
	CacheDirName = "cache"
	// PrefsSection is the INI section of the prefs file holding the preferences.
	PrefsSection = "crmngr"
	// DefaultProfile is the profile used when none is selected.
	DefaultProfile = "default"
	// DirEnv overrides the configuration directory.
	DirEnv = "CRMNGR_CONFIG_DIR"
	// EnvPrefix prefixes environment variables overriding preferences (e.g., CRMNGR_CACHE_TTL).
	EnvPrefix = "CRMNGR"
	// DefaultCacheTTL is how long latest-version lookups stay cached.
	DefaultCacheTTL = 24 * time.Hour

	dirPerm  = 0o750
	filePerm = 0o640

	// maxFileSize bounds the configuration files read.
	maxFileSize = 1 << 20
)

//go:embed config_schema.cue
var configSchema string

// Dir returns the crmngr configuration directory: the test override, then
// $CRMNGR_CONFIG_DIR, then ~/.crmngr.
func Dir() (string, error) {
	if configDirOverride != "" {
		return configDirOverride, nil
	}
	if dir := os.Getenv(DirEnv); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, DirName), nil
}

// loadWithOptions reads prefs and profiles, creating the directory and the
// default prefs file on first use.
func loadWithOptions(ctx context.Context, opts LoadOptions) (*Config, error) {
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("load config canceled: %w", ctx.Err())
	default:
	}

	fsys := opts.Fs
	if fsys == nil {
		fsys = afero.NewOsFs()
	}
	dir := opts.ConfigDirPath
	if dir == "" {
		var err error
		if dir, err = Dir(); err != nil {
			return nil, err
		}
	}

	if err := EnsureDir(fsys, dir); err != nil {
		return nil, err
	}
	if err := CreateDefaultPrefs(fsys, dir); err != nil {
		return nil, err
	}

	prefsPath := filepath.Join(dir, PrefsFileName)
	prefs, err := loadPrefs(fsys, prefsPath)
	if err != nil {
		return nil, issue.NewErrorContext().
			WithOperation("load preferences").
			WithResource(prefsPath).
			WithSuggestion("Check that the file is a valid INI document with a [crmngr] section").
			WithSuggestion("Valid keys are cache_ttl (seconds), version_check (yes/no) and wrap (yes/no)").
			Wrap(err).
			BuildError()
	}

	profilesPath := filepath.Join(dir, ProfilesFileName)
	profiles, err := loadProfiles(fsys, profilesPath)
	if err != nil {
		return nil, issue.NewErrorContext().
			WithOperation("load profiles").
			WithResource(profilesPath).
			WithSuggestion("Every profile is an INI section with a repository key, e.g. [default] repository = git@host:control.git").
			Wrap(err).
			BuildError()
	}

	return &Config{Dir: dir, Prefs: prefs, profiles: profiles}, nil
}

// loadPrefs layers defaults, the prefs file and CRMNGR_* environment variables in viper.
func loadPrefs(fsys afero.Fs, path string) (Prefs, error) {
	v := viper.New()

	defaults := DefaultPrefs()
	v.SetDefault("cache_ttl", defaults.CacheTTL)
	v.SetDefault("version_check", defaults.VersionCheck)
	v.SetDefault("wrap", defaults.Wrap)
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	file, err := readINI(fsys, path)
	if err != nil {
		return Prefs{}, err
	}
	if file != nil {
		values, err := prefsValues(file.Section(PrefsSection))
		if err != nil {
			return Prefs{}, err
		}
		if err := validate(values, "#Prefs", path); err != nil {
			return Prefs{}, err
		}
		if err := v.MergeConfigMap(values); err != nil {
			return Prefs{}, fmt.Errorf("failed to merge preferences: %w", err)
		}
	}

	var prefs Prefs
	if err := v.Unmarshal(&prefs); err != nil {
		return Prefs{}, fmt.Errorf("failed to parse preferences: %w", err)
	}
	return prefs, nil
}

// prefsValues converts INI strings to the types the schema expects.
func prefsValues(sec *ini.Section) (map[string]any, error) {
	values := make(map[string]any)
	for _, key := range sec.Keys() {
		var (
			val any
			err error
		)
		switch key.Name() {
		case "cache_ttl":
			val, err = key.Int()
		case "version_check", "wrap":
			val, err = key.Bool()
		default:
			val = key.String()
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrInvalidConfig, key.Name(), err)
		}
		values[key.Name()] = val
	}
	return values, nil
}

// loadProfiles reads the profiles file; a missing file yields no profiles.
// Profile names are case sensitive, so they are kept out of viper.
func loadProfiles(fsys afero.Fs, path string) (map[string]Profile, error) {
	file, err := readINI(fsys, path)
	if err != nil || file == nil {
		return map[string]Profile{}, err
	}

	raw := make(map[string]map[string]string)
	for _, sec := range file.Sections() {
		if sec.Name() == ini.DefaultSection && len(sec.Keys()) == 0 {
			continue
		}
		raw[sec.Name()] = sec.KeysHash()
	}
	if err := validate(raw, "#Profiles", path); err != nil {
		return nil, err
	}

	profiles := make(map[string]Profile, len(raw))
	for name, keys := range raw {
		profiles[name] = Profile{Name: name, Repository: keys["repository"]}
	}
	return profiles, nil
}

// readINI returns nil without error when path does not exist.
func readINI(fsys afero.Fs, path string) (*ini.File, error) {
	data, err := afero.ReadFile(fsys, path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if len(data) > maxFileSize {
		return nil, fmt.Errorf("%s: file size %d bytes exceeds maximum %d bytes", path, len(data), maxFileSize)
	}
	file, err := ini.Load(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalidConfig, path, err)
	}
	return file, nil
}

// validate checks values against a definition of the embedded schema. The
// values are encoded as JSON, which CUE compiles natively.
func validate(values any, definition, path string) error {
	data, err := jsoniter.Marshal(values)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}

	ctx := cuecontext.New()
	schemaValue := ctx.CompileString(configSchema)
	if schemaValue.Err() != nil {
		return fmt.Errorf("internal error: failed to compile config schema: %w", schemaValue.Err())
	}
	userValue := ctx.CompileBytes(data, cue.Filename(path))
	if userValue.Err() != nil {
		return formatCUEError(userValue.Err(), path)
	}

	schema := schemaValue.LookupPath(cue.ParsePath(definition))
	unified := schema.Unify(userValue)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return formatCUEError(err, path)
	}
	return nil
}

// formatCUEError prefixes every CUE error with the path of the offending value.
func formatCUEError(err error, path string) error {
	var lines []string
	for _, e := range cueerrors.Errors(err) {
		msg := e.Error()
		if p := strings.Join(cueerrors.Path(e), "."); p != "" && !strings.HasPrefix(msg, p) {
			msg = p + ": " + msg
		}
		lines = append(lines, msg)
	}
	switch len(lines) {
	case 0:
		return fmt.Errorf("%w: %s: %w", ErrInvalidConfig, path, err)
	case 1:
		return fmt.Errorf("%w: %s: %s", ErrInvalidConfig, path, lines[0])
	default:
		return fmt.Errorf("%w: %s:\n  %s", ErrInvalidConfig, path, strings.Join(lines, "\n  "))
	}
}

// EnsureDir creates the configuration directory if it doesn't exist.
func EnsureDir(fsys afero.Fs, dir string) error {
	if err := fsys.MkdirAll(dir, dirPerm); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	return nil
}

// CreateDefaultPrefs writes the default prefs file if it doesn't exist.
func CreateDefaultPrefs(fsys afero.Fs, dir string) error {
	path := filepath.Join(dir, PrefsFileName)
	if exists, err := afero.Exists(fsys, path); err != nil || exists {
		return err
	}

	defaults := DefaultPrefs()
	file := ini.Empty()
	sec, err := file.NewSection(PrefsSection)
	if err != nil {
		return fmt.Errorf("failed to build prefs file: %w", err)
	}
	sec.Key("cache_ttl").SetValue(fmt.Sprint(defaults.CacheTTL))
	sec.Key("version_check").SetValue(yesNo(defaults.VersionCheck))
	sec.Key("wrap").SetValue(yesNo(defaults.Wrap))
	return writeINI(fsys, path, file)
}

// CreateDefaultProfile writes a profiles file whose default profile uses repository.
func CreateDefaultProfile(fsys afero.Fs, dir, repository string) error {
	if err := EnsureDir(fsys, dir); err != nil {
		return err
	}
	file := ini.Empty()
	sec, err := file.NewSection(DefaultProfile)
	if err != nil {
		return fmt.Errorf("failed to build profiles file: %w", err)
	}
	sec.Key("repository").SetValue(repository)
	return writeINI(fsys, filepath.Join(dir, ProfilesFileName), file)
}

func writeINI(fsys afero.Fs, path string, file *ini.File) error {
	f, err := fsys.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, filePerm)
	if err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	if _, err := file.WriteTo(f); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write config file: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
