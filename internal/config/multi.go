package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

var ErrNoConfig = errors.New("no config selected")

// DefaultLabel names the profile created by `config init`.
const DefaultLabel = "Default"

const (
	appDir      = "mangadex-dl"
	profileExt  = ".yaml"
	currentFile = "current_config"
)

var errEmptyLabel = errors.New("label cannot be empty")

// ConfigRoot is %APPDATA%/mangadex-dl on Windows and the XDG config
// directory elsewhere.
func ConfigRoot() string {
	for _, key := range []string{"APPDATA", "XDG_CONFIG_HOME"} {
		if dir := os.Getenv(key); dir != "" {
			return filepath.Join(dir, appDir)
		}
	}

	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", appDir)
}

func ConfigsDir() string {
	return filepath.Join(ConfigRoot(), "configs")
}

func CurrentLabelFile() string {
	return filepath.Join(ConfigRoot(), currentFile)
}

func profilePath(label string) string {
	return filepath.Join(ConfigsDir(), label+profileExt)
}

func profileExists(label string) bool {
	_, err := os.Stat(profilePath(label))
	return err == nil
}

// prepare checks the label and makes sure the configs directory exists.
func prepare(label string) error {
	if strings.TrimSpace(label) == "" {
		return errEmptyLabel
	}
	return os.MkdirAll(ConfigsDir(), 0755)
}

// readProfile decodes a profile file over the defaults and rejects
// anything LoadMerged would refuse to run with.
func readProfile(path string) (*Config, error) {
	cfg, err := loadYAML(path)
	if err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}

	normalizeDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}

	return cfg, nil
}

func setActive(label string) error {
	return os.WriteFile(CurrentLabelFile(), []byte(label), 0644)
}

func CurrentLabel() (string, error) {
	b, err := os.ReadFile(CurrentLabelFile())
	if errors.Is(err, os.ErrNotExist) {
		return "", ErrNoConfig
	}
	if err != nil {
		return "", err
	}

	return strings.TrimSpace(string(b)), nil
}

// ConfigPathByLabel returns the profile file for label, which must exist.
func ConfigPathByLabel(label string) (string, error) {
	if strings.TrimSpace(label) == "" {
		return "", errEmptyLabel
	}
	if !profileExists(label) {
		return "", fmt.Errorf("config %q does not exist", label)
	}

	return profilePath(label), nil
}

func ActiveConfigPath() (string, error) {
	label, err := CurrentLabel()
	if err != nil || label == "" {
		return "", ErrNoConfig
	}

	return profilePath(label), nil
}

// ConfigInfo describes one stored profile. Err is set when the file would
// be rejected at load time.
type ConfigInfo struct {
	Label  string
	Path   string
	Active bool
	Err    error
}

func ListConfigs() ([]ConfigInfo, error) {
	if err := os.MkdirAll(ConfigsDir(), 0755); err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(ConfigsDir())
	if err != nil {
		return nil, err
	}

	active, _ := CurrentLabel()
	out := make([]ConfigInfo, 0, len(entries))

	for _, e := range entries {
		label, ok := strings.CutSuffix(e.Name(), profileExt)
		if e.IsDir() || !ok {
			continue
		}

		info := ConfigInfo{
			Label:  label,
			Path:   profilePath(label),
			Active: label == active,
		}
		_, info.Err = readProfile(info.Path)
		out = append(out, info)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Label < out[j].Label })
	return out, nil
}

// SwitchConfig activates label after checking that its file loads.
func SwitchConfig(label string) error {
	if err := prepare(label); err != nil {
		return err
	}
	if !profileExists(label) {
		return fmt.Errorf("config %q does not exist", label)
	}
	if _, err := readProfile(profilePath(label)); err != nil {
		return err
	}

	return setActive(label)
}

// AddConfig stores the profile read from srcPath under label. The source
// is validated first and written back in normalized form.
func AddConfig(label, srcPath string) error {
	if err := prepare(label); err != nil {
		return err
	}
	if profileExists(label) {
		return fmt.Errorf("config %q already exists", label)
	}

	cfg, err := readProfile(srcPath)
	if err != nil {
		return err
	}

	return SaveYAML(cfg, profilePath(label))
}

func CreateEmptyConfig(label string) (string, error) {
	if err := prepare(label); err != nil {
		return "", err
	}
	if profileExists(label) {
		return "", fmt.Errorf("config %q already exists", label)
	}

	path := profilePath(label)
	if err := SaveYAML(DefaultConfig(), path); err != nil {
		return "", err
	}

	return path, nil
}

// RenameConfig moves a profile and follows it with the active label.
func RenameConfig(oldLabel, newLabel string) error {
	if strings.TrimSpace(newLabel) == "" {
		return errors.New("new label cannot be empty")
	}
	if err := prepare(oldLabel); err != nil {
		return err
	}
	if !profileExists(oldLabel) {
		return fmt.Errorf("config %q does not exist", oldLabel)
	}
	if profileExists(newLabel) {
		return fmt.Errorf("config %q already exists", newLabel)
	}

	if err := os.Rename(profilePath(oldLabel), profilePath(newLabel)); err != nil {
		return err
	}

	if active, _ := CurrentLabel(); active == oldLabel {
		return setActive(newLabel)
	}
	return nil
}

// RemoveConfig deletes a profile. Removing the active one falls back to
// DefaultLabel, which itself cannot be removed.
func RemoveConfig(label string) error {
	if err := prepare(label); err != nil {
		return err
	}
	if label == DefaultLabel {
		return fmt.Errorf("cannot remove the %s config", DefaultLabel)
	}
	if !profileExists(label) {
		return fmt.Errorf("config %q does not exist", label)
	}

	if active, _ := CurrentLabel(); active == label {
		if err := SwitchConfig(DefaultLabel); err != nil {
			return fmt.Errorf("failed switching to %s: %w", DefaultLabel, err)
		}
	}

	return os.Remove(profilePath(label))
}

// InitDefaultConfig writes and activates the Default profile. An existing
// one is activated as is and reported with os.ErrExist.
func InitDefaultConfig() (string, error) {
	if err := prepare(DefaultLabel); err != nil {
		return "", err
	}

	path := profilePath(DefaultLabel)
	if profileExists(DefaultLabel) {
		_ = setActive(DefaultLabel)
		return path, os.ErrExist
	}

	if err := SaveYAML(DefaultConfig(), path); err != nil {
		return "", err
	}
	if err := setActive(DefaultLabel); err != nil {
		return "", err
	}

	return path, nil
}
