package engineconfig

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ConfigPath is the path to the preferences file, relative to the process working directory.
const ConfigPath = "config/tree.yaml"

// Environment variables that override the file.
const (
	EnvTrackerAddr = "TREE_TRACKER_ADDR"
	EnvUploadDir   = "TREE_UPLOAD_DIR"
	EnvLogLevel    = "TREE_LOG_LEVEL"
)

// Prefs holds the program preferences. Overlay toggles made in the terminal
// are persisted across runs.
type Prefs struct {
	ShowFPS      bool `yaml:"show_fps"`
	ShowMemAlloc bool `yaml:"show_memalloc"`
	ShowHUD      bool `yaml:"show_hud"`

	// TrackerAddr is the host:port the hand tracker connects to. Empty disables
	// the tracker; the scene then runs pointer-only.
	TrackerAddr string `yaml:"tracker_addr"`
	// UploadDir is the drop folder watched for new photos.
	UploadDir string `yaml:"upload_dir"`
	// PhotoDir holds photos loaded once at startup. Optional.
	PhotoDir string `yaml:"photo_dir,omitempty"`

	LogLevel string `yaml:"log_level"`
	LogFile  string `yaml:"log_file"`

	Window Window `yaml:"window"`
	// Seed fixes the tree layout. Zero picks a new layout every run.
	Seed uint64 `yaml:"seed,omitempty"`
}

// Window is the initial window setup.
type Window struct {
	Width      int  `yaml:"width"`
	Height     int  `yaml:"height"`
	Fullscreen bool `yaml:"fullscreen"`
}

// Default returns default preferences (overlays off, HUD on, tracker on localhost).
func Default() Prefs {
	return Prefs{
		ShowHUD:     true,
		TrackerAddr: "127.0.0.1:8765",
		UploadDir:   "uploads",
		LogLevel:    "info",
		LogFile:     "logs/tree.log",
		Window:      Window{Width: 1280, Height: 800},
	}
}

// Load reads preferences from ConfigPath and applies environment overrides.
func Load() (Prefs, error) {
	return LoadFrom(ConfigPath)
}

// LoadFrom reads preferences from path. A missing file yields Default() and
// does not create a file; an unreadable or invalid file is an error. Fields
// absent from the file keep their defaults. Environment overrides apply last.
func LoadFrom(path string) (Prefs, error) {
	p := Default()
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return Default(), fmt.Errorf("engineconfig: %w", err)
	default:
		if err := yaml.Unmarshal(data, &p); err != nil {
			return Default(), fmt.Errorf("engineconfig: %s: %w", path, err)
		}
	}
	p.applyEnv()
	p.normalize()
	return p, nil
}

func (p *Prefs) applyEnv() {
	if v, ok := os.LookupEnv(EnvTrackerAddr); ok {
		p.TrackerAddr = v
	}
	if v := os.Getenv(EnvUploadDir); v != "" {
		p.UploadDir = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		p.LogLevel = v
	}
}

func (p *Prefs) normalize() {
	d := Default()
	if p.Window.Width <= 0 || p.Window.Height <= 0 {
		p.Window.Width, p.Window.Height = d.Window.Width, d.Window.Height
	}
	if p.UploadDir == "" {
		p.UploadDir = d.UploadDir
	}
	if p.LogFile == "" {
		p.LogFile = d.LogFile
	}
}

// Save writes preferences to ConfigPath.
func Save(p Prefs) error {
	return SaveTo(ConfigPath, p)
}

// SaveTo writes preferences to path, creating the directory if needed.
func SaveTo(path string, p Prefs) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("engineconfig: %w", err)
	}
	data, err := yaml.Marshal(p)
	if err != nil {
		return fmt.Errorf("engineconfig: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}
