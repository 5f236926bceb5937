package orchestrator

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/wehrfritz/equilibrium-core/internal/state"
)

// KeyBinding maps one physical remote button to an action.
type KeyBinding struct {
	// Transport selects the actuation path.
	Transport state.Transport `yaml:"transport" json:"transport"`

	// DeviceID names the IR target device. Unused for BLE bindings.
	DeviceID string `yaml:"device_id" json:"device_id,omitempty"`

	// Command is the stored IR code name or the BLE key name.
	Command string `yaml:"command" json:"command"`
}

// Keymap maps physical remote button names to bindings.
type Keymap map[string]KeyBinding

// Config is the orchestrator's behavioural configuration, loaded from the
// scenes file.
type Config struct {
	// Scenes are the available device compositions.
	Scenes []state.Scene `yaml:"scenes" json:"scenes"`

	// Keymaps are named button layouts; scenes select one by name.
	Keymaps map[string]Keymap `yaml:"keymaps" json:"keymaps"`

	// DefaultKeymap is active when no scene is. Optional.
	DefaultKeymap string `yaml:"default_keymap" json:"default_keymap"`

	// SceneButtons maps a remote button directly to a scene activation.
	SceneButtons map[string]string `yaml:"scene_buttons" json:"scene_buttons"`

	// OffButton deactivates the current scene. Optional.
	OffButton string `yaml:"off_button" json:"off_button"`
}

// LoadConfig reads and validates the scene/keymap definition file.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path comes from the operator's config file
	if err != nil {
		return Config{}, fmt.Errorf("reading scenes file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing scenes file: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("validating scenes file: %w", err)
	}
	return cfg, nil
}

// Validate checks scene and keymap cross-references.
func (c Config) Validate() error {
	names := make(map[string]bool, len(c.Scenes))
	for i := range c.Scenes {
		s := &c.Scenes[i]
		if err := s.Validate(); err != nil {
			return err
		}
		if names[s.Name] {
			return fmt.Errorf("%w: duplicate scene %q", state.ErrInvalidScene, s.Name)
		}
		names[s.Name] = true

		if s.Keymap != "" {
			if _, ok := c.Keymaps[s.Keymap]; !ok {
				return fmt.Errorf("%w: %q referenced by scene %q", ErrUnknownKeymap, s.Keymap, s.Name)
			}
		}
	}

	if c.DefaultKeymap != "" {
		if _, ok := c.Keymaps[c.DefaultKeymap]; !ok {
			return fmt.Errorf("%w: default keymap %q", ErrUnknownKeymap, c.DefaultKeymap)
		}
	}

	for button, scene := range c.SceneButtons {
		if !names[scene] {
			return fmt.Errorf("%w: button %q targets unknown scene %q", state.ErrSceneNotFound, button, scene)
		}
	}
	return nil
}
