// Package settings persists the user's voice settings.
//
// Preferences live in settings.yaml and the provider key lives in a separate
// credentials.yaml that is only readable by the owner. Both are read with
// viper and can be reloaded live when edited outside the process.
package settings

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
	gap "github.com/muesli/go-app-paths"
	"github.com/spf13/viper"

	"github.com/dgnsrekt/parrot/internal/ttypes"
)

const (
	SettingsFile    = "settings.yaml"
	CredentialsFile = "credentials.yaml"

	// APIKeyEnv overrides the stored key.
	APIKeyEnv = "PARROT_API_KEY"

	keyProvider = "voice.provider"
	keyModel    = "voice.model"
	keyVolume   = "audio.volume"
	keyEnabled  = "audio.enabled"
	keyAPIKey   = "api_key"
)

const defaultSettings = `# Voice used by "parrot say". An empty provider uses the local echo voice.
voice:
  # echo, openai, elevenlabs or gemini
  provider: ""
  # provider model; empty uses the provider default
  model: ""

audio:
  # playback volume (0.0 to 1.0)
  volume: 1.0
  # set to false to synthesize without playing
  enabled: true
`

const defaultCredentials = `# Provider API key. Keep this file private.
api_key: ""
`

// Audio holds playback preferences.
type Audio struct {
	Enabled bool
	Volume  float64
}

type snapshot struct {
	provider string
	model    string
	apiKey   string
	audio    Audio
}

// Store is a file-backed ttypes.SettingsProvider.
type Store struct {
	dir    string
	logger *log.Logger

	mu    sync.RWMutex
	prefs *viper.Viper
	creds *viper.Viper
	snap  snapshot
}

var _ ttypes.SettingsProvider = (*Store)(nil)

// DefaultDir is the per-user settings directory. PARROT_CONFIG_HOME and
// XDG_CONFIG_HOME take precedence.
func DefaultDir() (string, error) {
	if c := os.Getenv("PARROT_CONFIG_HOME"); c != "" {
		return c, nil
	}
	if c := os.Getenv("XDG_CONFIG_HOME"); c != "" {
		return filepath.Join(c, "parrot"), nil
	}
	dirs, err := gap.NewScope(gap.User, "parrot").ConfigDirs()
	if err != nil {
		return "", fmt.Errorf("find configuration directory: %w", err)
	}
	if len(dirs) == 0 {
		return "", errors.New("no configuration directory")
	}
	return dirs[0], nil
}

// Open loads the settings in dir, creating default files when missing.
func Open(dir string, logger *log.Logger) (*Store, error) {
	if logger == nil {
		logger = log.Default()
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create settings directory: %w", err)
	}

	s := &Store{dir: dir, logger: logger.With("component", "settings")}

	if err := ensureFile(s.Path(), defaultSettings, 0o644); err != nil {
		return nil, err
	}
	if err := ensureFile(s.CredentialsPath(), defaultCredentials, 0o600); err != nil {
		return nil, err
	}
	if err := os.Chmod(s.CredentialsPath(), 0o600); err != nil {
		return nil, fmt.Errorf("restrict credentials file: %w", err)
	}

	s.prefs = viper.New()
	s.prefs.SetConfigFile(s.Path())
	s.prefs.SetConfigType("yaml")
	s.prefs.SetDefault(keyProvider, "")
	s.prefs.SetDefault(keyModel, "")
	s.prefs.SetDefault(keyVolume, 1.0)
	s.prefs.SetDefault(keyEnabled, true)
	if err := s.prefs.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read %s: %w", SettingsFile, err)
	}

	s.creds = viper.New()
	s.creds.SetConfigFile(s.CredentialsPath())
	s.creds.SetConfigType("yaml")
	s.creds.SetDefault(keyAPIKey, "")
	if err := s.creds.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read %s: %w", CredentialsFile, err)
	}

	s.mu.Lock()
	s.refreshLocked()
	s.mu.Unlock()

	s.logger.Debug("loaded settings", "path", s.Path(), "provider", s.snap.provider)
	return s, nil
}

func ensureFile(path, content string, perm os.FileMode) error {
	_, err := os.Stat(path)
	if err == nil {
		return nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("stat %s: %w", path, err)
	}
	if err := os.WriteFile(path, []byte(content), perm); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func (s *Store) refreshLocked() {
	vol := s.prefs.GetFloat64(keyVolume)
	if math.IsNaN(vol) || vol < 0 || vol > 1 {
		s.logger.Warn("ignoring out of range volume", "volume", vol)
		vol = 1
	}
	s.snap = snapshot{
		provider: strings.TrimSpace(s.prefs.GetString(keyProvider)),
		model:    strings.TrimSpace(s.prefs.GetString(keyModel)),
		apiKey:   strings.TrimSpace(s.creds.GetString(keyAPIKey)),
		audio: Audio{
			Enabled: s.prefs.GetBool(keyEnabled),
			Volume:  vol,
		},
	}
}

// Path is the settings file.
func (s *Store) Path() string { return filepath.Join(s.dir, SettingsFile) }

// CredentialsPath is the credentials file.
func (s *Store) CredentialsPath() string { return filepath.Join(s.dir, CredentialsFile) }

// VoiceSettings returns the current voice settings. The environment key wins
// over the stored one.
func (s *Store) VoiceSettings(context.Context) (ttypes.VoiceSettings, error) {
	s.mu.RLock()
	snap := s.snap
	s.mu.RUnlock()

	key := snap.apiKey
	if env := strings.TrimSpace(os.Getenv(APIKeyEnv)); env != "" {
		key = env
	}
	return ttypes.VoiceSettings{
		Provider: snap.provider,
		Model:    snap.model,
		APIKey:   key,
		HasKey:   key != "",
	}, nil
}

// Audio returns the playback preferences.
func (s *Store) Audio() Audio {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap.audio
}

func (s *Store) SetProvider(provider string) error {
	return s.setPref(keyProvider, strings.TrimSpace(provider))
}

func (s *Store) SetModel(model string) error {
	return s.setPref(keyModel, strings.TrimSpace(model))
}

// SetVolume stores a volume in 0..1.
func (s *Store) SetVolume(volume float64) error {
	if math.IsNaN(volume) || volume < 0 || volume > 1 {
		return fmt.Errorf("volume must be between 0 and 1, got %v", volume)
	}
	return s.setPref(keyVolume, volume)
}

func (s *Store) SetEnabled(enabled bool) error {
	return s.setPref(keyEnabled, enabled)
}

func (s *Store) setPref(key string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := writeKey(s.Path(), key, value); err != nil {
		return fmt.Errorf("write %s: %w", SettingsFile, err)
	}
	if err := s.prefs.ReadInConfig(); err != nil {
		return fmt.Errorf("read %s: %w", SettingsFile, err)
	}
	s.refreshLocked()
	return nil
}

// writeKey updates one key in a yaml file. A scratch viper does the write so
// the store's own instance never holds an override that would mask later
// edits to the file.
func writeKey(path, key string, value any) error {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		return err
	}
	v.Set(key, value)
	return v.WriteConfig()
}

// SetAPIKey stores the provider key.
func (s *Store) SetAPIKey(key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return errors.New("api key is empty")
	}
	return s.setKey(key)
}

// ClearAPIKey removes the stored key.
func (s *Store) ClearAPIKey() error {
	return s.setKey("")
}

func (s *Store) setKey(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := writeKey(s.CredentialsPath(), keyAPIKey, key); err != nil {
		return fmt.Errorf("write %s: %w", CredentialsFile, err)
	}
	if err := os.Chmod(s.CredentialsPath(), 0o600); err != nil {
		return fmt.Errorf("restrict credentials file: %w", err)
	}
	if err := s.creds.ReadInConfig(); err != nil {
		return fmt.Errorf("read %s: %w", CredentialsFile, err)
	}
	s.refreshLocked()
	return nil
}

// Watch reloads the settings whenever either file changes on disk, until ctx
// is done. onChange runs after each successful reload and may be nil.
func (s *Store) Watch(ctx context.Context, onChange func()) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create settings watcher: %w", err)
	}
	if err := w.Add(s.dir); err != nil {
		_ = w.Close()
		return fmt.Errorf("watch %s: %w", s.dir, err)
	}
	s.logger.Debug("watching settings", "dir", s.dir)

	go func() {
		defer w.Close() //nolint:errcheck
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-w.Events:
				if !ok {
					return
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
					continue
				}
				if s.reload(event.Name) && onChange != nil {
					onChange()
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				s.logger.Debug("settings watcher error", "err", err)
			}
		}
	}()
	return nil
}

// reload re-reads the file at path under the store lock. Files other than
// the two settings files, and files caught mid-write, are skipped.
func (s *Store) reload(path string) bool {
	var v *viper.Viper
	switch filepath.Base(path) {
	case SettingsFile:
		v = s.prefs
	case CredentialsFile:
		v = s.creds
	default:
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if info, err := os.Stat(path); err != nil || info.Size() == 0 {
		return false
	}
	if err := v.ReadInConfig(); err != nil {
		s.logger.Warn("reload settings", "file", filepath.Base(path), "err", err)
		return false
	}
	s.refreshLocked()
	s.logger.Info("settings reloaded", "file", filepath.Base(path))
	return true
}
