package remindlib

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/url"
	"os"
	"path"
	"path/filepath"
)

// ConfigDirEnv overrides the default configuration directory.
const ConfigDirEnv = "REMINDD_CONFIG_DIR"

var (
	// ConfigDir is the absolute path to the remindd configuration directory.
	ConfigDir string
	// SoundDataDir is where fetched notification sounds are stored.
	SoundDataDir string
)

func init() {
	dir := os.Getenv(ConfigDirEnv)
	if dir == "" {
		dir = defaultConfigDir()
	}
	if err := setConfigDir(dir); err != nil {
		panic(err)
	}
}

func defaultConfigDir() string {
	cdr, err := os.UserConfigDir()
	if err != nil {
		panic(err)
	}
	return filepath.Join(cdr, "remindd")
}

func setConfigDir(dir string) error {
	if dir == "" {
		return errors.New("config dir is empty")
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(abs, 0755); err != nil {
		return err
	}
	ConfigDir = abs
	SoundDataDir = filepath.Join(abs, "sounds")
	return os.MkdirAll(SoundDataDir, 0755)
}

// SetConfigDir points remindd at a different configuration directory,
// creating it and its sound subdirectory as needed.
func SetConfigDir(dir string) error {
	return setConfigDir(dir)
}

// SoundAssetPath derives the deterministic local path for a reminder's
// fetched sound inside dir. The name mixes the reminder id with a hash of
// the remote URL so a retry for the same URL overwrites its predecessor
// while a URL change lands on a fresh file. The remote file extension is
// kept so platform notifiers can sniff the audio type.
func SoundAssetPath(dir, reminderID, remoteURL string) string {
	sum := sha256.Sum256([]byte(remoteURL))
	name := reminderID + "-" + hex.EncodeToString(sum[:8])
	if ext := soundExt(remoteURL); ext != "" {
		name += ext
	}
	return filepath.Join(dir, name)
}

func soundExt(remoteURL string) string {
	u, err := url.Parse(remoteURL)
	if err != nil {
		return ""
	}
	ext := path.Ext(u.Path)
	if len(ext) > 8 {
		// Not a real extension, just a dotted path segment.
		return ""
	}
	return ext
}
