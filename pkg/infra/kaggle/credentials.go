package kaggle

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/dsfetch/pkg/domain/model"
	"github.com/m-mizutani/goerr/v2"
)

const (
	credentialsFileName = "kaggle.json"
	configDirEnv        = "KAGGLE_CONFIG_DIR"
)

// DefaultCredentialsPath returns $KAGGLE_CONFIG_DIR/kaggle.json when the variable is set,
// otherwise ~/.kaggle/kaggle.json
func DefaultCredentialsPath() (string, error) {
	if dir := os.Getenv(configDirEnv); dir != "" {
		return filepath.Join(dir, credentialsFileName), nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", goerr.Wrap(err, "failed to resolve home directory")
	}
	return filepath.Join(home, ".kaggle", credentialsFileName), nil
}

// LoadCredentials reads and validates a kaggle.json file
func LoadCredentials(ctx context.Context, path string) (*model.Credentials, error) {
	logger := ctxlog.From(ctx)

	info, err := os.Stat(path)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to stat credentials file", goerr.V("path", path))
	}
	if info.IsDir() {
		return nil, goerr.New("credentials path is a directory", goerr.V("path", path))
	}

	// Windows has no POSIX permission bits worth checking
	if runtime.GOOS != "windows" && info.Mode().Perm()&0o077 != 0 {
		logger.Warn("Credentials file is readable by other users, run chmod 600 on it",
			"path", path,
			"mode", info.Mode().Perm().String(),
		)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read credentials file", goerr.V("path", path))
	}

	var creds model.Credentials
	if err := json.Unmarshal(data, &creds); err != nil {
		return nil, goerr.Wrap(err, "failed to parse credentials file", goerr.V("path", path))
	}

	if creds.Username == "" || creds.Key == "" {
		return nil, goerr.New("credentials file must contain username and key", goerr.V("path", path))
	}

	logger.Debug("Loaded credentials", "path", path, "credentials", creds)

	return &creds, nil
}
