package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/m-mizutani/dsfetch/pkg/cli/config"
	"github.com/m-mizutani/dsfetch/pkg/domain/model"
	"github.com/m-mizutani/gt"
)

func writeConfigFile(t *testing.T, content string) string {
	path := filepath.Join(t.TempDir(), "dsfetch.toml")
	gt.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestFetch_LoadFile(t *testing.T) {
	path := writeConfigFile(t, `
dataset = "owner/other-dataset/4"
output = "/srv/datasets"
credentials = "/etc/dsfetch/kaggle.json"
api_url = "http://localhost:9999/api/v1"
http_timeout = "90s"
`)

	t.Run("file fills unset values", func(t *testing.T) {
		cfg := &config.Fetch{Dataset: model.DefaultDatasetRef, OutputDir: "data", ConfigFile: path}
		gt.NoError(t, cfg.LoadFile(func(string) bool { return false }))

		gt.Value(t, cfg.Dataset).Equal("owner/other-dataset/4")
		gt.Value(t, cfg.OutputDir).Equal("/srv/datasets")
		gt.Value(t, cfg.Credentials).Equal("/etc/dsfetch/kaggle.json")
		gt.Value(t, cfg.APIURL).Equal("http://localhost:9999/api/v1")
		gt.Value(t, cfg.HTTPTimeout).Equal(90 * time.Second)
	})

	t.Run("explicit flags win", func(t *testing.T) {
		cfg := &config.Fetch{Dataset: "flag/dataset", OutputDir: "flag-out", ConfigFile: path}
		isSet := func(name string) bool { return name == "dataset" || name == "output" }
		gt.NoError(t, cfg.LoadFile(isSet))

		gt.Value(t, cfg.Dataset).Equal("flag/dataset")
		gt.Value(t, cfg.OutputDir).Equal("flag-out")
		gt.Value(t, cfg.Credentials).Equal("/etc/dsfetch/kaggle.json")
	})

	t.Run("no config file", func(t *testing.T) {
		cfg := &config.Fetch{Dataset: "a/b"}
		gt.NoError(t, cfg.LoadFile(func(string) bool { return false }))
		gt.Value(t, cfg.Dataset).Equal("a/b")
	})

	t.Run("missing file", func(t *testing.T) {
		cfg := &config.Fetch{ConfigFile: filepath.Join(t.TempDir(), "absent.toml")}
		gt.Error(t, cfg.LoadFile(func(string) bool { return false }))
	})

	t.Run("invalid toml", func(t *testing.T) {
		cfg := &config.Fetch{ConfigFile: writeConfigFile(t, "dataset = ")}
		gt.Error(t, cfg.LoadFile(func(string) bool { return false }))
	})

	t.Run("invalid timeout", func(t *testing.T) {
		cfg := &config.Fetch{ConfigFile: writeConfigFile(t, `http_timeout = "soon"`)}
		gt.Error(t, cfg.LoadFile(func(string) bool { return false }))
	})
}

func TestFetch_Request(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		configDir := t.TempDir()
		t.Setenv("KAGGLE_CONFIG_DIR", configDir)

		cfg := &config.Fetch{Dataset: model.DefaultDatasetRef, OutputDir: "data"}
		req, err := cfg.Request()
		gt.NoError(t, err)

		wd, err := os.Getwd()
		gt.NoError(t, err)
		gt.Value(t, req.OutputDir).Equal(filepath.Join(wd, "data"))
		gt.Value(t, req.CredentialsPath).Equal(filepath.Join(configDir, "kaggle.json"))
		gt.Value(t, req.Dataset).Equal(model.DatasetRef{Owner: "paultimothymooney", Slug: "chest-xray-pneumonia"})
	})

	t.Run("explicit credentials", func(t *testing.T) {
		cfg := &config.Fetch{Dataset: "a/b", OutputDir: "/tmp/out", Credentials: "/secrets/kaggle.json"}
		req, err := cfg.Request()
		gt.NoError(t, err)
		gt.Value(t, req.CredentialsPath).Equal("/secrets/kaggle.json")
		gt.Value(t, req.OutputDir).Equal("/tmp/out")
	})

	t.Run("invalid dataset", func(t *testing.T) {
		cfg := &config.Fetch{Dataset: "not-a-ref", OutputDir: "data"}
		_, err := cfg.Request()
		gt.Error(t, err)
	})
}

func TestFetch_Flags(t *testing.T) {
	cfg := &config.Fetch{}
	flagNames := make(map[string]bool)
	for _, flag := range cfg.Flags() {
		if f, ok := flag.(interface{ Names() []string }); ok && len(f.Names()) > 0 {
			flagNames[f.Names()[0]] = true
		}
	}

	for _, name := range []string{"dataset", "output", "credentials", "api-url", "http-timeout", "config"} {
		gt.True(t, flagNames[name])
	}
}
