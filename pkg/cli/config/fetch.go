package config

import (
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/m-mizutani/dsfetch/pkg/domain/model"
	"github.com/m-mizutani/dsfetch/pkg/infra/kaggle"
	"github.com/m-mizutani/goerr/v2"
	"github.com/pelletier/go-toml/v2"
	"github.com/urfave/cli/v3"
)

const (
	flagDataset     = "dataset"
	flagOutput      = "output"
	flagCredentials = "credentials"
	flagAPIURL      = "api-url"
	flagHTTPTimeout = "http-timeout"
)

// Fetch holds dataset fetch configuration
type Fetch struct {
	Dataset     string
	OutputDir   string
	Credentials string
	APIURL      string
	HTTPTimeout time.Duration
	ConfigFile  string
}

// fetchFile is the layout of the optional TOML config file
type fetchFile struct {
	Dataset     string `toml:"dataset"`
	Output      string `toml:"output"`
	Credentials string `toml:"credentials"`
	APIURL      string `toml:"api_url"`
	HTTPTimeout string `toml:"http_timeout"`
}

// Flags returns CLI flags for fetch configuration
func (c *Fetch) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        flagDataset,
			Aliases:     []string{"d"},
			Usage:       "Dataset to fetch as owner/slug[/version]",
			Value:       model.DefaultDatasetRef,
			Destination: &c.Dataset,
			Sources:     cli.EnvVars("DSFETCH_DATASET"),
		},
		&cli.StringFlag{
			Name:        flagOutput,
			Aliases:     []string{"o"},
			Usage:       "Output directory, relative to the working directory unless absolute",
			Value:       "data",
			Destination: &c.OutputDir,
			Sources:     cli.EnvVars("DSFETCH_OUTPUT"),
		},
		&cli.StringFlag{
			Name:        flagCredentials,
			Usage:       "Path to kaggle.json (default: $KAGGLE_CONFIG_DIR/kaggle.json or ~/.kaggle/kaggle.json)",
			Destination: &c.Credentials,
			Sources:     cli.EnvVars("DSFETCH_CREDENTIALS"),
		},
		&cli.StringFlag{
			Name:        flagAPIURL,
			Usage:       "Kaggle API root URL",
			Value:       kaggle.DefaultBaseURL,
			Destination: &c.APIURL,
			Sources:     cli.EnvVars("DSFETCH_API_URL"),
		},
		&cli.DurationFlag{
			Name:        flagHTTPTimeout,
			Usage:       "Timeout of each API request including the download body (0 disables)",
			Destination: &c.HTTPTimeout,
			Sources:     cli.EnvVars("DSFETCH_HTTP_TIMEOUT"),
		},
		&cli.StringFlag{
			Name:        "config",
			Aliases:     []string{"c"},
			Usage:       "TOML file with fetch settings; flags and environment variables take precedence",
			Destination: &c.ConfigFile,
			Sources:     cli.EnvVars("DSFETCH_CONFIG"),
		},
	}
}

// LoadFile applies values from ConfigFile to every setting for which isSet reports false
func (c *Fetch) LoadFile(isSet func(name string) bool) error {
	if c.ConfigFile == "" {
		return nil
	}

	data, err := os.ReadFile(c.ConfigFile)
	if err != nil {
		return goerr.Wrap(err, "failed to read config file", goerr.V("path", c.ConfigFile))
	}

	var file fetchFile
	if err := toml.Unmarshal(data, &file); err != nil {
		return goerr.Wrap(err, "failed to parse config file", goerr.V("path", c.ConfigFile))
	}

	apply := func(name, value string, dst *string) {
		if value != "" && !isSet(name) {
			*dst = value
		}
	}
	apply(flagDataset, file.Dataset, &c.Dataset)
	apply(flagOutput, file.Output, &c.OutputDir)
	apply(flagCredentials, file.Credentials, &c.Credentials)
	apply(flagAPIURL, file.APIURL, &c.APIURL)

	if file.HTTPTimeout != "" && !isSet(flagHTTPTimeout) {
		timeout, err := time.ParseDuration(file.HTTPTimeout)
		if err != nil {
			return goerr.Wrap(err, "invalid http_timeout in config file",
				goerr.V("path", c.ConfigFile),
				goerr.V("value", file.HTTPTimeout))
		}
		c.HTTPTimeout = timeout
	}

	return nil
}

// Request resolves the configuration into a fetch request
func (c *Fetch) Request() (*model.FetchRequest, error) {
	ref, err := model.ParseDatasetRef(c.Dataset)
	if err != nil {
		return nil, err
	}

	outputDir, err := filepath.Abs(c.OutputDir)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to resolve output directory", goerr.V("output", c.OutputDir))
	}

	credentials := c.Credentials
	if credentials == "" {
		credentials, err = kaggle.DefaultCredentialsPath()
		if err != nil {
			return nil, err
		}
	}

	return &model.FetchRequest{
		Dataset:         ref,
		OutputDir:       outputDir,
		CredentialsPath: credentials,
	}, nil
}

// NewClient creates the Kaggle API client
func (c *Fetch) NewClient() *kaggle.Client {
	return kaggle.New(
		kaggle.WithBaseURL(c.APIURL),
		kaggle.WithHTTPClient(&http.Client{Timeout: c.HTTPTimeout}),
	)
}
