package store

import (
	"fmt"
	"net/url"
	"strconv"

	"github.com/kelseyhightower/envconfig"

	"github.com/tidepool-org/yearly-summary/errors"
)

type ConnectionString string

func NewConfig() (*Config, error) {
	cfg := &Config{}
	if err := envconfig.Process("", cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

type Config struct {
	DatabaseName string `envconfig:"TIDEPOOL_YEARLY_SUMMARY_DATABASE_NAME" default:"health"`
	Hosts        string `envconfig:"TIDEPOOL_STORE_ADDRESSES"  default:"localhost"`
	OptParams    string `envconfig:"TIDEPOOL_STORE_OPT_PARAMS"`
	Password     string `envconfig:"TIDEPOOL_STORE_PASSWORD"`
	Scheme       string `envconfig:"TIDEPOOL_STORE_SCHEME" default:"mongodb"`
	Ssl          bool   `envconfig:"TIDEPOOL_STORE_TLS"`
	User         string `envconfig:"TIDEPOOL_STORE_USERNAME"`
}

func GetConnectionString(cfg *Config) (ConnectionString, error) {
	cs, err := cfg.GetConnectionString()
	return ConnectionString(cs), err
}

// GetConnectionString builds the mongo uri. Credentials are escaped, the
// optional params are appended to the query verbatim.
func (c *Config) GetConnectionString() (string, error) {
	uri := url.URL{
		Scheme:   c.Scheme,
		Host:     c.Hosts,
		Path:     "/",
		RawQuery: "ssl=" + strconv.FormatBool(c.Ssl),
	}
	if uri.Scheme == "" {
		uri.Scheme = "mongodb"
	}
	if uri.Host == "" {
		uri.Host = "localhost"
	}

	if c.User != "" {
		if c.Password != "" {
			uri.User = url.UserPassword(c.User, c.Password)
		} else {
			uri.User = url.User(c.User)
		}
	}

	if c.OptParams != "" {
		if _, err := url.ParseQuery(c.OptParams); err != nil {
			return "", fmt.Errorf("%w: invalid store params: %w", errors.InvalidConfig, err)
		}
		uri.RawQuery += "&" + c.OptParams
	}

	return uri.String(), nil
}
