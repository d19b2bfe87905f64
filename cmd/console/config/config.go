// Package config resolves where client commands reach the simsaas API.
package config

import (
	"net"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/pkg/errors"
)

const defaultPort = "3001"

// Config is the API client configuration.
type Config struct {
	BaseURL     *url.URL
	HTTPTimeout time.Duration
}

// clientEnv is read with the same SIMSAAS prefix as the server.
type clientEnv struct {
	BaseURL string        `envconfig:"BASE_URL"`
	Host    string        `envconfig:"HOST"`
	Timeout time.Duration `envconfig:"CLIENT_TIMEOUT" default:"10s"`
}

// Load reads SIMSAAS_BASE_URL, SIMSAAS_HOST and SIMSAAS_CLIENT_TIMEOUT.
// A base URL wins over a host; a host without a port gets 3001.
func Load() (*Config, error) {
	var vars clientEnv
	if err := envconfig.Process("simsaas", &vars); err != nil {
		return nil, errors.Wrap(err, "failed to process client environment")
	}

	u, err := resolve(vars.BaseURL, vars.Host)
	if err != nil {
		return nil, err
	}

	return &Config{BaseURL: u, HTTPTimeout: vars.Timeout}, nil
}

func resolve(baseURL, host string) (*url.URL, error) {
	if baseURL = strings.TrimSpace(baseURL); baseURL != "" {
		u, err := url.Parse(baseURL)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid base url %q", baseURL)
		}
		if u.Scheme == "" || u.Host == "" {
			return nil, errors.Errorf("base url %q must be absolute", baseURL)
		}
		return u, nil
	}

	host = strings.TrimSpace(host)
	if host == "" {
		host = "127.0.0.1"
	}
	if !strings.Contains(host, "://") {
		host = "http://" + host
	}

	u, err := url.Parse(host)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid host %q", host)
	}
	if u.Hostname() == "" {
		return nil, errors.Errorf("host %q has no hostname", host)
	}
	if u.Port() == "" {
		u.Host = net.JoinHostPort(u.Hostname(), defaultPort)
	}
	u.Path = strings.TrimRight(u.Path, "/")

	return u, nil
}
