// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package config loads run settings of the CG optimizer from YAML.
package config

import (
	"bytes"
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/curioloop/conjugate/cg"
	"github.com/curioloop/conjugate/linesearch"
)

// Component names accepted by Config.Method and Config.Search.
const (
	FletcherReeves = "fr"
	PolakRibiere   = "pr"
	HagerZhang     = "hz"
	Secant         = "secant"
	MoreThuente    = "mt"
)

// Config holds every tunable of one optimizer.
type Config struct {
	Method      string                    `yaml:"method"`
	Eta         float64                   `yaml:"eta"`
	Search      string                    `yaml:"search"`
	Stop        cg.Termination            `yaml:"stop"`
	Secant      linesearch.SecantTol      `yaml:"secant"`
	HagerZhang  linesearch.HagerZhangTol  `yaml:"hager_zhang"`
	MoreThuente linesearch.MoreThuenteTol `yaml:"more_thuente"`
}

// Default returns the Hager-Zhang method with the Hager-Zhang line search.
func Default() Config {
	return Config{
		Method:      HagerZhang,
		Eta:         cg.DefaultHagerZhang().Eta,
		Search:      HagerZhang,
		Stop:        cg.DefaultTermination(),
		Secant:      linesearch.DefaultSecantTol(),
		HagerZhang:  linesearch.DefaultHagerZhangTol(),
		MoreThuente: linesearch.DefaultMoreThuenteTol(),
	}
}

// Parse decodes YAML over the defaults. Unknown keys are rejected.
func Parse(r io.Reader) (Config, error) {
	c := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil && err != io.EOF {
		return c, errors.Wrap(err, "decode config")
	}
	c.Normalize()
	return c, c.Validate()
}

// Normalize lowercases the component names and strips surrounding blanks.
func (c *Config) Normalize() {
	c.Method = strings.ToLower(strings.TrimSpace(c.Method))
	c.Search = strings.ToLower(strings.TrimSpace(c.Search))
}

// Load reads the YAML file at path. An empty path yields the defaults.
func Load(path string) (Config, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrap(err, "read config")
	}
	c, err := Parse(bytes.NewReader(data))
	return c, errors.Wrapf(err, "config %s", path)
}

// Validate checks the names and the tunables of the selected components.
func (c Config) Validate() error {
	if _, err := c.BetaMethod(); err != nil {
		return err
	}
	if err := c.Stop.Validate(); err != nil {
		return err
	}
	_, err := c.LineSearch()
	return err
}

// BetaMethod returns the configured beta strategy.
func (c Config) BetaMethod() (cg.Method, error) {
	switch c.Method {
	case FletcherReeves:
		return cg.FletcherReeves{}, nil
	case PolakRibiere:
		return cg.PolakRibiere{}, nil
	case HagerZhang:
		m := cg.HagerZhang{Eta: c.Eta}
		return m, m.Validate()
	default:
		return nil, errors.Errorf("unknown method %q, want one of fr, pr, hz", c.Method)
	}
}

// LineSearch returns the configured line search.
func (c Config) LineSearch() (linesearch.Searcher, error) {
	switch c.Search {
	case Secant:
		return c.Secant.New()
	case HagerZhang:
		return c.HagerZhang.New()
	case MoreThuente:
		return c.MoreThuente.New()
	default:
		return nil, errors.Errorf("unknown search %q, want one of secant, hz, mt", c.Search)
	}
}

// Optimizer builds the optimizer described by c.
func (c Config) Optimizer(logger *cg.Logger) (*cg.Optimizer, error) {
	method, err := c.BetaMethod()
	if err != nil {
		return nil, err
	}
	search, err := c.LineSearch()
	if err != nil {
		return nil, err
	}
	return cg.New(method, search, c.Stop, logger)
}
