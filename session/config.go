package session

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/plutolink/plutolink/fec"
)

// Config holds every tunable of one session. The zero value is usable:
// defaults are applied during validation and match the hardware profile
// the link was developed against (2.4 GHz LOs, 2 MS/s).
type Config struct {
	RadioURI         string `yaml:"radio_uri"`
	TXFreqHz         int64  `yaml:"tx_freq_hz"`
	RXFreqHz         int64  `yaml:"rx_freq_hz"`
	SampleRate       int    `yaml:"sample_rate"`
	TXGainDB         int    `yaml:"tx_gain_db"`
	RXGainDB         int    `yaml:"rx_gain_db"`
	SamplesPerSymbol int    `yaml:"samples_per_symbol"`
	CodeRate         string `yaml:"code_rate"`
	MaxReads         int    `yaml:"max_reads"`
	SettleDelayMS    int    `yaml:"settle_delay_ms"`
}

func (c *Config) setDefaults() {
	if c.TXFreqHz == 0 {
		c.TXFreqHz = 2_400_000_000
	}
	if c.RXFreqHz == 0 {
		c.RXFreqHz = 2_400_000_000
	}
	if c.SampleRate == 0 {
		c.SampleRate = 2_000_000
	}
	if c.TXGainDB == 0 {
		c.TXGainDB = -30
	}
	if c.RXGainDB == 0 {
		c.RXGainDB = 40
	}
	if c.SamplesPerSymbol == 0 {
		c.SamplesPerSymbol = 10
	}
	if c.CodeRate == "" {
		c.CodeRate = "1/2"
	}
	if c.MaxReads == 0 {
		c.MaxReads = 4000
	}
	if c.SettleDelayMS == 0 {
		c.SettleDelayMS = 150
	}
}

// Validate applies defaults and rejects parameters the radio or the frame
// codec cannot honor. It returns the parsed code rate.
func (c *Config) Validate() (fec.Rate, error) {
	c.setDefaults()
	rate, err := fec.ParseRate(c.CodeRate)
	if err != nil {
		return 0, err
	}
	if c.SampleRate <= 0 {
		return 0, fmt.Errorf("sample rate must be positive, got %d", c.SampleRate)
	}
	if c.SamplesPerSymbol < 2 {
		return 0, fmt.Errorf("samples per symbol must be at least 2, got %d", c.SamplesPerSymbol)
	}
	if c.MaxReads < 0 {
		return 0, errors.New("max reads must not be negative")
	}
	if c.SettleDelayMS < 0 {
		return 0, errors.New("settle delay must not be negative")
	}
	return rate, nil
}

func (c *Config) settleDelay() time.Duration {
	return time.Duration(c.SettleDelayMS) * time.Millisecond
}

// LoadConfig reads a YAML config file. Unknown keys are rejected so a typo
// does not silently fall back to a default.
func LoadConfig(path string) (Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("load config: %w", err)
	}
	var c Config
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	return c, nil
}
