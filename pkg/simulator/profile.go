package simulator

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Profile describes the instruments a simulator exposes.
//
// Example profile:
//
//	version: 2.0.0.102
//	timeScale: 0.01
//	ccds:
//	  - serialNumber: "Camera SN: 2244"
//	    width: 1024
//	    height: 256
//	    temperature: -60
//	monochromators:
//	  - serialNumber: "Mono SN: 0815"
type Profile struct {
	// Version is reported by icl_info (default "2.0.0.102").
	Version string `yaml:"version"`

	// TimeScale multiplies exposure and move durations (default 1).
	// Tests use small values to keep acquisitions fast.
	TimeScale float64 `yaml:"timeScale"`

	// MoveDuration is how long a monochromator stays busy after a move,
	// before scaling (default 200ms).
	MoveDuration time.Duration `yaml:"moveDuration"`

	CCDs           []CCDProfile  `yaml:"ccds"`
	Monochromators []MonoProfile `yaml:"monochromators"`
}

// CCDProfile describes one simulated CCD.
type CCDProfile struct {
	Model        string  `yaml:"model"`
	SerialNumber string  `yaml:"serialNumber"`
	ProductID    int     `yaml:"productId"`
	Width        int     `yaml:"width"`
	Height       int     `yaml:"height"`
	Temperature  float64 `yaml:"temperature"`
}

// MonoProfile describes one simulated monochromator.
type MonoProfile struct {
	Model        string  `yaml:"model"`
	SerialNumber string  `yaml:"serialNumber"`
	Wavelength   float64 `yaml:"wavelength"`
	Gratings     int     `yaml:"gratings"`
}

// DefaultProfile returns one Syncerity-like CCD and one iHR-like
// monochromator.
func DefaultProfile() Profile {
	p := Profile{
		CCDs:           []CCDProfile{{}},
		Monochromators: []MonoProfile{{}},
	}
	p.applyDefaults()
	return p
}

// LoadProfile reads a YAML profile from disk.
func LoadProfile(path string) (Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Profile{}, fmt.Errorf("reading profile: %w", err)
	}
	return ParseProfile(data)
}

// ParseProfile parses a YAML profile and fills in defaults.
func ParseProfile(data []byte) (Profile, error) {
	var p Profile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return Profile{}, fmt.Errorf("parsing profile: %w", err)
	}
	if err := p.Validate(); err != nil {
		return Profile{}, err
	}
	p.applyDefaults()
	return p, nil
}

// Validate rejects profiles the simulator cannot serve.
func (p *Profile) Validate() error {
	if p.TimeScale < 0 {
		return fmt.Errorf("timeScale %v must not be negative", p.TimeScale)
	}
	for i, c := range p.CCDs {
		if c.Width < 0 || c.Height < 0 {
			return fmt.Errorf("ccd %d: negative chip size %dx%d", i, c.Width, c.Height)
		}
	}
	for i, m := range p.Monochromators {
		if m.Gratings < 0 {
			return fmt.Errorf("monochromator %d: negative grating count", i)
		}
	}
	return nil
}

func (p *Profile) applyDefaults() {
	if p.Version == "" {
		p.Version = "2.0.0.102"
	}
	if p.TimeScale == 0 {
		p.TimeScale = 1
	}
	if p.MoveDuration == 0 {
		p.MoveDuration = 200 * time.Millisecond
	}
	for i := range p.CCDs {
		c := &p.CCDs[i]
		if c.Model == "" {
			c.Model = "HORIBA Scientific Syncerity"
		}
		if c.SerialNumber == "" {
			c.SerialNumber = fmt.Sprintf("Camera SN: %d", 2244+i)
		}
		if c.ProductID == 0 {
			c.ProductID = 13
		}
		if c.Width == 0 {
			c.Width = 1024
		}
		if c.Height == 0 {
			c.Height = 256
		}
		if c.Temperature == 0 {
			c.Temperature = -60
		}
	}
	for i := range p.Monochromators {
		m := &p.Monochromators[i]
		if m.Model == "" {
			m.Model = "HORIBA Scientific iHR"
		}
		if m.SerialNumber == "" {
			m.SerialNumber = fmt.Sprintf("Mono SN: %d", 815+i)
		}
		if m.Gratings == 0 {
			m.Gratings = 3
		}
	}
}

func (p *Profile) scaled(d time.Duration) time.Duration {
	return time.Duration(float64(d) * p.TimeScale)
}
