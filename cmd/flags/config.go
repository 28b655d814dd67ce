package flags

import (
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	v1 "github.com/clockwise-hq/clockwise/pkg/apis/config/v1"
)

// ConfigFlags holds the location of the optional Clockwise configuration
// file.
type ConfigFlags struct {
	Path string
}

func NewConfigFlags() *ConfigFlags {
	return &ConfigFlags{}
}

func (f *ConfigFlags) BindFlags(fs *pflag.FlagSet) {
	fs.StringVar(&f.Path,
		"config",
		f.Path,
		"Configuration file for Clockwise (punch plausibility bounds, server addresses)")
}

func (f *ConfigFlags) LoadConfig() *v1.ClockwiseConfig {
	var config v1.ClockwiseConfig

	if f.Path != "" {
		data, err := os.ReadFile(f.Path)
		if err != nil {
			log.WithError(err).Fatalf("could not load config")
		}
		if err := yaml.Unmarshal(data, &config); err != nil {
			log.WithError(err).Fatalf("could not unmarshal config")
		}
	}

	config.Limits.ApplyDefaults()
	return &config
}
