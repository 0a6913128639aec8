package odometry

import (
	"encoding/json"
	"os"

	"github.com/go-viper/mapstructure/v2"
	"github.com/invopop/jsonschema"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	goutils "go.viam.com/utils"

	"go.viam.com/lidarodometry/utils"
)

// Config contains the parameters of the odometry engine. It is read once at construction.
type Config struct {
	// ScanPeriod is the duration of one sweep in seconds.
	ScanPeriod float64 `json:"scan_period" jsonschema:"description=duration of one sweep in seconds"`
	// MaxIterations bounds the solver iterations of one cycle.
	MaxIterations int `json:"max_iterations" jsonschema:"description=solver iteration budget per cycle,minimum=1"`
	// DeltaTAbort is the translation convergence threshold in hundredths of a length unit.
	DeltaTAbort float64 `json:"delta_t_abort" jsonschema:"description=translation convergence threshold (length units x100)"`
	// DeltaRAbort is the rotation convergence threshold in degrees.
	DeltaRAbort float64 `json:"delta_r_abort" jsonschema:"description=rotation convergence threshold in degrees"`
	// IORatio emits a registered cloud every IORatio cycles.
	IORatio int `json:"io_ratio" jsonschema:"description=output decimation ratio,minimum=1"`
}

// DefaultConfig returns the parameters tuned for a 10 Hz spinning lidar.
func DefaultConfig() *Config {
	return &Config{
		ScanPeriod:    0.1,
		MaxIterations: 25,
		DeltaTAbort:   0.1,
		DeltaRAbort:   0.1,
		IORatio:       2,
	}
}

// LoadConfig loads a configuration from a json file. Fields missing from the file keep their
// default values.
func LoadConfig(path string) (*Config, error) {
	config := DefaultConfig()
	//nolint:gosec
	configFile, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot open odometry config %q", path)
	}
	defer goutils.UncheckedErrorFunc(configFile.Close)

	if err := json.NewDecoder(configFile).Decode(config); err != nil {
		return nil, errors.Wrapf(err, "cannot decode odometry config %q", path)
	}
	if err := config.Validate(path); err != nil {
		return nil, err
	}
	return config, nil
}

// ConfigFromAttributes decodes an attribute map, as found in a larger robot configuration,
// over the default values.
func ConfigFromAttributes(attributes map[string]interface{}) (*Config, error) {
	config := DefaultConfig()
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		Result:           config,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(attributes); err != nil {
		return nil, errors.Wrap(err, "cannot decode odometry attributes")
	}
	if err := config.Validate("attributes"); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate ensures all parts of the config are valid.
func (config *Config) Validate(path string) error {
	var errs error
	if !(config.ScanPeriod > 0) || !utils.IsFinite(config.ScanPeriod) {
		errs = multierr.Append(errs, errors.Errorf("scan_period must be positive, got %v", config.ScanPeriod))
	}
	if config.MaxIterations < 1 {
		errs = multierr.Append(errs, errors.Errorf("max_iterations must be at least 1, got %d", config.MaxIterations))
	}
	if !(config.DeltaTAbort > 0) {
		errs = multierr.Append(errs, errors.Errorf("delta_t_abort must be positive, got %v", config.DeltaTAbort))
	}
	if !(config.DeltaRAbort > 0) {
		errs = multierr.Append(errs, errors.Errorf("delta_r_abort must be positive, got %v", config.DeltaRAbort))
	}
	if config.IORatio < 1 {
		errs = multierr.Append(errs, errors.Errorf("io_ratio must be at least 1, got %d", config.IORatio))
	}
	if errs != nil {
		return goutils.NewConfigValidationError(path, errs)
	}
	return nil
}

// ConfigSchema returns the json schema of Config.
func ConfigSchema() *jsonschema.Schema {
	return jsonschema.Reflect(&Config{})
}
