package odometry

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"go.viam.com/test"
)

func TestConfigValidate(t *testing.T) {
	test.That(t, DefaultConfig().Validate("odometry"), test.ShouldBeNil)

	cfg := &Config{ScanPeriod: -1, MaxIterations: 0, DeltaTAbort: 0.1, DeltaRAbort: 0, IORatio: 0}
	err := cfg.Validate("odometry")
	test.That(t, err, test.ShouldNotBeNil)
	for _, field := range []string{"scan_period", "max_iterations", "delta_r_abort", "io_ratio"} {
		test.That(t, err.Error(), test.ShouldContainSubstring, field)
	}
	test.That(t, err.Error(), test.ShouldNotContainSubstring, "delta_t_abort")
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "odometry.json")
	test.That(t, os.WriteFile(path, []byte(`{"max_iterations": 40, "io_ratio": 1}`), 0o600), test.ShouldBeNil)

	cfg, err := LoadConfig(path)
	test.That(t, err, test.ShouldBeNil)
	want := DefaultConfig()
	want.MaxIterations = 40
	want.IORatio = 1
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("unexpected config (-want +got):\n%s", diff)
	}

	test.That(t, os.WriteFile(path, []byte(`{"scan_period": 0}`), 0o600), test.ShouldBeNil)
	_, err = LoadConfig(path)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "scan_period")

	test.That(t, os.WriteFile(path, []byte(`{"scan_period": `), 0o600), test.ShouldBeNil)
	_, err = LoadConfig(path)
	test.That(t, err, test.ShouldNotBeNil)

	_, err = LoadConfig(filepath.Join(dir, "missing.json"))
	test.That(t, err, test.ShouldNotBeNil)
}

func TestConfigFromAttributes(t *testing.T) {
	cfg, err := ConfigFromAttributes(map[string]interface{}{
		"scan_period":    0.05,
		"max_iterations": "30",
		"delta_r_abort":  0.2,
	})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, cfg.ScanPeriod, test.ShouldEqual, 0.05)
	test.That(t, cfg.MaxIterations, test.ShouldEqual, 30)
	test.That(t, cfg.DeltaRAbort, test.ShouldEqual, 0.2)
	test.That(t, cfg.DeltaTAbort, test.ShouldEqual, DefaultConfig().DeltaTAbort)
	test.That(t, cfg.IORatio, test.ShouldEqual, DefaultConfig().IORatio)

	_, err = ConfigFromAttributes(map[string]interface{}{"scan_periodd": 0.05})
	test.That(t, err, test.ShouldNotBeNil)

	_, err = ConfigFromAttributes(map[string]interface{}{"io_ratio": 0})
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "io_ratio")
}

func TestConfigSchema(t *testing.T) {
	out, err := json.Marshal(ConfigSchema())
	test.That(t, err, test.ShouldBeNil)
	for _, field := range []string{"scan_period", "max_iterations", "delta_t_abort", "delta_r_abort", "io_ratio"} {
		test.That(t, string(out), test.ShouldContainSubstring, `"`+field+`"`)
	}
	test.That(t, string(out), test.ShouldContainSubstring, "duration of one sweep in seconds")
}
