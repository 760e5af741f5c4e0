package config_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/okian/chordscan/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()

		convey.Convey("When loading config with defaults only", func() {
			clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8001")
				convey.So(cfg.QueueSize, convey.ShouldEqual, 64)
				convey.So(cfg.WorkerCount, convey.ShouldEqual, runtime.NumCPU())
				convey.So(cfg.EngineTimeoutMS, convey.ShouldEqual, 180_000)
				convey.So(cfg.EnginePath, convey.ShouldEqual, "")
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("CHORDSCAN_ADDR", ":8080")
			_ = os.Setenv("CHORDSCAN_QUEUE_SIZE", "8")
			_ = os.Setenv("CHORDSCAN_WORKER_COUNT", "2")
			_ = os.Setenv("CHORDSCAN_ENGINE_PATH", "/opt/audiveris/bin/Audiveris")
			_ = os.Setenv("CHORDSCAN_ENGINE_TIMEOUT_MS", "5000")
			_ = os.Setenv("CHORDSCAN_TARGET_LANGUAGE", "eng")
			_ = os.Setenv("CHORDSCAN_ENGINE_FALLBACK_DIRS", "/tmp/a, /tmp/b,")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.QueueSize, convey.ShouldEqual, 8)
				convey.So(cfg.WorkerCount, convey.ShouldEqual, 2)
				convey.So(cfg.EnginePath, convey.ShouldEqual, "/opt/audiveris/bin/Audiveris")
				convey.So(cfg.EngineTimeoutMS, convey.ShouldEqual, 5000)
				convey.So(cfg.TargetLanguage, convey.ShouldEqual, "eng")
				convey.So(cfg.EngineFallbackDirs, convey.ShouldResemble, []string{"/tmp/a", "/tmp/b"})
			})
		})

		convey.Convey("When only the legacy engine variable is set", func() {
			_ = os.Setenv("AUDIVERIS_CLI", "/usr/local/bin/audiveris")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it fills the engine path", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.EnginePath, convey.ShouldEqual, "/usr/local/bin/audiveris")
			})
		})

		convey.Convey("When both engine variables are set", func() {
			_ = os.Setenv("AUDIVERIS_CLI", "/usr/local/bin/audiveris")
			_ = os.Setenv("CHORDSCAN_ENGINE_PATH", "/opt/audiveris.jar")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then the prefixed variable wins", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.EnginePath, convey.ShouldEqual, "/opt/audiveris.jar")
			})
		})

		convey.Convey("When loading config with YAML file", func() {
			yamlContent := `
addr: ":9090"
queue_size: 16
worker_count: 3
omr_out_dir: /var/lib/chordscan/omr
engine_fallback_dirs:
  - /srv/audiveris
frontend_origin: "http://localhost:5173"
`
			tmpFile := createTempConfigFile(yamlContent)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("CHORDSCAN_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load from YAML file", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.QueueSize, convey.ShouldEqual, 16)
				convey.So(cfg.WorkerCount, convey.ShouldEqual, 3)
				convey.So(cfg.OMROutDir, convey.ShouldEqual, "/var/lib/chordscan/omr")
				convey.So(cfg.EngineFallbackDirs, convey.ShouldResemble, []string{"/srv/audiveris"})
				convey.So(cfg.FrontendOrigin, convey.ShouldEqual, "http://localhost:5173")
				convey.So(cfg.TargetLanguage, convey.ShouldEqual, "tgl")
			})
		})

		convey.Convey("When loading config with both file and environment variables", func() {
			yamlContent := `
addr: ":9090"
queue_size: 16
worker_count: 3
`
			tmpFile := createTempConfigFile(yamlContent)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("CHORDSCAN_CONFIG", tmpFile)
			_ = os.Setenv("CHORDSCAN_ADDR", ":8080")
			_ = os.Setenv("CHORDSCAN_WORKER_COUNT", "6")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then environment variables should override file values", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.QueueSize, convey.ShouldEqual, 16)
				convey.So(cfg.WorkerCount, convey.ShouldEqual, 6)
			})
		})

		convey.Convey("When loading config with invalid YAML file", func() {
			tmpFile := createTempConfigFile("addr: [unterminated")
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("CHORDSCAN_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a load error", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with non-existent file", func() {
			_ = os.Setenv("CHORDSCAN_CONFIG", filepath.Join(os.TempDir(), "chordscan-missing.yaml"))
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with empty addr", func() {
			_ = os.Setenv("CHORDSCAN_ADDR", "")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a validation error", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When the score cap exceeds the audio cap", func() {
			_ = os.Setenv("CHORDSCAN_SCORE_MAX_BYTES", "300000000")
			defer clearConfigEnvVars()

			_, err := config.Load(ctx)

			convey.Convey("Then it should return a validation error", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When loading config with invalid numeric environment variables", func() {
			_ = os.Setenv("CHORDSCAN_QUEUE_SIZE", "lots")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})
	})
}

func TestConfigLoaderDotEnv(t *testing.T) {
	clearConfigEnvVars()
	defer clearConfigEnvVars()

	dir := t.TempDir()
	content := "CHORDSCAN_ADDR=:7070\nAUDIVERIS_CLI=/from/dotenv\n"
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Chdir(dir)

	cfg, err := config.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Addr != ":7070" {
		t.Errorf("Addr = %q, want :7070", cfg.Addr)
	}
	if cfg.EnginePath != "/from/dotenv" {
		t.Errorf("EnginePath = %q, want /from/dotenv", cfg.EnginePath)
	}
}

func clearConfigEnvVars() {
	envVars := []string{
		"CHORDSCAN_CONFIG",
		"CHORDSCAN_ADDR",
		"CHORDSCAN_QUEUE_SIZE",
		"CHORDSCAN_WORKER_COUNT",
		"CHORDSCAN_ENGINE_PATH",
		"CHORDSCAN_ENGINE_TIMEOUT_MS",
		"CHORDSCAN_ENGINE_FALLBACK_DIRS",
		"CHORDSCAN_TARGET_LANGUAGE",
		"CHORDSCAN_SCORE_MAX_BYTES",
		"AUDIVERIS_CLI",
	}
	for _, envVar := range envVars {
		_ = os.Unsetenv(envVar)
	}
}

func createTempConfigFile(content string) string {
	tmpFile, err := os.CreateTemp("", "chordscan-config-*.yaml")
	if err != nil {
		panic(err)
	}

	if _, err := tmpFile.WriteString(content); err != nil {
		panic(err)
	}

	if err := tmpFile.Close(); err != nil {
		panic(err)
	}

	return tmpFile.Name()
}
