package config_test

import (
	"context"
	"errors"
	"os"
	"runtime"
	"testing"

	"github.com/okian/donorflow/internal/config"
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
				convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
				convey.So(cfg.QueueSize, convey.ShouldEqual, 1_000)
				convey.So(cfg.WorkerCount, convey.ShouldEqual, runtime.NumCPU())
				convey.So(cfg.JoinKey, convey.ShouldEqual, "VANID")
				convey.So(cfg.DonorMatchField, convey.ShouldEqual, "Donor Email")
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("DONORFLOW_ADDR", ":8080")
			_ = os.Setenv("DONORFLOW_QUEUE_SIZE", "50")
			_ = os.Setenv("DONORFLOW_WORKER_COUNT", "3")
			_ = os.Setenv("DONORFLOW_ACQUISITION_COST", "250.5")
			_ = os.Setenv("DONORFLOW_JOIN_MODE", "outerIncludeRightOnly")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.QueueSize, convey.ShouldEqual, 50)
				convey.So(cfg.WorkerCount, convey.ShouldEqual, 3)
				convey.So(cfg.AcquisitionCost, convey.ShouldEqual, 250.5)
				mode, err := cfg.Mode()
				convey.So(err, convey.ShouldBeNil)
				convey.So(string(mode), convey.ShouldEqual, "outerIncludeRightOnly")
			})
		})

		convey.Convey("When loading config with YAML file", func() {
			yamlContent := `
addr: ":9090"
queue_size: 300
worker_count: 24
join_key: "Van ID"
date_input_format: "MM/dd/yyyy"
field_types:
  Pledge: numeric
`
			tmpFile := createTempFile("donorflow-config-*.yaml", yamlContent)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("DONORFLOW_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load from YAML file", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.QueueSize, convey.ShouldEqual, 300)
				convey.So(cfg.WorkerCount, convey.ShouldEqual, 24)
				convey.So(cfg.JoinKey, convey.ShouldEqual, "Van ID")
			})

			convey.Convey("Then field types are merged over the defaults", func() {
				cc, err := cfg.Clean()
				convey.So(err, convey.ShouldBeNil)
				convey.So(string(cc.FieldTypes["Pledge"]), convey.ShouldEqual, "numeric")
				convey.So(string(cc.FieldTypes["Email"]), convey.ShouldEqual, "identifier")
				convey.So(cc.DateInputFormat, convey.ShouldEqual, "MM/dd/yyyy")
			})
		})

		convey.Convey("When loading config with both file and environment variables", func() {
			tmpFile := createTempFile("donorflow-config-*.yaml", "addr: \":9090\"\nworker_count: 24\nqueue_size: 300\n")
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("DONORFLOW_CONFIG", tmpFile)
			_ = os.Setenv("DONORFLOW_ADDR", ":8080")
			_ = os.Setenv("DONORFLOW_WORKER_COUNT", "32")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then environment variables should override file values", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.QueueSize, convey.ShouldEqual, 300)
				convey.So(cfg.WorkerCount, convey.ShouldEqual, 32)
			})
		})

		convey.Convey("When an env file is named", func() {
			envFile := createTempFile("donorflow-*.env", "DONORFLOW_WORKER_COUNT=7\nDONORFLOW_JOIN_KEY=ContactID\n")
			defer func() { _ = os.Remove(envFile) }()

			_ = os.Setenv("DONORFLOW_ENV_FILE", envFile)
			_ = os.Setenv("DONORFLOW_JOIN_KEY", "VanID")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then its variables apply unless already set", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.WorkerCount, convey.ShouldEqual, 7)
				convey.So(cfg.JoinKey, convey.ShouldEqual, "VanID")
			})
		})

		convey.Convey("When the env file does not exist", func() {
			_ = os.Setenv("DONORFLOW_ENV_FILE", "/non/existent/.env")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a load error", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with invalid YAML file", func() {
			tmpFile := createTempFile("donorflow-config-*.yaml", `invalid: yaml: content: [`)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("DONORFLOW_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with non-existent file", func() {
			_ = os.Setenv("DONORFLOW_CONFIG", "/non/existent/file.yaml")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with empty addr", func() {
			_ = os.Setenv("DONORFLOW_ADDR", "")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a validation error", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, "Addr")
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with invalid numeric environment variables", func() {
			_ = os.Setenv("DONORFLOW_QUEUE_SIZE", "invalid")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with zero workers", func() {
			_ = os.Setenv("DONORFLOW_WORKER_COUNT", "0")
			defer clearConfigEnvVars()

			_, err := config.Load(ctx)

			convey.Convey("Then it should be rejected", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When the join mode is unknown", func() {
			_ = os.Setenv("DONORFLOW_JOIN_MODE", "cross")
			defer clearConfigEnvVars()

			_, err := config.Load(ctx)

			convey.Convey("Then it should be rejected", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, "join_mode")
			})
		})

		convey.Convey("When a field type is unknown", func() {
			tmpFile := createTempFile("donorflow-config-*.yaml", "field_types:\n  Amount: currency\n")
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("DONORFLOW_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			_, err := config.Load(ctx)

			convey.Convey("Then it should be rejected", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, "Amount")
			})
		})

		convey.Convey("When the log level is unknown", func() {
			_ = os.Setenv("DONORFLOW_LOG_LEVEL", "verbose")
			defer clearConfigEnvVars()

			_, err := config.Load(ctx)

			convey.Convey("Then it should be rejected", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		})
	})
}

// Helper functions.

func clearConfigEnvVars() {
	envVars := []string{
		"DONORFLOW_CONFIG",
		"DONORFLOW_ENV_FILE",
		"DONORFLOW_ADDR",
		"DONORFLOW_QUEUE_SIZE",
		"DONORFLOW_WORKER_COUNT",
		"DONORFLOW_ACQUISITION_COST",
		"DONORFLOW_JOIN_MODE",
		"DONORFLOW_JOIN_KEY",
		"DONORFLOW_LOG_LEVEL",
	}
	for _, envVar := range envVars {
		_ = os.Unsetenv(envVar)
	}
}

func createTempFile(pattern, content string) string {
	tmpFile, err := os.CreateTemp("", pattern)
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
