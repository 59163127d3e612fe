package config_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/smartystreets/goconvey/convey"

	"github.com/okian/turforacle/internal/config"
)

var configEnvVars = []string{
	"TURF_CONFIG",
	"TURF_ADDR",
	"TURF_QUEUE_SIZE",
	"TURF_WORKER_COUNT",
	"TURF_DEDUPE_SIZE",
	"TURF_DEDUPE_TTL",
	"TURF_REDIS_ADDR",
	"TURF_S3_BUCKET",
	"TURF_FLAT_JOCKEY_FEE",
	"TURF_LOG_FORMAT",
}

func clearConfigEnvVars() {
	for _, k := range configEnvVars {
		_ = os.Unsetenv(k)
	}
}

func writeConfigFile(t *testing.T, content string) string {
	path := filepath.Join(t.TempDir(), "turforacle.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()
		clearConfigEnvVars()
		defer clearConfigEnvVars()

		convey.Convey("When loading config with defaults only", func() {
			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
				convey.So(cfg.EventQueueSize, convey.ShouldEqual, 10_000)
				convey.So(cfg.RedisAddr, convey.ShouldBeEmpty)
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("TURF_ADDR", ":8080")
			_ = os.Setenv("TURF_QUEUE_SIZE", "500")
			_ = os.Setenv("TURF_WORKER_COUNT", "16")
			_ = os.Setenv("TURF_DEDUPE_TTL", "48h")
			_ = os.Setenv("TURF_REDIS_ADDR", "localhost:6379")
			_ = os.Setenv("TURF_S3_BUCKET", "turf-events")
			_ = os.Setenv("TURF_FLAT_JOCKEY_FEE", "750.50")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.EventQueueSize, convey.ShouldEqual, 500)
				convey.So(cfg.WorkerCount, convey.ShouldEqual, 16)
				convey.So(cfg.DedupeTTL, convey.ShouldEqual, 48*time.Hour)
				convey.So(cfg.RedisAddr, convey.ShouldEqual, "localhost:6379")
				convey.So(cfg.S3Bucket, convey.ShouldEqual, "turf-events")
				fee, err := cfg.JockeyFee()
				convey.So(err, convey.ShouldBeNil)
				convey.So(fee.String(), convey.ShouldEqual, "750.5")
			})
		})

		convey.Convey("When loading config with a YAML file", func() {
			path := writeConfigFile(t, `
addr: ":9090"
queue_size: 3000
worker_count: 24
ledger_path: /var/lib/turf/predictions.jsonl
blob_dir: /var/lib/turf/blobs
xfactor_max_depth: 12
`)
			_ = os.Setenv("TURF_CONFIG", path)
			_ = os.Setenv("TURF_WORKER_COUNT", "32")

			cfg, err := config.Load(ctx)

			convey.Convey("Then file values apply and env vars win", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.EventQueueSize, convey.ShouldEqual, 3000)
				convey.So(cfg.WorkerCount, convey.ShouldEqual, 32)
				convey.So(cfg.LedgerPath, convey.ShouldEqual, "/var/lib/turf/predictions.jsonl")
				convey.So(cfg.BlobDir, convey.ShouldEqual, "/var/lib/turf/blobs")
				convey.So(cfg.XFactorMaxDepth, convey.ShouldEqual, 12)
				convey.So(cfg.DedupeSize, convey.ShouldEqual, 50_000)
			})
		})

		convey.Convey("When the YAML file is invalid", func() {
			_ = os.Setenv("TURF_CONFIG", writeConfigFile(t, `invalid: yaml: content: [`))

			cfg, err := config.Load(ctx)
			convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
			convey.So(cfg, convey.ShouldBeNil)
		})

		convey.Convey("When the file does not exist", func() {
			_ = os.Setenv("TURF_CONFIG", "/non/existent/file.yaml")

			cfg, err := config.Load(ctx)
			convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
			convey.So(cfg, convey.ShouldBeNil)
		})

		convey.Convey("When a numeric variable is not a number", func() {
			_ = os.Setenv("TURF_QUEUE_SIZE", "invalid")

			cfg, err := config.Load(ctx)
			convey.So(err, convey.ShouldNotBeNil)
			convey.So(cfg, convey.ShouldBeNil)
		})

		convey.Convey("When the loaded values are invalid", func() {
			_ = os.Setenv("TURF_LOG_FORMAT", "xml")

			cfg, err := config.Load(ctx)
			convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			convey.So(cfg, convey.ShouldBeNil)
		})
	})
}
