package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/smartystreets/goconvey/convey"

	"github.com/okian/turforacle/internal/config"
	"github.com/okian/turforacle/pkg/logger"
)

func testConfig(t *testing.T) *config.Config {
	dir := t.TempDir()
	cfg := config.New()
	cfg.Addr = "127.0.0.1:0"
	cfg.WorkerCount = 2
	cfg.LedgerPath = filepath.Join(dir, "predictions.jsonl")
	cfg.BlobDir = filepath.Join(dir, "blobs")
	cfg.PredictionAgent = "form-model"
	cfg.FlatJockeyFee = "750"
	return cfg
}

func serve(mux *http.ServeMux, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

const winBody = `{
	"schemaVersion": "horse-event/1.0",
	"eventId": "main-1",
	"eventType": "RACE_RESULT",
	"occurredAt": "2026-05-02T18:00:00Z",
	"horse": {"tokenId": 1},
	"source": {"kind": "OFFICIAL", "provider": "racing-post", "confidence": 1},
	"payload": {"track": "Ascot", "raceClass": "Grade 1", "surface": "turf", "distanceMeters": 2400,
		"fieldSize": 8, "finishPosition": 1, "purse": 100000}
}`

func TestBuild(t *testing.T) {
	convey.Convey("Given a configuration with a ledger and a blob directory", t, func() {
		ctx := context.Background()
		cfg := testConfig(t)

		convey.Convey("When the oracle is built", func() {
			o, err := build(ctx, cfg, logger.Nop())
			convey.So(err, convey.ShouldBeNil)
			defer o.close(ctx)

			convey.Convey("Then the API, docs and metrics are routed", func() {
				convey.So(serve(o.mux, http.MethodGet, "/healthz", "").Code, convey.ShouldEqual, http.StatusOK)
				convey.So(serve(o.mux, http.MethodGet, "/openapi.yaml", "").Code, convey.ShouldEqual, http.StatusOK)
				convey.So(serve(o.mux, http.MethodGet, "/metrics", "").Code, convey.ShouldEqual, http.StatusOK)
				convey.So(serve(o.mux, http.MethodGet, "/v1/predictions", "").Code, convey.ShouldEqual, http.StatusOK)
			})

			convey.Convey("Then the configured riding fee is applied", func() {
				rec := serve(o.mux, http.MethodGet, "/v1/purse?gross=100000&placing=3", "")
				convey.So(rec.Code, convey.ShouldEqual, http.StatusOK)
				convey.So(rec.Body.String(), convey.ShouldContainSubstring, `"jockeyFee":"750"`)
			})

			convey.Convey("Then a submitted event is valued, stored and predicted", func() {
				convey.So(o.svc.Start(ctx), convey.ShouldBeNil)
				reg := serve(o.mux, http.MethodPost, "/v1/horses", `{"tokenId":1,"name":"Alpha","sex":"male","pedigreeScore":8000,"value":1000}`)
				convey.So(reg.Code, convey.ShouldEqual, http.StatusCreated)
				convey.So(serve(o.mux, http.MethodPost, "/v1/events", winBody).Code, convey.ShouldEqual, http.StatusAccepted)

				stopCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
				defer cancel()
				convey.So(o.svc.Stop(stopCtx), convey.ShouldBeNil)

				var h struct {
					Value float64 `json:"value"`
				}
				rec := serve(o.mux, http.MethodGet, "/v1/horses/1", "")
				convey.So(json.Unmarshal(rec.Body.Bytes(), &h), convey.ShouldBeNil)
				convey.So(h.Value, convey.ShouldEqual, 1050.0)

				blobs, err := os.ReadDir(cfg.BlobDir)
				convey.So(err, convey.ShouldBeNil)
				convey.So(len(blobs), convey.ShouldEqual, 1)

				preds := serve(o.mux, http.MethodGet, "/v1/predictions", "")
				convey.So(preds.Body.String(), convey.ShouldContainSubstring, `"agentId":"form-model"`)
			})
		})

		convey.Convey("When redis is configured but unreachable", func() {
			cfg.RedisAddr = "127.0.0.1:1"
			_, err := build(ctx, cfg, logger.Nop())
			convey.So(err, convey.ShouldNotBeNil)
			convey.So(err.Error(), convey.ShouldContainSubstring, "redis")
		})

		convey.Convey("When no blob directory is configured", func() {
			cfg.BlobDir = ""
			store, err := blobStore(ctx, cfg)
			convey.So(err, convey.ShouldBeNil)
			convey.So(store, convey.ShouldBeNil)
		})
	})
}

func TestRun(t *testing.T) {
	convey.Convey("Given a runnable configuration", t, func() {
		cfg := testConfig(t)

		convey.Convey("When the context is canceled", func() {
			ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
			defer cancel()

			convey.Convey("Then the server shuts down cleanly", func() {
				convey.So(run(ctx, cfg, logger.Nop()), convey.ShouldBeNil)
			})
		})

		convey.Convey("When the address cannot be bound", func() {
			cfg.Addr = "not-an-address"
			err := run(context.Background(), cfg, logger.Nop())

			convey.Convey("Then the listen error is returned", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(err.Error(), convey.ShouldContainSubstring, "http server failed")
			})
		})
	})
}
