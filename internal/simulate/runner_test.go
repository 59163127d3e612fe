package simulate_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/turforacle/internal/adapters/http/api"
	service "github.com/okian/turforacle/internal/app"
	"github.com/okian/turforacle/internal/domain/model"
	"github.com/okian/turforacle/internal/simulate"
	"github.com/okian/turforacle/pkg/logger"
)

func newOracle(t *testing.T) *httptest.Server {
	svc := service.New(service.WithLogger(logger.Nop()), service.WithWorkerCount(2))
	So(svc.Start(context.Background()), ShouldBeNil)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = svc.Stop(ctx)
	})

	mux := http.NewServeMux()
	api.NewServer(svc).Register(context.Background(), mux)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestRun(t *testing.T) {
	Convey("Given a running oracle", t, func() {
		So(logger.InitWith(logger.Options{Output: io.Discard}), ShouldBeNil)
		srv := newOracle(t)
		out := filepath.Join(t.TempDir(), "out", "events.json")

		config := &simulate.Config{
			BaseURL:    srv.URL,
			Horses:     16,
			Events:     60,
			Replays:    10,
			TopN:       8,
			Workers:    4,
			Timeout:    5 * time.Second,
			Settle:     5 * time.Second,
			Seed:       3,
			FirstToken: 500,
			OutputFile: out,
		}

		Convey("When a simulation runs", func() {
			stats, err := simulate.Run(context.Background(), config)

			Convey("Then every event is accepted once and every replay is a duplicate", func() {
				So(err, ShouldBeNil)
				So(stats.HorsesRegistered, ShouldEqual, 16)
				So(stats.EventsSubmitted, ShouldEqual, 70)
				So(stats.EventsAccepted, ShouldEqual, 60)
				So(stats.EventsDuplicate, ShouldEqual, 10)
				So(stats.EventsFailed, ShouldEqual, 0)
				So(stats.LeaderboardEntries, ShouldEqual, 8)
			})

			Convey("Then the submitted events are saved", func() {
				raw, err := os.ReadFile(out)
				So(err, ShouldBeNil)
				var events []json.RawMessage
				So(json.Unmarshal(raw, &events), ShouldBeNil)
				So(len(events), ShouldEqual, 60)

				var first model.Event
				So(json.Unmarshal(events[0], &first), ShouldBeNil)
				So(first.Source.Kind, ShouldEqual, model.SourceSimulation)
			})
		})

		Convey("When the oracle is unreachable", func() {
			config.BaseURL = "http://127.0.0.1:1"
			config.Timeout = 200 * time.Millisecond
			_, err := simulate.Run(context.Background(), config)
			So(err, ShouldNotBeNil)
		})
	})
}

func TestNewCommand(t *testing.T) {
	Convey("Given the simulate command", t, func() {
		cmd := simulate.NewCommand()

		Convey("Then its flags carry usable defaults", func() {
			for _, name := range []string{"url", "horses", "events", "replays", "top", "workers", "seed", "settle", "output"} {
				So(cmd.Flags().Lookup(name), ShouldNotBeNil)
			}
			So(cmd.Flags().Lookup("url").DefValue, ShouldEqual, "http://localhost:9080")
		})

		Convey("Then invalid flags fail before any request", func() {
			cmd.SetArgs([]string{"--horses", "1", "--log-format", "json"})
			cmd.SetOut(io.Discard)
			cmd.SetErr(io.Discard)
			err := cmd.Execute()
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "at least 2 horses")
		})
	})
}
