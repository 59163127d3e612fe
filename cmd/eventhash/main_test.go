package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/smartystreets/goconvey/convey"

	"github.com/okian/turforacle/internal/domain/canonical"
	"github.com/okian/turforacle/internal/domain/model"
)

const newsEvent = `{
	"schemaVersion": "horse-event/1.0",
	"eventId": "news-9",
	"eventType": "NEWS",
	"occurredAt": "2026-05-02T18:00:00Z",
	"horse": {"tokenId": 42, "name": "Silver Ledger"},
	"source": {"kind": "API_VENDOR", "provider": "equibase", "confidence": 0.8},
	"payload": {"headline": "Silver Ledger <works> & impresses", "sentimentBps": 2500}
}`

func execute(stdin string, args ...string) (string, error) {
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestCanonicalize(t *testing.T) {
	convey.Convey("Given an event file", t, func() {
		path := filepath.Join(t.TempDir(), "event.json")
		convey.So(os.WriteFile(path, []byte(newsEvent), 0o600), convey.ShouldBeNil)

		var e model.Event
		convey.So(e.UnmarshalJSON([]byte(newsEvent)), convey.ShouldBeNil)
		want, err := canonical.Commit(e)
		convey.So(err, convey.ShouldBeNil)

		convey.Convey("When it is canonicalized", func() {
			out, err := execute("", "canonicalize", path)

			convey.Convey("Then the canonical form and hash are printed", func() {
				convey.So(err, convey.ShouldBeNil)
				lines := strings.Split(strings.TrimSpace(out), "\n")
				convey.So(lines, convey.ShouldResemble, []string{want.Canonical, want.Hash.Hex()})
				convey.So(lines[0], convey.ShouldContainSubstring, "<works> & impresses")
			})
		})

		convey.Convey("When it is read from stdin as JSON output", func() {
			out, err := execute(newsEvent, "canonicalize", "-", "--json")
			convey.So(err, convey.ShouldBeNil)
			convey.So(out, convey.ShouldContainSubstring, want.Hash.Hex())
			convey.So(out, convey.ShouldContainSubstring, `"canonical":`)
		})

		convey.Convey("When it is verified", func() {
			out, err := execute("", "verify", path, want.Hash.Hex())
			convey.So(err, convey.ShouldBeNil)
			convey.So(out, convey.ShouldEqual, "OK\n")

			convey.Convey("Then a different hash is a mismatch", func() {
				out, err := execute("", "verify", path, "0x"+strings.Repeat("ab", 32))
				convey.So(errors.Is(err, errMismatch), convey.ShouldBeTrue)
				convey.So(out, convey.ShouldEqual, "MISMATCH\n")
			})

			convey.Convey("Then a malformed hash is an error", func() {
				_, err := execute("", "verify", path, "0x1234")
				convey.So(errors.Is(err, canonical.ErrMalformedHash), convey.ShouldBeTrue)
			})
		})
	})

	convey.Convey("Given bad input", t, func() {
		_, err := execute("", "canonicalize", filepath.Join(t.TempDir(), "missing.json"))
		convey.So(err, convey.ShouldNotBeNil)

		_, err = execute("{", "canonicalize", "-")
		convey.So(err, convey.ShouldNotBeNil)

		_, err = execute(strings.Replace(newsEvent, `"news-9"`, `""`, 1), "canonicalize", "-")
		convey.So(errors.Is(err, model.ErrValidation), convey.ShouldBeTrue)

		_, err = execute(strings.Replace(newsEvent, `"sentimentBps": 2500`, `"sentimentBps": 2500, "embargo": true`, 1), "canonicalize", "-")
		convey.So(errors.Is(err, model.ErrValidation), convey.ShouldBeTrue)
		convey.So(err.Error(), convey.ShouldContainSubstring, "payload.embargo: unknown field")

		_, err = execute("", "verify", "only-one-arg")
		convey.So(err, convey.ShouldNotBeNil)
	})
}
