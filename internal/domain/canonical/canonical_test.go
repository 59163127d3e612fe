package canonical_test

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/turforacle/internal/domain/canonical"
	"github.com/okian/turforacle/internal/domain/model"
)

func sampleEvent() model.Event {
	return model.Event{
		SchemaVersion: model.SchemaVersion,
		EventID:       "race-2025-05-03-cd-12-7",
		Type:          model.EventRaceResult,
		OccurredAt:    "2025-05-03T22:57:00Z",
		Horse:         model.HorseRef{TokenID: 7, ExternalID: "EQB-1188", Name: "Sovereignty"},
		Source:        model.Source{Kind: model.SourceOfficial, Provider: "equibase", Confidence: 0.98},
		Payload: model.RaceResult{
			Track:          "Churchill Downs",
			RaceClass:      "G1",
			Surface:        "dirt",
			DistanceMeters: 2012,
			FieldSize:      19,
			FinishPosition: 1,
			MarginLengths:  1.5,
			FinalTimeMs:    122310,
			Purse:          5000000,
			Earnings:       3100000,
			Odds:           8.2,
			Connections:    model.Connections{Jockey: "Junior Alvarado", Trainer: "Bill Mott"},
		},
	}
}

func TestCanonicalize(t *testing.T) {
	Convey("Given generic values", t, func() {
		Convey("When encoding nested objects and arrays", func() {
			got, err := canonical.Canonicalize(map[string]any{
				"b": 1,
				"a": []any{true, nil, "x<y&z"},
				"c": map[string]any{"z": false, "y": 2.5},
			})

			Convey("Then keys are sorted, arrays keep order and no whitespace appears", func() {
				So(err, ShouldBeNil)
				So(got, ShouldEqual, `{"a":[true,null,"x<y&z"],"b":1,"c":{"y":2.5,"z":false}}`)
			})
		})

		Convey("When encoding primitives", func() {
			for in, want := range map[any]string{"héllo": `"héllo"`, true: "true", 42: "42", -0.25: "-0.25"} {
				got, err := canonical.Canonicalize(in)
				So(err, ShouldBeNil)
				So(got, ShouldEqual, want)
			}
			got, err := canonical.Canonicalize(nil)
			So(err, ShouldBeNil)
			So(got, ShouldEqual, "null")
		})

		Convey("When keys differ only past the ASCII range", func() {
			got, err := canonical.Canonicalize(map[string]any{"é": 1, "z": 2, "Z": 3})
			So(err, ShouldBeNil)
			So(got, ShouldEqual, `{"Z":3,"z":2,"é":1}`)
		})

		Convey("When the value cannot be represented", func() {
			_, err := canonical.Canonicalize(map[string]any{"f": func() {}})
			So(errors.Is(err, canonical.ErrUnsupportedValue), ShouldBeTrue)
		})
	})
}

func TestCommit(t *testing.T) {
	Convey("Given a race result event", t, func() {
		ev := sampleEvent()

		Convey("When committing the struct and the same record decoded from shuffled JSON", func() {
			c1, err := canonical.Commit(ev)
			So(err, ShouldBeNil)

			shuffled := `{"payload":{"odds":8.2,"connections":{"trainer":"Bill Mott","jockey":"Junior Alvarado"},
				"track":"Churchill Downs","surface":"dirt","raceClass":"G1","purse":5000000,"marginLengths":1.5,
				"fieldSize":19,"finishPosition":1,"finalTimeMs":122310,"earnings":3100000,"distanceMeters":2012},
				"source":{"confidence":0.98,"provider":"equibase","kind":"OFFICIAL"},
				"horse":{"name":"Sovereignty","externalId":"EQB-1188","tokenId":7},
				"occurredAt":"2025-05-03T22:57:00Z","eventType":"RACE_RESULT",
				"eventId":"race-2025-05-03-cd-12-7","schemaVersion":"horse-event/1.0"}`
			var decoded model.Event
			So(json.Unmarshal([]byte(shuffled), &decoded), ShouldBeNil)
			c2, err := canonical.Commit(decoded)
			So(err, ShouldBeNil)

			Convey("Then the canonical form and hash are identical", func() {
				So(c2.Canonical, ShouldEqual, c1.Canonical)
				So(c2.Hash, ShouldEqual, c1.Hash)
				So(c1.Hash, ShouldEqual, crypto.Keccak256Hash([]byte(c1.Canonical)))
				So(strings.ContainsAny(c1.Canonical, " \n\t"), ShouldBeFalse)
				So(strings.HasPrefix(c1.Canonical, `{"eventId":"race-2025-05-03-cd-12-7","eventType":"RACE_RESULT","horse":{`), ShouldBeTrue)
			})
		})

		Convey("When a single field changes", func() {
			before, err := canonical.Commit(ev)
			So(err, ShouldBeNil)
			r, _ := ev.Race()
			r.FinishPosition = 2
			ev.Payload = r
			after, err := canonical.Commit(ev)
			So(err, ShouldBeNil)

			Convey("Then the hash changes", func() {
				So(after.Hash, ShouldNotEqual, before.Hash)
			})
		})

		Convey("When the event is structurally invalid", func() {
			ev.EventID = ""
			_, err := canonical.Commit(ev)

			Convey("Then it is rejected before hashing", func() {
				So(errors.Is(err, model.ErrValidation), ShouldBeTrue)
			})
		})

		Convey("When verifying a published hash", func() {
			c, err := canonical.Commit(ev)
			So(err, ShouldBeNil)

			ok, err := canonical.Verify(ev, c.Hash.Hex())
			So(err, ShouldBeNil)
			So(ok, ShouldBeTrue)

			ok, err = canonical.Verify(ev, strings.TrimPrefix(c.Hash.Hex(), "0x"))
			So(err, ShouldBeNil)
			So(ok, ShouldBeTrue)

			ev.Source.Confidence = 0.5
			ok, err = canonical.Verify(ev, c.Hash.Hex())
			So(err, ShouldBeNil)
			So(ok, ShouldBeFalse)

			_, err = canonical.Verify(ev, "0x1234")
			So(errors.Is(err, canonical.ErrMalformedHash), ShouldBeTrue)

			ok, err = canonical.Verify(ev, "0x"+strings.Repeat("z", 64))
			So(errors.Is(err, canonical.ErrMalformedHash), ShouldBeTrue)
			So(ok, ShouldBeFalse)

			_, err = canonical.Verify(ev, strings.Repeat("a", 63))
			So(errors.Is(err, canonical.ErrMalformedHash), ShouldBeTrue)
		})
	})
}

func TestHash(t *testing.T) {
	Convey("Hash is keccak over the canonical bytes", t, func() {
		h, err := canonical.Hash(map[string]any{"a": 1})
		So(err, ShouldBeNil)
		So(h, ShouldEqual, crypto.Keccak256Hash([]byte(`{"a":1}`)))
	})
}
