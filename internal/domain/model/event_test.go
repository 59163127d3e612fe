package model_test

import (
	"encoding/json"
	"errors"
	"math"
	"testing"

	model "github.com/okian/turforacle/internal/domain/model"
	"github.com/smartystreets/goconvey/convey"
)

func raceEvent() model.Event {
	return model.Event{
		SchemaVersion: model.SchemaVersion,
		EventID:       "evt-001",
		Type:          model.EventRaceResult,
		OccurredAt:    "2025-05-03T22:57:00Z",
		Horse:         model.HorseRef{TokenID: 7, Name: "Sovereignty"},
		Source:        model.Source{Kind: model.SourceOfficial, Provider: "equibase", Confidence: 1},
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
			Connections:    model.Connections{Jockey: "J. Alvarado", Trainer: "W. Mott"},
		},
	}
}

func TestEventValidate(t *testing.T) {
	convey.Convey("Given a well-formed race result event", t, func() {
		ev := raceEvent()

		convey.Convey("Then it validates", func() {
			convey.So(ev.Validate(), convey.ShouldBeNil)
			r, ok := ev.Race()
			convey.So(ok, convey.ShouldBeTrue)
			convey.So(r.IsWin(), convey.ShouldBeTrue)
			_, ok = ev.Injury()
			convey.So(ok, convey.ShouldBeFalse)
		})

		convey.Convey("When several fields are broken at once", func() {
			ev.EventID = ""
			ev.OccurredAt = "yesterday"
			ev.Source.Confidence = 1.5
			r, _ := ev.Race()
			r.FinishPosition = 25
			ev.Payload = r

			err := ev.Validate()

			convey.Convey("Then every offending field is listed", func() {
				convey.So(errors.Is(err, model.ErrValidation), convey.ShouldBeTrue)
				var verr *model.ValidationError
				convey.So(errors.As(err, &verr), convey.ShouldBeTrue)
				fields := make([]string, 0, len(verr.Problems))
				for _, p := range verr.Problems {
					fields = append(fields, p.Field)
				}
				convey.So(fields, convey.ShouldResemble, []string{"eventId", "occurredAt", "source.confidence", "payload.finishPosition"})
				convey.So(err.Error(), convey.ShouldContainSubstring, "eventId: required")
			})
		})

		convey.Convey("When the payload does not match the tag", func() {
			ev.Payload = model.NewsItem{Headline: "scratched"}

			convey.Convey("Then the mismatch is reported", func() {
				err := ev.Validate()
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(err.Error(), convey.ShouldContainSubstring, "payload: carries NEWS data for a RACE_RESULT event")
			})
		})

		convey.Convey("When the payload is missing", func() {
			ev.Payload = nil
			ev.SchemaVersion = "0.9"

			convey.Convey("Then both problems are reported", func() {
				var verr *model.ValidationError
				convey.So(errors.As(ev.Validate(), &verr), convey.ShouldBeTrue)
				convey.So(len(verr.Problems), convey.ShouldEqual, 2)
			})
		})
	})

	convey.Convey("Given numbers that are not finite", t, func() {
		ev := raceEvent()
		ev.Source.Confidence = math.NaN()
		r, _ := ev.Race()
		r.Purse = math.Inf(1)
		r.Odds = math.NaN()
		r.Earnings = math.Inf(-1)
		r.MarginLengths = math.NaN()
		ev.Payload = r

		convey.Convey("Then each is rejected as a field problem", func() {
			var verr *model.ValidationError
			convey.So(errors.As(ev.Validate(), &verr), convey.ShouldBeTrue)
			fields := make([]string, 0, len(verr.Problems))
			for _, p := range verr.Problems {
				fields = append(fields, p.Field)
			}
			convey.So(fields, convey.ShouldResemble, []string{
				"source.confidence", "payload.marginLengths", "payload.purse", "payload.earnings", "payload.odds",
			})
		})
	})

	convey.Convey("Given injury and news payloads out of range", t, func() {
		inj := raceEvent()
		inj.Type = model.EventInjury
		inj.Payload = model.InjuryReport{Type: "", SeverityBps: 12000, ExpectedDaysOut: -1}

		news := raceEvent()
		news.Type = model.EventNews
		news.Payload = &model.NewsItem{Headline: "", SentimentBps: -20000}

		convey.So(len(inj.Validate().(*model.ValidationError).Problems), convey.ShouldEqual, 3)
		convey.So(len(news.Validate().(*model.ValidationError).Problems), convey.ShouldEqual, 2)
	})
}

func TestEventJSON(t *testing.T) {
	convey.Convey("Given an event encoded as JSON", t, func() {
		ev := raceEvent()
		b, err := json.Marshal(ev)
		convey.So(err, convey.ShouldBeNil)

		convey.Convey("When decoding it back", func() {
			var got model.Event
			err := json.Unmarshal(b, &got)

			convey.Convey("Then the payload variant follows the eventType tag", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(got, convey.ShouldResemble, ev)
			})
		})

		convey.Convey("When the tag is unknown", func() {
			var got model.Event
			err := json.Unmarshal([]byte(`{"eventType":"AUCTION","payload":{"lot":3}}`), &got)

			convey.Convey("Then decoding succeeds and validation rejects it", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(got.Payload, convey.ShouldBeNil)
				convey.So(got.Validate(), convey.ShouldNotBeNil)
			})
		})

		convey.Convey("When the record carries keys it does not declare", func() {
			var doc map[string]any
			convey.So(json.Unmarshal(b, &doc), convey.ShouldBeNil)
			doc["payload"].(map[string]any)["injuredLeg"] = "left fore"
			doc["payload"].(map[string]any)["connections"].(map[string]any)["groom"] = "A. Smith"
			doc["source"].(map[string]any)["signature"] = "0xabc"
			doc["EventID"] = "evt-001"
			tampered, err := json.Marshal(doc)
			convey.So(err, convey.ShouldBeNil)

			var got model.Event
			err = json.Unmarshal(tampered, &got)

			convey.Convey("Then every undeclared key is listed as a field problem", func() {
				convey.So(errors.Is(err, model.ErrValidation), convey.ShouldBeTrue)
				var verr *model.ValidationError
				convey.So(errors.As(err, &verr), convey.ShouldBeTrue)
				convey.So(verr.Problems, convey.ShouldResemble, []model.FieldError{
					{Field: "EventID", Reason: "unknown field"},
					{Field: "source.signature", Reason: "unknown field"},
					{Field: "payload.connections.groom", Reason: "unknown field"},
					{Field: "payload.injuredLeg", Reason: "unknown field"},
				})
			})
		})

		convey.Convey("When the payload has the wrong shape", func() {
			var got model.Event
			err := json.Unmarshal([]byte(`{"eventType":"NEWS","payload":{"headline":42}}`), &got)

			convey.So(err, convey.ShouldNotBeNil)
		})
	})
}

func TestNewPedigree(t *testing.T) {
	convey.Convey("NewPedigree indexes nodes by id", t, func() {
		p := model.NewPedigree(model.PedigreeNode{ID: "a", Name: "A"}, model.PedigreeNode{ID: "b", Name: "B"})
		convey.So(len(p), convey.ShouldEqual, 2)
		convey.So(p["b"].Name, convey.ShouldEqual, "B")
	})
}
