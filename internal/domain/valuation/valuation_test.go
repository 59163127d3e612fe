package valuation_test

import (
	"context"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/turforacle/internal/domain/model"
	"github.com/okian/turforacle/internal/domain/valuation"
)

func raceEvent(finish, field int) model.Event {
	return model.Event{
		Type:    model.EventRaceResult,
		Payload: model.RaceResult{FinishPosition: finish, FieldSize: field},
	}
}

func TestFormValuer(t *testing.T) {
	Convey("Given a form valuer with default weights", t, func() {
		v := valuation.NewFormValuer()
		ctx := context.Background()
		horse := valuation.Features{TokenID: 7, CurrentValue: 1000}

		Convey("When the horse wins", func() {
			res, err := v.Value(ctx, valuation.Input{Horse: horse, Event: raceEvent(1, 9)})

			Convey("Then the value rises by the race weight", func() {
				So(err, ShouldBeNil)
				So(res.Value, ShouldAlmostEqual, 1050, 1e-9)
				So(res.Breakdown, ShouldHaveLength, 1)
				So(res.Breakdown[0].Name, ShouldEqual, "race_form")
				So(res.Breakdown[0].Signal, ShouldEqual, 1.0)
			})
		})

		Convey("When the horse runs last", func() {
			res, err := v.Value(ctx, valuation.Input{Horse: horse, Event: raceEvent(9, 9)})
			So(err, ShouldBeNil)
			So(res.Value, ShouldAlmostEqual, 950, 1e-9)
		})

		Convey("When the horse runs mid-field", func() {
			res, err := v.Value(ctx, valuation.Input{Horse: horse, Event: raceEvent(5, 9)})
			So(err, ShouldBeNil)
			So(res.Value, ShouldAlmostEqual, 1000, 1e-9)
		})

		Convey("When news arrives", func() {
			ev := model.Event{Type: model.EventNews, Payload: model.NewsItem{Headline: "x", SentimentBps: -5000}}
			res, err := v.Value(ctx, valuation.Input{Horse: horse, Event: ev})
			So(err, ShouldBeNil)
			So(res.Value, ShouldAlmostEqual, 990, 1e-9)
		})

		Convey("When an injury arrives", func() {
			ev := model.Event{Type: model.EventInjury, Payload: model.InjuryReport{Type: "tendon_bow"}}
			res, err := v.Value(ctx, valuation.Input{Horse: horse, Event: ev})

			Convey("Then the model carries the value forward", func() {
				So(err, ShouldBeNil)
				So(res.Value, ShouldEqual, 1000.0)
				So(res.Breakdown[0].Name, ShouldEqual, "carry_forward")
			})
		})
	})

	Convey("Given custom weights", t, func() {
		v := valuation.NewFormValuer(
			valuation.WithWeight(model.EventRaceResult, 0.5),
			valuation.WithWeight(model.EventNews, 3),
		)
		res, err := v.Value(context.Background(), valuation.Input{
			Horse: valuation.Features{CurrentValue: 100},
			Event: raceEvent(1, 2),
		})
		So(err, ShouldBeNil)
		So(res.Value, ShouldAlmostEqual, 150, 1e-9)

		res, err = v.Value(context.Background(), valuation.Input{
			Horse: valuation.Features{CurrentValue: 100},
			Event: model.Event{Type: model.EventNews, Payload: model.NewsItem{SentimentBps: 10000}},
		})
		So(err, ShouldBeNil)
		So(res.Value, ShouldAlmostEqual, 102, 1e-9)
	})

	Convey("Given simulated latency", t, func() {
		v := valuation.NewFormValuer(valuation.WithLatencyRange(50*time.Millisecond, 60*time.Millisecond))

		Convey("When the context is cancelled first", func() {
			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			_, err := v.Value(ctx, valuation.Input{Event: raceEvent(1, 2)})
			So(err, ShouldNotBeNil)
		})
	})
}

func TestTemplateExplainer(t *testing.T) {
	Convey("Given a breakdown", t, func() {
		ex := valuation.TemplateExplainer{}
		s, err := ex.Explain(context.Background(), []valuation.Component{
			{Name: "race_form", Delta: 50},
			{Name: "injury", Delta: -12.5},
			{Name: "carry_forward"},
		})
		So(err, ShouldBeNil)
		So(s, ShouldEqual, "race_form raised the value by 50.00; injury lowered the value by 12.50; carry_forward left the value unchanged")

		s, err = ex.Explain(context.Background(), nil)
		So(err, ShouldBeNil)
		So(s, ShouldEqual, "no change")
	})
}
