package simulate_test

import (
	"errors"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/turforacle/internal/adapters/repository"
	"github.com/okian/turforacle/internal/domain/injury"
	"github.com/okian/turforacle/internal/domain/model"
	"github.com/okian/turforacle/internal/simulate"
)

var epoch = time.Date(2026, 5, 2, 18, 0, 0, 0, time.UTC)

func TestHerd(t *testing.T) {
	Convey("Given a generator", t, func() {
		g := simulate.NewGenerator(42, epoch)

		Convey("When a herd of 12 is generated", func() {
			herd := g.Herd(12, 100)

			Convey("Then a quarter are stallions and a quarter mares", func() {
				So(len(herd), ShouldEqual, 12)
				for _, h := range herd[:3] {
					So(h.Sex, ShouldEqual, model.SexMale)
					So(h.SireID, ShouldBeNil)
				}
				for _, h := range herd[3:6] {
					So(h.Sex, ShouldEqual, model.SexFemale)
				}
			})

			Convey("Then foals descend from the generated parents", func() {
				parents := map[model.TokenID]repository.Horse{}
				for _, h := range herd[:6] {
					parents[h.TokenID] = h
				}
				for _, h := range herd[6:] {
					So(h.SireID, ShouldNotBeNil)
					So(h.DamID, ShouldNotBeNil)
					So(parents[*h.SireID].Sex, ShouldEqual, model.SexMale)
					So(parents[*h.DamID].Sex, ShouldEqual, model.SexFemale)
					So(h.Value, ShouldBeGreaterThan, 0)
				}
			})

			Convey("Then token ids are consecutive", func() {
				for i, h := range herd {
					So(h.TokenID, ShouldEqual, model.TokenID(100+i))
				}
			})
		})

		Convey("When the herd is tiny", func() {
			herd := g.Herd(2, 1)
			So(herd[0].Sex, ShouldEqual, model.SexMale)
			So(herd[1].Sex, ShouldEqual, model.SexFemale)
		})
	})
}

func TestEvents(t *testing.T) {
	Convey("Given a generated herd", t, func() {
		g := simulate.NewGenerator(7, epoch)
		herd := g.Herd(20, 1)
		events := g.Events(300)

		Convey("Then every event is valid, simulated and about a herd member", func() {
			members := map[model.TokenID]bool{}
			for _, h := range herd {
				members[h.TokenID] = true
			}
			ids := map[string]bool{}
			kinds := map[model.EventType]int{}
			for _, e := range events {
				So(e.Validate(), ShouldBeNil)
				So(e.Source.Kind, ShouldEqual, model.SourceSimulation)
				So(members[e.Horse.TokenID], ShouldBeTrue)
				So(ids[e.EventID], ShouldBeFalse)
				ids[e.EventID] = true
				kinds[e.Type]++
				if i, ok := e.Injury(); ok {
					_, known := injury.Classify(i.Type)
					So(known, ShouldBeTrue)
				}
			}
			So(kinds[model.EventRaceResult], ShouldBeGreaterThan, kinds[model.EventInjury])
			So(kinds[model.EventNews], ShouldBeGreaterThan, 0)
		})

		Convey("Then the same seed reproduces the same stream", func() {
			again := simulate.NewGenerator(7, epoch)
			again.Herd(20, 1)
			So(again.Events(300), ShouldResemble, events)
		})
	})
}

func TestConfigValidate(t *testing.T) {
	Convey("Given simulation configs", t, func() {
		valid := simulate.Config{BaseURL: "http://x", Horses: 4, Events: 10, Replays: 2, Workers: 1, TopN: 3}
		So(valid.Validate(), ShouldBeNil)

		cases := []struct {
			name   string
			mutate func(*simulate.Config)
		}{
			{"no url", func(c *simulate.Config) { c.BaseURL = "" }},
			{"one horse", func(c *simulate.Config) { c.Horses = 1 }},
			{"no events", func(c *simulate.Config) { c.Events = 0 }},
			{"too many replays", func(c *simulate.Config) { c.Replays = 11 }},
			{"no workers", func(c *simulate.Config) { c.Workers = 0 }},
			{"no top", func(c *simulate.Config) { c.TopN = 0 }},
		}
		for _, tc := range cases {
			Convey("Then "+tc.name+" is rejected", func() {
				c := valid
				tc.mutate(&c)
				So(errors.Is(c.Validate(), simulate.ErrConfig), ShouldBeTrue)
			})
		}
	})
}

func TestVerifyLeaderboard(t *testing.T) {
	Convey("Given leaderboards", t, func() {
		So(simulate.VerifyLeaderboard(nil), ShouldBeNil)
		So(simulate.VerifyLeaderboard([]repository.Entry{
			{Rank: 1, TokenID: 1, Value: 10},
			{Rank: 1, TokenID: 2, Value: 10},
			{Rank: 2, TokenID: 3, Value: 5},
		}), ShouldBeNil)

		bad := [][]repository.Entry{
			{{Rank: 2, Value: 1}},
			{{Rank: 1, TokenID: 1, Value: 5}, {Rank: 2, TokenID: 2, Value: 10}},
			{{Rank: 1, TokenID: 1, Value: 10}, {Rank: 2, TokenID: 2, Value: 10}},
			{{Rank: 1, TokenID: 1, Value: 10}, {Rank: 3, TokenID: 2, Value: 5}},
		}
		for _, entries := range bad {
			So(errors.Is(simulate.VerifyLeaderboard(entries), simulate.ErrVerification), ShouldBeTrue)
		}
	})
}
