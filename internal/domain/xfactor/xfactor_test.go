package xfactor_test

import (
	"fmt"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/turforacle/internal/domain/model"
	"github.com/okian/turforacle/internal/domain/xfactor"
)

func ref(id string) *string { return &id }

func horse(id, name string, sex model.Sex, sire, dam string) model.PedigreeNode {
	n := model.PedigreeNode{ID: id, Name: name, Sex: sex}
	if sire != "" {
		n.SireID = ref(sire)
	}
	if dam != "" {
		n.DamID = ref(dam)
	}
	return n
}

// damLine builds a chain of n unremarkable mares behind "t", ending in top.
func damLine(n int, top model.PedigreeNode) model.Pedigree {
	nodes := []model.PedigreeNode{horse("t", "Target", model.SexMale, "", "d1")}
	for i := 1; i <= n; i++ {
		next := fmt.Sprintf("d%d", i+1)
		if i == n {
			next = top.ID
		}
		nodes = append(nodes, horse(fmt.Sprintf("d%d", i), fmt.Sprintf("Mare %d", i), model.SexFemale, "", next))
	}
	if top.ID != "" {
		nodes = append(nodes, top)
	}
	return model.NewPedigree(nodes...)
}

func TestDetect(t *testing.T) {
	Convey("Given a colt whose sire is a known carrier", t, func() {
		graph := model.NewPedigree(
			horse("colt", "Colt", model.SexMale, "sec", "mare"),
			horse("sec", "Secretariat", model.SexMale, "", ""),
			horse("mare", "Plain Mare", model.SexFemale, "", ""),
		)

		Convey("When detecting", func() {
			res := xfactor.Detect("colt", graph)

			Convey("Then the sire is not a source for a male", func() {
				So(res.IsCarrier, ShouldBeFalse)
				So(res.Confidence, ShouldEqual, 0.0)
				So(res.PremiumMultiplier, ShouldEqual, 1.0)
				So(res.InheritancePath, ShouldResemble, []string{"Colt", "Plain Mare"})
			})
		})

		Convey("When the target is a filly instead", func() {
			filly := graph["colt"]
			filly.Name = "Filly"
			filly.Sex = model.SexFemale
			graph["colt"] = filly
			res := xfactor.Detect("colt", graph)

			Convey("Then the sire passes the trait on", func() {
				So(res.IsCarrier, ShouldBeTrue)
				So(res.Confidence, ShouldAlmostEqual, 0.9, 1e-12)
				So(res.PremiumMultiplier, ShouldAlmostEqual, 1.135, 1e-12)
				So(res.InheritancePath, ShouldResemble, []string{"Filly", "Secretariat"})
			})
		})
	})

	Convey("Given a colt whose dam is by a known carrier", t, func() {
		graph := model.NewPedigree(
			horse("colt", "Colt", model.SexMale, "", "dam"),
			horse("dam", "Mare A", model.SexFemale, "sire", ""),
			horse("sire", "Secretariat", model.SexMale, "", ""),
		)

		Convey("Then the trait reaches him through his dam's sire", func() {
			res := xfactor.Detect("colt", graph)
			So(res.IsCarrier, ShouldBeTrue)
			So(res.Confidence, ShouldAlmostEqual, 0.8, 1e-12)
			So(res.InheritancePath, ShouldResemble, []string{"Colt", "Mare A", "Secretariat"})
		})
	})

	Convey("Given a filly with carriers on both sides", t, func() {
		graph := model.NewPedigree(
			horse("f", "Filly", model.SexFemale, "s", "d"),
			horse("s", "Secretariat", model.SexMale, "", ""),
			horse("d", "Pocahontas", model.SexFemale, "", ""),
		)

		Convey("Then the dam line wins", func() {
			res := xfactor.Detect("f", graph)
			So(res.InheritancePath, ShouldResemble, []string{"Filly", "Pocahontas"})
		})
	})

	Convey("Given a confirmed carrier target", t, func() {
		n := horse("x", "Tested Mare", model.SexFemale, "", "")
		n.ConfirmedCarrier = true
		res := xfactor.Detect("x", model.NewPedigree(n))

		So(res.IsCarrier, ShouldBeTrue)
		So(res.Confidence, ShouldEqual, 1.0)
		So(res.PremiumMultiplier, ShouldAlmostEqual, 1.15, 1e-12)
		So(res.InheritancePath, ShouldResemble, []string{"Tested Mare"})
	})

	Convey("Given an ancestor confirmed by testing", t, func() {
		top := horse("top", "Obscure Mare", model.SexFemale, "", "")
		top.ConfirmedCarrier = true
		res := xfactor.Detect("t", damLine(2, top))

		So(res.IsCarrier, ShouldBeTrue)
		So(res.Confidence, ShouldAlmostEqual, 0.7, 1e-12)
		So(len(res.InheritancePath), ShouldEqual, 4)
	})

	Convey("Given a target that is not in the graph", t, func() {
		res := xfactor.Detect("ghost", model.NewPedigree())
		So(res.IsCarrier, ShouldBeFalse)
		So(res.InheritancePath, ShouldBeEmpty)
		So(res.PremiumMultiplier, ShouldEqual, 1.0)
	})
}

func TestDetectDepthBound(t *testing.T) {
	Convey("Given a long dam line", t, func() {
		Convey("When no ancestor carries the trait", func() {
			res := xfactor.Detect("t", damLine(20, model.PedigreeNode{}))

			Convey("Then the search stops at the default depth", func() {
				So(res.IsCarrier, ShouldBeFalse)
				So(res.Confidence, ShouldEqual, 0.0)
				So(len(res.InheritancePath), ShouldEqual, xfactor.DefaultMaxDepth)
			})
		})

		Convey("When the carrier sits beyond the default depth", func() {
			graph := damLine(9, horse("ecl", "Eclipse", model.SexMale, "", ""))

			So(xfactor.Detect("t", graph).IsCarrier, ShouldBeFalse)

			Convey("Then a deeper search finds it at the confidence floor", func() {
				res := xfactor.Detect("t", graph, xfactor.WithMaxDepth(12))
				So(res.IsCarrier, ShouldBeTrue)
				So(res.Confidence, ShouldEqual, 0.5)
				So(res.InheritancePath[len(res.InheritancePath)-1], ShouldEqual, "Eclipse")
			})
		})
	})

	Convey("Given a malformed cyclic pedigree", t, func() {
		graph := model.NewPedigree(
			horse("a", "A", model.SexFemale, "b", "b"),
			horse("b", "B", model.SexFemale, "a", "a"),
		)

		Convey("Then the depth bound terminates the search", func() {
			res := xfactor.Detect("a", graph, xfactor.WithMaxDepth(4))
			So(res.IsCarrier, ShouldBeFalse)
			So(res.Confidence, ShouldEqual, 0.0)
			So(len(res.InheritancePath), ShouldEqual, 15)
		})
	})
}
