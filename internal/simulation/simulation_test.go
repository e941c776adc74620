package simulation_test

import (
	"context"
	"os"
	"testing"

	"github.com/okian/skilldrift/internal/history"
	"github.com/okian/skilldrift/internal/simulation"
	"github.com/okian/skilldrift/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMain(m *testing.M) {
	if err := logger.Init(); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

func TestGeneratorProducesValidHistories(t *testing.T) {
	Convey("Given a seeded generator", t, func() {
		gen := simulation.New(
			simulation.WithSeed(7),
			simulation.WithCompetitors(8),
			simulation.WithMatches(40),
			simulation.WithTeamSize(2),
		)

		Convey("When a history is sampled", func() {
			matches := gen.History()

			Convey("Then every match validates and times never decrease", func() {
				So(len(matches), ShouldEqual, 40)
				for i, m := range matches {
					So(m.Validate(), ShouldBeNil)
					So(len(m.Teams), ShouldEqual, 2)
					So(len(m.Teams[0].Members), ShouldEqual, 2)
					if i > 0 {
						So(m.Time, ShouldBeGreaterThanOrEqualTo, matches[i-1].Time)
					}
				}
			})

			Convey("And the same seed reproduces the same history", func() {
				again := simulation.New(
					simulation.WithSeed(7),
					simulation.WithCompetitors(8),
					simulation.WithMatches(40),
					simulation.WithTeamSize(2),
				).History()
				So(len(again), ShouldEqual, len(matches))
				for i := range matches {
					So(again[i].Time, ShouldEqual, matches[i].Time)
					So(again[i].Teams, ShouldResemble, matches[i].Teams)
				}
			})
		})
	})
}

func TestRecovery(t *testing.T) {
	Convey("Given a history sampled from slowly drifting true skills", t, func() {
		gen := simulation.New(
			simulation.WithSeed(42),
			simulation.WithCompetitors(16),
			simulation.WithMatches(400),
			simulation.WithTrueGamma(0.01),
		)
		matches := gen.History()

		Convey("When the engine infers ratings from results alone", func() {
			eng, err := history.New(matches, history.WithGamma(0.01))
			So(err, ShouldBeNil)
			res, err := eng.Run(context.Background())
			So(err, ShouldBeNil)
			So(res.State.Terminal(), ShouldBeTrue)

			ratings, err := eng.FinalRatings()
			So(err, ShouldBeNil)

			Convey("Then inferred ratings track the ground truth", func() {
				report, err := simulation.Verify(gen.TrueSkills(), ratings)
				So(err, ShouldBeNil)
				So(report.Competitors, ShouldEqual, 16)
				So(report.Correlation, ShouldBeGreaterThan, 0.6)

				Convey("And the conservative rating sits below the true scale", func() {
					So(report.MedianInferred, ShouldBeLessThan, report.MedianTrue)
				})
			})
		})
	})
}

func TestVerifyRejectsThinData(t *testing.T) {
	Convey("Given fewer than two paired competitors", t, func() {
		trueSkills := map[string]float64{"a": 1.0, "b": 2.0}
		inferred := map[string]float64{"a": -1.0, "z": 0.0}

		Convey("When verification runs", func() {
			_, err := simulation.Verify(trueSkills, inferred)

			Convey("Then it fails with the data sentinel", func() {
				So(err, ShouldWrap, simulation.ErrInsufficientData)
			})
		})
	})
}
