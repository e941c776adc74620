package history_test

import (
	"context"
	"math"
	"os"
	"testing"

	model "github.com/okian/skilldrift/internal/domain/model"
	history "github.com/okian/skilldrift/internal/history"
	"github.com/okian/skilldrift/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMain(m *testing.M) {
	if err := logger.Init(); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

func singles(t float64, ids ...string) model.Match {
	teams := make([]model.Team, len(ids))
	for i, id := range ids {
		teams[i] = model.Team{Members: []string{id}}
	}
	return model.NewMatch(t, teams...)
}

func TestValidation(t *testing.T) {
	Convey("Given malformed histories", t, func() {
		Convey("When timestamps go backwards", func() {
			matches := []model.Match{
				singles(10, "a", "b"),
				singles(5, "b", "c"),
			}
			_, err := history.New(matches)

			Convey("Then construction fails naming the offending match", func() {
				So(err, ShouldWrap, history.ErrNonMonotonicTimestamps)
				So(err.Error(), ShouldContainSubstring, matches[1].ID)
			})
		})

		Convey("When two matches share an id", func() {
			dup := singles(0, "a", "b")
			dup2 := singles(5, "a", "c")
			dup2.ID = dup.ID
			_, err := history.New([]model.Match{dup, dup2})

			Convey("Then construction fails naming the id", func() {
				So(err, ShouldWrap, history.ErrDuplicateMatchID)
				So(err.Error(), ShouldContainSubstring, dup.ID)
			})
		})

		Convey("When a match is malformed", func() {
			matches := []model.Match{
				model.NewMatch(0, model.Team{Members: []string{"a"}}, model.Team{}),
			}
			_, err := history.New(matches)

			Convey("Then construction fails before any sweep", func() {
				So(err, ShouldWrap, model.ErrEmptyTeam)
			})
		})
	})
}

func TestEngineNotRun(t *testing.T) {
	Convey("Given a freshly constructed engine", t, func() {
		eng, err := history.New([]model.Match{singles(0, "a", "b")})
		So(err, ShouldBeNil)
		So(eng.State(), ShouldEqual, history.Uninitialized)

		Convey("When learning curves are requested before any sweep", func() {
			_, err := eng.LearningCurves()

			Convey("Then it fails deterministically", func() {
				So(err, ShouldWrap, history.ErrEngineNotRun)
			})
		})

		Convey("When checkpoints are requested before any sweep", func() {
			_, err := eng.Checkpoints("a")

			Convey("Then it fails the same way", func() {
				So(err, ShouldWrap, history.ErrEngineNotRun)
			})
		})
	})
}

func TestTwoCompetitorSanity(t *testing.T) {
	Convey("Given one match where A beats B under equal priors", t, func() {
		eng, err := history.New([]model.Match{singles(0, "a", "b")})
		So(err, ShouldBeNil)

		Convey("When the engine runs", func() {
			res, err := eng.Run(context.Background())
			So(err, ShouldBeNil)
			So(res.State, ShouldEqual, history.Converged)

			curves, err := eng.LearningCurves()
			So(err, ShouldBeNil)
			a, b := curves["a"][0], curves["b"][0]

			Convey("Then the winner's mean exceeds the loser's", func() {
				So(a.Mu, ShouldBeGreaterThan, b.Mu)
				So(a.Mu, ShouldBeGreaterThan, 0)
				So(b.Mu, ShouldBeLessThan, 0)
			})

			Convey("And both sigmas strictly decrease versus the prior", func() {
				So(a.Sigma, ShouldBeGreaterThan, 0)
				So(b.Sigma, ShouldBeGreaterThan, 0)
				So(a.Sigma, ShouldBeLessThan, 1.667)
				So(b.Sigma, ShouldBeLessThan, 1.667)
			})
		})
	})
}

func TestTieSymmetry(t *testing.T) {
	Convey("Given one match where A and B tie under equal priors", t, func() {
		m := model.NewMatchWithRanks(0, []model.Team{
			{Members: []string{"a"}},
			{Members: []string{"b"}},
		}, []int{0, 0})
		eng, err := history.New([]model.Match{m})
		So(err, ShouldBeNil)

		Convey("When the engine runs", func() {
			_, err := eng.Run(context.Background())
			So(err, ShouldBeNil)

			curves, err := eng.LearningCurves()
			So(err, ShouldBeNil)
			a, b := curves["a"][0], curves["b"][0]

			Convey("Then the posteriors are identical by symmetry", func() {
				So(a.Mu, ShouldAlmostEqual, b.Mu, 1e-9)
				So(a.Sigma, ShouldAlmostEqual, b.Sigma, 1e-9)
			})
		})
	})
}

func TestMonotonicCheckpoints(t *testing.T) {
	Convey("Given a history where competitors reappear", t, func() {
		matches := []model.Match{
			singles(0, "a", "b"),
			singles(10, "b", "c"),
			singles(20, "a", "c"),
		}
		eng, err := history.New(matches)
		So(err, ShouldBeNil)

		_, err = eng.Run(context.Background())
		So(err, ShouldBeNil)

		curves, err := eng.LearningCurves()
		So(err, ShouldBeNil)

		Convey("When reading each competitor's curve", func() {
			Convey("Then checkpoint times equal their match times, in order", func() {
				So(len(curves["a"]), ShouldEqual, 2)
				So(curves["a"][0].Time, ShouldEqual, 0.0)
				So(curves["a"][1].Time, ShouldEqual, 20.0)

				So(len(curves["b"]), ShouldEqual, 2)
				So(curves["b"][0].Time, ShouldEqual, 0.0)
				So(curves["b"][1].Time, ShouldEqual, 10.0)

				So(len(curves["c"]), ShouldEqual, 2)
				So(curves["c"][0].Time, ShouldEqual, 10.0)
				So(curves["c"][1].Time, ShouldEqual, 20.0)
			})

			Convey("And every sigma stays finite and positive", func() {
				for _, curve := range curves {
					for _, p := range curve {
						So(p.Sigma, ShouldBeGreaterThan, 0)
						So(math.IsInf(p.Sigma, 0), ShouldBeFalse)
						So(math.IsNaN(p.Sigma), ShouldBeFalse)
					}
				}
			})
		})

		Convey("When listing competitors", func() {
			Convey("Then ids come back in first-appearance order", func() {
				So(eng.Competitors(), ShouldResemble, []string{"a", "b", "c"})
			})
		})
	})
}

func TestDriftMonotonicity(t *testing.T) {
	Convey("Given a competitor with two matches separated by elapsed time", t, func() {
		gamma := 0.05
		matches := []model.Match{
			singles(0, "a", "b"),
			singles(100, "a", "c"),
		}
		eng, err := history.New(matches, history.WithGamma(gamma))
		So(err, ShouldBeNil)

		_, err = eng.Run(context.Background())
		So(err, ShouldBeNil)

		Convey("When comparing the second prior to the first posterior", func() {
			cps, err := eng.Checkpoints("a")
			So(err, ShouldBeNil)
			So(len(cps), ShouldEqual, 2)

			first, second := cps[0], cps[1]
			floor := math.Sqrt(first.Posterior.Sigma*first.Posterior.Sigma + gamma*gamma*100)

			Convey("Then drift injected at least gamma squared per unit time", func() {
				So(second.Prior.Sigma, ShouldBeGreaterThanOrEqualTo, floor-1e-9)
			})
		})
	})
}

func TestConvergenceIdempotence(t *testing.T) {
	Convey("Given a converged engine", t, func() {
		matches := []model.Match{
			singles(0, "a", "b"),
			singles(10, "b", "c"),
			singles(20, "a", "c"),
		}
		eng, err := history.New(matches)
		So(err, ShouldBeNil)

		res, err := eng.Run(context.Background())
		So(err, ShouldBeNil)
		So(res.State, ShouldEqual, history.Converged)

		before, err := eng.LearningCurves()
		So(err, ShouldBeNil)

		Convey("When running additional sweeps", func() {
			again, err := eng.Run(context.Background())
			So(err, ShouldBeNil)

			after, err := eng.LearningCurves()
			So(err, ShouldBeNil)

			Convey("Then no posterior moves by more than epsilon", func() {
				So(again.State, ShouldEqual, history.Converged)
				So(again.Delta, ShouldBeLessThan, 1e-6)
				for id, curve := range before {
					for i, p := range curve {
						So(after[id][i].Mu, ShouldAlmostEqual, p.Mu, 1e-6)
						So(after[id][i].Sigma, ShouldAlmostEqual, p.Sigma, 1e-6)
					}
				}
			})
		})
	})
}

func TestEndToEndTransitivity(t *testing.T) {
	Convey("Given three matches with only indirect evidence about A vs C", t, func() {
		matches := []model.Match{
			singles(0, "a", "b"),
			singles(10, "b", "c"),
			singles(20, "a", "c"),
		}
		eng, err := history.New(matches)
		So(err, ShouldBeNil)

		Convey("When the engine converges with default parameters", func() {
			res, err := eng.Run(context.Background())
			So(err, ShouldBeNil)

			Convey("Then it converges within the budget", func() {
				So(res.State, ShouldEqual, history.Converged)
				So(res.Iterations, ShouldBeLessThan, 300)
			})

			Convey("And conservative ratings recover the transitive order", func() {
				ratings, err := eng.FinalRatings()
				So(err, ShouldBeNil)
				So(ratings["a"], ShouldBeGreaterThan, ratings["b"])
				So(ratings["b"], ShouldBeGreaterThan, ratings["c"])
			})
		})
	})
}

func TestIterationBudget(t *testing.T) {
	Convey("Given an engine with a one-sweep budget and a strict epsilon", t, func() {
		matches := []model.Match{
			singles(0, "a", "b"),
			singles(10, "b", "c"),
		}
		eng, err := history.New(matches,
			history.WithMaxIterations(1),
			history.WithEpsilon(1e-12),
		)
		So(err, ShouldBeNil)

		Convey("When the engine runs out of budget", func() {
			res, err := eng.Run(context.Background())

			Convey("Then it reports the degraded state without erroring", func() {
				So(err, ShouldBeNil)
				So(res.State, ShouldEqual, history.MaxIterationsReached)
				So(res.Iterations, ShouldEqual, 1)
			})

			Convey("And best-effort curves are still readable", func() {
				curves, err := eng.LearningCurves()
				So(err, ShouldBeNil)
				So(len(curves), ShouldEqual, 3)
			})
		})
	})
}

func TestCancellation(t *testing.T) {
	Convey("Given a canceled context", t, func() {
		eng, err := history.New([]model.Match{singles(0, "a", "b")})
		So(err, ShouldBeNil)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		Convey("When the engine runs", func() {
			_, err := eng.Run(ctx)

			Convey("Then the run aborts at the sweep boundary", func() {
				So(err, ShouldWrap, history.ErrAborted)
				So(err, ShouldWrap, context.Canceled)
			})
		})
	})
}

func TestUnknownCompetitor(t *testing.T) {
	Convey("Given a converged engine", t, func() {
		eng, err := history.New([]model.Match{singles(0, "a", "b")})
		So(err, ShouldBeNil)
		_, err = eng.Run(context.Background())
		So(err, ShouldBeNil)

		Convey("When asking for a competitor who never played", func() {
			_, err := eng.Checkpoints("nobody")

			Convey("Then the registry rejects the id", func() {
				So(err, ShouldWrap, history.ErrUnknownCompetitor)
			})
		})
	})
}

func TestDoublesHistory(t *testing.T) {
	Convey("Given a doubles tournament history", t, func() {
		matches := []model.Match{
			model.NewMatch(0,
				model.Team{Members: []string{"a", "b"}},
				model.Team{Members: []string{"c", "d"}},
			),
			model.NewMatch(5,
				model.Team{Members: []string{"a", "c"}},
				model.Team{Members: []string{"b", "d"}},
			),
		}
		eng, err := history.New(matches)
		So(err, ShouldBeNil)

		Convey("When the engine converges", func() {
			res, err := eng.Run(context.Background())
			So(err, ShouldBeNil)
			So(res.State, ShouldEqual, history.Converged)

			ratings, err := eng.FinalRatings()
			So(err, ShouldBeNil)

			Convey("Then the double winner ranks highest and the double loser lowest", func() {
				// a won both matches, d lost both.
				So(ratings["a"], ShouldBeGreaterThan, ratings["b"])
				So(ratings["a"], ShouldBeGreaterThan, ratings["c"])
				So(ratings["d"], ShouldBeLessThan, ratings["b"])
				So(ratings["d"], ShouldBeLessThan, ratings["c"])
			})
		})
	})
}
