package repository_test

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"testing"

	repository "github.com/okian/skilldrift/internal/adapters/repository"
	. "github.com/smartystreets/goconvey/convey"
)

func publish(s *repository.TreapStore, id string, rating float64) {
	_ = s.Publish(context.Background(), repository.Entry{
		CompetitorID: id,
		Rating:       rating,
		Mu:           rating + 3,
		Sigma:        1,
	})
}

func TestPublishAndRank(t *testing.T) {
	Convey("Given a store with three competitors", t, func() {
		ctx := context.Background()
		s := repository.NewTreapStore()
		publish(s, "alice", 2.5)
		publish(s, "bob", 1.0)
		publish(s, "carol", 3.0)

		Convey("When ranks are queried", func() {
			carol, err := s.Rank(ctx, "carol")
			So(err, ShouldBeNil)
			alice, err := s.Rank(ctx, "alice")
			So(err, ShouldBeNil)
			bob, err := s.Rank(ctx, "bob")
			So(err, ShouldBeNil)

			Convey("Then ranks follow rating descending", func() {
				So(carol.Rank, ShouldEqual, 1)
				So(alice.Rank, ShouldEqual, 2)
				So(bob.Rank, ShouldEqual, 3)
				So(carol.Rating, ShouldAlmostEqual, 3.0)
			})
		})

		Convey("When an unknown competitor is queried", func() {
			_, err := s.Rank(ctx, "nobody")

			Convey("Then it returns ErrNotFound", func() {
				So(err, ShouldWrap, repository.ErrNotFound)
			})
		})

		Convey("When a rating is republished lower", func() {
			publish(s, "carol", 0.5)
			carol, err := s.Rank(ctx, "carol")
			So(err, ShouldBeNil)

			Convey("Then the replacement wins even though it dropped", func() {
				So(carol.Rating, ShouldAlmostEqual, 0.5)
				So(carol.Rank, ShouldEqual, 3)
				So(s.Count(ctx), ShouldEqual, 3)
			})
		})
	})
}

func TestTopN(t *testing.T) {
	Convey("Given a store with tied ratings", t, func() {
		ctx := context.Background()
		s := repository.NewTreapStore()
		publish(s, "a", 2.0)
		publish(s, "b", 2.0)
		publish(s, "c", 1.0)

		Convey("When the full board is listed", func() {
			top, err := s.TopN(ctx, 10)
			So(err, ShouldBeNil)

			Convey("Then ties share a rank and the next rating skips it", func() {
				So(len(top), ShouldEqual, 3)
				So(top[0].CompetitorID, ShouldEqual, "a") // id asc within a tie
				So(top[0].Rank, ShouldEqual, 1)
				So(top[1].CompetitorID, ShouldEqual, "b")
				So(top[1].Rank, ShouldEqual, 1)
				So(top[2].Rank, ShouldEqual, 3)
			})

			Convey("And Rank agrees with the listing", func() {
				b, err := s.Rank(ctx, "b")
				So(err, ShouldBeNil)
				So(b.Rank, ShouldEqual, 1)
				c, err := s.Rank(ctx, "c")
				So(err, ShouldBeNil)
				So(c.Rank, ShouldEqual, 3)
			})
		})

		Convey("When the limit is smaller than the board", func() {
			top, err := s.TopN(ctx, 2)
			So(err, ShouldBeNil)

			Convey("Then only the top entries come back", func() {
				So(len(top), ShouldEqual, 2)
			})
		})

		Convey("When the limit is invalid", func() {
			_, err := s.TopN(ctx, 0)

			Convey("Then it returns ErrInvalidLimit", func() {
				So(err, ShouldWrap, repository.ErrInvalidLimit)
			})
		})
	})
}

func TestTreapOrderingAtScale(t *testing.T) {
	Convey("Given many competitors published in random order", t, func() {
		ctx := context.Background()
		s := repository.NewTreapStore(repository.WithCapacityHint(1000))
		rng := rand.New(rand.NewSource(42))

		want := make([]float64, 0, 1000)
		for i := 0; i < 1000; i++ {
			r := rng.NormFloat64()
			publish(s, fmt.Sprintf("comp-%04d", i), r)
			want = append(want, r)
		}
		sort.Sort(sort.Reverse(sort.Float64Slice(want)))

		Convey("When the full board is listed", func() {
			top, err := s.TopN(ctx, 1000)
			So(err, ShouldBeNil)

			Convey("Then every rating comes back in descending order", func() {
				So(len(top), ShouldEqual, 1000)
				for i, e := range top {
					So(e.Rating, ShouldAlmostEqual, want[i], 1e-9)
				}
			})
		})

		Convey("When a mid-board competitor is re-rated to the top", func() {
			publish(s, "comp-0500", 100)
			e, err := s.Rank(ctx, "comp-0500")
			So(err, ShouldBeNil)

			Convey("Then it holds rank one", func() {
				So(e.Rank, ShouldEqual, 1)
				So(s.Count(ctx), ShouldEqual, 1000)
			})
		})
	})
}
