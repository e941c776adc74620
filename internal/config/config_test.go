package config

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestNewDefaults(t *testing.T) {
	Convey("Given a default config", t, func() {
		cfg := New()

		Convey("When inspecting the engine parameters", func() {
			Convey("Then they should carry the documented defaults", func() {
				So(cfg.Gamma, ShouldEqual, 0.03)
				So(cfg.Sigma, ShouldEqual, 1.667)
				So(cfg.Beta, ShouldEqual, 1.0)
				So(cfg.Epsilon, ShouldEqual, 1e-6)
				So(cfg.MaxIterations, ShouldEqual, 300)
				So(cfg.DrawMargin, ShouldEqual, 0.0)
				So(cfg.InnerIterations, ShouldEqual, 10)
			})
		})

		Convey("When inspecting the service parameters", func() {
			Convey("Then they should be usable out of the box", func() {
				So(cfg.LogLevel, ShouldEqual, "info")
				So(cfg.Addr, ShouldNotBeBlank)
				So(cfg.MaxLeaderboardLimit, ShouldBeGreaterThan, 0)
			})
		})

		Convey("When validated", func() {
			Convey("Then defaults should pass", func() {
				So(cfg.validate(), ShouldBeNil)
			})
		})
	})
}

func TestValidate(t *testing.T) {
	Convey("Given configs with one broken parameter each", t, func() {
		cases := []struct {
			name   string
			mutate func(*Config)
		}{
			{"empty addr", func(c *Config) { c.Addr = "" }},
			{"negative gamma", func(c *Config) { c.Gamma = -0.1 }},
			{"zero sigma", func(c *Config) { c.Sigma = 0 }},
			{"zero beta", func(c *Config) { c.Beta = 0 }},
			{"zero epsilon", func(c *Config) { c.Epsilon = 0 }},
			{"zero max iterations", func(c *Config) { c.MaxIterations = 0 }},
			{"negative draw margin", func(c *Config) { c.DrawMargin = -1 }},
			{"zero inner iterations", func(c *Config) { c.InnerIterations = 0 }},
			{"zero leaderboard limit", func(c *Config) { c.MaxLeaderboardLimit = 0 }},
		}

		for _, tc := range cases {
			Convey("When validating a config with "+tc.name, func() {
				cfg := New()
				tc.mutate(cfg)

				Convey("Then validation should reject it", func() {
					So(cfg.validate(), ShouldWrap, ErrInvalidConfig)
				})
			})
		}
	})
}
