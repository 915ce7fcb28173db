package betadist

import (
	"errors"
	"math"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
	"gonum.org/v1/gonum/stat/distuv"
)

func TestQuantile(t *testing.T) {
	Convey("Given a default solver", t, func() {
		s := NewSolver()

		Convey("When inverting Beta(1, 1)", func() {
			r, err := s.Quantile(1, 1, 0.3)

			Convey("Then the uniform quantile is returned", func() {
				So(err, ShouldBeNil)
				So(r.X, ShouldAlmostEqual, 0.3, 1e-9)
				So(r.Iterations, ShouldBeLessThanOrEqualTo, DefaultMaxIterations)
			})
		})

		Convey("When inverting a large-count posterior", func() {
			alpha, beta := 45536.0, 79154.0
			lower, err := s.Quantile(alpha, beta, 0.025)
			So(err, ShouldBeNil)
			upper, err := s.Quantile(alpha, beta, 0.975)
			So(err, ShouldBeNil)

			Convey("Then the CDF at each bound matches its tail", func() {
				lo, err := CDF(alpha, beta, lower.X)
				So(err, ShouldBeNil)
				hi, err := CDF(alpha, beta, upper.X)
				So(err, ShouldBeNil)
				So(lo, ShouldAlmostEqual, 0.025, 1e-5)
				So(hi, ShouldAlmostEqual, 0.975, 1e-5)
			})

			Convey("Then the bounds agree with an independent quantile", func() {
				ref := distuv.Beta{Alpha: alpha, Beta: beta}
				So(lower.X, ShouldAlmostEqual, ref.Quantile(0.025), 1e-6)
				So(upper.X, ShouldAlmostEqual, ref.Quantile(0.975), 1e-6)
			})

			Convey("Then the interval is narrow and brackets the mean", func() {
				mean := alpha / (alpha + beta)
				So(lower.X, ShouldBeLessThan, mean)
				So(upper.X, ShouldBeGreaterThan, mean)
				So(upper.X-lower.X, ShouldAlmostEqual, 0.00535, 0.0001)
			})
		})

		Convey("When the parameters are invalid", func() {
			_, err1 := s.Quantile(0, 5, 0.5)
			_, err2 := s.Quantile(5, -1, 0.5)
			_, err3 := s.Quantile(5, 5, 1)
			_, err4 := s.Quantile(math.Inf(1), 5, 0.5)

			Convey("Then ErrInvalidParameters is returned", func() {
				So(errors.Is(err1, ErrInvalidParameters), ShouldBeTrue)
				So(errors.Is(err2, ErrInvalidParameters), ShouldBeTrue)
				So(errors.Is(err3, ErrInvalidParameters), ShouldBeTrue)
				So(errors.Is(err4, ErrInvalidParameters), ShouldBeTrue)
			})
		})

		Convey("When the iteration budget is too small", func() {
			tight := NewSolver(WithTolerance(1e-15), WithMaxIterations(3))
			_, err := tight.Quantile(2.5, 7.5, 0.4)

			Convey("Then the solver reports non-convergence", func() {
				So(errors.Is(err, ErrNoConvergence), ShouldBeTrue)
			})
		})
	})
}

func TestInterval(t *testing.T) {
	Convey("Given a default solver", t, func() {
		s := NewSolver()

		Convey("When computing a 95% interval", func() {
			lower, upper, err := s.Interval(8, 12, 0.95)

			Convey("Then the tails are equal", func() {
				So(err, ShouldBeNil)
				lo, _ := CDF(8, 12, lower.X)
				hi, _ := CDF(8, 12, upper.X)
				So(lo, ShouldAlmostEqual, 0.025, 1e-7)
				So(1-hi, ShouldAlmostEqual, 0.025, 1e-7)
			})
		})

		Convey("When the level is outside (0, 1)", func() {
			_, _, err := s.Interval(8, 12, 1.5)

			Convey("Then it is rejected", func() {
				So(errors.Is(err, ErrInvalidParameters), ShouldBeTrue)
			})
		})
	})
}

func TestCDFEdges(t *testing.T) {
	Convey("Given CDF inputs at the support edges", t, func() {
		zero, err := CDF(3, 4, -0.1)
		So(err, ShouldBeNil)
		one, err := CDF(3, 4, 1.2)
		So(err, ShouldBeNil)

		Convey("Then values clamp to 0 and 1", func() {
			So(zero, ShouldEqual, 0)
			So(one, ShouldEqual, 1)
		})
	})
}
