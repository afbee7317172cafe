package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/rotatonator/rotatonator-go/pkg/rotatonator/event"
)

func TestCollectorCreation(t *testing.T) {
	Convey("Given collector creation", t, func() {
		Convey("When creating with default options", func() {
			c := NewCollector()

			Convey("Then it should use a private registry", func() {
				So(c, ShouldNotBeNil)
				So(c.Registry(), ShouldNotBeNil)
				So(c.namespace, ShouldEqual, "rotatonator")
			})
		})

		Convey("When creating with a custom registry and namespace", func() {
			registry := prometheus.NewRegistry()
			c := NewCollector(WithRegistry(registry), WithNamespace("raid"))
			c.Observe(event.Event{Type: event.TurnNow})

			Convey("Then metrics should be registered there", func() {
				So(c.Registry(), ShouldEqual, registry)
				count, err := testutil.GatherAndCount(registry, "raid_turns_now_total")
				So(err, ShouldBeNil)
				So(count, ShouldEqual, 1)
			})
		})
	})
}

func TestCollectorObserve(t *testing.T) {
	Convey("Given a collector", t, func() {
		c := NewCollector()

		Convey("When casts are observed", func() {
			c.Observe(event.Event{Type: event.CastDetected, Healer: "Alice", Slot: 1})
			c.Observe(event.Event{Type: event.CastDetected, Healer: "Bob", Slot: 2, IsPlayerCast: true})
			c.Observe(event.Event{Type: event.CastDetected, Healer: "Zed"})

			Convey("Then they are counted by roster membership", func() {
				So(testutil.ToFloat64(c.casts.WithLabelValues("true")), ShouldEqual, 2)
				So(testutil.ToFloat64(c.casts.WithLabelValues("false")), ShouldEqual, 1)
				So(testutil.ToFloat64(c.playerCasts), ShouldEqual, 1)
			})
		})

		Convey("When turns are observed", func() {
			c.Observe(event.Event{Type: event.TurnStarting})
			c.Observe(event.Event{Type: event.TurnStarting})
			c.Observe(event.Event{Type: event.TurnNow})

			Convey("Then both phases are counted", func() {
				So(testutil.ToFloat64(c.turnsStarting), ShouldEqual, 2)
				So(testutil.ToFloat64(c.turnsNow), ShouldEqual, 1)
			})
		})

		Convey("When a roster is replaced", func() {
			c.SetRoster(3, 6)
			c.Observe(event.Event{Type: event.RosterReplaced, Healers: []string{"A", "B"}, DelaySeconds: 5})

			Convey("Then the roster gauges follow the import", func() {
				So(testutil.ToFloat64(c.rosterReplaced), ShouldEqual, 1)
				So(testutil.ToFloat64(c.rosterSize), ShouldEqual, 2)
				So(testutil.ToFloat64(c.chainInterval), ShouldEqual, 5)
			})
		})

		Convey("When scoring results are observed", func() {
			c.Observe(event.Event{Type: event.ScoringResult, Timing: &event.Timing{
				Healer: "Alice", Accuracy: event.Perfect, Diff: 0.1, TotalScore: 100,
			}})
			c.Observe(event.Event{Type: event.ScoringResult, Timing: &event.Timing{
				Healer: "Alice", Accuracy: event.Late, Diff: 1.5, TotalScore: 50,
			}})
			c.Observe(event.Event{Type: event.ScoringResult})

			Convey("Then accuracy and score are recorded", func() {
				So(testutil.ToFloat64(c.evaluations.WithLabelValues("perfect")), ShouldEqual, 1)
				So(testutil.ToFloat64(c.evaluations.WithLabelValues("late")), ShouldEqual, 1)
				So(testutil.ToFloat64(c.healerScore.WithLabelValues("Alice")), ShouldEqual, 50)
				So(testutil.CollectAndCount(c.timingDiff), ShouldEqual, 1)
			})
		})
	})
}

func TestCollectorHandler(t *testing.T) {
	Convey("Given a collector with activity", t, func() {
		c := NewCollector()
		c.Observe(event.Event{Type: event.TurnNow})

		Convey("When scraping the handler", func() {
			rec := httptest.NewRecorder()
			c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
			body, _ := io.ReadAll(rec.Body)

			Convey("Then the exposition includes the metric", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				So(string(body), ShouldContainSubstring, "rotatonator_turns_now_total 1")
			})
		})
	})
}
