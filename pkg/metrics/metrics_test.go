package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMetricsManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating with custom options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("test"),
				WithSubsystem("unit"),
				WithHistogramBuckets([]float64{0.1, 0.5, 1.0}),
				WithConstLabels(map[string]string{"env": "test"}),
				WithPrometheusRegistry(registry),
			)
			manager.RecordRun(OutcomeSucceeded)

			Convey("Then metrics are registered under the configured names", func() {
				families, err := registry.Gather()
				So(err, ShouldBeNil)
				names := make([]string, 0, len(families))
				for _, f := range families {
					names = append(names, f.GetName())
				}
				So(names, ShouldContain, "test_unit_runs_total")
			})
		})

		Convey("When two managers share a registry", func() {
			registry := prometheus.NewRegistry()
			_ = NewManager(WithPrometheusRegistry(registry))

			Convey("Then registration panics on the duplicate", func() {
				So(func() { NewManager(WithPrometheusRegistry(registry)) }, ShouldPanic)
			})
		})
	})
}

func TestMetricsRecording(t *testing.T) {
	Convey("Given a manager on a private registry", t, func() {
		m := NewManager(WithPrometheusRegistry(prometheus.NewRegistry()))

		Convey("When recording pipeline activity", func() {
			m.RecordRun(OutcomeSucceeded)
			m.RecordRun(OutcomeFailed)
			m.RecordRun(OutcomeSucceeded)
			m.RecordRows("contacts", 10, 2)
			m.RecordJoin(7, 3, 1)
			m.RecordDonors(4)
			m.RecordImputed(5)
			m.RecordUnresolvedPostalCodes(2)
			m.ObserveStage("join", 5*time.Millisecond)

			Convey("Then the counters reflect it", func() {
				So(testutil.ToFloat64(m.runs.WithLabelValues(OutcomeSucceeded)), ShouldEqual, 2)
				So(testutil.ToFloat64(m.rowsParsed.WithLabelValues("contacts")), ShouldEqual, 10)
				So(testutil.ToFloat64(m.rowsDropped.WithLabelValues("contacts")), ShouldEqual, 2)
				So(testutil.ToFloat64(m.joinRecords.WithLabelValues("right_only")), ShouldEqual, 1)
				So(testutil.ToFloat64(m.donorsSummarized), ShouldEqual, 4)
				So(testutil.ToFloat64(m.imputedValues), ShouldEqual, 5)
				So(testutil.ToFloat64(m.unresolvedPostals), ShouldEqual, 2)
				So(testutil.CollectAndCount(m.stageDuration), ShouldEqual, 1)
			})
		})

		Convey("When recording queue and worker state", func() {
			m.UpdateQueueCapacity(10)
			m.UpdateQueueSize(3)
			m.RecordQueueEnqueue()
			m.RecordQueueRejected()
			m.UpdateWorkerCount(4)
			m.AddWorkersBusy(2)
			m.AddWorkersBusy(-1)
			m.UpdateStoredRuns(6)

			Convey("Then the gauges reflect it", func() {
				So(testutil.ToFloat64(m.queueCapacity), ShouldEqual, 10)
				So(testutil.ToFloat64(m.queueSize), ShouldEqual, 3)
				So(testutil.ToFloat64(m.queueRejected), ShouldEqual, 1)
				So(testutil.ToFloat64(m.workerCount), ShouldEqual, 4)
				So(testutil.ToFloat64(m.workersBusy), ShouldEqual, 1)
				So(testutil.ToFloat64(m.storedRuns), ShouldEqual, 6)
			})
		})

		Convey("When recording HTTP requests and errors", func() {
			m.RecordHTTPRequest("/v1/pipeline", "POST", "200", 20*time.Millisecond)
			m.RecordError("http", "bad_request")

			Convey("Then they are counted by label", func() {
				So(testutil.ToFloat64(m.httpRequests.WithLabelValues("/v1/pipeline", "POST", "200")), ShouldEqual, 1)
				So(testutil.ToFloat64(m.errorsByComponent.WithLabelValues("http", "bad_request")), ShouldEqual, 1)
			})
		})
	})

	Convey("Given a disabled manager", t, func() {
		m := NewManager(WithPrometheusRegistry(prometheus.NewRegistry()), WithMetricsEnabled(false))
		m.RecordDonors(3)

		Convey("Then nothing is recorded", func() {
			So(testutil.ToFloat64(m.donorsSummarized), ShouldEqual, 0)
		})
	})
}

func TestGlobalHelpers(t *testing.T) {
	Convey("Given the global manager", t, func() {
		So(func() {
			RecordRun(OutcomeRejected)
			ObserveStage("parse", time.Millisecond)
			RecordRows("donations", 1, 0)
			RecordJoin(1, 0, 0)
			RecordDonors(1)
			RecordImputed(1)
			RecordUnresolvedPostalCodes(0)
			UpdateQueueSize(0)
			UpdateQueueCapacity(1)
			RecordQueueEnqueue()
			RecordQueueRejected()
			UpdateWorkerCount(1)
			AddWorkersBusy(0)
			UpdateStoredRuns(0)
			RecordHTTPRequest("/healthz", "GET", "200", time.Millisecond)
			RecordError("app", "test")
		}, ShouldNotPanic)

		Convey("Then the custom registry exposes them", func() {
			families, err := GetRegistry().Gather()
			So(err, ShouldBeNil)
			So(len(families), ShouldBeGreaterThan, 0)
		})
	})
}
