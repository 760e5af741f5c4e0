package metrics

import (
	"strings"
	"testing"

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
				WithSubsystem("omr"),
				WithHistogramBuckets([]float64{1, 10, 100}),
				WithConstLabels(map[string]string{"env": "test"}),
				WithPrometheusRegistry(registry),
			)

			Convey("Then collectors are registered under the namespace", func() {
				So(manager, ShouldNotBeNil)
				manager.engineTimeouts.Inc()
				families, err := registry.Gather()
				So(err, ShouldBeNil)
				found := false
				for _, f := range families {
					if f.GetName() == "test_omr_engine_timeouts_total" {
						found = true
						So(f.GetMetric()[0].GetLabel()[0].GetValue(), ShouldEqual, "test")
					}
				}
				So(found, ShouldBeTrue)
			})
		})

		Convey("When the same registry is reused", func() {
			registry := prometheus.NewRegistry()
			NewManager(WithPrometheusRegistry(registry))

			Convey("Then registering twice panics", func() {
				So(func() { NewManager(WithPrometheusRegistry(registry)) }, ShouldPanic)
			})
		})
	})
}

func TestMetricsRecording(t *testing.T) {
	Convey("Given the global manager", t, func() {
		Convey("When recording pipeline metrics", func() {
			before := testutil.ToFloat64(globalManager.scans.WithLabelValues("success"))
			RecordScan("success")
			RecordEngineRun("success", 1200)
			RecordEngineTimeout()
			RecordMeasuresExtracted(3)
			RecordChordsRecognized(2)
			RecordLanguageGate("tgl", true)
			RecordLeadSheet()
			RecordUploadBytes("score", 2048)

			Convey("Then counters move", func() {
				So(testutil.ToFloat64(globalManager.scans.WithLabelValues("success")), ShouldEqual, before+1)
				So(testutil.ToFloat64(globalManager.languageGate.WithLabelValues("tgl", "true")), ShouldBeGreaterThanOrEqualTo, 1)
			})
		})

		Convey("When recording queue, worker, HTTP and system metrics", func() {
			So(func() {
				UpdateQueueCapacity(10)
				UpdateQueueSize(5, 10)
				UpdateQueueSize(0, 0)
				RecordQueueEnqueue()
				RecordQueueDequeue()
				RecordQueueEnqueueError()
				RecordQueueWait(3)
				UpdateWorkerCount(4)
				AddWorkerBusy(1)
				AddWorkerBusy(-1)
				RecordWorkerProcessingLatency(10)
				RecordWorkerError()
				RecordHTTPRequest("scan", "POST", "200")
				RecordHTTPRequestDuration("scan", "POST", "200", 12)
				RecordErrorByComponent("omr", "timeout")
				RecordErrorByType("server_error", "high")
				RecordErrorByEndpoint("scan", "POST", "server_error")
				RecordErrorLatency("http", "server_error", 5)
				UpdateSystemMemoryUsage(1024)
				UpdateSystemGoroutineCount(8)
				RecordSystemGCPauseTime(0.3)
			}, ShouldNotPanic)

			So(testutil.ToFloat64(globalManager.queueUtilization), ShouldEqual, 0.5)
		})

		Convey("Then the custom registry exposes chordscan metrics", func() {
			RecordLeadSheet()
			families, err := GetRegistry().Gather()
			So(err, ShouldBeNil)
			names := make([]string, 0, len(families))
			for _, f := range families {
				names = append(names, f.GetName())
			}
			So(strings.Join(names, ","), ShouldContainSubstring, "chordscan_pipeline_lead_sheets_total")
		})
	})
}
