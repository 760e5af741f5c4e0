package api_test

import (
	"net/http"
	"strings"
	"testing"

	"github.com/okian/chordscan/internal/domain/model"
	"github.com/okian/chordscan/pkg/metrics"
	. "github.com/smartystreets/goconvey/convey"
)

// errorCount reads a counter from the metrics registry by name suffix and
// label values. Missing series read as zero.
func errorCount(suffix string, labels map[string]string) float64 {
	families, err := metrics.GetRegistry().Gather()
	So(err, ShouldBeNil)
	for _, f := range families {
		if !strings.HasSuffix(f.GetName(), suffix) {
			continue
		}
		for _, m := range f.GetMetric() {
			matched := 0
			for _, lp := range m.GetLabel() {
				if want, ok := labels[lp.GetName()]; ok && want == lp.GetValue() {
					matched++
				}
			}
			if matched == len(labels) {
				return m.GetCounter().GetValue()
			}
		}
	}
	return 0
}

func TestMetricsMiddlewareErrorLabels(t *testing.T) {
	Convey("Given an API server whose pipeline finds no chords", t, func() {
		f := newFixture(t)
		f.deps.scanErr = model.NewKind(model.KindNoChordRecognized, "No chord recognized")
		labels := map[string]string{"endpoint": "omr_scan", "method": http.MethodPost, "error_type": "no_chord_recognized"}
		before := errorCount("errors_by_endpoint_total", labels)

		Convey("When a scan fails", func() {
			w := f.post("/omr/scan", "page.png", "image/png", pngHead)
			So(w.Code, ShouldEqual, http.StatusUnprocessableEntity)

			Convey("Then the error is counted under its pipeline kind", func() {
				So(errorCount("errors_by_endpoint_total", labels), ShouldEqual, before+1)
				So(errorCount("errors_by_component_total",
					map[string]string{"component": "http", "error_type": "no_chord_recognized"}), ShouldBeGreaterThanOrEqualTo, 1)
			})
		})
	})

	Convey("Given an upload rejected before the pipeline", t, func() {
		f := newFixture(t)
		labels := map[string]string{"endpoint": "omr_scan", "method": http.MethodPost, "error_type": "bad_request"}
		before := errorCount("errors_by_endpoint_total", labels)

		Convey("Then the request error code labels the failure", func() {
			w := f.post("/omr/scan", "page.png", "image/png", nil)
			So(w.Code, ShouldEqual, http.StatusBadRequest)
			So(errorCount("errors_by_endpoint_total", labels), ShouldEqual, before+1)
		})
	})
}
