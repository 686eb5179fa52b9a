package config_test

import (
	"errors"
	"runtime"
	"testing"

	"github.com/okian/donorflow/internal/config"
	"github.com/okian/donorflow/internal/domain/join"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New()

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
			convey.So(cfg.QueueSize, convey.ShouldEqual, 1_000)
			convey.So(cfg.WorkerCount, convey.ShouldEqual, runtime.NumCPU())
			convey.So(cfg.ResultStoreSize, convey.ShouldEqual, 500)
			convey.So(cfg.PreviewRows, convey.ShouldEqual, 10)
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})

		convey.Convey("Then it converts into pipeline settings", func() {
			mode, err := cfg.Mode()
			convey.So(err, convey.ShouldBeNil)
			convey.So(mode, convey.ShouldEqual, join.InnerFromLeft)

			dc := cfg.Donations()
			convey.So(dc.AmountField, convey.ShouldEqual, "Amount")
			convey.So(dc.NameFields, convey.ShouldResemble, []string{"First Name", "Last Name"})

			cc, err := cfg.Clean()
			convey.So(err, convey.ShouldBeNil)
			convey.So(len(cc.FieldTypes), convey.ShouldEqual, len(cfg.FieldTypes))
		})

		convey.Convey("When a required field is cleared", func() {
			cfg.AmountField = ""

			convey.Convey("Then validation fails", func() {
				convey.So(errors.Is(cfg.Validate(), config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		})
	})
}
