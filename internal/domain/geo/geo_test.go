package geo_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/okian/donorflow/internal/domain/geo"
	"github.com/okian/donorflow/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestDefaultTable(t *testing.T) {
	Convey("Given the embedded table", t, func() {
		tbl := geo.Default()

		Convey("Then well known codes resolve", func() {
			So(tbl.Len(), ShouldBeGreaterThan, 0)
			c, ok := tbl.Lookup("94110")
			So(ok, ShouldBeTrue)
			So(c.Lat, ShouldAlmostEqual, 37.7486)
		})

		Convey("Then codes that lost their leading zero still resolve", func() {
			_, ok := tbl.Lookup("2139")
			So(ok, ShouldBeTrue)
		})

		Convey("Then long codes are truncated before lookup", func() {
			_, ok := tbl.Lookup("94110-1234")
			So(ok, ShouldBeTrue)
		})
	})
}

func TestResolve(t *testing.T) {
	Convey("Given donors with known and unknown postal codes", t, func() {
		ds := model.NewDataset([]string{"Email", "Donor ZIP"}, []model.Record{
			model.RecordOf("Email", "a@x.org", "Donor ZIP", "94110"),
			model.RecordOf("Email", "b@x.org", "Donor ZIP", "99999"),
			model.RecordOf("Email", "c@x.org", "Donor ZIP", "99999"),
			model.RecordOf("Email", "d@x.org", "Donor ZIP", model.Unknown),
			model.RecordOf("Email", model.Unknown, "Donor ZIP", "10001"),
		})
		codes := geo.PostalCodes(ds, "Email", "Donor ZIP")
		So(len(codes), ShouldEqual, 3)

		Convey("When resolving against the embedded table", func() {
			points, unresolved := geo.Default().Resolve(codes)

			Convey("Then resolved donors get coordinates and misses are listed once", func() {
				So(points, ShouldContainKey, "a@x.org")
				So(len(points), ShouldEqual, 1)
				So(unresolved, ShouldResemble, []string{"99999"})
			})
		})
	})
}

func TestLoad(t *testing.T) {
	Convey("Given a table file on disk", t, func() {
		dir := t.TempDir()
		path := filepath.Join(dir, "zips.csv")
		So(os.WriteFile(path, []byte("ZIP,Lat,Lng\n12345,1.5,2.5\n54321,bad,0\n"), 0o600), ShouldBeNil)

		Convey("When it is loaded", func() {
			tbl, err := geo.Load(path)

			Convey("Then valid rows are indexed and bad rows skipped", func() {
				So(err, ShouldBeNil)
				So(tbl.Len(), ShouldEqual, 1)
				c, _ := tbl.Lookup("12345")
				So(c, ShouldResemble, geo.Coordinate{Lat: 1.5, Lng: 2.5})
			})
		})

		Convey("When the path is empty", func() {
			tbl, err := geo.Load("")
			So(err, ShouldBeNil)
			So(tbl.Len(), ShouldEqual, geo.Default().Len())
		})

		Convey("When a column is missing", func() {
			_, err := geo.Parse("zip,lat\n12345,1\n")
			So(errors.Is(err, geo.ErrMissingColumn), ShouldBeTrue)
		})

		Convey("When no row is usable", func() {
			_, err := geo.Parse("zip,lat,lng\n,1,2\n")
			So(errors.Is(err, geo.ErrEmptyTable), ShouldBeTrue)
		})

		Convey("When the file does not exist", func() {
			_, err := geo.Load(filepath.Join(dir, "missing.csv"))
			So(err, ShouldNotBeNil)
		})
	})
}
