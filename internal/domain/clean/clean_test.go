package clean_test

import (
	"errors"
	"testing"

	"github.com/okian/donorflow/internal/domain/clean"
	"github.com/okian/donorflow/internal/domain/csvparse"
	"github.com/okian/donorflow/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

const contacts = `VANID,Email,Amount,Date Created,Donor ZIP,Notes
1, Ada@Example.ORG ,10,2024-01-05,123456789,  Big Supporter
2,b ob@example.org,,2024-01-07,02139,
3,,$1,000.50,not a date,unknown-zip,x
4,carol@example.org,abc,,94110-1234,Y
`

func TestClean(t *testing.T) {
	Convey("Given a parsed contact export", t, func() {
		_, diag := csvparse.Parse(contacts)
		So(diag.Dropped, ShouldEqual, 1) // "$1,000.50" splits into two tokens

		cfg := clean.DefaultConfig()

		Convey("When cleaning a well formed dataset", func() {
			in, _ := csvparse.Parse("VANID,Email,Amount,Date Created,Donor ZIP,Notes\n" +
				"1, Ada@Example.ORG ,10,2024-01-05,123456789,  Big Supporter\n" +
				"2,b ob@example.org,,2024-01-07,02139,\n" +
				"3,,\"$1,000.50\",not a date,unknown-zip,x\n" +
				"4,carol@example.org,abc,,94110-1234,Y\n")
			out, rep := clean.Clean(in, cfg)

			Convey("Then numeric gaps receive the mean of parsed values", func() {
				So(rep.Means["Amount"], ShouldAlmostEqual, (10+1000.50)/2)
				v, _ := out.At(1).Get("Amount")
				f, ok := v.Float()
				So(ok, ShouldBeTrue)
				So(f, ShouldAlmostEqual, 505.25)
				So(rep.Imputed["Amount"], ShouldEqual, 2)
				So(rep.InvalidNumbers, ShouldEqual, 1)
			})

			Convey("Then other gaps receive the unknown sentinel", func() {
				So(out.At(2).StringMap()["Email"], ShouldEqual, model.Unknown)
				So(out.At(1).StringMap()["Notes"], ShouldEqual, model.Unknown)
				So(out.At(3).StringMap()["Date Created"], ShouldEqual, model.Unknown)
			})

			Convey("Then strings are trimmed and lowercased", func() {
				So(out.At(0).StringMap()["Notes"], ShouldEqual, "big supporter")
				So(out.At(3).StringMap()["Notes"], ShouldEqual, "y")
			})

			Convey("Then identifiers lose all whitespace", func() {
				So(out.At(0).StringMap()["Email"], ShouldEqual, "ada@example.org")
				So(out.At(1).StringMap()["Email"], ShouldEqual, "bob@example.org")
			})

			Convey("Then dates become date values and bad dates are reported", func() {
				v, _ := out.At(0).Get("Date Created")
				So(v.Kind(), ShouldEqual, model.KindDate)
				So(v.String(), ShouldEqual, "2024-01-05")
				So(out.At(2).StringMap()["Date Created"], ShouldEqual, "not a date")
				So(rep.InvalidDates, ShouldEqual, 1)
			})

			Convey("Then postal codes keep their first five characters", func() {
				So(out.At(0).StringMap()["Donor ZIP"], ShouldEqual, "12345")
				So(out.At(1).StringMap()["Donor ZIP"], ShouldEqual, "02139")
				So(out.At(3).StringMap()["Donor ZIP"], ShouldEqual, "94110")
			})

			Convey("Then fields without hints are reported, not dropped", func() {
				So(rep.Unhinted, ShouldResemble, []string{"VANID", "Notes"})
				So(out.Fields(), ShouldResemble, in.Fields())
			})

			Convey("Then the input dataset is left untouched", func() {
				So(in.At(0).StringMap()["Email"], ShouldEqual, "Ada@Example.ORG")
			})

			Convey("And cleaning the output again changes nothing", func() {
				again, _ := clean.Clean(out, cfg)
				So(again.Equal(out), ShouldBeTrue)
			})
		})

		Convey("When records have different shapes", func() {
			in := model.NewDataset([]string{"VANID"}, []model.Record{
				model.RecordOf("VANID", "1", "Amount", "4"),
				model.RecordOf("VANID", "2"),
			})
			out, _ := clean.Clean(in, cfg)

			Convey("Then every record carries every field", func() {
				So(out.Fields(), ShouldResemble, []string{"VANID", "Amount"})
				So(out.At(1).StringMap(), ShouldResemble, map[string]string{"VANID": "2", "Amount": "4"})
			})
		})

		Convey("When a numeric column has no values at all", func() {
			in := model.NewDataset([]string{"Amount"}, []model.Record{model.RecordOf("Amount", "")})
			out, _ := clean.Clean(in, cfg)

			Convey("Then the mean falls back to zero", func() {
				So(out.At(0).StringMap()["Amount"], ShouldEqual, "0")
			})
		})

		Convey("When the date format uses pattern notation", func() {
			in := model.NewDataset([]string{"Date"}, []model.Record{model.RecordOf("Date", "03/15/2024")})
			out, rep := clean.Clean(in, clean.Config{
				FieldTypes:      map[string]clean.FieldType{"Date": clean.TypeDate},
				DateInputFormat: "MM/dd/yyyy",
			})

			Convey("Then dates are rewritten to the canonical layout", func() {
				So(rep.InvalidDates, ShouldEqual, 0)
				So(out.At(0).StringMap()["Date"], ShouldEqual, "2024-03-15")
			})
		})

		Convey("When the date pattern uses single letter tokens", func() {
			in := model.NewDataset([]string{"Date"}, []model.Record{
				model.RecordOf("Date", "3/5/2024"),
				model.RecordOf("Date", "12/25/2023"),
			})
			out, rep := clean.Clean(in, clean.Config{
				FieldTypes:      map[string]clean.FieldType{"Date": clean.TypeDate},
				DateInputFormat: "M/d/yyyy",
			})

			Convey("Then unpadded dates parse", func() {
				So(rep.InvalidDates, ShouldEqual, 0)
				So(out.At(0).StringMap()["Date"], ShouldEqual, "2024-03-05")
				So(out.At(1).StringMap()["Date"], ShouldEqual, "2023-12-25")
			})
		})

		Convey("When the dataset is empty", func() {
			out, rep := clean.Clean(model.Dataset{}, cfg)

			Convey("Then the result is empty as well", func() {
				So(out.IsEmpty(), ShouldBeTrue)
				So(rep.InvalidNumbers, ShouldEqual, 0)
			})
		})
	})
}

func TestParseFieldType(t *testing.T) {
	Convey("Given configuration strings", t, func() {
		for in, want := range map[string]clean.FieldType{
			"numeric":     clean.TypeNumeric,
			"Number":      clean.TypeNumeric,
			"postalCode":  clean.TypePostalCode,
			"postal_code": clean.TypePostalCode,
			"identifier":  clean.TypeIdentifier,
			"date":        clean.TypeDate,
			"":            clean.TypeString,
		} {
			got, err := clean.ParseFieldType(in)
			So(err, ShouldBeNil)
			So(got, ShouldEqual, want)
		}

		_, err := clean.ParseFieldType("currency")
		So(errors.Is(err, clean.ErrUnknownFieldType), ShouldBeTrue)
	})
}

func TestParseNumber(t *testing.T) {
	Convey("Given amount strings", t, func() {
		cases := map[string]float64{"12.5": 12.5, "$1,200": 1200, "-$3": -3, " 7 ": 7}
		for in, want := range cases {
			got, ok := clean.ParseNumber(in)
			So(ok, ShouldBeTrue)
			So(got, ShouldEqual, want)
		}
		for _, in := range []string{"", "abc", "$", "NaN", "Inf"} {
			_, ok := clean.ParseNumber(in)
			So(ok, ShouldBeFalse)
		}
	})
}

func TestLayout(t *testing.T) {
	Convey("Given date formats in pattern and Go notation", t, func() {
		for in, want := range map[string]string{
			"":                    model.DateLayout,
			"yyyy-MM-dd":          "2006-01-02",
			"M/d/yyyy":            "1/2/2006",
			"d.M.yy":              "2.1.06",
			"yyyy-MM-dd HH:mm:ss": "2006-01-02 15:04:05",
			"H:mm M/d/yyyy":       "15:04 1/2/2006",
			"01/02/2006":          "01/02/2006",
		} {
			So(clean.Layout(in), ShouldEqual, want)
		}
	})
}
