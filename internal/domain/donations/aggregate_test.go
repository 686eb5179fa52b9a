package donations_test

import (
	"errors"
	"testing"
	"time"

	"github.com/okian/donorflow/internal/domain/clean"
	"github.com/okian/donorflow/internal/domain/csvparse"
	"github.com/okian/donorflow/internal/domain/donations"
	"github.com/okian/donorflow/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func cleaned(text string) model.Dataset {
	ds, _ := csvparse.Parse(text)
	out, _ := clean.Clean(ds, clean.DefaultConfig())
	return out
}

const joinedText = `VANID,Email,First Name,Last Name,Date Created
1,ada@example.org,Ada,Lovelace,2024-01-01
2,bob@example.org,Bob,,2024-01-10
3,carol@example.org,,,2024-02-01
1,ada@example.org,Ada,Duplicate,2023-01-01
4,,Nobody,,2024-01-01
`

const donationText = `Donor Email,Amount,Date
ada@example.org,10,2024-01-03
ada@example.org,15,2024-01-02
bob@example.org,0.10,2024-01-05
bob@example.org,0.20,2024-01-20
dave@example.org,99,2024-01-01
`

func TestAggregate(t *testing.T) {
	Convey("Given joined donors and a donation export", t, func() {
		joined := cleaned(joinedText)
		gifts := cleaned(donationText)
		cfg := donations.DefaultConfig()

		Convey("When aggregating", func() {
			res, err := donations.Aggregate(joined, gifts, "Donor Email", cfg)
			So(err, ShouldBeNil)

			Convey("Then donors with matches are summarized in first-seen order", func() {
				So(len(res.Summaries), ShouldEqual, 2)
				So(res.Summaries[0].Identifier, ShouldEqual, "ada@example.org")
				So(res.Summaries[1].Identifier, ShouldEqual, "bob@example.org")
			})

			Convey("Then totals and counts add up per donor", func() {
				ada := res.Summaries[0]
				So(ada.TotalDonated, ShouldEqual, 25)
				So(ada.TimesDonated, ShouldEqual, 2)
				So(ada.Name, ShouldEqual, "ada lovelace")
				So(res.Summaries[1].TotalDonated, ShouldEqual, 0.3)
			})

			Convey("Then the first donation date is the earliest match", func() {
				ada := res.Summaries[0]
				So(ada.FirstDonation, ShouldEqual, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC))
				So(ada.DaysKnown, ShouldBeTrue)
				So(ada.DaysToFirstDonation, ShouldEqual, 1)
				So(res.Summaries[1].DaysToFirstDonation, ShouldEqual, -5)
			})

			Convey("Then the first record of a repeated donor wins", func() {
				So(res.Diagnostics.DuplicateDonors, ShouldEqual, 1)
				So(res.Diagnostics.DistinctDonors, ShouldEqual, 3)
				So(res.Summaries[0].Name, ShouldNotContainSubstring, "duplicate")
			})

			Convey("Then unmatched and anonymous donors are excluded", func() {
				So(res.Diagnostics.DonorsWithoutMatch, ShouldEqual, 1)
				So(res.Diagnostics.MissingIdentifiers, ShouldEqual, 1)
			})

			Convey("Then statistics are computed over summaries", func() {
				So(res.Stats.Donors, ShouldEqual, 2)
				So(res.Stats.TotalAmount, ShouldEqual, 25.3)
				So(res.Stats.TotalCount, ShouldEqual, 4)
				So(res.Stats.Average, ShouldEqual, 12.65)
				So(res.Stats.MedianAmount, ShouldAlmostEqual, 12.65)
				So(res.Stats.MedianDays, ShouldEqual, -2)
			})
		})

		Convey("When a donor has no creation date", func() {
			j := model.NewDataset([]string{"Email"}, []model.Record{model.RecordOf("Email", "ada@example.org")})
			res, err := donations.Aggregate(j, gifts, "Donor Email", cfg)

			Convey("Then the summary exists but its day count is unknown", func() {
				So(err, ShouldBeNil)
				So(res.Summaries[0].DaysKnown, ShouldBeFalse)
				So(res.Stats.MedianDays, ShouldEqual, 0)
			})
		})

		Convey("When an amount cannot be parsed", func() {
			g := model.NewDataset([]string{"Donor Email", "Amount", "Date"}, []model.Record{
				model.RecordOf("Donor Email", "ada@example.org", "Amount", "n/a", "Date", "2024-01-02"),
				model.RecordOf("Donor Email", "ada@example.org", "Amount", "$5", "Date", "bad"),
			})
			res, err := donations.Aggregate(joined, g, "Donor Email", cfg)

			Convey("Then it still counts as a donation worth nothing", func() {
				So(err, ShouldBeNil)
				So(res.Summaries[0].TimesDonated, ShouldEqual, 2)
				So(res.Summaries[0].TotalDonated, ShouldEqual, 5)
				So(res.Diagnostics.InvalidAmounts, ShouldEqual, 1)
				So(res.Diagnostics.UndatedDonations, ShouldEqual, 1)
			})
		})

		Convey("When there are no donations", func() {
			res, err := donations.Aggregate(joined, model.Dataset{}, "Donor Email", cfg)

			Convey("Then nothing is summarized and nothing divides by zero", func() {
				So(err, ShouldBeNil)
				So(res.Summaries, ShouldBeEmpty)
				So(res.Stats, ShouldResemble, donations.Stats{})
			})
		})

		Convey("When the identifier field is not configured", func() {
			c := cfg
			c.IdentifierField = ""
			j := model.NewDataset(nil, []model.Record{model.RecordOf("Donor Email", "bob@example.org")})
			res, err := donations.Aggregate(j, gifts, "Donor Email", c)

			Convey("Then the match field is used on both sides", func() {
				So(err, ShouldBeNil)
				So(res.Summaries[0].Identifier, ShouldEqual, "bob@example.org")
				So(res.Summaries[0].Name, ShouldEqual, "bob@example.org")
			})
		})

		Convey("When required field configuration is missing", func() {
			c := cfg
			c.AmountField = ""
			_, err1 := donations.Aggregate(joined, gifts, "Donor Email", c)
			_, err2 := donations.Aggregate(joined, gifts, "", cfg)

			Convey("Then an invalid input error is returned", func() {
				So(errors.Is(err1, donations.ErrInvalidInput), ShouldBeTrue)
				So(err1.Error(), ShouldContainSubstring, "amount field")
				So(errors.Is(err2, donations.ErrInvalidInput), ShouldBeTrue)
			})
		})
	})
}

func TestMedian(t *testing.T) {
	Convey("Given numeric slices", t, func() {
		So(donations.Median([]float64{10, 20, 30, 40}), ShouldEqual, 25)
		So(donations.Median([]float64{10, 20, 30}), ShouldEqual, 20)
		So(donations.Median([]float64{40, 10, 30, 20}), ShouldEqual, 25)
		So(donations.Median(nil), ShouldEqual, 0)

		Convey("Then the input order is preserved", func() {
			in := []float64{3, 1, 2}
			donations.Median(in)
			So(in, ShouldResemble, []float64{3, 1, 2})
		})
	})
}

func TestDaysBetween(t *testing.T) {
	Convey("Given timestamps on UTC calendar days", t, func() {
		a := time.Date(2024, 1, 1, 23, 0, 0, 0, time.UTC)
		b := time.Date(2024, 1, 2, 1, 0, 0, 0, time.UTC)
		So(donations.DaysBetween(a, b), ShouldEqual, 1)
		So(donations.DaysBetween(b, a), ShouldEqual, -1)
		So(donations.DaysBetween(a, a), ShouldEqual, 0)
	})
}
