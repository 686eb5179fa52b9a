package loadtest

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/okian/donorflow/internal/app"
)

const (
	amountStep    = 5
	maxGifts      = 3
	silentEvery   = 4
	codeEvery     = 2
	costDivisor   = 2
	contactHeader = "VANID,First Name,Last Name,Email,Date Created,Donor ZIP\n"
	codeHeader    = "VANID,Activist Code\n"
	giftHeader    = "Donor Email,Amount,Date\n"
)

var zips = []string{"94110", "10001", "60601", "02139", "00000"}

var created = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// Fixture is one generated run and the result it must produce.
type Fixture struct {
	Request app.Request
	Donors  int
	Total   float64
}

// Generate builds a run over donors contacts. Every fourth contact never
// gives; the others give one to three times, so the expected donor count and
// total are known up front. The acquisition cost is half the total, which
// guarantees a breakeven.
func Generate(donors int) Fixture {
	var contacts, codes, gifts strings.Builder
	contacts.WriteString(contactHeader)
	codes.WriteString(codeHeader)
	gifts.WriteString(giftHeader)

	var fx Fixture
	for i := range donors {
		email := uuid.NewString() + "@example.org"
		fmt.Fprintf(&contacts, "%d,Donor,%d,%s,%s,%s\n", i+1, i, email, created.Format(time.DateOnly), zips[i%len(zips)])
		if i%codeEvery == 0 {
			fmt.Fprintf(&codes, "%d,Volunteer\n", i+1)
		}
		if i%silentEvery == silentEvery-1 {
			continue
		}
		fx.Donors++
		for j := range 1 + i%maxGifts {
			amount := amountStep * (j + 1)
			fx.Total += float64(amount)
			fmt.Fprintf(&gifts, "%s,%d,%s\n", email, amount, created.AddDate(0, 0, j+i%7).Format(time.DateOnly))
		}
	}

	fx.Request = app.Request{
		Contacts:        contacts.String(),
		ActivistCodes:   codes.String(),
		Donations:       gifts.String(),
		AcquisitionCost: max(fx.Total/costDivisor, 1),
	}
	return fx
}
