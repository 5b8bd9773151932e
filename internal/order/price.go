package order

import (
	"log"
	"math"
	"strings"
	"time"
)

// LogoChargePerItem is the per-item surcharge applied once per design
// that carries a logo charge.
const LogoChargePerItem = 1.50

// freeShippingLeadDays is the standard production lead time. Orders
// requested at or beyond today+17d ship at no surcharge.
const freeShippingLeadDays = 17

// referenceTZ pins "today" for shipping-tier math to the shop's
// timezone regardless of where the server runs.
var referenceTZ = loadReferenceTZ()

func loadReferenceTZ() *time.Location {
	loc, err := time.LoadLocation("America/Chicago")
	if err != nil {
		log.Printf("pricing: failed to load reference timezone, using fixed CST offset: %v", err)
		return time.FixedZone("CST", -6*60*60)
	}
	return loc
}

// RepairLogoCount re-derives logo_count from the design list and
// corrects the record when it has drifted. Returns the true count.
func RepairLogoCount(r *Record) int {
	count := 0
	for _, d := range r.Designs {
		if d.HasLogo {
			count++
		}
	}
	if r.LogoCount != count {
		log.Printf("order %s: logo_count %d out of sync with designs (%d), repairing",
			r.SessionID, r.LogoCount, count)
		r.LogoCount = count
	}
	return count
}

// ComputeTotal re-derives total_price and express_shipping_charge from
// quantity, per-item price, logo count and the express tier.
func ComputeTotal(r *Record) {
	RepairLogoCount(r)
	basePrice := float64(r.TotalQuantity) * r.PricePerItem
	logoCharges := float64(r.TotalQuantity*r.LogoCount) * LogoChargePerItem
	subtotal := basePrice + logoCharges
	var express float64
	if r.ExpressShippingPercentage > 0 {
		express = subtotal * float64(r.ExpressShippingPercentage) / 100
	}
	r.ExpressShippingCharge = round2(express)
	r.TotalPrice = round2(subtotal + express)
}

// ComputeExpressShippingPercentage maps a requested delivery date onto
// a surcharge tier. Dates at or past the free-shipping date cost
// nothing extra; dates more than 6 days earlier are infeasible and are
// treated as standard shipping with a logged warning.
func ComputeExpressShippingPercentage(receivedByDate string, now time.Time) int {
	if strings.TrimSpace(receivedByDate) == "" {
		return 0
	}
	requested, err := parseReceivedByDate(receivedByDate)
	if err != nil {
		log.Printf("pricing: unparseable received-by date %q, using standard shipping: %v", receivedByDate, err)
		return 0
	}

	local := now.In(referenceTZ)
	today := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, referenceTZ)
	freeShippingDate := today.AddDate(0, 0, freeShippingLeadDays)

	if !requested.Before(freeShippingDate) {
		return 0
	}
	daysBeforeFree := int(math.Round(freeShippingDate.Sub(requested).Hours() / 24))
	switch {
	case daysBeforeFree <= 0:
		return 0
	case daysBeforeFree <= 2:
		return 10
	case daysBeforeFree <= 4:
		return 20
	case daysBeforeFree <= 6:
		return 30
	default:
		log.Printf("pricing: requested date %s is %d days before the earliest express window, treating as standard shipping",
			receivedByDate, daysBeforeFree)
		return 0
	}
}

var receivedByFormats = []string{
	"2006-01-02",
	"01/02/2006",
	"1/2/2006",
	"01-02-2006",
	"January 2, 2006",
	"Jan 2, 2006",
}

func parseReceivedByDate(raw string) (time.Time, error) {
	cleaned := strings.TrimSpace(raw)
	var lastErr error
	for _, layout := range receivedByFormats {
		parsed, err := time.ParseInLocation(layout, cleaned, referenceTZ)
		if err == nil {
			return time.Date(parsed.Year(), parsed.Month(), parsed.Day(), 0, 0, 0, 0, referenceTZ), nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
