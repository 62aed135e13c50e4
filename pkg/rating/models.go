package rating

import (
	"math"
	"strings"
)

// CarrierID identifies a supported carrier.
type CarrierID string

const (
	CarrierCanadaPost CarrierID = "canadapost"
	CarrierUPS        CarrierID = "ups"
	CarrierFedEx      CarrierID = "fedex"
	CarrierPurolator  CarrierID = "purolator"
)

// ServiceBucket is a coarse service classification that collapses
// carrier-specific marketing names into a comparable vocabulary.
type ServiceBucket string

const (
	BucketGround   ServiceBucket = "ground"
	BucketAir      ServiceBucket = "air"
	BucketExpress  ServiceBucket = "express"
	BucketStandard ServiceBucket = "standard"
	BucketUnknown  ServiceBucket = "unknown"
)

// WeightUnit represents weight measurement unit.
type WeightUnit string

const (
	WeightKG WeightUnit = "kg"
	WeightLB WeightUnit = "lb"
)

const lbToKG = 0.45359237

// QuoteRequest describes the package to be rated. Callers must supply a
// destination postal code and country; currency is optional and carriers
// that cannot honor it report their native currency instead.
type QuoteRequest struct {
	Weight      float64
	WeightUnit  WeightUnit
	PostalCode  string
	CountryCode string
	Currency    string
}

// Normalized returns a copy of the request with weight converted to
// kilograms, the postal code cleaned, and the country code uppercased.
func (r QuoteRequest) Normalized() QuoteRequest {
	out := r
	if r.WeightUnit == WeightLB {
		out.Weight = r.Weight * lbToKG
	}
	out.WeightUnit = WeightKG
	out.PostalCode = NormalizePostalCode(r.PostalCode)
	out.CountryCode = strings.ToUpper(strings.TrimSpace(r.CountryCode))
	out.Currency = strings.ToUpper(strings.TrimSpace(r.Currency))
	return out
}

// Quote is the canonical, carrier-agnostic rate produced by an adapter.
// Cost is held in integer minor currency units so downstream comparison
// never accumulates floating-point error.
type Quote struct {
	Carrier        CarrierID
	Bucket         ServiceBucket
	CostCents      int64
	Currency       string
	TransitDaysMin int
	TransitDaysMax int
}

// Key returns the identity tuple used for deduplication. Carriers sometimes
// return the same priced offer under cosmetic service-name variants.
func (q Quote) Key() QuoteKey {
	return QuoteKey{
		Carrier:        q.Carrier,
		Bucket:         q.Bucket,
		CostCents:      q.CostCents,
		Currency:       q.Currency,
		TransitDaysMin: q.TransitDaysMin,
		TransitDaysMax: q.TransitDaysMax,
	}
}

// QuoteKey is the comparable identity of a Quote.
type QuoteKey struct {
	Carrier        CarrierID
	Bucket         ServiceBucket
	CostCents      int64
	Currency       string
	TransitDaysMin int
	TransitDaysMax int
}

// ToCents converts a major-unit decimal amount into integer minor units,
// rounding half away from zero at two decimal places. Half-cent amounts
// like 2.675 have no exact binary form and land just below the .5
// boundary, so the scaled value is nudged toward the boundary before
// rounding.
func ToCents(amount float64) int64 {
	cents := amount * 100
	return int64(math.Round(cents + math.Copysign(1e-9, cents)))
}

// NormalizePostalCode uppercases a postal code and strips interior spaces.
func NormalizePostalCode(pc string) string {
	return strings.ReplaceAll(strings.ToUpper(strings.TrimSpace(pc)), " ", "")
}

// ClassifyServiceName maps a carrier's free-text service name onto a bucket
// using substring heuristics. It is the fallback stage for service codes
// absent from an adapter's static code table, so unseen codes degrade to
// Unknown instead of failing the quote.
func ClassifyServiceName(name string) ServiceBucket {
	n := strings.ToLower(name)
	switch {
	case strings.Contains(n, "ground"):
		return BucketGround
	case strings.Contains(n, "express"), strings.Contains(n, "xpress"), strings.Contains(n, "priority"):
		return BucketExpress
	case strings.Contains(n, "air"), strings.Contains(n, "overnight"):
		return BucketAir
	case strings.Contains(n, "standard"), strings.Contains(n, "regular"), strings.Contains(n, "economy"):
		return BucketStandard
	default:
		return BucketUnknown
	}
}
