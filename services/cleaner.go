package services

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"fairprice/models"
	"fairprice/utils"
)

// Form policy bounds. The engine itself only needs non-negative counts and
// a positive price.
const (
	MaxRoomCount   = 10
	MinListedPrice = 1_000
	MaxListedPrice = 500_000_000
)

var (
	// priceRegexp captures numeric price values
	priceRegexp = regexp.MustCompile(`\d[\d,]*(?:\.\d+)?`)
	// millionsRegexp matches "1.2m" or "3 million" shorthands
	millionsRegexp = regexp.MustCompile(`^\s*(\d+(?:\.\d+)?)\s*(m|mn|million)\s*$`)
)

// Cleaner turns raw form values into a validated ListingInput.
type Cleaner struct {
	logger *utils.Logger
}

// NewCleaner creates a Cleaner with the given logger.
func NewCleaner(logger *utils.Logger) *Cleaner {
	return &Cleaner{logger: logger}
}

// ParseListing normalises whitespace, maps codes or display labels to enum
// values and parses the price. Any violation is an *models.InvalidListing.
func (c *Cleaner) ParseListing(raw models.RawListingForm) (models.ListingInput, error) {
	in := models.ListingInput{
		State:     normaliseText(raw.State),
		Locality:  normaliseText(raw.Locality),
		Bedrooms:  raw.Bedrooms,
		Bathrooms: raw.Bathrooms,
		Toilets:   raw.Toilets,
		Parking:   raw.Parking,
		Furnished: raw.Furnished,
		Serviced:  raw.Serviced,
		Shared:    raw.Shared,
	}

	if in.State == "" {
		return models.ListingInput{}, &models.InvalidListing{Field: "state", Reason: "required"}
	}
	if in.Locality == "" {
		return models.ListingInput{}, &models.InvalidListing{Field: "locality", Reason: "required"}
	}

	var err error
	if in.Category, err = models.ParseCategory(raw.Category); err != nil {
		return models.ListingInput{}, &models.InvalidListing{Field: "category", Reason: err.Error()}
	}
	if in.PropertyType, err = models.ParsePropertyType(raw.PropertyType); err != nil {
		return models.ListingInput{}, &models.InvalidListing{Field: "property_type", Reason: err.Error()}
	}
	subType := raw.SubType
	if strings.TrimSpace(subType) == "" {
		subType = string(models.SubTypeMissing)
	}
	if in.SubType, err = models.ParseSubType(subType); err != nil {
		return models.ListingInput{}, &models.InvalidListing{Field: "sub_type", Reason: err.Error()}
	}

	counts := []struct {
		field string
		n     int
	}{
		{"bedrooms", in.Bedrooms},
		{"bathrooms", in.Bathrooms},
		{"toilets", in.Toilets},
		{"parking", in.Parking},
	}
	for _, ct := range counts {
		if ct.n < 0 || ct.n > MaxRoomCount {
			return models.ListingInput{}, &models.InvalidListing{
				Field:  ct.field,
				Reason: fmt.Sprintf("%d outside 0-%d", ct.n, MaxRoomCount),
			}
		}
	}

	price, ok := c.parsePrice(raw.ListedPrice)
	if !ok {
		return models.ListingInput{}, &models.InvalidListing{Field: "listed_price", Reason: fmt.Sprintf("cannot parse %q", raw.ListedPrice)}
	}
	if price < MinListedPrice || price > MaxListedPrice {
		return models.ListingInput{}, &models.InvalidListing{
			Field:  "listed_price",
			Reason: fmt.Sprintf("%.0f outside %d-%d", price, MinListedPrice, MaxListedPrice),
		}
	}
	in.ListedPrice = price

	c.logger.Debug("[cleaner] Parsed listing %s/%s at %.2f", in.State, in.Locality, in.ListedPrice)
	return in, nil
}

// parsePrice extracts a price from free text.
// Examples:
//
//	"KES 50,000"      → 50000
//	"Ksh 1,250,000.50" → 1250000.5
//	"2.5m"            → 2500000
func (c *Cleaner) parsePrice(raw string) (float64, bool) {
	raw = strings.ToLower(strings.TrimSpace(raw))
	first := strings.IndexFunc(raw, unicode.IsDigit)
	if first < 0 || strings.Contains(raw[:first], "-") {
		return 0, false
	}

	if m := millionsRegexp.FindStringSubmatch(raw); len(m) == 3 {
		v, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			return 0, false
		}
		c.logger.Debug("[cleaner] Millions shorthand %q = %.0f", raw, v*1e6)
		return v * 1e6, true
	}

	match := priceRegexp.FindString(raw)
	if match == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(match, ",", ""), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// normaliseText strips leading/trailing whitespace and collapses internal whitespace.
func normaliseText(s string) string {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return unicode.IsSpace(r)
	})
	return strings.Join(fields, " ")
}
