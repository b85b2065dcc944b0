package models

import (
	"fmt"
	"strings"
)

// Category is the listing category the form offers.
type Category string

const (
	CategoryForRent Category = "for_rent"
	CategoryForSale Category = "for_sale"
)

// PropertyType is the coarse property type.
type PropertyType string

const (
	PropertyHouse     PropertyType = "house"
	PropertyApartment PropertyType = "apartment"
)

// SubType is the architectural sub-category of a property.
type SubType string

const (
	SubTypeBungalow           SubType = "bungalow"
	SubTypeTownhouse          SubType = "townhouse"
	SubTypeMansion            SubType = "mansion"
	SubTypeMaisonette         SubType = "maisonette"
	SubTypeVilla              SubType = "villa"
	SubTypeDetachedDuplex     SubType = "detached_duplex"
	SubTypeSemiDetachedDuplex SubType = "semi_detached_duplex"
	SubTypeFlatApartment      SubType = "flat_apartment"
	SubTypeStudioApartment    SubType = "studio_apartment"
	SubTypePenthouse          SubType = "penthouse"
	SubTypeBedsitter          SubType = "bedsitter"
	SubTypeBlockOfFlats       SubType = "block_of_flats"
	SubTypeMissing            SubType = "missing"
)

// Display labels are the categorical levels the classifier was fit with.
var (
	categoryLabels = map[Category]string{
		CategoryForRent: "For Rent",
		CategoryForSale: "For Sale",
	}

	propertyTypeLabels = map[PropertyType]string{
		PropertyHouse:     "House",
		PropertyApartment: "Apartment",
	}

	subTypeLabels = map[SubType]string{
		SubTypeBungalow:           "Bungalow",
		SubTypeTownhouse:          "Townhouse",
		SubTypeMansion:            "Mansion",
		SubTypeMaisonette:         "Maisonette",
		SubTypeVilla:              "Villa",
		SubTypeDetachedDuplex:     "Detached Duplex",
		SubTypeSemiDetachedDuplex: "Semi-Detached Duplex",
		SubTypeFlatApartment:      "Flat & Apartment",
		SubTypeStudioApartment:    "Studio Apartment",
		SubTypePenthouse:          "Penthouse",
		SubTypeBedsitter:          "Bedsitter (Single Room)",
		SubTypeBlockOfFlats:       "Block of Flats",
		SubTypeMissing:            "Missing",
	}

	// subTypeOrder is the order the form presents sub-types in.
	subTypeOrder = []SubType{
		SubTypeBungalow, SubTypeTownhouse, SubTypeMansion, SubTypeMaisonette,
		SubTypeVilla, SubTypeDetachedDuplex, SubTypeSemiDetachedDuplex,
		SubTypeFlatApartment, SubTypeStudioApartment, SubTypePenthouse,
		SubTypeBedsitter, SubTypeBlockOfFlats, SubTypeMissing,
	}
)

func (c Category) Label() string { return categoryLabels[c] }
func (p PropertyType) Label() string { return propertyTypeLabels[p] }
func (s SubType) Label() string { return subTypeLabels[s] }
func (c Category) Valid() bool { _, ok := categoryLabels[c]; return ok }
func (p PropertyType) Valid() bool { _, ok := propertyTypeLabels[p]; return ok }
func (s SubType) Valid() bool { _, ok := subTypeLabels[s]; return ok }

// Categories returns every category in form order.
func Categories() []Category { return []Category{CategoryForRent, CategoryForSale} }

// PropertyTypes returns every property type in form order.
func PropertyTypes() []PropertyType { return []PropertyType{PropertyHouse, PropertyApartment} }

// SubTypes returns every sub-type in form order.
func SubTypes() []SubType {
	out := make([]SubType, len(subTypeOrder))
	copy(out, subTypeOrder)
	return out
}

// ParseCategory accepts either the code ("for_rent") or the label ("For Rent").
func ParseCategory(s string) (Category, error) {
	for c, label := range categoryLabels {
		if matchesEnum(s, string(c), label) {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown category %q", s)
}

// ParsePropertyType accepts either the code or the display label.
func ParsePropertyType(s string) (PropertyType, error) {
	for p, label := range propertyTypeLabels {
		if matchesEnum(s, string(p), label) {
			return p, nil
		}
	}
	return "", fmt.Errorf("unknown property type %q", s)
}

// ParseSubType accepts either the code or the display label.
func ParseSubType(s string) (SubType, error) {
	for st, label := range subTypeLabels {
		if matchesEnum(s, string(st), label) {
			return st, nil
		}
	}
	return "", fmt.Errorf("unknown sub-type %q", s)
}

func matchesEnum(in, code, label string) bool {
	in = strings.TrimSpace(in)
	return strings.EqualFold(in, code) || strings.EqualFold(in, label)
}

// ListingInput is the record a caller submits for scoring.
type ListingInput struct {
	State        string       `json:"state"`
	Locality     string       `json:"locality"`
	Category     Category     `json:"category"`
	PropertyType PropertyType `json:"property_type"`
	SubType      SubType      `json:"sub_type"`
	Bedrooms     int          `json:"bedrooms"`
	Bathrooms    int          `json:"bathrooms"`
	Toilets      int          `json:"toilets"`
	Parking      int          `json:"parking"`
	Furnished    bool         `json:"furnished"`
	Serviced     bool         `json:"serviced"`
	Shared       bool         `json:"shared"`
	ListedPrice  float64      `json:"listed_price"`
}

// RawListingForm holds the form values exactly as the user typed them.
type RawListingForm struct {
	State        string `json:"state"`
	Locality     string `json:"locality"`
	Category     string `json:"category"`
	PropertyType string `json:"property_type"`
	SubType      string `json:"sub_type"`
	Bedrooms     int    `json:"bedrooms"`
	Bathrooms    int    `json:"bathrooms"`
	Toilets      int    `json:"toilets"`
	Parking      int    `json:"parking"`
	Furnished    bool   `json:"furnished"`
	Serviced     bool   `json:"serviced"`
	Shared       bool   `json:"shared"`
	ListedPrice  string `json:"listed_price"`
}
