package services

import "fairprice/models"

// Adapt shapes a feature vector into the row the predictor was fit with.
// Placeholder columns and the raw count duplicates live only here.
func Adapt(fv models.FeatureVector) models.SchemaRow {
	in := fv.Listing
	return models.SchemaRow{
		ID:             models.PlaceholderID,
		PriceQualifier: models.PlaceholderQualifier,
		Bedrooms:       in.Bedrooms,
		Bathrooms:      in.Bathrooms,
		Toilets:        in.Toilets,
		Furnished:      boolToInt(in.Furnished),
		Serviced:       boolToInt(in.Serviced),
		Shared:         boolToInt(in.Shared),
		Parking:        in.Parking,
		Category:       in.Category.Label(),
		Type:           in.PropertyType.Label(),
		SubType:        in.SubType.Label(),
		State:          in.State,
		SubLocality:    models.PlaceholderSubLoc,
		ListDate:       models.PlaceholderListDate,
		BedroomsRaw:    in.Bedrooms,
		BathroomsRaw:   in.Bathrooms,
		ParkingRaw:     in.Parking,

		PricePosition:     fv.PricePosition,
		PricePerBedroom:   fv.PricePerBedroom,
		PricePerBathroom:  fv.PricePerBathroom,
		BedroomDeviation:  fv.BedroomDeviation,
		BathroomDeviation: fv.BathroomDeviation,
		LocationDensity:   fv.LocationDensity,
	}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
