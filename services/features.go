package services

import (
	"math"

	"fairprice/models"
)

// DeriveFeatures computes the engineered features for one listing from its
// locality statistics and the model-wide means. density is the locality's
// listing-density weight.
func DeriveFeatures(in models.ListingInput, loc models.LocalityStatistics, global models.GlobalStatistics, density float64) (models.FeatureVector, error) {
	if math.IsNaN(loc.Median) || math.IsInf(loc.Median, 0) {
		return models.FeatureVector{}, &models.InvalidStatistics{Locality: loc.Locality, Reason: "median is not finite"}
	}
	if loc.Median < 0 {
		return models.FeatureVector{}, &models.InvalidStatistics{Locality: loc.Locality, Reason: "median is negative"}
	}

	fv := baseFeatures(in)
	if loc.Median != 0 {
		fv.PricePosition = (in.ListedPrice - loc.Median) / loc.Median
	}
	fv.BedroomDeviation = float64(in.Bedrooms) - global.BedroomMean
	fv.BathroomDeviation = float64(in.Bathrooms) - global.BathroomMean
	fv.LocationDensity = density
	return fv, nil
}

// placeholderFeatures fills only the features that need no statistics.
func placeholderFeatures(in models.ListingInput) models.FeatureVector {
	fv := baseFeatures(in)
	fv.LocationDensity = models.DefaultDensity
	return fv
}

func baseFeatures(in models.ListingInput) models.FeatureVector {
	return models.FeatureVector{
		Listing:          in,
		PricePerBedroom:  in.ListedPrice / (float64(in.Bedrooms) + 1),
		PricePerBathroom: in.ListedPrice / (float64(in.Bathrooms) + 1),
	}
}
