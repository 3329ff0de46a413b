package model

import (
	"os"

	"github.com/venicegeo/geojson-go/geojson"
)

// GeoJSONFeatureCreator is an interface for data that can convert itself to a GeoJSON feature
type GeoJSONFeatureCreator interface {
	GeoJSONFeature() (*geojson.Feature, error)
}

// GeoJSONFeatureCollectionCreator is an interface for data that can convert itself to a GeoJSON feature collection
type GeoJSONFeatureCollectionCreator interface {
	GeoJSONFeatureCollection() (*geojson.FeatureCollection, error)
}

// Features converts feature sources into GeoJSON features, preserving order
func Features(creators ...GeoJSONFeatureCreator) ([]*geojson.Feature, error) {
	features := make([]*geojson.Feature, 0, len(creators))
	for _, creator := range creators {
		feature, err := creator.GeoJSONFeature()
		if err != nil {
			return nil, err
		}
		features = append(features, feature)
	}
	return features, nil
}

// WriteGeoJSONFile serializes a feature collection source to a file
func WriteGeoJSONFile(creator GeoJSONFeatureCollectionCreator, path string) error {
	fc, err := creator.GeoJSONFeatureCollection()
	if err != nil {
		return err
	}
	return os.WriteFile(path, []byte(fc.String()), 0644)
}
