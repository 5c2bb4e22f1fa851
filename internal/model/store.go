// Package model defines the store and competitor records shared by the
// loader, pipeline and renderers.
package model

import (
	"fmt"
	"strconv"
)

// Store is a retail location of the analysed brand.
type Store struct {
	Name            string  `json:"store_name" yaml:"store_name"`
	City            string  `json:"city" yaml:"city"`
	Address         string  `json:"address" yaml:"address"`
	PostalCode      string  `json:"zip,omitempty" yaml:"zip,omitempty"`
	Longitude       float64 `json:"longitude" yaml:"longitude"`
	Latitude        float64 `json:"latitude" yaml:"latitude"`
	AverageIncome   float64 `json:"average_income" yaml:"average_income"`
	PotentialMarket float64 `json:"potential_market" yaml:"potential_market"`
	Row             int     `json:"-" yaml:"-"`
}

// Competitor is a competing location near the analysed stores.
type Competitor struct {
	Name       string  `json:"competitor_name" yaml:"competitor_name"`
	Address    string  `json:"address" yaml:"address"`
	PostalCode string  `json:"zip,omitempty" yaml:"zip,omitempty"`
	Longitude  float64 `json:"longitude" yaml:"longitude"`
	Latitude   float64 `json:"latitude" yaml:"latitude"`
	Row        int     `json:"-" yaml:"-"`
}

// RadiusCount is the number of competitors within RadiusMiles of a store.
type RadiusCount struct {
	RadiusMiles float64 `json:"radius_miles" yaml:"radius_miles"`
	Count       int     `json:"count" yaml:"count"`
}

// Label renders the radius as used in column and hover labels, e.g. "5".
func (rc RadiusCount) Label() string {
	return FormatRadius(rc.RadiusMiles)
}

// FormatRadius prints a radius without trailing zeros.
func FormatRadius(miles float64) string {
	return strconv.FormatFloat(miles, 'f', -1, 64)
}

// ColumnName is the result column for a radius, e.g. "competitors_within_5".
func ColumnName(miles float64) string {
	return fmt.Sprintf("competitors_within_%s", FormatRadius(miles))
}

// StoreResult is a store annotated with its competitor counts. DisplayLon
// and DisplayLat come from inverse-projecting the computed position.
type StoreResult struct {
	Store      Store         `json:"store" yaml:"store"`
	DisplayLon float64       `json:"display_lon" yaml:"display_lon"`
	DisplayLat float64       `json:"display_lat" yaml:"display_lat"`
	Counts     []RadiusCount `json:"counts" yaml:"counts"`
}

// CountFor returns the count for radius miles, or false when that radius
// was not computed.
func (sr StoreResult) CountFor(miles float64) (int, bool) {
	for _, c := range sr.Counts {
		if c.RadiusMiles == miles {
			return c.Count, true
		}
	}
	return 0, false
}

// CompetitorResult is a competitor with its display position.
type CompetitorResult struct {
	Competitor Competitor `json:"competitor" yaml:"competitor"`
	DisplayLon float64    `json:"display_lon" yaml:"display_lon"`
	DisplayLat float64    `json:"display_lat" yaml:"display_lat"`
}
