// Copyright 2025, GeoFarm Contributors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//   http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package zonal

import (
	"fmt"
	"strconv"

	"github.com/airbusgeo/godal"

	"github.com/Pccgeo-hub/geofarm-pipeline/util"
)

// Zone is one management-unit polygon. ID is the downstream join key and is
// always populated (synthesized from position when the source omits it).
type Zone struct {
	ID   string
	Name string
	Geom *godal.Geometry
}

// ZoneSet is an ordered collection of zones. Insertion order defines output
// row order.
type ZoneSet struct {
	Zones []*Zone
}

// Close releases the zone geometries.
func (zs *ZoneSet) Close() {
	for _, z := range zs.Zones {
		if z.Geom != nil {
			z.Geom.Close()
		}
	}
	zs.Zones = nil
}

// EnsureIDs fills in missing zone identifiers with the zone's zero-based
// position, stringified, so the join key is always a string and always set.
func (zs *ZoneSet) EnsureIDs() {
	for i, z := range zs.Zones {
		if z.ID == "" {
			z.ID = strconv.Itoa(i)
		}
	}
}

// reprojectTo brings every zone geometry into the raster's CRS. A zone
// source that declares no CRS is assumed to be in geographic WGS84; that
// assumption is logged, not validated.
func (zs *ZoneSet) reprojectTo(ctx util.LogContext, target *godal.SpatialRef) error {
	if target == nil {
		return nil
	}
	for i, z := range zs.Zones {
		if srMissing(z.Geom.SpatialRef()) {
			util.LogWarn(ctx, fmt.Sprintf("Zone %d carries no CRS declaration, assuming EPSG:4326", i))
			wgs84, err := godal.NewSpatialRefFromEPSG(4326)
			if err != nil {
				return err
			}
			z.Geom.SetSpatialRef(wgs84)
		}
		if err := z.Geom.Reproject(target); err != nil {
			return fmt.Errorf("reprojecting zone %d (id=%s): %w", i, z.ID, err)
		}
	}
	return nil
}

func srMissing(sr *godal.SpatialRef) bool {
	if sr == nil {
		return true
	}
	wkt, err := sr.WKT()
	return err != nil || wkt == ""
}

// LoadZones reads an ordered zone set from a vector source (GeoJSON,
// shapefile, anything OGR can open). The id and name attributes are taken
// from "id"/"field_id" and "name" columns when present.
func LoadZones(ctx util.LogContext, path string) (*ZoneSet, error) {
	ds, err := godal.Open(path, godal.VectorOnly())
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrZoneSourceNotFound, path, err)
	}
	defer ds.Close()

	layers := ds.Layers()
	if len(layers) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrZoneSourceEmpty, path)
	}
	layer := layers[0]

	zs := &ZoneSet{}
	for {
		feat := layer.NextFeature()
		if feat == nil {
			break
		}
		geom := feat.Geometry()
		if geom == nil {
			continue
		}

		// Rebuild the geometry so it outlives the dataset handle.
		wkt, werr := geom.WKT()
		if werr != nil {
			zs.Close()
			return nil, fmt.Errorf("reading zone geometry: %w", werr)
		}
		var srCopy *godal.SpatialRef
		if sr := geom.SpatialRef(); !srMissing(sr) {
			srWKT, serr := sr.WKT()
			if serr != nil {
				zs.Close()
				return nil, fmt.Errorf("reading zone CRS: %w", serr)
			}
			if srCopy, serr = godal.NewSpatialRefFromWKT(srWKT); serr != nil {
				zs.Close()
				return nil, fmt.Errorf("parsing zone CRS: %w", serr)
			}
		}
		owned, gerr := godal.NewGeometryFromWKT(wkt, srCopy)
		if gerr != nil {
			zs.Close()
			return nil, fmt.Errorf("copying zone geometry: %w", gerr)
		}

		fields := feat.Fields()
		zs.Zones = append(zs.Zones, &Zone{
			ID:   fieldString(fields, "id", "field_id"),
			Name: fieldString(fields, "name"),
			Geom: owned,
		})
	}

	if len(zs.Zones) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrZoneSourceEmpty, path)
	}
	util.LogInfo(ctx, fmt.Sprintf("Loaded %d zones from %s", len(zs.Zones), path))
	return zs, nil
}

func fieldString(fields map[string]godal.Field, names ...string) string {
	for _, name := range names {
		fld, ok := fields[name]
		if !ok {
			continue
		}
		switch fld.Type() {
		case godal.FTString:
			if s := fld.String(); s != "" {
				return s
			}
		case godal.FTInt, godal.FTInt64:
			return strconv.FormatInt(fld.Int(), 10)
		case godal.FTReal:
			return strconv.FormatFloat(fld.Float(), 'f', -1, 64)
		}
	}
	return ""
}
