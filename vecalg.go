package tilemask

import (
	"github.com/wgdzlh/tilemask/log"

	"github.com/lukeroth/gdal"
	"go.uber.org/zap"
)

// 合并一组多边形，结果中每个互不相连的面单独返回
func (g *GdalToolbox) UnionParts(gs []GdalGeo) (parts []GdalGeo, err error) {
	if len(gs) == 0 {
		return
	}
	var (
		geo   gdal.Geometry
		multi = gdal.Create(gdal.GT_MultiPolygon)
		gc    = []destroyable{multi}
	)
	defer func() {
		destroyAll(gc)
	}()
	for _, a := range gs {
		if geo, err = g.parseWKB(a, gdal.SpatialReference{}); err != nil {
			return
		}
		gc = append(gc, geo)
		if !isPolygonal(geo) {
			err = ErrGdalWrongGeoType
			log.Error(g.logTag+"union input is not a polygon", zap.Int("type", int(geo.Type())))
			return
		}
		if err = multi.AddGeometry(geo); err != nil {
			log.Error(g.logTag+"add geometry to multi polygon failed", zap.Error(err))
			return
		}
	}
	union := multi.UnionCascaded() // 相邻面共享边被消除
	gc = append(gc, union)
	return g.explodePolygons(union, parts)
}

func isPolygonal(geo gdal.Geometry) bool {
	t := geo.Type()
	return t == gdal.GT_Polygon || t == gdal.GT_MultiPolygon
}

// 把(多)面拆为单面WKB
func (g *GdalToolbox) explodePolygons(geo gdal.Geometry, parts []GdalGeo) (ret []GdalGeo, err error) {
	ret = parts
	if geo.IsEmpty() {
		return
	}
	switch geo.Type() {
	case gdal.GT_Polygon:
		var wkb GdalGeo
		if wkb, err = geo.ToWKB(); err != nil {
			return
		}
		ret = append(ret, wkb)
	case gdal.GT_MultiPolygon, gdal.GT_GeometryCollection:
		for i, n := 0, geo.GeometryCount(); i < n; i++ {
			if ret, err = g.explodePolygons(geo.Geometry(i), ret); err != nil {
				return
			}
		}
	default:
		// 线、点等退化结果不输出
		log.Debug(g.logTag+"skip non polygon part", zap.Int("type", int(geo.Type())))
	}
	return
}

// 保持拓扑的简化，简化后可能为空或变为多面，统一拆为单面
func (g *GdalToolbox) Simplify(wkb GdalGeo, tolerance float64) (parts []GdalGeo, err error) {
	geo, err := g.parseWKB(wkb, gdal.SpatialReference{})
	if err != nil {
		return
	}
	defer geo.Destroy()
	if !isPolygonal(geo) {
		err = ErrGdalWrongGeoType
		return
	}
	if tolerance <= 0 {
		return g.explodePolygons(geo, nil)
	}
	ret := geo.SimplifyPreservingTopology(tolerance)
	defer ret.Destroy()
	return g.explodePolygons(ret, nil)
}
