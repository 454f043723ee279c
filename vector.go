package tilemask

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/wgdzlh/tilemask/errs"
	"github.com/wgdzlh/tilemask/log"
	"github.com/wgdzlh/tilemask/utils"

	"github.com/lukeroth/gdal"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// 按扩展名选择矢量驱动
func VectorDriverName(path string) (name string, err error) {
	ext := strings.ToLower(filepath.Ext(path))
	name, ok := vectorDrivers[ext]
	if !ok {
		err = fmt.Errorf("%w: unsupported vector extension %q", errs.ErrPath, ext)
	}
	return
}

// 删除已存在的输出（shapefile连同附属文件）
func removeVectorOutput(path, driverName string) (err error) {
	targets := []string{path}
	if driverName == SHP_DRIVER_NAME {
		base := strings.TrimSuffix(path, filepath.Ext(path))
		targets = targets[:0]
		for _, ext := range shpSidecars {
			targets = append(targets, base+ext)
		}
	}
	for _, t := range targets {
		if e := os.Remove(t); e != nil && !errors.Is(e, os.ErrNotExist) {
			err = multierr.Append(err, e)
		}
	}
	return
}

func (g *GdalToolbox) createVectorLayer(path, layerName, crs string) (ds gdal.DataSource, layer gdal.Layer, err error) {
	driverName, err := VectorDriverName(path)
	if err != nil {
		return
	}
	if err = utils.CheckOutputPath(path); err != nil {
		return
	}
	ref, err := g.getWktRef(crs)
	if err != nil {
		return
	}
	if err = removeVectorOutput(path, driverName); err != nil {
		log.Error(g.logTag+"remove old vector output failed", zap.String("path", path), zap.Error(err))
		return
	}
	log.Info(g.logTag+"output vector file", zap.String("path", path), zap.String("driver", driverName))
	driver := gdal.OGRDriverByName(driverName)
	ds, ok := driver.Create(path, nil)
	if !ok {
		err = ErrGdalDriverCreate
		return
	}
	var opts []string
	if driverName == SHP_DRIVER_NAME {
		opts = []string{ENCODING_OPTION}
	}
	if layerName == "" {
		layerName = DefaultLayerName
	}
	layer = ds.CreateLayer(layerName, ref, gdal.GT_Polygon, opts)
	return
}

func initFields(layer gdal.Layer, fields []Field) (err error) {
	for _, f := range fields {
		var ft gdal.FieldType
		switch f.Kind {
		case FieldInteger:
			ft = gdal.FT_Integer
		case FieldInteger64:
			ft = gdal.FT_Integer64
		default:
			ft = gdal.FT_Real
		}
		fd := gdal.CreateFieldDefinition(f.Name, ft)
		err = layer.CreateField(fd, false)
		fd.Destroy()
		if err != nil {
			return
		}
	}
	return
}

// 将多边形要素写入单个面图层，已存在的输出会被替换；返回写入的要素数
func (g *GdalToolbox) WriteFeatures(path, layerName, crs string, fields []Field, features []Feature) (cnt int, err error) {
	for i := range features {
		if len(features[i].Values) != len(fields) {
			err = fmt.Errorf("%w: feature %d has %d values for %d fields", ErrFieldMismatch, i, len(features[i].Values), len(fields))
			return
		}
	}
	ds, layer, err := g.createVectorLayer(path, layerName, crs)
	if err != nil {
		return
	}
	defer func() {
		ds.Destroy() // 写出文件 + 释放资源
		if err == nil {
			return
		}
		// 写出失败时不保留不完整的输出
		cnt = 0
		driverName, _ := VectorDriverName(path)
		if e := removeVectorOutput(path, driverName); e != nil {
			log.Error(g.logTag+"remove partial vector output failed", zap.String("path", path), zap.Error(e))
		}
	}()
	if err = initFields(layer, fields); err != nil {
		log.Error(g.logTag+"create layer fields failed", zap.Error(err))
		return
	}
	ref, _ := g.getWktRef(crs)
	var (
		def     = layer.Definition()
		feature gdal.Feature
		geo     gdal.Geometry
		e       error
		inTx    = layer.StartTransaction() == nil
	)
	for _, vec := range features {
		feature = def.Create()
		for i, f := range fields {
			v := vec.Values[i]
			switch f.Kind {
			case FieldInteger:
				feature.SetFieldInteger(i, int(v))
			case FieldInteger64:
				feature.SetFieldInteger64(i, int64(v))
			default:
				feature.SetFieldFloat64(i, v)
			}
		}
		if geo, e = g.parseWKB(vec.Geom, ref); e != nil {
			feature.Destroy()
			err = e
			break
		}
		if e = feature.SetGeometryDirectly(geo); e != nil {
			log.Error(g.logTag+"err in set geom of feature", zap.Error(e))
			feature.Destroy()
			err = e
			break
		}
		e = layer.Create(feature)
		feature.Destroy()
		if e != nil {
			log.Error(g.logTag+"err in create feature of layer", zap.Error(e))
			err = e
			break
		}
		cnt++
	}
	if inTx {
		if err != nil {
			if e = layer.RollbackTransaction(); e != nil {
				log.Warn(g.logTag+"rollback transaction failed", zap.Error(e))
			}
			return
		}
		if err = layer.CommitTransaction(); err != nil {
			return
		}
	}
	if err != nil {
		return
	}
	log.Info(g.logTag+"vector file created", zap.String("path", path), zap.Int("total", len(features)), zap.Int("valid", cnt))
	return
}
