// Package tilemask 封装GDAL/OGR：镶嵌影像读写、像元多边形矢量输出、合并与简化、矢量转栅格
package tilemask

import (
	"sync"

	"github.com/wgdzlh/tilemask/log"

	"github.com/airbusgeo/godal"
	"github.com/lukeroth/gdal"
	"go.uber.org/zap"
)

type GdalToolbox struct {
	refMap map[string]gdal.SpatialReference
	rLock  sync.Mutex
	tmpDir string
	logTag string
}

// 由GDAL库C语言创建的内存对象，需要手动调用Destroy回收
type destroyable interface {
	Destroy()
}

var registerOnce sync.Once

// 初始化GDAL工具箱，tmpDir为可选的临时目录路径（未提供的话为系统临时目录）
func NewGdalToolbox(tmpDir ...string) *GdalToolbox {
	registerOnce.Do(godal.RegisterAll)
	g := &GdalToolbox{
		refMap: map[string]gdal.SpatialReference{},
		logTag: "GdalToolbox:",
	}
	if len(tmpDir) > 0 && tmpDir[0] != "" {
		g.tmpDir = tmpDir[0]
	}
	return g
}

func (g *GdalToolbox) TmpDir() string {
	return g.tmpDir
}

// 获取WKT对应的坐标系（可复用，故无需回收）；空WKT表示未知坐标系
func (g *GdalToolbox) getWktRef(wkt string) (ref gdal.SpatialReference, err error) {
	if wkt == "" {
		return
	}
	g.rLock.Lock()
	defer g.rLock.Unlock()
	ref, ok := g.refMap[wkt]
	if ok {
		return
	}
	ref = gdal.CreateSpatialReference("")
	if err = ref.FromWKT(wkt); err != nil {
		log.Error(g.logTag+"set ref from wkt failed", zap.String("wkt", wkt), zap.Error(err))
		ref.Destroy()
		err = ErrInvalidCRS
		return
	}
	// 数据轴次序固定为(x,y)，与栅格仿射变换一致
	ref.SetAxisMappingStrategy(gdal.OAMS_TraditionalGisOrder)
	g.refMap[wkt] = ref
	return
}

func (g *GdalToolbox) parseWKB(wkb GdalGeo, ref gdal.SpatialReference) (ret gdal.Geometry, err error) {
	ret, err = gdal.CreateFromWKB(wkb, ref, len(wkb))
	if err != nil {
		log.Error(g.logTag+"parse wkb failed", zap.Error(err))
	}
	return
}

func destroyAll(gc []destroyable) {
	for _, v := range gc {
		v.Destroy()
	}
}
