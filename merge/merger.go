// Package merge 合并两组独立标注的分块清单与镶嵌影像
package merge

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/wgdzlh/tilemask/errs"
	"github.com/wgdzlh/tilemask/log"
	"github.com/wgdzlh/tilemask/raster"
	"github.com/wgdzlh/tilemask/symbology"
	"github.com/wgdzlh/tilemask/tiles"
	"github.com/wgdzlh/tilemask/utils"

	"go.uber.org/multierr"
	"go.uber.org/zap"
)

type MosaicStore interface {
	ReadMosaic(path string) (*raster.Mosaic, error)
	WriteMosaic(path string, m *raster.Mosaic) error
}

type Merger struct {
	Store      MosaicStore
	Priorities tiles.Priorities
	Policy     symbology.Policy
	logTag     string
}

func NewMerger(store MosaicStore, pr tiles.Priorities, policy symbology.Policy) *Merger {
	return &Merger{
		Store:      store,
		Priorities: pr,
		Policy:     policy,
		logTag:     "Merger:",
	}
}

// 两组输入；镶嵌影像路径为空时取清单filename列（须唯一）
type Input struct {
	Manifest1 string
	Manifest2 string
	Mosaic1   string
	Mosaic2   string
}

type Output struct {
	ManifestPath string
	MosaicPath   string
}

type Stats struct {
	OneNotTwo int
	TwoNotOne int
	Both      int
	Overlap   int
}

type Result struct {
	Manifest *tiles.Manifest
	Mosaic   *raster.Mosaic
	Stats    Stats
}

func mosaicPath(given string, man *tiles.Manifest) (string, error) {
	if given != "" {
		return given, nil
	}
	var name string
	for i, t := range man.Tiles {
		if i > 0 && t.Filename != name {
			return "", fmt.Errorf("%w: manifest refers to several mosaics", errs.ErrIncompatible)
		}
		name = t.Filename
	}
	if name == "" {
		return "", fmt.Errorf("%w: manifest has no mosaic filename", errs.ErrIncompatible)
	}
	return name, nil
}

// 读取、合并并写出；任何校验失败都不会写出文件
func (mg *Merger) Merge(ctx context.Context, in Input, out Output) (res *Result, err error) {
	if err = utils.CheckOutputPath(out.ManifestPath, utils.FILE_EXT_CSV); err != nil {
		return
	}
	if err = utils.CheckOutputPath(out.MosaicPath, utils.FILE_EXT_TIF, utils.FILE_EXT_TIFF); err != nil {
		return
	}
	man1, err := tiles.ReadManifest(in.Manifest1)
	if err != nil {
		return
	}
	man2, err := tiles.ReadManifest(in.Manifest2)
	if err != nil {
		return
	}
	p1, err := mosaicPath(in.Mosaic1, man1)
	if err != nil {
		return
	}
	p2, err := mosaicPath(in.Mosaic2, man2)
	if err != nil {
		return
	}
	log.Info(mg.logTag+"start merge", zap.String("mosaic1", p1), zap.String("mosaic2", p2))
	m1, err := mg.Store.ReadMosaic(p1)
	if err != nil {
		return
	}
	m2, err := mg.Store.ReadMosaic(p2)
	if err != nil {
		return
	}
	if err = ctx.Err(); err != nil {
		return
	}
	if res, err = mg.MergeData(m1, man1, m2, man2); err != nil {
		return
	}
	for i := range res.Manifest.Tiles {
		res.Manifest.Tiles[i].Filename = out.MosaicPath
	}
	if err = ctx.Err(); err != nil {
		return
	}
	if err = mg.write(res, out); err != nil {
		return
	}
	log.Info(mg.logTag+"merge done", zap.String("manifest", out.ManifestPath), zap.String("mosaic", out.MosaicPath),
		zap.Int("1not2", res.Stats.OneNotTwo), zap.Int("2not1", res.Stats.TwoNotOne), zap.Int("both", res.Stats.Both), zap.Int("overlap", res.Stats.Overlap))
	return
}

// 先写到同目录的临时文件，全部成功后再改名
func (mg *Merger) write(res *Result, out Output) (err error) {
	tmpMosaic := utils.GetSiblingTmpPath(out.MosaicPath)
	tmpManifest := utils.GetSiblingTmpPath(out.ManifestPath)
	defer func() {
		if err != nil {
			for _, p := range []string{tmpMosaic, tmpManifest} {
				if e := os.Remove(p); e != nil && !errors.Is(e, os.ErrNotExist) {
					log.Warn(mg.logTag+"remove tmp file failed", zap.String("path", p), zap.Error(e))
				}
			}
		}
	}()
	if err = mg.Store.WriteMosaic(tmpMosaic, res.Mosaic); err != nil {
		return
	}
	if err = res.Manifest.WriteFile(tmpManifest); err != nil {
		return
	}
	if err = os.Rename(tmpMosaic, out.MosaicPath); err != nil {
		return
	}
	return os.Rename(tmpManifest, out.ManifestPath)
}

func (mg *Merger) validate(m1 *raster.Mosaic, man1 *tiles.Manifest, m2 *raster.Mosaic, man2 *tiles.Manifest) (err error) {
	incompatible := func(format string, args ...any) {
		err = multierr.Append(err, fmt.Errorf("%w: "+format, append([]any{errs.ErrIncompatible}, args...)...))
	}
	for i, m := range []*raster.Mosaic{m1, m2} {
		if e := m.Validate(); e != nil {
			incompatible("mosaic %d: %v", i+1, e)
		}
	}
	if len(m1.Bands) != len(m2.Bands) || m1.Rows() != m2.Rows() || m1.Cols() != m2.Cols() {
		incompatible("mosaic shapes (%d, %d, %d) and (%d, %d, %d) differ",
			len(m1.Bands), m1.Rows(), m1.Cols(), len(m2.Bands), m2.Rows(), m2.Cols())
	}
	if m1.DType() != m2.DType() {
		incompatible("mosaic dtypes %s and %s differ", m1.DType(), m2.DType())
	}
	if !man1.HasGeometry || !man2.HasGeometry {
		incompatible("manifests need x, y, width and height columns")
		return
	}
	if len(man1.Tiles) != len(man2.Tiles) {
		incompatible("manifests have %d and %d tiles", len(man1.Tiles), len(man2.Tiles))
		return
	}
	for i := range man1.Tiles {
		if man1.Tiles[i].Rect() != man2.Tiles[i].Rect() {
			incompatible("tile rectangles differ: %v and %v", man1.Tiles[i].Rect(), man2.Tiles[i].Rect())
			return
		}
	}
	return
}

// 合并内存中的两组数据，不修改输入
func (mg *Merger) MergeData(m1 *raster.Mosaic, man1 *tiles.Manifest, m2 *raster.Mosaic, man2 *tiles.Manifest) (*Result, error) {
	man1, man2 = man1.Clone(), man2.Clone()
	man1.SortByPosition()
	man2.SortByPosition()
	if err := mg.validate(m1, man1, m2, man2); err != nil {
		log.Error(mg.logTag+"inputs are incompatible", zap.Error(err))
		return nil, err
	}
	overlaps, err := man1.Overlaps()
	if err != nil {
		return nil, err
	}
	var (
		n       = len(man1.Tiles)
		done    = mg.Priorities.Completed
		done1   = make([]bool, n)
		done2   = make([]bool, n)
		stats   Stats
		final   = man1.Clone()
		mosaic  = m1.Clone()
		shared  = map[string]bool{}
		only2   []string
		overlap = func(i int, other []bool) bool {
			for _, j := range overlaps[i] {
				if other[j] {
					return true
				}
			}
			return false
		}
	)
	for i := range man1.Tiles {
		done1[i] = man1.Tiles[i].Priority == done
		done2[i] = man2.Tiles[i].Priority == done
	}
	for _, c := range man1.ExtraColumns {
		shared[c] = true
	}
	for _, c := range man2.ExtraColumns {
		if !shared[c] {
			only2 = append(only2, c)
		}
	}
	final.ExtraColumns = append(final.ExtraColumns, only2...)
	final.MergeInfo = true
	for i := range final.Tiles {
		t := &final.Tiles[i]
		t2 := man2.Tiles[i]
		for _, c := range only2 {
			t.Extra[c] = t2.Extra[c]
		}
		t.Overlap = false
		t.Source = tiles.SourceNone
		switch {
		case done1[i] && done2[i]:
			stats.Both++
			t.Overlap = true
		case done1[i]:
			stats.OneNotTwo++
			t.Overlap = overlap(i, done2)
		case done2[i]:
			stats.TwoNotOne++
			t.Overlap = overlap(i, done1)
			t.Filename = t2.Filename
			t.Priority = t2.Priority
			for c, v := range t2.Extra {
				if shared[c] {
					t.Extra[c] = v
				}
			}
		}
		if t.Overlap {
			stats.Overlap++
			t.Priority = done
		}
		if done1[i] {
			t.Source = tiles.SourceOne
		} else if done2[i] {
			t.Source = tiles.SourceTwo
		}
	}
	// 先贴只在2中完成的分块，再重贴1中完成的分块，重叠处以1为准
	for i, t := range man2.Tiles {
		if done2[i] && !done1[i] {
			mosaic.Paste(m2, t.X, t.Y, t.Width, t.Height)
		}
	}
	for i, t := range man1.Tiles {
		if done1[i] {
			mosaic.Paste(m1, t.X, t.Y, t.Width, t.Height)
		}
	}
	if err = mg.mergeBands(mosaic, m1, m2); err != nil {
		return nil, err
	}
	return &Result{Manifest: final, Mosaic: mosaic, Stats: stats}, nil
}

// 波段名与符号化合并，结果写入out的Names与Metadata
func (mg *Merger) mergeBands(out, m1, m2 *raster.Mosaic) error {
	names1, valid1 := normalizedNames(m1.Names)
	names2, valid2 := normalizedNames(m2.Names)
	names := make([]string, len(out.Bands))
	for i := range names {
		switch {
		case names1[i] != "":
			names[i] = names1[i]
		case names2[i] != "":
			names[i] = names2[i]
		default:
			names[i] = strconv.Itoa(i + 1)
		}
	}
	if utils.HasEmptyOrDup(names) {
		for i := range names {
			names[i] = strconv.Itoa(i + 1)
		}
	}
	sym1, err := mg.readSymbology(m1, valid1, 1)
	if err != nil {
		return err
	}
	sym2, err := mg.readSymbology(m2, valid2, 2)
	if err != nil {
		return err
	}
	merged := symbology.Symbology{}
	for i, b := range out.Bands {
		merged[names[i]] = symbology.MergeBand(b.Unique(), sym1[names1[i]], sym2[names2[i]])
	}
	out.Names = names
	if out.Metadata == nil {
		out.Metadata = map[string]string{}
	}
	return merged.ToMetadata(out.Metadata)
}

// 名称列表有空或重复时整体无效
func normalizedNames(names []string) ([]string, bool) {
	ret := make([]string, len(names))
	for i, n := range names {
		ret[i] = utils.NormalizeName(n)
	}
	return ret, !utils.HasEmptyOrDup(ret)
}

func (mg *Merger) readSymbology(m *raster.Mosaic, validNames bool, side int) (symbology.Symbology, error) {
	if !validNames {
		log.Warn(mg.logTag+"band names are empty or duplicated, ignore symbology", zap.Int("side", side))
		return symbology.Symbology{}, nil
	}
	s, err := symbology.FromMetadata(m.Metadata, mg.Policy)
	if err != nil {
		return nil, fmt.Errorf("mosaic %d: %w", side, err)
	}
	return s, nil
}
