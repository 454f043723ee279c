package tiles

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/wgdzlh/tilemask/errs"
	"github.com/wgdzlh/tilemask/utils"

	"go.uber.org/multierr"
)

const (
	ColX        = "x"
	ColY        = "y"
	ColWidth    = "width"
	ColHeight   = "height"
	ColFilename = "filename"
	ColPriority = "priority"
	ColOverlap  = "overlap"
	ColSource   = "source"
)

// 合并结果中source列的取值
const (
	SourceNone = -1
	SourceOne  = 1
	SourceTwo  = 2
)

var (
	ErrMissingColumn = errors.New("manifest column missing")
	ErrBadValue      = errors.New("manifest value invalid")
)

// 清单中的一个分块：左上角(x列,y行)与尺寸
type Tile struct {
	X        int
	Y        int
	Width    int
	Height   int
	Filename string
	Priority int
	Extra    map[string]string
	Overlap  bool
	Source   int
}

func (t Tile) Rect() [4]int {
	return [4]int{t.X, t.Y, t.Width, t.Height}
}

func (t Tile) Clone() Tile {
	c := t
	c.Extra = make(map[string]string, len(t.Extra))
	for k, v := range t.Extra {
		c.Extra[k] = v
	}
	return c
}

type Manifest struct {
	Tiles        []Tile
	ExtraColumns []string // 其它列，按原次序原样保留
	HasGeometry  bool     // 含x,y,width,height列
	MergeInfo    bool     // 含overlap,source列
}

func (m *Manifest) Clone() *Manifest {
	c := &Manifest{
		Tiles:        make([]Tile, len(m.Tiles)),
		ExtraColumns: append([]string(nil), m.ExtraColumns...),
		HasGeometry:  m.HasGeometry,
		MergeInfo:    m.MergeInfo,
	}
	for i, t := range m.Tiles {
		c.Tiles[i] = t.Clone()
	}
	return c
}

// 按(x,y)稳定排序
func (m *Manifest) SortByPosition() {
	sort.SliceStable(m.Tiles, func(i, j int) bool {
		a, b := m.Tiles[i], m.Tiles[j]
		if a.X != b.X {
			return a.X < b.X
		}
		return a.Y < b.Y
	})
}

func (m *Manifest) Overlaps() ([][]int, error) {
	n := len(m.Tiles)
	xs, ys, ws, hs := make([]int, n), make([]int, n), make([]int, n), make([]int, n)
	for i, t := range m.Tiles {
		xs[i], ys[i], ws[i], hs[i] = t.X, t.Y, t.Width, t.Height
	}
	return Overlaps(xs, ys, ws, hs)
}

func parseInt(s string) (int, error) {
	s = strings.TrimSpace(s)
	if i, err := strconv.Atoi(s); err == nil {
		return i, nil
	}
	// 允许"1.0"这类整数值的浮点写法
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != math.Trunc(f) {
		return 0, fmt.Errorf("%w: %q is not an integer", ErrBadValue, s)
	}
	return int(f), nil
}

func ReadManifest(path string) (*Manifest, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrPath, err)
	}
	defer f.Close()
	return ParseManifest(f)
}

func ParseManifest(r io.Reader) (*Manifest, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	recs, err := cr.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, fmt.Errorf("%w: empty manifest", ErrMissingColumn)
	}
	idx := map[string]int{}
	m := &Manifest{}
	for i, h := range recs[0] {
		h = strings.TrimSpace(h)
		switch h {
		case ColX, ColY, ColWidth, ColHeight, ColFilename, ColPriority, ColOverlap, ColSource:
			idx[h] = i
		default:
			m.ExtraColumns = append(m.ExtraColumns, h)
			idx[h] = i
		}
	}
	for _, c := range []string{ColFilename, ColPriority} {
		if _, ok := idx[c]; !ok {
			return nil, fmt.Errorf("%w: %q", ErrMissingColumn, c)
		}
	}
	geomCols := 0
	for _, c := range []string{ColX, ColY, ColWidth, ColHeight} {
		if _, ok := idx[c]; ok {
			geomCols++
		}
	}
	m.HasGeometry = geomCols == 4
	_, hasOverlap := idx[ColOverlap]
	_, hasSource := idx[ColSource]
	m.MergeInfo = hasOverlap && hasSource
	m.Tiles = make([]Tile, 0, len(recs)-1)
	for line, rec := range recs[1:] {
		t := Tile{Source: SourceNone, Extra: make(map[string]string, len(m.ExtraColumns))}
		var rowErr error
		geti := func(col string, dst *int) {
			i, ok := idx[col]
			if !ok {
				return
			}
			v, e := parseInt(rec[i])
			if e != nil {
				rowErr = multierr.Append(rowErr, fmt.Errorf("column %s: %w", col, e))
			}
			*dst = v
		}
		t.Filename = rec[idx[ColFilename]]
		geti(ColPriority, &t.Priority)
		geti(ColX, &t.X)
		geti(ColY, &t.Y)
		geti(ColWidth, &t.Width)
		geti(ColHeight, &t.Height)
		if m.MergeInfo {
			geti(ColSource, &t.Source)
			b, e := strconv.ParseBool(strings.TrimSpace(rec[idx[ColOverlap]]))
			if e != nil {
				rowErr = multierr.Append(rowErr, fmt.Errorf("column %s: %w: %q", ColOverlap, ErrBadValue, rec[idx[ColOverlap]]))
			}
			t.Overlap = b
		}
		for _, c := range m.ExtraColumns {
			t.Extra[c] = rec[idx[c]]
		}
		if rowErr != nil {
			return nil, fmt.Errorf("manifest line %d: %w", line+2, rowErr)
		}
		m.Tiles = append(m.Tiles, t)
	}
	return m, nil
}

func (m *Manifest) header() []string {
	var h []string
	if m.HasGeometry {
		h = append(h, ColY, ColX, ColHeight, ColWidth)
	}
	h = append(h, ColFilename, ColPriority)
	h = append(h, m.ExtraColumns...)
	if m.MergeInfo {
		h = append(h, ColOverlap, ColSource)
	}
	return h
}

func (m *Manifest) Write(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(m.header()); err != nil {
		return err
	}
	for _, t := range m.Tiles {
		var rec []string
		if m.HasGeometry {
			rec = append(rec, strconv.Itoa(t.Y), strconv.Itoa(t.X), strconv.Itoa(t.Height), strconv.Itoa(t.Width))
		}
		rec = append(rec, t.Filename, strconv.Itoa(t.Priority))
		for _, c := range m.ExtraColumns {
			rec = append(rec, t.Extra[c])
		}
		if m.MergeInfo {
			rec = append(rec, strconv.FormatBool(t.Overlap), strconv.Itoa(t.Source))
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func (m *Manifest) WriteFile(path string) (err error) {
	if err = utils.CheckOutputPath(path, utils.FILE_EXT_CSV); err != nil {
		return
	}
	f, err := os.Create(path)
	if err != nil {
		return
	}
	defer func() {
		err = multierr.Append(err, f.Close())
	}()
	return m.Write(f)
}
