package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/wgdzlh/tilemask/errs"

	"github.com/google/uuid"
)

const (
	FILE_EXT_TIF  = ".tif"
	FILE_EXT_TIFF = ".tiff"
	FILE_EXT_CSV  = ".csv"
)

func GetFilenameWithoutExt(path string) (name string) {
	name = filepath.Base(path)
	name = strings.TrimSuffix(name, filepath.Ext(path))
	return
}

// 检查输出路径：扩展名须在exts中（大小写不敏感），且所在目录已存在
func CheckOutputPath(path string, exts ...string) (err error) {
	ext := strings.ToLower(filepath.Ext(path))
	matched := len(exts) == 0
	for _, e := range exts {
		if ext == e {
			matched = true
			break
		}
	}
	if !matched {
		return fmt.Errorf("%w: %q should have one of the extensions %v", errs.ErrPath, path, exts)
	}
	if filepath.Base(path) == ext {
		return fmt.Errorf("%w: %q has no file name", errs.ErrPath, path)
	}
	dir := filepath.Dir(path)
	info, e := os.Stat(dir)
	if e != nil || !info.IsDir() {
		return fmt.Errorf("%w: output directory %q does not exist", errs.ErrPath, dir)
	}
	return
}

// 与目标文件同目录的临时文件路径，保留扩展名以便GDAL识别驱动
func GetSiblingTmpPath(path string) string {
	dir, name := filepath.Split(path)
	ext := filepath.Ext(name)
	return filepath.Join(dir, "."+strings.TrimSuffix(name, ext)+"_"+uuid.NewString()+ext)
}

// 临时目录下唯一文件名
func GetTmpPath(tmpDir, pattern string) string {
	if tmpDir == "" {
		tmpDir = os.TempDir()
	}
	return filepath.Join(tmpDir, fmt.Sprintf(pattern, uuid.NewString()))
}
