package utils

import (
	"strconv"
	"strings"
	"unsafe"

	"golang.org/x/text/unicode/norm"
)

func StrToInts(s, sep string) []int {
	var (
		ids  = strings.Split(s, sep)
		rets = make([]int, 0, len(ids))
		i    int
		e    error
	)
	for _, id := range ids {
		i, e = strconv.Atoi(strings.TrimSpace(id))
		if e == nil {
			rets = append(rets, i)
		}
	}
	return rets
}

func B2S(b []byte) string {
	return *(*string)(unsafe.Pointer(&b))
}

// 波段名、标签统一为NFC形式并去除首尾空白，避免同名不同码点
func NormalizeName(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}

// 列表中是否有空串或重复项（按NormalizeName比较）
func HasEmptyOrDup(names []string) bool {
	seen := make(map[string]struct{}, len(names))
	for _, n := range names {
		n = NormalizeName(n)
		if n == "" {
			return true
		}
		if _, ok := seen[n]; ok {
			return true
		}
		seen[n] = struct{}{}
	}
	return false
}
