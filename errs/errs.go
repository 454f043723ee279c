// 各包共用的错误类别，调用方用errors.Is判断类别，具体信息由包装后的错误携带
package errs

import "errors"

var (
	// 几何/数组长度或维度不匹配
	ErrShape = errors.New("shape error")
	// 非数值或不一致的数据类型
	ErrType = errors.New("type error")
	// 输出扩展名错误或目录不存在
	ErrPath = errors.New("path error")
	// 合并时两组数据不兼容
	ErrIncompatible = errors.New("incompatible inputs")
	// 无法解析的符号化元数据
	ErrMetadata = errors.New("metadata error")
)
