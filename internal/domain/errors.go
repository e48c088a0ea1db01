package domain

import "errors"

// ErrDuplicate 唯一约束冲突（由仓储层翻译）
var ErrDuplicate = errors.New("duplicate record")
