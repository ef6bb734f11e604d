package valuer

import (
	"database/sql"

	"github.com/coderi421/kasane/orm/model"
)

// Value 是对结构体实例的内部抽象
// 负责数据库行与结构体之间的来回映射
type Value interface {
	// Field 返回对应字段的值
	Field(name string) (any, error)
	// SetColumns 将 rows 中当前行的数据设置到结构体上
	SetColumns(rows *sql.Rows) error
}

// Creator 创建一个 Value 实例的工厂方法
// val 必须是指向结构体实例的一级指针
type Creator func(val any, meta *model.Model) Value
