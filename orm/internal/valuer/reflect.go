package valuer

import (
	"database/sql"
	"reflect"

	"github.com/coderi421/kasane/orm/internal/errs"
	"github.com/coderi421/kasane/orm/model"
)

// reflectValue 基于反射的 Value
type reflectValue struct {
	val  reflect.Value
	meta *model.Model
}

var _ Creator = NewReflectValue

// NewReflectValue 返回一个封装好的，基于反射实现的 Value
// 输入 val 必须是一个指向结构体实例的指针，而不能是任何其它类型
func NewReflectValue(val any, meta *model.Model) Value {
	return reflectValue{
		val:  reflect.ValueOf(val).Elem(),
		meta: meta,
	}
}

func (r reflectValue) Field(name string) (any, error) {
	fd, ok := r.meta.FieldMap[name]
	if !ok {
		return nil, errs.NewErrUnknownField(name)
	}
	return r.val.Field(fd.Index).Interface(), nil
}

// SetColumns 将数据库中当前行的数据设置到对应的 struct 上
func (r reflectValue) SetColumns(rows *sql.Rows) error {
	columnNames, err := rows.Columns()
	if err != nil {
		return err
	}

	if len(columnNames) > len(r.meta.ColumnMap) {
		return errs.ErrTooManyReturnedColumns
	}

	// colValues 和 colEleValues 实质上最终都指向同一个对象
	colValues := make([]any, len(columnNames))
	colEleValues := make([]reflect.Value, len(columnNames))

	for i, name := range columnNames {
		field, ok := r.meta.ColumnMap[name]
		if !ok {
			return errs.NewErrUnknownColumn(name)
		}

		// 构建出新的 reflect.Value struct
		value := reflect.New(field.Type)

		// 实际上 colValues 和 colEleValues 存的都是指针，
		// 修改 colValues 切片中的元素时，colEleValues 切片中的相应元素也会实时获取到变化后的值
		colValues[i] = value.Interface()
		colEleValues[i] = value.Elem()
	}

	// 这里使用 colValues 是因为 Scan 方法接收的是 []any 而不是 []reflect.Value
	if err = rows.Scan(colValues...); err != nil {
		return err
	}

	// 最终通过字段下标找到结构体中的字段，把扫描到的值赋过去
	for i, c := range columnNames {
		cm := r.meta.ColumnMap[c]
		fd := r.val.Field(cm.Index)
		fd.Set(colEleValues[i])
	}
	return nil
}
