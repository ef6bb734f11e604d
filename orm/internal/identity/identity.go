// Package identity 把主键、外键的运行时值归一化成两种投影：
// 一种作为内存中分组用的 map key，一种作为查询参数。
// 两种投影对相等性的判断必须一致，不然批量预加载的分组就会错乱。
package identity

import (
	"reflect"

	"github.com/google/uuid"
)

// Kind 标识值的底层类型，封闭集合
type Kind uint8

const (
	KindInvalid Kind = iota
	// KindInt64 带符号整数，64 位以内的都归一到这里
	KindInt64
	// KindString 文本主键
	KindString
	// KindUUID 128 位不透明标识
	KindUUID
)

// Value 标识值，纯值对象，随便复制
type Value struct {
	kind Kind
	i    int64
	s    string
	u    uuid.UUID
}

func Int64(v int64) Value {
	return Value{kind: KindInt64, i: v}
}

func String(s string) Value {
	return Value{kind: KindString, s: s}
}

func UUID(u uuid.UUID) Value {
	return Value{kind: KindUUID, u: u}
}

func (v Value) Kind() Kind {
	return v.kind
}

func (v Value) Valid() bool {
	return v.kind != KindInvalid
}

// Key 返回可比较投影，用作 map key
// 不同 Kind 的动态类型不同，天然不会误判相等
func (v Value) Key() any {
	switch v.kind {
	case KindInt64:
		return v.i
	case KindString:
		return v.s
	case KindUUID:
		// uuid.UUID 是 [16]byte，数组可比较
		return v.u
	default:
		return nil
	}
}

// Param 返回查询参数投影，放进 args 里传给驱动
// uuid 走文本格式，和 Key 投影的相等语义保持一致
func (v Value) Param() any {
	switch v.kind {
	case KindInt64:
		return v.i
	case KindString:
		return v.s
	case KindUUID:
		return v.u.String()
	default:
		return nil
	}
}

// FromReflect 把一个反射值归一化成 Value
// 指针自动解引用，nil 指针和不支持的类型返回 ok == false
// 这不是错误：批量模式下取不到键的实体直接跳过
func FromReflect(val reflect.Value) (Value, bool) {
	if val.Kind() == reflect.Ptr {
		if val.IsNil() {
			return Value{}, false
		}
		val = val.Elem()
	}

	switch v := val.Interface().(type) {
	case uuid.UUID:
		return UUID(v), true
	case string:
		return String(v), true
	case int64:
		return Int64(v), true
	case int:
		return Int64(int64(v)), true
	case int32:
		return Int64(int64(v)), true
	case int16:
		return Int64(int64(v)), true
	case int8:
		return Int64(int64(v)), true
	default:
		return Value{}, false
	}
}

// FromField 从实体实例上按字段下标取出标识值
// entity 必须是指向结构体的一级指针
func FromField(entity any, index int) (Value, bool) {
	refVal := reflect.ValueOf(entity)
	if refVal.Kind() != reflect.Ptr || refVal.IsNil() {
		return Value{}, false
	}
	refVal = refVal.Elem()
	if refVal.Kind() != reflect.Struct || index >= refVal.NumField() {
		return Value{}, false
	}
	return FromReflect(refVal.Field(index))
}
