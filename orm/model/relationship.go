package model

import (
	"reflect"

	"github.com/coderi421/kasane/orm/internal/errs"
)

// RelationKind 关联关系的类型，封闭集合
// 预加载的时候对它做一次穷尽的 switch 分发
type RelationKind string

const (
	// RelationHasMany 一对多，外键在关联实体上
	RelationHasMany RelationKind = "has_many"
	// RelationHasOne 一对一，外键在关联实体上
	RelationHasOne RelationKind = "has_one"
	// RelationBelongsTo 反向关联，外键在自己身上
	RelationBelongsTo RelationKind = "belongs_to"
	// RelationManyToMany 多对多，通过中间表关联
	RelationManyToMany RelationKind = "many_to_many"
)

// Relationship 关联关系的静态元数据
// 注册实体的时候解析并补全默认值，之后只读
type Relationship struct {
	// Name 父实体上承接关联数据的字段名，例如 Orders
	Name string
	Kind RelationKind

	// RelatedType 关联实体的结构体类型（非指针）
	RelatedType reflect.Type
	// RelatedTypeName 关联实体的类型名，报错和推导默认外键名用
	RelatedTypeName string

	// ForeignKey 外键的 Go 字段名，不是列名
	// 这里存 Go 字段名，改了 column 标签之后还能重新推导出列名
	// HasMany/HasOne 的外键在关联实体上，默认为 父类型名+Id
	// BelongsTo 的外键在自己身上，默认为 关联类型名+Id
	ForeignKey string

	// 以下字段只对 many_to_many 有意义
	// JunctionTable 必须显式声明，不做任何推断
	JunctionTable string
	// JunctionParentCol 中间表里指向父实体主键的列名
	JunctionParentCol string
	// JunctionRelatedCol 中间表里指向关联实体主键的列名
	JunctionRelatedCol string

	// 注册的时候解析出来的字段信息
	// FieldIndex 关联字段在父结构体中的下标
	FieldIndex int
	// FieldType 关联字段的类型，可能是 []*C、*C，也可能是 Lazy 容器
	FieldType reflect.Type
}

// HasMany 声明一对多关联
// related 传关联实体的指针，例如 HasMany("Orders", &Order{})
func HasMany(name string, related any) *Relationship {
	return newRelationship(name, related, RelationHasMany)
}

// HasOne 声明一对一关联
func HasOne(name string, related any) *Relationship {
	return newRelationship(name, related, RelationHasOne)
}

// BelongsTo 声明反向关联，外键在声明方自己身上
func BelongsTo(name string, related any) *Relationship {
	return newRelationship(name, related, RelationBelongsTo)
}

// ManyToMany 声明多对多关联
// junction 是中间表表名，必须显式给出
func ManyToMany(name string, related any, junction string) *Relationship {
	r := newRelationship(name, related, RelationManyToMany)
	r.JunctionTable = junction
	return r
}

// FK 覆盖默认的外键字段名
func (r *Relationship) FK(field string) *Relationship {
	r.ForeignKey = field
	return r
}

// JunctionColumns 覆盖中间表里两个外键列的默认列名
func (r *Relationship) JunctionColumns(parentCol, relatedCol string) *Relationship {
	r.JunctionParentCol = parentCol
	r.JunctionRelatedCol = relatedCol
	return r
}

func newRelationship(name string, related any, kind RelationKind) *Relationship {
	typ := reflect.TypeOf(related)
	if typ.Kind() == reflect.Ptr {
		typ = typ.Elem()
	}
	return &Relationship{
		Name:            name,
		Kind:            kind,
		RelatedType:     typ,
		RelatedTypeName: typ.Name(),
	}
}

// resolve 补全默认值并做合法性校验
// parentType 是父实体的结构体类型（非指针）
func (r *Relationship) resolve(parentTypeName string, parentType reflect.Type) error {
	fd, ok := parentType.FieldByName(r.Name)
	if !ok {
		return errs.NewErrUnknownField(r.Name)
	}
	r.FieldIndex = fd.Index[0]
	r.FieldType = fd.Type

	if r.ForeignKey == "" {
		switch r.Kind {
		case RelationHasMany, RelationHasOne:
			// 外键在关联实体上，指向父实体
			r.ForeignKey = parentTypeName + "Id"
		case RelationBelongsTo:
			// 外键在自己身上，指向关联实体
			r.ForeignKey = r.RelatedTypeName + "Id"
		case RelationManyToMany:
			// 多对多没有外键字段，键都在中间表里
		}
	}

	if r.Kind == RelationManyToMany {
		// 中间表必须显式声明，这里 fail fast
		// 悄悄地什么都不加载只会在线上留坑
		if r.JunctionTable == "" {
			return errs.NewErrInvalidRelationConfig(r.Name, "未声明中间表")
		}
		if r.JunctionParentCol == "" {
			r.JunctionParentCol = underscoreName(parentTypeName) + "_id"
		}
		if r.JunctionRelatedCol == "" {
			r.JunctionRelatedCol = underscoreName(r.RelatedTypeName) + "_id"
		}
	}
	return nil
}
