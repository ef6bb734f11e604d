package model

import "reflect"

// Option is a function type that modifies a Model.
type Option func(model *Model) error

// Model 结构体映射db后的结构
type Model struct {
	// TableName 结构体对应的表名
	TableName string
	// TypeName 结构体在 Go 中的名字，推导默认外键名和报错的时候使用
	TypeName string
	// Type 结构体类型（非指针），预加载的时候用它构造新实例
	Type reflect.Type
	// Fields 按照声明顺序排列的全部列字段，INSERT 这类需要稳定顺序的地方使用
	// 关联字段（orm:"-"）不在其中
	Fields    []*Field
	FieldMap  map[string]*Field // 结构体 属性名 attr name 为 key  ItemId
	ColumnMap map[string]*Field // DB column name 为 key    item_id

	// PrimaryKey 主键字段，一个结构体只有一个
	// 通过 orm:"pk" 标签声明，没有声明的时候回退到名为 Id/ID 的字段
	PrimaryKey *Field

	// Relationships 该实体声明的全部关联关系，关联字段名为 key
	Relationships map[string]*Relationship
}

// Field 字段相关的属性
type Field struct {
	ColName string       // 数据库中的字段名
	GoName  string       // go struct 中的名字
	Type    reflect.Type // go 中的数据类型，转换成 reflect.Value 的时候，知道是什么类型，不然那没法转
	// Offset 相对于对象起始地址的字段偏移量
	// uintptr 这个类型的值，只是简单记录一下位置
	Offset uintptr
	// Index 字段在结构体中的下标，反射取值的时候用 Field(Index)，比 FieldByName 快
	Index int
	// IsPrimaryKey 是否主键
	IsPrimaryKey bool
}

// 我们支持的全部标签上的 key 都放在这里
// 方便用户查找，和我们后期维护
const (
	tagKeyColumn = "column"
	tagKeyPK     = "pk"
	tagORMName   = "orm"

	// tagIgnore orm:"-" 表示这个字段不映射到任何列
	// 关联字段（切片、Lazy 容器）必须用它标注
	tagIgnore = "-"
)

// TableName 用户实现这个接口来返回自定义的表名
type TableName interface {
	TableName() string
}

// Relational 用户实现这个接口来声明实体上的关联关系
// 显式声明一次，注册的时候解析，运行期不再做任何标签扫描
type Relational interface {
	Relationships() []*Relationship
}
