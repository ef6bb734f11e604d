package model

import (
	"reflect"
	"strings"
	"unicode"

	"github.com/coderi421/kasane/orm/internal/errs"
	"github.com/gotomicro/ekit/syncx"
)

type Registry interface {
	Get(val any) (*Model, error)
	Register(val any, opts ...Option) (*Model, error)
}

// registry 元数据注册中心
// 不用包变量，包变量对测试不友好，缺乏隔离
type registry struct {
	// 以 reflect.Type 为 key，类型名做 key 会有冲突
	// 例如两个包里都有 User，一个映射 buyer_t 一个映射 seller_t
	models syncx.Map[reflect.Type, *Model]
}

func NewRegistry() Registry {
	return &registry{}
}

// Get fetches the model associated with a given value.
// If the model is not found in the registry, it is parsed and stored for future use.
// Get 查找元数据模型
func (r *registry) Get(val any) (*Model, error) {
	typ := reflect.TypeOf(val)

	m, ok := r.models.Load(typ)
	if ok {
		return m, nil
	}

	return r.Register(val)
}

// Register registers a model in the registry with the given options.
// It parses the model if it is not found and applies the provided options.
// It stores the model in the registry and returns the registered model.
func (r *registry) Register(val any, opts ...Option) (*Model, error) {
	m, err := r.parseModel(val)
	if err != nil {
		return nil, err
	}

	for _, opt := range opts {
		err = opt(m)
		if err != nil {
			return nil, err
		}
	}

	typ := reflect.TypeOf(val)
	r.models.Store(typ, m)

	return m, nil
}

// parseModel parses a given reflect.Type and returns a new model or an error.
// It checks if the type is a pointer to a struct and generates a map of Field names
// and their corresponding column names for the model.
// orm:"key1=value1,key2=value2"
func (r *registry) parseModel(val any) (*Model, error) {
	typ := reflect.TypeOf(val)

	// Check if the type is a pointer to a struct
	if typ.Kind() != reflect.Ptr || typ.Elem().Kind() != reflect.Struct {
		// Only support one-level pointer as input, e.g. *User does not support **User and User
		return nil, errs.ErrPointerOnly
	}

	// Dereference the pointer to get the struct type
	typ = typ.Elem()

	numField := typ.NumField()

	fds := make(map[string]*Field, numField)
	colMap := make(map[string]*Field, numField)
	fields := make([]*Field, 0, numField)
	var pk *Field

	for i := 0; i < numField; i++ {
		fdStruct := typ.Field(i)

		tags, err := r.parseTag(fdStruct.Tag)
		if err != nil {
			return nil, err
		}

		// orm:"-" 的字段不映射列，关联字段都走这条路
		if _, ok := tags[tagIgnore]; ok {
			continue
		}

		// Get the column name from the tag or use the default Field name
		colName := tags[tagKeyColumn]
		if colName == "" {
			// If the colName is "", use the default  ItemId -> item_id
			colName = underscoreName(fdStruct.Name)
		}

		f := &Field{
			ColName: colName,
			GoName:  fdStruct.Name,
			Type:    fdStruct.Type,
			Offset:  fdStruct.Offset,
			Index:   i,
		}

		if _, ok := tags[tagKeyPK]; ok {
			f.IsPrimaryKey = true
			pk = f
		}

		fds[fdStruct.Name] = f
		colMap[colName] = f
		fields = append(fields, f)
	}

	// 没有 pk 标签的时候回退到命名约定
	if pk == nil {
		for _, name := range []string{"Id", "ID"} {
			if f, ok := fds[name]; ok {
				f.IsPrimaryKey = true
				pk = f
				break
			}
		}
	}

	// Get the table name from the input value if it implements TableName interface
	var tableName string
	if tn, ok := val.(TableName); ok {
		tableName = tn.TableName()
	}
	if tableName == "" {
		tableName = underscoreName(typ.Name())
	}

	m := &Model{
		TableName:     tableName,
		TypeName:      typ.Name(),
		Type:          typ,
		Fields:        fields,
		FieldMap:      fds,
		ColumnMap:     colMap,
		PrimaryKey:    pk,
		Relationships: make(map[string]*Relationship, 4),
	}

	// 实体通过 Relational 接口声明的关联，在这里解析并补全默认值
	if rel, ok := val.(Relational); ok {
		for _, rs := range rel.Relationships() {
			if err := rs.resolve(m.TypeName, typ); err != nil {
				return nil, err
			}
			m.Relationships[rs.Name] = rs
		}
	}

	return m, nil
}

// parseTag parses the given struct tag and returns a map of key-value pairs.
// If the tag is empty, it returns an empty map and no error.
// 支持两种形式：key=value，以及 pk、- 这种开关
func (r *registry) parseTag(tag reflect.StructTag) (map[string]string, error) {
	ormTag := tag.Get(tagORMName)
	if ormTag == "" {
		// Return an empty map so that the caller doesn't need to check for nil
		return map[string]string{}, nil
	}

	res := make(map[string]string, 2)

	pairs := strings.Split(ormTag, ",")
	for _, pair := range pairs {
		kv := strings.SplitN(pair, "=", 2)
		if len(kv) == 1 {
			// 开关型标签，例如 pk
			res[kv[0]] = "true"
			continue
		}
		if kv[0] == "" || kv[1] == "" {
			return nil, errs.NewErrInvalidTagContent(pair)
		}
		res[kv[0]] = kv[1]
	}

	return res, nil
}

// underscoreName converts a given table name to underscore case.
// It replaces any uppercase letter with an underscore followed by the lowercase letter.
// UserName -> user_name
func underscoreName(tableName string) string {
	var buf []byte
	for i, v := range tableName {
		if unicode.IsUpper(v) {
			if i != 0 {
				buf = append(buf, '_')
			}
			buf = append(buf, byte(unicode.ToLower(v)))
		} else {
			buf = append(buf, byte(v))
		}
	}
	return string(buf)
}

// WithTableName is an Option function that sets the table name for a Model.
func WithTableName(tableName string) Option {
	return func(model *Model) error {
		model.TableName = tableName
		return nil
	}
}

// WithColumnName is a function that returns an Option function, which can be used to set the column name for a specific Field in a model.
func WithColumnName(field, columnName string) Option {
	return func(model *Model) error {
		fd, ok := model.FieldMap[field]
		if !ok {
			return errs.NewErrUnknownField(field)
		}

		// 同步维护两个 map，不然按列名找字段的时候就找不到了
		delete(model.ColumnMap, fd.ColName)
		fd.ColName = columnName
		model.ColumnMap[columnName] = fd
		return nil
	}
}

// WithRelationship 注册的时候额外挂一条关联关系
// 与实体实现 Relational 接口等价，适合没法改实体定义的场景
func WithRelationship(rs *Relationship) Option {
	return func(model *Model) error {
		if err := rs.resolve(model.TypeName, model.Type); err != nil {
			return err
		}
		model.Relationships[rs.Name] = rs
		return nil
	}
}
