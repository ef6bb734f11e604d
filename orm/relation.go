package orm

import (
	"context"
	"database/sql"
	"reflect"
	"strings"

	"github.com/coderi421/kasane/orm/internal/errs"
	"github.com/coderi421/kasane/orm/internal/identity"
	"github.com/coderi421/kasane/orm/model"
)

// 单体加载：针对一个实体、一条关联关系，发一条查询
// 批量场景不要循环调用这里的方法，那就是 N+1，用 Selector.Preload

// LoadHasMany 加载实体上的一对多关联，返回全部关联实体
// relation 是实体上声明的关联字段名
func LoadHasMany[C any](ctx context.Context, sess Session, entity any, relation string) ([]*C, error) {
	rel, meta, err := relationOf(sess, entity, relation, model.RelationHasMany)
	if err != nil {
		return nil, err
	}
	if err = checkRelatedType[C](rel); err != nil {
		return nil, err
	}
	val, err := loadRelationValue(ctx, sess, sess.getCore(), meta, rel, entity)
	if err != nil {
		return nil, err
	}
	return val.([]*C), nil
}

// LoadHasOne 加载实体上的一对一关联
// 没有匹配数据的时候返回 nil，不是错误
func LoadHasOne[C any](ctx context.Context, sess Session, entity any, relation string) (*C, error) {
	rel, meta, err := relationOf(sess, entity, relation, model.RelationHasOne)
	if err != nil {
		return nil, err
	}
	if err = checkRelatedType[C](rel); err != nil {
		return nil, err
	}
	val, err := loadRelationValue(ctx, sess, sess.getCore(), meta, rel, entity)
	if err != nil || val == nil {
		return nil, err
	}
	return val.(*C), nil
}

// LoadBelongsTo 加载实体的反向关联
// 外键悬空（没有对应的父记录）返回 nil，不是错误
func LoadBelongsTo[P any](ctx context.Context, sess Session, entity any, relation string) (*P, error) {
	rel, meta, err := relationOf(sess, entity, relation, model.RelationBelongsTo)
	if err != nil {
		return nil, err
	}
	if err = checkRelatedType[P](rel); err != nil {
		return nil, err
	}
	val, err := loadRelationValue(ctx, sess, sess.getCore(), meta, rel, entity)
	if err != nil || val == nil {
		return nil, err
	}
	return val.(*P), nil
}

// LoadManyToMany 加载实体上的多对多关联，最多两条查询
func LoadManyToMany[C any](ctx context.Context, sess Session, entity any, relation string) ([]*C, error) {
	rel, meta, err := relationOf(sess, entity, relation, model.RelationManyToMany)
	if err != nil {
		return nil, err
	}
	if err = checkRelatedType[C](rel); err != nil {
		return nil, err
	}
	val, err := loadRelationValue(ctx, sess, sess.getCore(), meta, rel, entity)
	if err != nil {
		return nil, err
	}
	return val.([]*C), nil
}

func relationOf(sess Session, entity any, relation string, kind model.RelationKind) (*model.Relationship, *model.Model, error) {
	c := sess.getCore()
	meta, err := c.r.Get(entity)
	if err != nil {
		return nil, nil, err
	}
	rel, ok := meta.Relationships[relation]
	if !ok {
		return nil, nil, errs.NewErrUnknownRelation(relation)
	}
	if rel.Kind != kind {
		return nil, nil, errs.NewErrInvalidRelationConfig(relation, "关联类型是 "+string(rel.Kind))
	}
	return rel, meta, nil
}

// 泛型参数必须就是注册的关联实体类型，否则结果断言会崩
func checkRelatedType[C any](rel *model.Relationship) error {
	if reflect.TypeOf((*C)(nil)).Elem() != rel.RelatedType {
		return errs.NewErrInvalidRelationConfig(rel.Name, "泛型参数和关联实体类型不一致")
	}
	return nil
}

// attachRelationLoaders 把实体上的 Lazy 容器和会话挂起来
// 之后用户调用 Load 的时候才会真正发查询
func attachRelationLoaders(sess Session, c core, meta *model.Model, entity any) {
	if len(meta.Relationships) == 0 {
		return
	}
	refVal := reflect.ValueOf(entity).Elem()
	for _, rel := range meta.Relationships {
		rel := rel
		field := refVal.Field(rel.FieldIndex)
		if !field.CanAddr() {
			continue
		}
		lr, ok := field.Addr().Interface().(lazyRelation)
		if !ok {
			// 普通切片、指针字段走预加载路径，没有懒加载语义
			continue
		}
		lr.bind(rel, func(ctx context.Context) (any, error) {
			return loadRelationValue(ctx, sess, c, meta, rel, entity)
		})
	}
}

// loadRelationValue 单体加载的动态核心，按关联类型分发
// has_many 和 many_to_many 返回关联实体的指针切片，
// has_one 和 belongs_to 返回单个指针或者 nil
func loadRelationValue(ctx context.Context, sess Session, c core,
	meta *model.Model, rel *model.Relationship, entity any) (any, error) {
	switch rel.Kind {
	case model.RelationHasMany, model.RelationHasOne:
		pk := meta.PrimaryKey
		if pk == nil {
			return nil, errs.NewErrMissingField(meta.TypeName, "Id")
		}
		idv, ok := identity.FromField(entity, pk.Index)
		if !ok {
			// 单体模式下键取不出来直接报错，批量模式里才是跳过
			return nil, errs.NewErrMissingField(meta.TypeName, pk.GoName)
		}
		rm, err := relatedMeta(c, rel)
		if err != nil {
			return nil, err
		}
		fk, ok := rm.FieldMap[rel.ForeignKey]
		if !ok {
			return nil, errs.NewErrMissingField(rm.TypeName, rel.ForeignKey)
		}
		children, err := queryRelatedEq(ctx, sess, c, rm, fk.ColName, idv.Param())
		if err != nil {
			return nil, err
		}
		if rel.Kind == model.RelationHasMany {
			return ptrSlice(rm.Type, children), nil
		}
		if len(children) == 0 {
			return nil, nil
		}
		// 多条匹配的时候取结果序里的第一条，需要确定性排序的话在子表查询上自己加
		return children[0].Interface(), nil
	case model.RelationBelongsTo:
		fk, ok := meta.FieldMap[rel.ForeignKey]
		if !ok {
			return nil, errs.NewErrMissingField(meta.TypeName, rel.ForeignKey)
		}
		idv, ok := identity.FromField(entity, fk.Index)
		if !ok {
			return nil, errs.NewErrMissingField(meta.TypeName, fk.GoName)
		}
		rm, err := relatedMeta(c, rel)
		if err != nil {
			return nil, err
		}
		if rm.PrimaryKey == nil {
			return nil, errs.NewErrInvalidRelationConfig(rel.Name, "关联实体没有主键")
		}
		parents, err := queryRelatedEq(ctx, sess, c, rm, rm.PrimaryKey.ColName, idv.Param())
		if err != nil {
			return nil, err
		}
		if len(parents) == 0 {
			// 悬空外键不是错误
			return nil, nil
		}
		return parents[0].Interface(), nil
	case model.RelationManyToMany:
		return loadManyToManyValue(ctx, sess, c, meta, rel, entity)
	default:
		return nil, errs.NewErrInvalidRelationConfig(rel.Name, "未知关联类型")
	}
}

// loadManyToManyValue 单体多对多：一条中间表查询加一条实体查询
func loadManyToManyValue(ctx context.Context, sess Session, c core,
	meta *model.Model, rel *model.Relationship, entity any) (any, error) {
	if rel.JunctionTable == "" {
		return nil, errs.NewErrInvalidRelationConfig(rel.Name, "未声明中间表")
	}
	pk := meta.PrimaryKey
	if pk == nil {
		return nil, errs.NewErrMissingField(meta.TypeName, "Id")
	}
	idv, ok := identity.FromField(entity, pk.Index)
	if !ok {
		return nil, errs.NewErrMissingField(meta.TypeName, pk.GoName)
	}
	rm, err := relatedMeta(c, rel)
	if err != nil {
		return nil, err
	}
	if rm.PrimaryKey == nil {
		return nil, errs.NewErrInvalidRelationConfig(rel.Name, "关联实体没有主键")
	}

	pairs, relatedParams, err := queryJunction(ctx, sess, c, rel, pk, rm.PrimaryKey, []any{idv.Param()})
	if err != nil {
		return nil, err
	}
	if len(pairs) == 0 {
		return ptrSlice(rm.Type, nil), nil
	}

	children, err := queryRelatedIn(ctx, sess, c, rm, rm.PrimaryKey.ColName, relatedParams)
	if err != nil {
		return nil, err
	}
	index := indexByField(children, rm.PrimaryKey.Index)

	res := make([]reflect.Value, 0, len(pairs))
	for _, p := range pairs {
		if ch, ok := index[p.relatedKey.Key()]; ok {
			res = append(res, ch)
		}
	}
	return ptrSlice(rm.Type, res), nil
}

// relatedMeta 获取关联实体的元数据
func relatedMeta(c core, rel *model.Relationship) (*model.Model, error) {
	return c.r.Get(reflect.New(rel.RelatedType).Interface())
}

// queryRelatedEq  SELECT * FROM `tbl` WHERE `col` = ?
func queryRelatedEq(ctx context.Context, sess Session, c core,
	meta *model.Model, col string, param any) ([]reflect.Value, error) {
	var sb strings.Builder
	quoter := c.dialect.quoter()
	sb.WriteString("SELECT * FROM ")
	writeQuoted(&sb, quoter, meta.TableName)
	sb.WriteString(" WHERE ")
	writeQuoted(&sb, quoter, col)
	sb.WriteString(" = ?;")

	rows, err := sess.queryContext(ctx, sb.String(), param)
	if err != nil {
		return nil, err
	}
	return scanRelated(rows, c, meta)
}

// queryRelatedIn  SELECT * FROM `tbl` WHERE `col` IN (?,?,...)
func queryRelatedIn(ctx context.Context, sess Session, c core,
	meta *model.Model, col string, params []any) ([]reflect.Value, error) {
	var sb strings.Builder
	quoter := c.dialect.quoter()
	sb.WriteString("SELECT * FROM ")
	writeQuoted(&sb, quoter, meta.TableName)
	sb.WriteString(" WHERE ")
	writeQuoted(&sb, quoter, col)
	sb.WriteString(" IN (")
	for i := range params {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteByte('?')
	}
	sb.WriteString(");")

	rows, err := sess.queryContext(ctx, sb.String(), params...)
	if err != nil {
		return nil, err
	}
	return scanRelated(rows, c, meta)
}

// scanRelated 把结果集落地成关联实体的指针列表
func scanRelated(rows *sql.Rows, c core, meta *model.Model) ([]reflect.Value, error) {
	defer func() { _ = rows.Close() }()

	res := make([]reflect.Value, 0, 16)
	for rows.Next() {
		tp := reflect.New(meta.Type)
		val := c.valCreator(tp.Interface(), meta)
		if err := val.SetColumns(rows); err != nil {
			return nil, err
		}
		res = append(res, tp)
	}
	return res, rows.Err()
}

// indexByField 按某个标识字段给实体建索引，key 是可比较投影
// 重复的 key 保留先出现的
func indexByField(ents []reflect.Value, fieldIndex int) map[any]reflect.Value {
	res := make(map[any]reflect.Value, len(ents))
	for _, e := range ents {
		idv, ok := identity.FromField(e.Interface(), fieldIndex)
		if !ok {
			continue
		}
		k := idv.Key()
		if _, exists := res[k]; !exists {
			res[k] = e
		}
	}
	return res
}

// ptrSlice 把 []reflect.Value 组装成 []*C 返回
func ptrSlice(typ reflect.Type, vals []reflect.Value) any {
	slice := reflect.MakeSlice(reflect.SliceOf(reflect.PtrTo(typ)), 0, len(vals))
	for _, v := range vals {
		slice = reflect.Append(slice, v)
	}
	return slice.Interface()
}

func writeQuoted(sb *strings.Builder, quoter byte, name string) {
	sb.WriteByte(quoter)
	sb.WriteString(name)
	sb.WriteByte(quoter)
}
