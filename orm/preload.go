package orm

import (
	"context"
	"reflect"
	"strings"

	"github.com/coderi421/kasane/orm/internal/errs"
	"github.com/coderi421/kasane/orm/internal/identity"
	"github.com/coderi421/kasane/orm/model"
)

// 批量预加载：一批父实体、一条关联关系，固定条数的查询
// has_many、has_one、belongs_to 各一条，many_to_many 最多两条
// 每条关联独立处理，前面的失败直接中断，已经写回的结果不回滚

func preloadRelations[T any](ctx context.Context, sess Session, c core,
	meta *model.Model, ents []*T, relations []string) error {
	if len(ents) == 0 {
		return nil
	}
	parents := make([]any, 0, len(ents))
	for _, e := range ents {
		parents = append(parents, e)
	}
	for _, name := range relations {
		rel, ok := meta.Relationships[name]
		if !ok {
			return errs.NewErrUnknownRelation(name)
		}
		var err error
		switch rel.Kind {
		case model.RelationHasMany:
			err = preloadToMany(ctx, sess, c, meta, rel, parents, false)
		case model.RelationHasOne:
			err = preloadToMany(ctx, sess, c, meta, rel, parents, true)
		case model.RelationBelongsTo:
			err = preloadBelongsTo(ctx, sess, c, meta, rel, parents)
		case model.RelationManyToMany:
			err = preloadManyToMany(ctx, sess, c, meta, rel, parents)
		default:
			err = errs.NewErrInvalidRelationConfig(rel.Name, "未知关联类型")
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// preloadToMany 一条子表查询搞定 has_many 和 has_one
// single 为真的时候每个父实体只保留结果序里的第一条
func preloadToMany(ctx context.Context, sess Session, c core,
	meta *model.Model, rel *model.Relationship, parents []any, single bool) error {
	pk := meta.PrimaryKey
	if pk == nil {
		return errs.NewErrMissingField(meta.TypeName, "Id")
	}
	rm, err := relatedMeta(c, rel)
	if err != nil {
		return err
	}
	fk, ok := rm.FieldMap[rel.ForeignKey]
	if !ok {
		return errs.NewErrMissingField(rm.TypeName, rel.ForeignKey)
	}

	keys, valid, params := extractKeys(parents, pk.Index)
	if len(params) == 0 {
		// 一个键都取不出来，一条查询都不发，全部写回空结果
		return assignEmpty(parents, rel, rm, single)
	}

	children, err := queryRelatedIn(ctx, sess, c, rm, fk.ColName, params)
	if err != nil {
		return err
	}

	// 按外键值分组，外键取不出来的行丢掉
	groups := make(map[any][]reflect.Value, len(parents))
	for _, ch := range children {
		idv, ok := identity.FromField(ch.Interface(), fk.Index)
		if !ok {
			continue
		}
		k := idv.Key()
		if single && len(groups[k]) > 0 {
			continue
		}
		groups[k] = append(groups[k], ch)
	}

	for i, p := range parents {
		var group []reflect.Value
		if valid[i] {
			group = groups[keys[i].Key()]
		}
		if single {
			var child reflect.Value
			if len(group) > 0 {
				child = group[0]
			}
			if err = setRelationSingle(p, rel, child); err != nil {
				return err
			}
		} else {
			if err = setRelationSlice(p, rel, rm, group); err != nil {
				return err
			}
		}
	}
	return nil
}

// preloadBelongsTo 一条父表查询搞定反向关联
// 外键值去重之后再进 IN，悬空外键写回 nil
func preloadBelongsTo(ctx context.Context, sess Session, c core,
	meta *model.Model, rel *model.Relationship, parents []any) error {
	fk, ok := meta.FieldMap[rel.ForeignKey]
	if !ok {
		return errs.NewErrMissingField(meta.TypeName, rel.ForeignKey)
	}
	rm, err := relatedMeta(c, rel)
	if err != nil {
		return err
	}
	if rm.PrimaryKey == nil {
		return errs.NewErrInvalidRelationConfig(rel.Name, "关联实体没有主键")
	}

	keys := make([]identity.Value, len(parents))
	valid := make([]bool, len(parents))
	seen := make(map[any]struct{}, len(parents))
	params := make([]any, 0, len(parents))
	for i, p := range parents {
		idv, ok := identity.FromField(p, fk.Index)
		if !ok {
			continue
		}
		keys[i], valid[i] = idv, true
		if _, dup := seen[idv.Key()]; dup {
			continue
		}
		seen[idv.Key()] = struct{}{}
		params = append(params, idv.Param())
	}
	if len(params) == 0 {
		return assignEmpty(parents, rel, rm, true)
	}

	targets, err := queryRelatedIn(ctx, sess, c, rm, rm.PrimaryKey.ColName, params)
	if err != nil {
		return err
	}
	index := indexByField(targets, rm.PrimaryKey.Index)

	for i, p := range parents {
		var target reflect.Value
		if valid[i] {
			if t, ok := index[keys[i].Key()]; ok {
				target = t
			}
		}
		if err = setRelationSingle(p, rel, target); err != nil {
			return err
		}
	}
	return nil
}

// preloadManyToMany 先查中间表拿配对，再按去重后的标识查实体表
func preloadManyToMany(ctx context.Context, sess Session, c core,
	meta *model.Model, rel *model.Relationship, parents []any) error {
	if rel.JunctionTable == "" {
		return errs.NewErrInvalidRelationConfig(rel.Name, "未声明中间表")
	}
	pk := meta.PrimaryKey
	if pk == nil {
		return errs.NewErrMissingField(meta.TypeName, "Id")
	}
	rm, err := relatedMeta(c, rel)
	if err != nil {
		return err
	}
	if rm.PrimaryKey == nil {
		return errs.NewErrInvalidRelationConfig(rel.Name, "关联实体没有主键")
	}

	keys, valid, params := extractKeys(parents, pk.Index)
	if len(params) == 0 {
		return assignEmpty(parents, rel, rm, false)
	}

	pairs, relatedParams, err := queryJunction(ctx, sess, c, rel, pk, rm.PrimaryKey, params)
	if err != nil {
		return err
	}

	byParent := make(map[any][]reflect.Value, len(parents))
	if len(pairs) > 0 {
		children, err := queryRelatedIn(ctx, sess, c, rm, rm.PrimaryKey.ColName, relatedParams)
		if err != nil {
			return err
		}
		index := indexByField(children, rm.PrimaryKey.Index)
		for _, pr := range pairs {
			if ch, ok := index[pr.relatedKey.Key()]; ok {
				byParent[pr.parentKey] = append(byParent[pr.parentKey], ch)
			}
		}
	}

	for i, p := range parents {
		var group []reflect.Value
		if valid[i] {
			group = byParent[keys[i].Key()]
		}
		if err = setRelationSlice(p, rel, rm, group); err != nil {
			return err
		}
	}
	return nil
}

type junctionPair struct {
	parentKey  any
	relatedKey identity.Value
}

// queryJunction 查中间表，返回配对和去重后的关联标识参数
// 配对保持结果序，关联参数按首次出现的顺序去重
func queryJunction(ctx context.Context, sess Session, c core, rel *model.Relationship,
	parentPK *model.Field, relatedPK *model.Field, params []any) ([]junctionPair, []any, error) {
	var sb strings.Builder
	quoter := c.dialect.quoter()
	sb.WriteString("SELECT ")
	writeQuoted(&sb, quoter, rel.JunctionParentCol)
	sb.WriteByte(',')
	writeQuoted(&sb, quoter, rel.JunctionRelatedCol)
	sb.WriteString(" FROM ")
	writeQuoted(&sb, quoter, rel.JunctionTable)
	sb.WriteString(" WHERE ")
	writeQuoted(&sb, quoter, rel.JunctionParentCol)
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
		return nil, nil, err
	}
	defer func() { _ = rows.Close() }()

	pairs := make([]junctionPair, 0, 16)
	seen := make(map[any]struct{}, 16)
	relatedParams := make([]any, 0, 16)
	for rows.Next() {
		pv := reflect.New(parentPK.Type)
		rv := reflect.New(relatedPK.Type)
		if err = rows.Scan(pv.Interface(), rv.Interface()); err != nil {
			return nil, nil, err
		}
		pidv, ok := identity.FromReflect(pv.Elem())
		if !ok {
			continue
		}
		ridv, ok := identity.FromReflect(rv.Elem())
		if !ok {
			continue
		}
		pairs = append(pairs, junctionPair{parentKey: pidv.Key(), relatedKey: ridv})
		if _, dup := seen[ridv.Key()]; !dup {
			seen[ridv.Key()] = struct{}{}
			relatedParams = append(relatedParams, ridv.Param())
		}
	}
	return pairs, relatedParams, rows.Err()
}

// extractKeys 批量提取父实体的标识，取不出来的跳过
func extractKeys(parents []any, fieldIndex int) ([]identity.Value, []bool, []any) {
	keys := make([]identity.Value, len(parents))
	valid := make([]bool, len(parents))
	params := make([]any, 0, len(parents))
	for i, p := range parents {
		idv, ok := identity.FromField(p, fieldIndex)
		if !ok {
			continue
		}
		keys[i], valid[i] = idv, true
		params = append(params, idv.Param())
	}
	return keys, valid, params
}

func assignEmpty(parents []any, rel *model.Relationship, rm *model.Model, single bool) error {
	for _, p := range parents {
		var err error
		if single {
			err = setRelationSingle(p, rel, reflect.Value{})
		} else {
			err = setRelationSlice(p, rel, rm, nil)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// setRelationSlice 把一组关联实体写回父实体的关联字段
// 支持 Lazy 容器、指针切片和值切片三种形态
func setRelationSlice(parent any, rel *model.Relationship, rm *model.Model, children []reflect.Value) error {
	field := reflect.ValueOf(parent).Elem().Field(rel.FieldIndex)
	if field.CanAddr() {
		if lr, ok := field.Addr().Interface().(lazyRelation); ok {
			typ := lr.relationValueType()
			if typ.Kind() != reflect.Slice {
				return errs.NewErrInvalidRelationConfig(rel.Name, "容器值类型不是切片")
			}
			slice, err := buildSlice(rel, typ, children)
			if err != nil {
				return err
			}
			lr.setDescriptor(rel)
			lr.setLoaded(slice.Interface())
			return nil
		}
	}
	if field.Kind() == reflect.Slice {
		slice, err := buildSlice(rel, field.Type(), children)
		if err != nil {
			return err
		}
		field.Set(slice)
		return nil
	}
	return errs.NewErrInvalidRelationConfig(rel.Name, "关联字段不是切片也不是懒加载容器")
}

// setRelationSingle 把单个关联实体写回父实体，child 无效表示没有匹配
func setRelationSingle(parent any, rel *model.Relationship, child reflect.Value) error {
	field := reflect.ValueOf(parent).Elem().Field(rel.FieldIndex)
	if field.CanAddr() {
		if lr, ok := field.Addr().Interface().(lazyRelation); ok {
			typ := lr.relationValueType()
			if typ.Kind() != reflect.Ptr {
				return errs.NewErrInvalidRelationConfig(rel.Name, "容器值类型不是指针")
			}
			lr.setDescriptor(rel)
			if !child.IsValid() {
				lr.setLoaded(reflect.Zero(typ).Interface())
			} else {
				lr.setLoaded(child.Interface())
			}
			return nil
		}
	}
	switch field.Kind() {
	case reflect.Ptr:
		if !child.IsValid() {
			field.Set(reflect.Zero(field.Type()))
		} else {
			field.Set(child)
		}
		return nil
	case reflect.Struct:
		// 值类型字段没法表达「没有匹配」，查不到就保持零值
		if child.IsValid() {
			field.Set(child.Elem())
		}
		return nil
	default:
		return errs.NewErrInvalidRelationConfig(rel.Name, "关联字段不是指针也不是懒加载容器")
	}
}

// buildSlice 按目标切片的元素类型决定存指针还是存值
func buildSlice(rel *model.Relationship, typ reflect.Type, children []reflect.Value) (reflect.Value, error) {
	slice := reflect.MakeSlice(typ, 0, len(children))
	elem := typ.Elem()
	switch {
	case elem.Kind() == reflect.Ptr && elem.Elem() == rel.RelatedType:
		for _, ch := range children {
			slice = reflect.Append(slice, ch)
		}
	case elem == rel.RelatedType:
		for _, ch := range children {
			slice = reflect.Append(slice, ch.Elem())
		}
	default:
		return reflect.Value{}, errs.NewErrInvalidRelationConfig(rel.Name, "切片元素类型和关联实体不匹配")
	}
	return slice, nil
}
