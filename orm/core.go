package orm

import (
	"context"

	"github.com/coderi421/kasane/orm/internal/valuer"
	"github.com/coderi421/kasane/orm/model"
)

type core struct {
	dialect    Dialect
	r          model.Registry // 存储数据库表和 struct 映射关系的实例
	valCreator valuer.Creator // 与DB交互映射的实现
	mdls       []Middleware
}

// get 单行查询的执行入口，套上中间件之后调用 getHandler
func get[T any](ctx context.Context, sess Session, c core, qc *QueryContext) *QueryResult {
	var handler Handler = func(ctx context.Context, qc *QueryContext) *QueryResult {
		return getHandler[T](ctx, sess, c, qc)
	}

	ms := c.mdls
	for i := len(ms) - 1; i >= 0; i-- {
		handler = ms[i](handler)
	}
	return handler(ctx, qc)
}

func getHandler[T any](ctx context.Context, sess Session, c core, qc *QueryContext) *QueryResult {
	q, err := qc.Builder.Build()
	if err != nil {
		return &QueryResult{Err: err}
	}

	rows, err := sess.queryContext(ctx, q.SQL, q.Args...)
	if err != nil {
		return &QueryResult{Err: err}
	}
	defer func() { _ = rows.Close() }()

	if !rows.Next() {
		return &QueryResult{Err: ErrNoRows}
	}

	// 创建与 db table 对应的 *struct
	tp := new(T)
	meta, err := c.r.Get(tp)
	if err != nil {
		return &QueryResult{Err: err}
	}

	// 使用存在映射关系的实体 val，将 rows 中的数据映射到 *struct[T] 中
	val := c.valCreator(tp, meta)
	if err = val.SetColumns(rows); err != nil {
		return &QueryResult{Err: err}
	}

	return &QueryResult{Result: tp}
}

// getMulti 多行查询的执行入口
func getMulti[T any](ctx context.Context, sess Session, c core, qc *QueryContext) *QueryResult {
	var handler Handler = func(ctx context.Context, qc *QueryContext) *QueryResult {
		return getMultiHandler[T](ctx, sess, c, qc)
	}

	ms := c.mdls
	for i := len(ms) - 1; i >= 0; i-- {
		handler = ms[i](handler)
	}
	return handler(ctx, qc)
}

func getMultiHandler[T any](ctx context.Context, sess Session, c core, qc *QueryContext) *QueryResult {
	q, err := qc.Builder.Build()
	if err != nil {
		return &QueryResult{Err: err}
	}

	rows, err := sess.queryContext(ctx, q.SQL, q.Args...)
	if err != nil {
		return &QueryResult{Err: err}
	}
	defer func() { _ = rows.Close() }()

	meta, err := c.r.Get(new(T))
	if err != nil {
		return &QueryResult{Err: err}
	}

	res := make([]*T, 0, 16)
	for rows.Next() {
		tp := new(T)
		val := c.valCreator(tp, meta)
		if err = val.SetColumns(rows); err != nil {
			return &QueryResult{Err: err}
		}
		res = append(res, tp)
	}
	if err = rows.Err(); err != nil {
		return &QueryResult{Err: err}
	}

	return &QueryResult{Result: res}
}

// exec 写语句的执行入口
func exec(ctx context.Context, sess Session, c core, qc *QueryContext) *QueryResult {
	var handler Handler = func(ctx context.Context, qc *QueryContext) *QueryResult {
		q, err := qc.Builder.Build()
		if err != nil {
			return &QueryResult{Err: err}
		}

		res, err := sess.execContext(ctx, q.SQL, q.Args...)
		return &QueryResult{Result: res, Err: err}
	}

	ms := c.mdls
	for i := len(ms) - 1; i >= 0; i-- {
		handler = ms[i](handler)
	}
	return handler(ctx, qc)
}
