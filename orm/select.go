package orm

import (
	"context"

	"github.com/coderi421/kasane/orm/internal/errs"
)

// Selector represents a query selector that allows building SQL SELECT statements.
// It holds the necessary information to construct the query.
type Selector[T any] struct {
	// select delete update insert 都需要使用
	builder

	table  string      // table is the name of the table to select from.
	where  []Predicate // where holds the WHERE predicates for the query.
	having []Predicate

	columns []Selectable
	groupBy []Column
	orderBy []OrderBy
	offset  int
	limit   int

	// preloads 基础查询完成之后要做的批量预加载，按声明顺序执行
	preloads []string

	core
	sess Session
}

// NewSelector creates a new instance of Selector.
func NewSelector[T any](sess Session) *Selector[T] {
	c := sess.getCore()
	return &Selector[T]{
		core: c,
		sess: sess,
		builder: builder{
			dialect: c.dialect,
			quoter:  c.dialect.quoter(),
		},
	}
}

// Select 检索指定 column
func (s *Selector[T]) Select(cols ...Selectable) *Selector[T] {
	s.columns = cols
	return s
}

// From sets the table name for the selector.
// It returns the updated selector.
func (s *Selector[T]) From(tbl string) *Selector[T] {
	s.table = tbl
	return s
}

// Build generates a SQL query for selecting all columns from a table.
// It returns the generated query as a *Query struct or an error if there was any.
func (s *Selector[T]) Build() (*Query, error) {
	s.reset()
	var (
		t   T
		err error
	)

	s.model, err = s.r.Get(&t)
	if err != nil {
		return nil, err
	}

	s.sb.WriteString("SELECT ")
	if err = s.buildColumns(); err != nil {
		return nil, err
	}
	s.sb.WriteString(" FROM ")

	if s.table == "" {
		s.quote(s.model.TableName)
	} else {
		// 这里没有处理添加引号，让用户知道自己在做什么
		s.sb.WriteString(s.table)
	}

	// construct where
	if len(s.where) > 0 {
		// 类似这种可有可无的部分，都要在前面加一个空格
		// 没有将 WHERE 也放到 buildPredicates 中是因为可能有 HAVING 的情况
		s.sb.WriteString(" WHERE ")
		if err = s.buildPredicates(s.where); err != nil {
			return nil, err
		}
	}

	// 分组
	if len(s.groupBy) > 0 {
		s.sb.WriteString(" GROUP BY ")
		for i, c := range s.groupBy {
			if i > 0 {
				s.sb.WriteByte(',')
			}
			if err = s.buildColumn(c.name); err != nil {
				return nil, err
			}
		}
	}

	// 筛选
	if len(s.having) > 0 {
		s.sb.WriteString(" HAVING ")
		if err = s.buildPredicates(s.having); err != nil {
			return nil, err
		}
	}

	// 排序
	if len(s.orderBy) > 0 {
		s.sb.WriteString(" ORDER BY ")
		if err = s.buildOrderBy(); err != nil {
			return nil, err
		}
	}

	// 分页
	if s.limit > 0 {
		s.sb.WriteString(" LIMIT ?")
		s.addArgs(s.limit)
	}

	// 偏移量
	if s.offset > 0 {
		s.sb.WriteString(" OFFSET ?")
		s.addArgs(s.offset)
	}

	s.sb.WriteString(";")

	return &Query{
		SQL:  s.sb.String(),
		Args: s.args,
	}, nil
}

func (s *Selector[T]) buildColumns() error {
	if len(s.columns) == 0 {
		s.sb.WriteByte('*')
		return nil
	}

	for i, c := range s.columns {
		if i > 0 {
			s.sb.WriteByte(',')
		}

		switch val := c.(type) {
		case Column:
			if err := s.buildColumn(val.name); err != nil {
				return err
			}
			s.buildAs(val.alias)
		case Aggregate:
			if err := s.buildAggregate(val); err != nil {
				return err
			}
		case RawExpr:
			s.sb.WriteString(val.raw)
			if len(val.args) != 0 {
				s.addArgs(val.args...)
			}
		default:
			return errs.NewErrUnsupportedSelectable(c)
		}
	}

	return nil
}

func (s *Selector[T]) buildAggregate(a Aggregate) error {
	s.sb.WriteString(a.fn)
	s.sb.WriteByte('(')
	if err := s.buildColumn(a.arg); err != nil {
		return err
	}
	s.sb.WriteByte(')')
	s.buildAs(a.alias)
	return nil
}

func (s *Selector[T]) buildOrderBy() error {
	for i, ob := range s.orderBy {
		if i > 0 {
			s.sb.WriteByte(',')
		}

		if err := s.buildColumn(ob.col); err != nil {
			return err
		}
		s.sb.WriteByte(' ')
		s.sb.WriteString(ob.order)
	}
	return nil
}

// Where 用于构造 WHERE 查询条件。如果 ps 长度为 0，那么不会构造 WHERE 部分
func (s *Selector[T]) Where(ps ...Predicate) *Selector[T] {
	s.where = ps
	return s
}

func (s *Selector[T]) GroupBy(cols ...Column) *Selector[T] {
	s.groupBy = cols
	return s
}

func (s *Selector[T]) Having(ps ...Predicate) *Selector[T] {
	s.having = ps
	return s
}

func (s *Selector[T]) Offset(offset int) *Selector[T] {
	s.offset = offset
	return s
}

func (s *Selector[T]) Limit(limit int) *Selector[T] {
	s.limit = limit
	return s
}

func (s *Selector[T]) OrderBy(orderBys ...OrderBy) *Selector[T] {
	s.orderBy = orderBys
	return s
}

// Preload 声明基础查询之后要预加载的关联关系，可以链式调用多次
// 每个关联关系只会发起一到两条查询，跟实体数量无关
func (s *Selector[T]) Preload(relations ...string) *Selector[T] {
	s.preloads = append(s.preloads, relations...)
	return s
}

// Get 根据拼接成的 sql 文，到 db 中获取数据
func (s *Selector[T]) Get(ctx context.Context) (*T, error) {
	// 提前解析元数据，中间件上下文里需要
	meta, err := s.r.Get(new(T))
	if err != nil {
		return nil, err
	}

	res := get[T](ctx, s.sess, s.core, &QueryContext{
		Type:    "SELECT",
		Builder: s,
		Model:   meta,
	})
	if res.Err != nil {
		return nil, res.Err
	}

	tp := res.Result.(*T)

	// 把懒加载容器和会话挂起来，之后调用 Load 才能发查询
	attachRelationLoaders(s.sess, s.core, meta, tp)

	if len(s.preloads) > 0 {
		if err = preloadRelations(ctx, s.sess, s.core, meta, []*T{tp}, s.preloads); err != nil {
			return nil, err
		}
	}

	return tp, nil
}

// GetMulti 查询多行数据，之后按声明顺序执行各个预加载阶段
func (s *Selector[T]) GetMulti(ctx context.Context) ([]*T, error) {
	meta, err := s.r.Get(new(T))
	if err != nil {
		return nil, err
	}

	res := getMulti[T](ctx, s.sess, s.core, &QueryContext{
		Type:    "SELECT",
		Builder: s,
		Model:   meta,
	})
	if res.Err != nil {
		return nil, res.Err
	}

	tps := res.Result.([]*T)

	for _, tp := range tps {
		attachRelationLoaders(s.sess, s.core, meta, tp)
	}

	if len(s.preloads) > 0 {
		if err = preloadRelations(ctx, s.sess, s.core, meta, tps, s.preloads); err != nil {
			return nil, err
		}
	}

	return tps, nil
}

// Selectable 暂时没什么作用只是用作标记，可检索指定字段的标记
// 让结构体实现这个接口，就可以传入
// 使用接口为的是：让 聚合函数， columns， 以及 RawExpr（原生sql） 都能作为参数传入统一个函数，做统一处理
type Selectable interface {
	selectable()
}

type OrderBy struct {
	col   string
	order string
}

func ASC(col string) OrderBy {
	return OrderBy{
		col:   col,
		order: "ASC",
	}
}

func Desc(col string) OrderBy {
	return OrderBy{
		col:   col,
		order: "DESC",
	}
}
