package orm

import (
	"strings"

	"github.com/coderi421/kasane/orm/internal/errs"
	"github.com/coderi421/kasane/orm/model"
)

type builder struct {
	sb      strings.Builder // sb is used to build the SQL query string.
	args    []any           // args holds the arguments for the query.
	model   *model.Model    // model is the model associated with the builder.
	dialect Dialect
	quoter  byte
}

// reset 清空上一次构造的语句和参数
// 中间件里可能先调一次 Build，之后执行入口还会再调，必须保证重复调用结果一致
func (b *builder) reset() {
	b.sb.Reset()
	b.args = nil
}

// quote 给表名、列名加上方言对应的引号
func (b *builder) quote(name string) {
	b.sb.WriteByte(b.quoter)
	b.sb.WriteString(name)
	b.sb.WriteByte(b.quoter)
}

// buildColumn 把结构体字段名转换成列名并写入
// name 是 Go 字段名，不是数据库列名
func (b *builder) buildColumn(name string) error {
	fd, ok := b.model.FieldMap[name]
	if !ok {
		return errs.NewErrUnknownField(name)
	}
	b.quote(fd.ColName)
	return nil
}

// buildPredicates builds the predicates for the given list of predicates.
func (b *builder) buildPredicates(ps []Predicate) error {
	// Take the first predicate as the starting node.
	p := ps[0]

	// Iterate through the remaining predicates.
	for i := 1; i < len(ps); i++ {
		// Merge multiple predicates using the `And` method.
		p = p.And(ps[i])
	}

	// Recursively process the where statement.
	return b.buildExpression(p)
}

// buildExpression builds the SQL query for the given expression.
// It takes an expression as input and recursively constructs the SQL query.
// The SQL query is stored in the builder's string buffer (b.sb).
// The argument values are stored in the builder's argument list (b.args).
func (b *builder) buildExpression(e Expression) error {
	// Column 代表是列名，直接拼接列名
	// value 代表参数，加入参数列表
	// Predicate 代表一个查询条件：
	// 如果左边是一个 Predicate，那么加上括号
	// 递归构造左边
	// 构造操作符
	// 如果右边是一个 Predicate，那么加上括号
	if e == nil {
		return nil
	}

	switch expr := e.(type) {
	case Column:
		if err := b.buildColumn(expr.name); err != nil {
			return err
		}
	case value:
		// Append placeholder to the SQL query and add value to the argument list
		b.sb.WriteByte('?')
		b.addArgs(expr.val)
	case values:
		// IN 右边的参数列表 (?,?,?)
		b.sb.WriteByte('(')
		for i, v := range expr.vals {
			if i > 0 {
				b.sb.WriteByte(',')
			}
			b.sb.WriteByte('?')
			b.addArgs(v)
		}
		b.sb.WriteByte(')')
	case RawExpr:
		// 执行原生 sql 语句
		b.sb.WriteString(expr.raw)
		if len(expr.args) != 0 {
			b.addArgs(expr.args...)
		}
	case MathExpr:
		return b.buildBinaryExpr(binaryExpr(expr))
	case Aggregate:
		// HAVING COUNT(`id`) > ? 这种场景
		b.sb.WriteString(expr.fn)
		b.sb.WriteByte('(')
		if err := b.buildColumn(expr.arg); err != nil {
			return err
		}
		b.sb.WriteByte(')')
	case Predicate:
		// Build left expression
		// 如果左边有复杂结构，则在最外边套一层括号
		_, lp := expr.left.(Predicate)
		if lp {
			b.sb.WriteByte('(')
		}
		if err := b.buildExpression(expr.left); err != nil {
			return err
		}
		if lp {
			b.sb.WriteByte(')')
		}

		if expr.op == "" {
			// 如果只有左边（op 符号为空，就不需要连接），例如执行原生 sql raw 的时候，就只有左边
			return nil
		}

		// Append operator to the SQL query
		b.sb.WriteByte(' ')
		b.sb.WriteString(expr.op.String())
		b.sb.WriteByte(' ')

		// Build right expression
		_, rp := expr.right.(Predicate)
		if rp {
			b.sb.WriteByte('(')
		}
		if err := b.buildExpression(expr.right); err != nil {
			return err
		}
		if rp {
			b.sb.WriteByte(')')
		}
	default:
		return errs.NewErrUnsupportedExpressionType(expr)
	}

	return nil
}

func (b *builder) buildBinaryExpr(e binaryExpr) error {
	err := b.buildSubExpr(e.left)
	if err != nil {
		return err
	}
	if e.op != "" {
		b.sb.WriteString(e.op.String())
	}
	return b.buildSubExpr(e.right)
}

func (b *builder) buildSubExpr(subExpr Expression) error {
	switch sub := subExpr.(type) {
	case MathExpr:
		b.sb.WriteByte('(')
		if err := b.buildBinaryExpr(binaryExpr(sub)); err != nil {
			return err
		}
		b.sb.WriteByte(')')
	case value:
		b.sb.WriteByte('?')
		b.addArgs(sub.val)
	case Column:
		return b.buildColumn(sub.name)
	}
	return nil
}

// buildAs 拼接别名
func (b *builder) buildAs(alias string) {
	if alias != "" {
		b.sb.WriteString(" AS ")
		b.quote(alias)
	}
}

func (b *builder) addArgs(args ...any) {
	if b.args == nil {
		b.args = make([]any, 0, 8)
	}
	b.args = append(b.args, args...)
}
