package orm

// 只拼接 where 中的 一组条件

type Column struct {
	name  string
	alias string
}

func (c Column) expr() {}

func (c Column) selectable() {}

// 实现标记接口，可以用在 UPDATE 和 UPSERT 的赋值部分
func (c Column) assign() {}

func C(name string) Column {
	return Column{name: name}
}

// As 使用值作为接收者，每次都返回一个新的，防止并发问题
func (c Column) As(alias string) Column {
	return Column{
		name:  c.name,
		alias: alias,
	}
}

type value struct {
	val any
}

func (v value) expr() {}

// valueOf creates a new value object with the given value.
// It takes in a generic value and returns a value object.
func valueOf(val any) value {
	return value{val: val}
}

// values IN 右边的参数列表，拼接成 (?,?,?)
type values struct {
	vals []any
}

func (v values) expr() {}

// EQ 例如 C("id").Eq(12)
func (c Column) EQ(arg any) Predicate {
	return Predicate{
		left:  c,
		op:    opEQ,
		right: exprOf(arg), // 如果 arg 不是 Expression 类型 就让他变成这个类型
	}
}

// LT 例如 C("id").LT(12)
func (c Column) LT(arg any) Predicate {
	return Predicate{
		left:  c,
		op:    opLT,
		right: exprOf(arg),
	}
}

func (c Column) GT(arg any) Predicate {
	return Predicate{
		left:  c,
		op:    opGT,
		right: exprOf(arg),
	}
}

// In 例如 C("id").In(1, 2, 3)
// 批量预加载拼接 WHERE fk IN (...) 用的也是它
func (c Column) In(args ...any) Predicate {
	return Predicate{
		left:  c,
		op:    opIN,
		right: values{vals: args},
	}
}

// Add 例如 Assign("Age", C("Age").Add(1))
func (c Column) Add(delta any) MathExpr {
	return MathExpr{
		left:  c,
		op:    opAdd,
		right: valueOf(delta),
	}
}

func (c Column) Multi(m any) MathExpr {
	return MathExpr{
		left:  c,
		op:    opMulti,
		right: valueOf(m),
	}
}
