package expr

// Таблица приоритетов; чем больше число, тем выше приоритет.
const (
	precLogicalOr  = 1 // ||
	precLogicalAnd = 2 // &&
	precEquality   = 3 // == !=
	precComparison = 4 // < <= > >=
)

// binaryPrec возвращает приоритет оператора или -1, если токен не бинарный.
func binaryPrec(kind tokKind) int {
	switch kind {
	case tokOrOr:
		return precLogicalOr
	case tokAndAnd:
		return precLogicalAnd
	case tokEqEq, tokNotEq:
		return precEquality
	case tokLess, tokLessEq, tokGreater, tokGreaterEq:
		return precComparison
	default:
		return -1
	}
}

func binaryOp(kind tokKind) BinaryOp {
	switch kind {
	case tokOrOr:
		return OpOr
	case tokAndAnd:
		return OpAnd
	case tokEqEq:
		return OpEq
	case tokNotEq:
		return OpNotEq
	case tokLess:
		return OpLess
	case tokLessEq:
		return OpLessEq
	case tokGreater:
		return OpGreater
	default:
		return OpGreaterEq
	}
}
