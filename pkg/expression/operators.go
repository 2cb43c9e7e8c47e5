package expression

import "strings"

// ComparisonOperator is the comparison role of an expression used as a
// condition operator parameter
type ComparisonOperator int

const (
	Equal ComparisonOperator = iota
	LessThan
	GreaterThan
	LessOrEqual
	GreaterOrEqual
	NotEqual
	UndefinedComparison
)

var comparisonSymbols = [...]string{"=", "<", ">", "<=", ">=", "!=", "undefined"}

func (op ComparisonOperator) String() string {
	if op < Equal || op > UndefinedComparison {
		return "undefined"
	}
	return comparisonSymbols[op]
}

// Compare reports whether lhs op rhs holds. Undefined never holds.
func (op ComparisonOperator) Compare(lhs, rhs float64) bool {
	switch op {
	case Equal:
		return lhs == rhs
	case LessThan:
		return lhs < rhs
	case GreaterThan:
		return lhs > rhs
	case LessOrEqual:
		return lhs <= rhs
	case GreaterOrEqual:
		return lhs >= rhs
	case NotEqual:
		return lhs != rhs
	}
	return false
}

// CompareText compares two strings; only Equal and NotEqual are meaningful
func (op ComparisonOperator) CompareText(lhs, rhs string) bool {
	switch op {
	case Equal:
		return lhs == rhs
	case NotEqual:
		return lhs != rhs
	}
	return false
}

// ScanComparison returns the first comparison token found in s outside of
// string literals. Two-character tokens win over their one-character prefix.
func ScanComparison(s string) ComparisonOperator {
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '"':
			end := skipString(s, i)
			if end < 0 {
				return UndefinedComparison
			}
			i = end - 1
		case '<':
			if i+1 < len(s) && s[i+1] == '=' {
				return LessOrEqual
			}
			return LessThan
		case '>':
			if i+1 < len(s) && s[i+1] == '=' {
				return GreaterOrEqual
			}
			return GreaterThan
		case '!':
			if i+1 < len(s) && s[i+1] == '=' {
				return NotEqual
			}
		case '=':
			return Equal
		}
	}
	return UndefinedComparison
}

// ModificationOperator is the modification role of an expression used as an
// action operator parameter
type ModificationOperator int

const (
	Set ModificationOperator = iota
	Add
	Subtract
	Multiply
	Divide
	UndefinedModification
)

var modificationSymbols = [...]string{"=", "+", "-", "*", "/", "undefined"}

func (op ModificationOperator) String() string {
	if op < Set || op > UndefinedModification {
		return "undefined"
	}
	return modificationSymbols[op]
}

// Apply returns current modified by value. Undefined leaves current unchanged.
func (op ModificationOperator) Apply(current, value float64) float64 {
	switch op {
	case Set:
		return value
	case Add:
		return current + value
	case Subtract:
		return current - value
	case Multiply:
		return current * value
	case Divide:
		return current / value
	}
	return current
}

// ApplyText supports Set and Add (concatenation) on strings
func (op ModificationOperator) ApplyText(current, value string) string {
	switch op {
	case Set:
		return value
	case Add:
		return current + value
	}
	return current
}

// ScanModification classifies s as a modification operator. Only a string
// made of a single operator token qualifies, as every arithmetic formula
// contains '+' or '-'.
func ScanModification(s string) ModificationOperator {
	switch strings.TrimSpace(s) {
	case "=":
		return Set
	case "+":
		return Add
	case "-":
		return Subtract
	case "*":
		return Multiply
	case "/":
		return Divide
	}
	return UndefinedModification
}
