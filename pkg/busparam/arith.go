package busparam

import "strconv"

// ReduceArithmetic evaluates flat "digits op digits" spans in one
// left-to-right pass. Each result is spliced back and scanning resumes right
// after it, which makes chains left-associative: "2+3*2" -> "5*2" -> "10".
// Operators without digits on both sides are left alone, so "a-b" and "-4"
// are unchanged. Division by zero yields 0.
func ReduceArithmetic(s string) string {
	for i := 0; i < len(s); i++ {
		op := s[i]
		if op != '+' && op != '-' && op != '*' && op != '/' {
			continue
		}
		start := i
		for start > 0 && isDigit(s[start-1]) {
			start--
		}
		end := i + 1
		for end < len(s) && isDigit(s[end]) {
			end++
		}
		if start == i || end == i+1 {
			continue
		}
		result := strconv.Itoa(apply(op, atoi(s[start:i]), atoi(s[i+1:end])))
		s = s[:start] + result + s[end:]
		i = start + len(result) - 1
	}
	return s
}

func apply(op byte, a, b int) int {
	switch op {
	case '+':
		return a + b
	case '-':
		return a - b
	case '*':
		return a * b
	default:
		if b == 0 {
			return 0
		}
		return a / b
	}
}

// atoi parses permissively: anything unparseable, including overflow, is 0.
func atoi(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
