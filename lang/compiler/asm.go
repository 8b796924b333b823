package compiler

import (
	"fmt"
	"strconv"
	"strings"
)

// Disassemble renders fn (and, transitively, every nested *Function in its
// constant pool) as human-readable pseudo-assembly: one function section per
// prototype, constants rendered by Go-syntax literal, instructions one per
// line with their decoded operand. This is the textual form the compiler
// tests assert against; it has no parser counterpart — only encoding is
// needed.
func Disassemble(fn *Function) string {
	var b strings.Builder
	seen := map[*Function]bool{}
	disassembleOne(&b, fn, seen)
	return b.String()
}

func disassembleOne(b *strings.Builder, fn *Function, seen map[*Function]bool) {
	if seen[fn] {
		return
	}
	seen[fn] = true

	fmt.Fprintf(b, "function %s(%d params)\n", fn.Name, fn.NumParams)
	if len(fn.Locals) > 0 {
		fmt.Fprintf(b, "  locals: %s\n", strings.Join(fn.Locals, ", "))
	}
	if len(fn.Captures) > 0 {
		fmt.Fprintf(b, "  captures:\n")
		for i, c := range fn.Captures {
			kind := "capture"
			if c.IsLocal {
				kind = "local"
			}
			fmt.Fprintf(b, "    %d: %s <- enclosing %s %d\n", i, c.Name, kind, c.Index)
		}
	}
	if len(fn.Constants) > 0 {
		fmt.Fprintf(b, "  constants:\n")
		for i, c := range fn.Constants {
			fmt.Fprintf(b, "    %d: %s\n", i, formatConstant(c))
		}
	}

	fmt.Fprintf(b, "  code:\n")
	for pc := 0; pc < len(fn.Code); {
		op, arg, next := ReadOp(fn.Code, pc)
		if op.hasOperand() {
			fmt.Fprintf(b, "    %4d  %-18s %d\n", pc, op, arg)
		} else {
			fmt.Fprintf(b, "    %4d  %s\n", pc, op)
		}
		pc = next
	}

	var nested []*Function
	for _, c := range fn.Constants {
		if nf, ok := c.(*Function); ok {
			nested = append(nested, nf)
		}
	}
	for _, nf := range nested {
		b.WriteString("\n")
		disassembleOne(b, nf, seen)
	}
}

func formatConstant(c interface{}) string {
	switch v := c.(type) {
	case nil:
		return "empty"
	case bool:
		if v {
			return "true"
		}
		return "false"
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64)
	case string:
		return strconv.Quote(v)
	case *Function:
		return "<function " + v.Name + ">"
	default:
		return fmt.Sprintf("%v", v)
	}
}
