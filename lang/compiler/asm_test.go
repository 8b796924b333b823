package compiler_test

import (
	"strings"
	"testing"

	"github.com/atjhc/sif-sub001/lang/compiler"
	"github.com/stretchr/testify/require"
)

func TestDisassemble(t *testing.T) {
	fn := &compiler.Function{
		Name:      "<program>",
		Constants: []interface{}{int64(5), "hello"},
		Locals:    []string{"x"},
	}
	fn.Code = compiler.PutOp(fn.Code, compiler.Constant, 0)
	fn.Code = compiler.PutOp(fn.Code, compiler.SetLocal, 0)
	fn.Code = compiler.PutOp(fn.Code, compiler.GetLocal, 0)
	fn.Code = compiler.PutOp(fn.Code, compiler.Show, 0)
	fn.Code = compiler.PutOp(fn.Code, compiler.Empty, 0)
	fn.Code = compiler.PutOp(fn.Code, compiler.Return, 0)

	out := compiler.Disassemble(fn)
	require.Contains(t, out, "function <program>(0 params)")
	require.Contains(t, out, "locals: x")
	require.Contains(t, out, `0: 5`)
	require.Contains(t, out, "constant")
	require.Contains(t, out, "set-local")
	require.Contains(t, out, "show")
	require.Contains(t, out, "return")
}

func TestDisassembleNestedFunction(t *testing.T) {
	nested := &compiler.Function{Name: "greet", NumParams: 1, ParamNames: []string{"who"}}
	nested.Code = compiler.PutOp(nested.Code, compiler.GetLocal, 0)
	nested.Code = compiler.PutOp(nested.Code, compiler.Return, 0)
	nested.Captures = []compiler.CaptureDesc{{Name: "greeting", IsLocal: true, Index: 0}}

	top := &compiler.Function{Name: "<program>", Constants: []interface{}{nested}}
	top.Code = compiler.PutOp(top.Code, compiler.MakeClosure, 0)
	top.Code = compiler.PutOp(top.Code, compiler.SetGlobal, 0)

	out := compiler.Disassemble(top)
	require.Contains(t, out, "function <program>(0 params)")
	require.Contains(t, out, "<function greet>")
	require.Contains(t, out, "function greet(1 params)")
	require.Contains(t, out, "greeting <- enclosing local 0")
}

func TestDisassembleAvoidsInfiniteRecursionOnSharedConstant(t *testing.T) {
	shared := &compiler.Function{Name: "shared"}
	top := &compiler.Function{
		Name:      "<program>",
		Constants: []interface{}{shared, shared},
	}

	require.NotPanics(t, func() {
		out := compiler.Disassemble(top)
		require.Equal(t, 1, strings.Count(out, "function shared(0 params)"))
	})
}
