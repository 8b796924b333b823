package parser_test

import (
	"testing"

	"github.com/atjhc/sif-sub001/lang/ast"
	"github.com/atjhc/sif-sub001/lang/grammar"
	"github.com/atjhc/sif-sub001/lang/module"
	"github.com/atjhc/sif-sub001/lang/parser"
	"github.com/atjhc/sif-sub001/lang/token"
	"github.com/stretchr/testify/require"
)

type collectingReporter struct {
	messages []string
}

func (r *collectingReporter) Report(rang token.Range, message string) {
	r.messages = append(r.messages, message)
}

func parse(t *testing.T, src string) (*ast.Program, *collectingReporter) {
	t.Helper()
	reporter := &collectingReporter{}
	p := parser.New("test.sif", []byte(src), grammar.NewTrie(), reporter, nil)
	prog := p.Parse()
	return prog, reporter
}

func TestParseAssignment(t *testing.T) {
	prog, r := parse(t, "set x to 1 + 2\n")
	require.Empty(t, r.messages)
	require.Len(t, prog.Block.Stmts, 1)

	assign, ok := prog.Block.Stmts[0].(*ast.AssignmentStmt)
	require.True(t, ok)
	require.Len(t, assign.Targets, 1)
	target, ok := assign.Targets[0].(*ast.VariableTarget)
	require.True(t, ok)
	require.Equal(t, "x", target.Name)

	bin, ok := assign.Value.(*ast.BinaryExpr)
	require.True(t, ok)
	require.Equal(t, ast.Plus, bin.Op)
}

func TestParseDestructuringAssignment(t *testing.T) {
	prog, r := parse(t, "set (a, b) to 1, 2\n")
	require.Empty(t, r.messages)
	assign := prog.Block.Stmts[0].(*ast.AssignmentStmt)
	require.Len(t, assign.Targets, 1)
	_, ok := assign.Targets[0].(*ast.StructuredTarget)
	require.True(t, ok)
	list, ok := assign.Value.(*ast.ListLiteral)
	require.True(t, ok)
	require.Len(t, list.Items, 2)
}

func TestParseIfElse(t *testing.T) {
	src := "if x > 0 then\nset y to 1\nelse\nset y to 2\nend if\n"
	prog, r := parse(t, src)
	require.Empty(t, r.messages)
	require.Len(t, prog.Block.Stmts, 1)
	ifStmt, ok := prog.Block.Stmts[0].(*ast.IfStmt)
	require.True(t, ok)
	require.NotNil(t, ifStmt.Body)
	require.NotNil(t, ifStmt.ElseBody)
	require.Nil(t, ifStmt.ElseIf)
}

func TestParseIfSingleStatementForm(t *testing.T) {
	prog, r := parse(t, "if x > 0 then exit repeat\n")
	require.Empty(t, r.messages)
	ifStmt := prog.Block.Stmts[0].(*ast.IfStmt)
	require.Len(t, ifStmt.Body.Stmts, 1)
	_, ok := ifStmt.Body.Stmts[0].(*ast.ExitRepeatStmt)
	require.True(t, ok)
}

func TestParseRepeatForms(t *testing.T) {
	cases := map[string]string{
		"forever": "repeat\nexit repeat\nend repeat\n",
		"while":   "repeat while x < 10\nset x to x + 1\nend repeat\n",
		"until":   "repeat until x > 10\nset x to x + 1\nend repeat\n",
		"for":     "repeat for item in items\nset total to total + item\nend repeat\n",
	}
	for name, src := range cases {
		t.Run(name, func(t *testing.T) {
			prog, r := parse(t, src)
			require.Empty(t, r.messages)
			require.Len(t, prog.Block.Stmts, 1)
		})
	}
}

func TestParseTry(t *testing.T) {
	prog, r := parse(t, "try\nset x to 1\nend try\n")
	require.Empty(t, r.messages)
	_, ok := prog.Block.Stmts[0].(*ast.TryStmt)
	require.True(t, ok)
}

func TestParseUseAndUsing(t *testing.T) {
	prog, r := parse(t, "use json\nusing json\nreturn 1\nend using\n")
	require.Empty(t, r.messages)
	require.Len(t, prog.Block.Stmts, 2)
	use, ok := prog.Block.Stmts[0].(*ast.UseStmt)
	require.True(t, ok)
	require.Equal(t, "json", use.Path)
	using, ok := prog.Block.Stmts[1].(*ast.UsingStmt)
	require.True(t, ok)
	require.Equal(t, "json", using.Path)
}

func TestParseFunctionDeclAndCall(t *testing.T) {
	src := "function put (value) into (target)\nreturn value\nend function\n" +
		"put 1 into x\n"
	prog, r := parse(t, src)
	require.Empty(t, r.messages)
	require.Len(t, prog.Block.Stmts, 2)

	decl, ok := prog.Block.Stmts[0].(*ast.FunctionDecl)
	require.True(t, ok)
	require.Equal(t, "put {} into {}", decl.Name)

	exprStmt, ok := prog.Block.Stmts[1].(*ast.ExpressionStmt)
	require.True(t, ok)
	call, ok := exprStmt.Expr.(*ast.CallExpr)
	require.True(t, ok)
	require.Equal(t, "put {} into {}", call.Name)
	require.Len(t, call.Args, 2)
}

func TestParseRangeLiteral(t *testing.T) {
	prog, r := parse(t, "set r to 1...10\n")
	require.Empty(t, r.messages)
	assign := prog.Block.Stmts[0].(*ast.AssignmentStmt)
	rng, ok := assign.Value.(*ast.RangeLiteral)
	require.True(t, ok)
	require.True(t, rng.Closed)
}

func TestParseListAndDictionaryLiterals(t *testing.T) {
	prog, r := parse(t, "set xs to [1, 2, 3]\nset d to {\"a\": 1, \"b\": 2}\n")
	require.Empty(t, r.messages)

	listAssign := prog.Block.Stmts[0].(*ast.AssignmentStmt)
	list, ok := listAssign.Value.(*ast.ListLiteral)
	require.True(t, ok)
	require.Len(t, list.Items, 3)

	dictAssign := prog.Block.Stmts[1].(*ast.AssignmentStmt)
	dict, ok := dictAssign.Value.(*ast.DictionaryLiteral)
	require.True(t, ok)
	require.Len(t, dict.Items, 2)
}

func TestParseStringInterpolation(t *testing.T) {
	prog, r := parse(t, `set s to "hello {name}!"` + "\n")
	require.Empty(t, r.messages)
	assign := prog.Block.Stmts[0].(*ast.AssignmentStmt)
	interp, ok := assign.Value.(*ast.StringInterpolation)
	require.True(t, ok)
	require.Len(t, interp.Exprs, 1)
	require.Equal(t, []string{"hello ", "!"}, interp.Fragments)
	v, ok := interp.Exprs[0].(*ast.VariableExpr)
	require.True(t, ok)
	require.Equal(t, "name", v.Name)
}

func TestParseSubscript(t *testing.T) {
	prog, r := parse(t, "set x to items[0]\n")
	require.Empty(t, r.messages)
	assign := prog.Block.Stmts[0].(*ast.AssignmentStmt)
	bin, ok := assign.Value.(*ast.BinaryExpr)
	require.True(t, ok)
	require.Equal(t, ast.Subscript, bin.Op)
}

type fakeProvider struct {
	modules map[string]*module.Module
}

func (f fakeProvider) Module(name string) (*module.Module, error) {
	if m, ok := f.modules[name]; ok {
		return m, nil
	}
	return nil, module.ErrModuleNotFound
}

func TestParseUseRegistersImportedSignature(t *testing.T) {
	greet := grammar.Signature{Terms: []grammar.Term{
		{Kind: grammar.KeywordTerm, Keyword: "greet"},
		{Kind: grammar.ArgumentTerm, Targets: []grammar.ArgumentTarget{{Name: "who"}}},
	}}
	provider := fakeProvider{modules: map[string]*module.Module{
		"greeter": {Name: "greeter", Signatures: []grammar.Signature{greet}},
	}}

	reporter := &collectingReporter{}
	p := parser.New("test.sif", []byte("use greeter\ngreet \"sam\"\n"), grammar.NewTrie(), reporter, nil)
	p.SetModuleProvider(provider)
	prog := p.Parse()

	require.Empty(t, reporter.messages)
	require.Len(t, prog.Block.Stmts, 2)
	_, ok := prog.Block.Stmts[1].(*ast.ExpressionStmt)
	require.True(t, ok, "expected the imported `greet {}` signature to parse as a call")
}

func TestParseUseUnknownModuleReportsError(t *testing.T) {
	reporter := &collectingReporter{}
	p := parser.New("test.sif", []byte("use nope\n"), grammar.NewTrie(), reporter, nil)
	p.SetModuleProvider(fakeProvider{})
	p.Parse()

	require.NotEmpty(t, reporter.messages)
}

func TestParseUsingRegistersImportedSignatureForBody(t *testing.T) {
	greet := grammar.Signature{Terms: []grammar.Term{
		{Kind: grammar.KeywordTerm, Keyword: "greet"},
		{Kind: grammar.ArgumentTerm, Targets: []grammar.ArgumentTarget{{Name: "who"}}},
	}}
	provider := fakeProvider{modules: map[string]*module.Module{
		"greeter": {Name: "greeter", Signatures: []grammar.Signature{greet}},
	}}

	reporter := &collectingReporter{}
	p := parser.New("test.sif", []byte("using greeter\ngreet \"sam\"\nend using\n"), grammar.NewTrie(), reporter, nil)
	p.SetModuleProvider(provider)
	prog := p.Parse()

	require.Empty(t, reporter.messages)
	using, ok := prog.Block.Stmts[0].(*ast.UsingStmt)
	require.True(t, ok)
	require.Len(t, using.Body.Stmts, 1)
}

func TestParseUnterminatedIfReportsError(t *testing.T) {
	_, r := parse(t, "if x > 0 then\nset y to 1\n")
	require.NotEmpty(t, r.messages)
}
