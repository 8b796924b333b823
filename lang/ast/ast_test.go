package ast_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/atjhc/sif-sub001/lang/ast"
	"github.com/atjhc/sif-sub001/lang/token"
)

func pos(offset int) token.Pos { return token.Pos{Offset: offset, Line: 0, Column: offset} }

func TestWalkVisitsChildren(t *testing.T) {
	block := &ast.Block{
		Start: pos(0),
		End:   pos(10),
		Stmts: []ast.Stmt{
			&ast.ExpressionStmt{Expr: &ast.VariableExpr{NamePos: pos(0), Name: "x"}},
			&ast.ReturnStmt{Return: pos(5), Value: &ast.Literal{TokenKind: token.INT, StartPos: pos(6), Raw: "1", Value: int64(1)}},
		},
	}

	var visited []string
	var visit ast.VisitorFunc
	visit = func(n ast.Node, dir ast.VisitDirection) ast.Visitor {
		if dir == ast.VisitEnter {
			visited = append(visited, n.String())
		}
		return visit
	}
	ast.Walk(visit, block)

	require.Contains(t, visited, "block")
	require.Contains(t, visited, "expr stmt")
	require.Contains(t, visited, "return")
}

func TestPrinter(t *testing.T) {
	block := &ast.Block{
		Start: pos(0),
		End:   pos(1),
		Stmts: []ast.Stmt{
			&ast.ExpressionStmt{Expr: &ast.VariableExpr{NamePos: pos(0), Name: "x"}},
		},
	}

	var buf bytes.Buffer
	p := &ast.Printer{Output: &buf}
	require.NoError(t, p.Print(block))
	require.Contains(t, buf.String(), "block")
	require.Contains(t, buf.String(), "x")
}

func TestNormalizeSignatureName(t *testing.T) {
	require.Equal(t, "put into", ast.NormalizeSignatureName([]string{"Put", "INTO"}))
}
