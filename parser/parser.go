package parser

import (
	"github.com/db47h/isb/diag"
	"github.com/db47h/isb/lexer"
)

// Parser is a recursive-descent parser over a pre-scanned token stream.
type Parser struct {
	toks []lexer.Token
	pos  int
	bag  *diag.Bag
}

// New creates a Parser over src, recording diagnostics in bag. bag must
// not be nil.
func New(src string, bag *diag.Bag) *Parser {
	l := lexer.New(src, bag)
	return &Parser{toks: l.Tokens(), bag: bag}
}

// Parse parses the whole token stream into a Program. Malformed
// statements are skipped to the next statement boundary after recording
// a diagnostic; Parse always returns a (possibly partial) Program.
func (p *Parser) Parse() *Program {
	prog := &Program{}
	p.skipNewlines()
	for !p.atEnd() {
		stmt := p.parseStatement()
		if stmt != nil {
			prog.Statements = append(prog.Statements, stmt)
		}
		p.endStatement()
	}
	return prog
}

// Bag returns the diagnostic bag this parser reports into.
func (p *Parser) Bag() *diag.Bag { return p.bag }

func (p *Parser) cur() lexer.Token  { return p.toks[p.pos] }
func (p *Parser) atEnd() bool       { return p.cur().Type == lexer.EOF }
func (p *Parser) peekAt(n int) lexer.Token {
	idx := p.pos + n
	if idx >= len(p.toks) {
		return p.toks[len(p.toks)-1]
	}
	return p.toks[idx]
}

func (p *Parser) advance() lexer.Token {
	t := p.cur()
	if t.Type != lexer.EOF {
		p.pos++
	}
	return t
}

func (p *Parser) check(t lexer.Type) bool { return p.cur().Type == t }

func (p *Parser) match(t lexer.Type) bool {
	if p.check(t) {
		p.advance()
		return true
	}
	return false
}

func (p *Parser) expect(t lexer.Type, what string) (lexer.Token, bool) {
	if p.check(t) {
		return p.advance(), true
	}
	p.errUnexpected(what)
	return lexer.Token{}, false
}

func (p *Parser) errUnexpected(what string) {
	tok := p.cur()
	if tok.Type == lexer.EOF {
		p.bag.Add(diag.UnexpectedEndOfStream, posOf(tok), "unexpected end of input, expected %s", what)
		return
	}
	p.bag.Add(diag.UnexpectedToken, posOf(tok), "unexpected token %q, expected %s", tok.Literal, what)
}

// skipNewlines consumes any run of statement-terminating newlines.
func (p *Parser) skipNewlines() {
	for p.check(lexer.Newline) {
		p.advance()
	}
}

// endStatement consumes the terminator after a statement (one or more
// newlines, or EOF) and recovers from malformed input by skipping to the
// next newline/EOF.
func (p *Parser) endStatement() {
	if p.atEnd() {
		return
	}
	if p.check(lexer.Newline) {
		p.skipNewlines()
		return
	}
	// recovery: the statement parser left unconsumed tokens behind (a
	// malformed statement); skip to the next boundary.
	for !p.atEnd() && !p.check(lexer.Newline) {
		p.advance()
	}
	p.skipNewlines()
}

// parseStatement parses one statement. On malformed input it records a
// diagnostic and returns either nil (a missing name after GoTo, Sub or
// For, or a missing '=' or To in a For header) or a partially built
// statement; the caller's endStatement then resynchronizes at the next
// newline.
func (p *Parser) parseStatement() Stmt {
	tok := p.cur()
	switch tok.Type {
	case lexer.KwIf:
		return p.parseIf()
	case lexer.KwFor:
		return p.parseFor()
	case lexer.KwWhile:
		return p.parseWhile()
	case lexer.KwSub:
		return p.parseSub()
	case lexer.KwGoTo:
		return p.parseGoto()
	case lexer.Ident:
		return p.parseIdentLedStatement()
	default:
		// bare expression statement (e.g. a numeric literal at the REPL)
		expr := p.parseExpression(0)
		return &ExprStmt{base: base{posOf(tok)}, X: expr}
	}
}

// parseIdentLedStatement disambiguates, purely by statement position, a
// label definition (`name:`), an assignment (`target = value`, where
// target may be indexed), and a bare expression/call statement. '=' means
// assignment only when it appears directly after a statement-initial
// target; everywhere else (inside If, on either side of a nested
// expression) it is the equality operator.
func (p *Parser) parseIdentLedStatement() Stmt {
	start := p.cur()

	// `name:` -- label definition. Only recognized when the identifier is
	// not followed by index brackets (a[0]: is not a valid label).
	if p.peekAt(1).Type == lexer.Colon {
		name := p.advance().Literal
		p.advance() // ':'
		return &LabelStmt{base: base{posOf(start)}, Name: name}
	}

	target := p.parsePostfixTarget()

	if p.check(lexer.Assign) {
		p.advance()
		value := p.parseExpression(0)
		return &AssignStmt{base: base{posOf(start)}, Target: target, Value: value}
	}

	// Not an assignment: continue parsing a full expression starting from
	// the already-consumed prefix (covers bare calls and expression
	// statements like a lone identifier at the REPL).
	expr := p.parseExpressionContinue(target, 0)
	return &ExprStmt{base: base{posOf(start)}, X: expr}
}

// parsePostfixTarget parses an identifier followed by zero or more
// `[expr]` index groups, or a call `name(args...)`.
func (p *Parser) parsePostfixTarget() Expr {
	tok := p.advance() // Ident
	var e Expr = &Identifier{base: base{posOf(tok)}, Name: tok.Literal}
	if p.check(lexer.LParen) {
		return p.parseCallArgs(tok, e.(*Identifier).Name)
	}
	for p.check(lexer.LBracket) {
		lb := p.advance()
		idx := p.parseExpression(0)
		p.expect(lexer.RBracket, "]")
		e = &IndexExpr{base: base{posOf(lb)}, Base: e, Index: idx}
	}
	return e
}

func (p *Parser) parseCallArgs(tok lexer.Token, name string) Expr {
	p.advance() // '('
	call := &CallExpr{base: base{posOf(tok)}, Callee: name}
	if !p.check(lexer.RParen) {
		call.Args = append(call.Args, p.parseExpression(0))
		for p.match(lexer.Comma) {
			call.Args = append(call.Args, p.parseExpression(0))
		}
	}
	p.expect(lexer.RParen, ")")
	return call
}

func (p *Parser) parseGoto() Stmt {
	tok := p.advance() // GoTo
	name, ok := p.expect(lexer.Ident, "label name")
	if !ok {
		return nil
	}
	return &GotoStmt{base: base{posOf(tok)}, Label: name.Literal}
}

func (p *Parser) parseSub() Stmt {
	tok := p.advance() // Sub
	name, ok := p.expect(lexer.Ident, "sub name")
	if !ok {
		return nil
	}
	p.skipNewlines()
	body := p.parseBlock(lexer.KwEndSub)
	p.expect(lexer.KwEndSub, "EndSub")
	return &SubStmt{base: base{posOf(tok)}, Name: name.Literal, Body: body}
}

func (p *Parser) parseWhile() Stmt {
	tok := p.advance() // While
	cond := p.parseExpression(0)
	p.skipNewlines()
	body := p.parseBlock(lexer.KwEndWhile)
	p.expect(lexer.KwEndWhile, "EndWhile")
	return &WhileStmt{base: base{posOf(tok)}, Cond: cond, Body: body}
}

func (p *Parser) parseFor() Stmt {
	tok := p.advance() // For
	name, ok := p.expect(lexer.Ident, "loop variable")
	if !ok {
		return nil
	}
	if _, ok := p.expect(lexer.Assign, "="); !ok {
		return nil
	}
	start := p.parseExpression(0)
	if _, ok := p.expect(lexer.KwTo, "To"); !ok {
		return nil
	}
	end := p.parseExpression(0)
	var step Expr
	if p.match(lexer.KwStep) {
		step = p.parseExpression(0)
	}
	p.skipNewlines()
	body := p.parseBlock(lexer.KwEndFor)
	p.expect(lexer.KwEndFor, "EndFor")
	return &ForStmt{base: base{posOf(tok)}, Var: name.Literal, Start: start, End: end, Step: step, Body: body}
}

func (p *Parser) parseIf() Stmt {
	tok := p.advance() // If
	stmt := &IfStmt{base: base{posOf(tok)}}
	cond := p.parseExpression(0)
	p.expect(lexer.KwThen, "Then")
	p.skipNewlines()
	body := p.parseBlock(lexer.KwElseIf, lexer.KwElse, lexer.KwEndIf)
	stmt.Branches = append(stmt.Branches, IfBranch{Cond: cond, Body: body})

	for p.check(lexer.KwElseIf) {
		p.advance()
		c := p.parseExpression(0)
		p.expect(lexer.KwThen, "Then")
		p.skipNewlines()
		b := p.parseBlock(lexer.KwElseIf, lexer.KwElse, lexer.KwEndIf)
		stmt.Branches = append(stmt.Branches, IfBranch{Cond: c, Body: b})
	}
	if p.check(lexer.KwElse) {
		p.advance()
		p.skipNewlines()
		stmt.Else = p.parseBlock(lexer.KwEndIf)
	}
	p.expect(lexer.KwEndIf, "EndIf")
	return stmt
}

// parseBlock parses statements until one of the given terminator token
// types is seen at the start of a statement (the terminator itself is
// not consumed).
func (p *Parser) parseBlock(terminators ...lexer.Type) []Stmt {
	var stmts []Stmt
	p.skipNewlines()
	for !p.atEnd() && !p.atAnyOf(terminators) {
		stmt := p.parseStatement()
		if stmt != nil {
			stmts = append(stmts, stmt)
		}
		p.endStatement()
	}
	return stmts
}

func (p *Parser) atAnyOf(types []lexer.Type) bool {
	for _, t := range types {
		if p.check(t) {
			return true
		}
	}
	return false
}

// ---- expressions ----

// precedence returns the binding power of a binary operator token, or 0
// if tok is not a binary operator. Lower numbers bind more loosely.
func precedence(t lexer.Type) int {
	switch t {
	case lexer.KwOr:
		return 1
	case lexer.KwAnd:
		return 2
	case lexer.Assign, lexer.NotEqual, lexer.Less, lexer.Greater, lexer.LessEqual, lexer.GreaterEqual:
		return 3
	case lexer.Plus, lexer.Minus:
		return 4
	case lexer.Star, lexer.Slash, lexer.KwMod:
		return 5
	default:
		return 0
	}
}

func (p *Parser) parseExpression(minPrec int) Expr {
	left := p.parseUnary()
	return p.parseExpressionContinue(left, minPrec)
}

// parseExpressionContinue applies the precedence-climbing loop starting
// from an already-parsed left operand. It is shared by parseExpression
// and by parseIdentLedStatement, which needs to reuse a prefix it parsed
// while checking for an assignment.
func (p *Parser) parseExpressionContinue(left Expr, minPrec int) Expr {
	for {
		opTok := p.cur()
		prec := precedence(opTok.Type)
		if prec == 0 || prec < minPrec {
			return left
		}
		p.advance()
		right := p.parseUnary()
		for {
			nextPrec := precedence(p.cur().Type)
			if nextPrec <= prec {
				break
			}
			right = p.parseExpressionContinue(right, nextPrec)
		}
		left = &BinaryExpr{base: base{posOf(opTok)}, Op: opTok.Type, X: left, Y: right}
	}
}

func (p *Parser) parseUnary() Expr {
	if p.check(lexer.Minus) {
		tok := p.advance()
		x := p.parseUnary()
		return &UnaryExpr{base: base{posOf(tok)}, Op: lexer.Minus, X: x}
	}
	return p.parsePrimary()
}

func (p *Parser) parsePrimary() Expr {
	tok := p.cur()
	switch tok.Type {
	case lexer.Number:
		p.advance()
		return &NumberLit{base: base{posOf(tok)}, Text: tok.Literal}
	case lexer.String:
		p.advance()
		return &StringLit{base: base{posOf(tok)}, Value: tok.Literal}
	case lexer.LParen:
		p.advance()
		e := p.parseExpression(0)
		p.expect(lexer.RParen, ")")
		return e
	case lexer.Ident:
		return p.parsePostfixTarget()
	default:
		p.errUnexpected("an expression")
		// synthesize a placeholder so callers always get a non-nil Expr
		return &NumberLit{base: base{posOf(tok)}, Text: "0"}
	}
}
