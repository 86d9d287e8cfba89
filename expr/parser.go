package expr

import (
	"strconv"

	"github.com/codingersid/slim-template/value"
)

// LocalVars is the parse-time local-variable set used to disambiguate a bare
// identifier between "local variable read" and "zero-argument method call on
// self". Block parameters extend it only while the block body is parsed.
type LocalVars struct {
	names map[string]bool
}

// NewLocalVars builds the set, optionally pre-declaring names (used for
// partials receiving locals).
func NewLocalVars(names ...string) *LocalVars {
	v := &LocalVars{names: make(map[string]bool)}
	for _, n := range names {
		v.names[n] = true
	}
	return v
}

// Add declares a name.
func (v *LocalVars) Add(name string) { v.names[name] = true }

// Has reports whether name is declared.
func (v *LocalVars) Has(name string) bool { return v.names[name] }

// Snapshot copies the current set so a block scope can be unwound.
func (v *LocalVars) Snapshot() map[string]bool {
	out := make(map[string]bool, len(v.names))
	for n := range v.names {
		out[n] = true
	}
	return out
}

// Restore replaces the set with an earlier snapshot.
func (v *LocalVars) Restore(snap map[string]bool) { v.names = snap }

// Parser is a recursive-descent operator-precedence parser over the
// expression token stream.
type Parser struct {
	lexer *Lexer
	vars  *LocalVars
	cur   Token

	// allowTemplateBlock permits a trailing `do |params|` with no inline
	// body: the body is the indented template block following the line.
	// Only TemplateStatement sets it.
	allowTemplateBlock  bool
	templateBlockParams []string
	hasTemplateBlock    bool
}

// NewParser creates a Parser and primes the first token.
func NewParser(lexer *Lexer, vars *LocalVars) (*Parser, error) {
	if vars == nil {
		vars = NewLocalVars()
	}
	p := &Parser{lexer: lexer, vars: vars}
	if err := p.next(); err != nil {
		return nil, err
	}
	return p, nil
}

// CurrentToken exposes the lookahead token; the template parser reads its
// Pos to resume tokenizing after a mid-stream expression.
func (p *Parser) CurrentToken() Token { return p.cur }

func (p *Parser) next() error {
	t, err := p.lexer.Next()
	if err != nil {
		return err
	}
	p.cur = t
	return nil
}

func (p *Parser) errorf(msg string) *SyntaxError {
	src := p.lexer.src
	line := 1
	for i := 0; i < p.cur.Pos && i < len(src); i++ {
		if src[i] == '\n' {
			line++
		}
	}
	return &SyntaxError{Message: msg, Line: line, Offset: p.cur.Pos}
}

// FullExpression parses one expression and requires the source to end there.
func (p *Parser) FullExpression() (Node, error) {
	n, err := p.Expression()
	if err != nil {
		return nil, err
	}
	if p.cur.Type != TOKEN_END {
		return nil, p.errorf("expected end of expression, got " + p.cur.Type.String())
	}
	return n, nil
}

// Expression parses one expression, leaving the lookahead at the first token
// that does not belong to it.
func (p *Parser) Expression() (Node, error) {
	return p.conditionalOp()
}

// TemplateStatement parses a control- or output-line code fragment: an
// expression, optionally followed by a trailing `do |params|` block header
// whose body is the indented template block that follows the line.
func (p *Parser) TemplateStatement() (expr Node, params []string, hasBlock bool, err error) {
	p.allowTemplateBlock = true
	p.hasTemplateBlock = false
	defer func() { p.allowTemplateBlock = false }()

	expr, err = p.Expression()
	if err != nil {
		return nil, nil, false, err
	}
	if p.hasTemplateBlock {
		params, hasBlock = p.templateBlockParams, true
	} else if p.cur.Type == TOKEN_SYMBOL && p.cur.Str == "do" {
		// a block header directly after the expression, e.g. `-@xs do |x|`
		if err = p.next(); err != nil {
			return nil, nil, false, err
		}
		params, err = p.paramList()
		if err != nil {
			return nil, nil, false, err
		}
		hasBlock = true
	}
	if p.cur.Type != TOKEN_END {
		return nil, nil, false, p.errorf("expected end of expression, got " + p.cur.Type.String())
	}
	return expr, params, hasBlock, nil
}

// paramList reads `|a, b|`, `| |`, or nothing. The lexer reports an empty
// `||` as LOGICAL_OR, which here means an empty parameter list.
func (p *Parser) paramList() ([]string, error) {
	var out []string
	switch p.cur.Type {
	case TOKEN_LOGICAL_OR:
		return out, p.next()
	case TOKEN_OR:
		if err := p.next(); err != nil {
			return nil, err
		}
		if p.cur.Type == TOKEN_OR {
			return out, p.next()
		}
		for {
			if p.cur.Type != TOKEN_SYMBOL {
				return nil, p.errorf("expected parameter name")
			}
			out = append(out, p.cur.Str)
			if err := p.next(); err != nil {
				return nil, err
			}
			switch p.cur.Type {
			case TOKEN_OR:
				return out, p.next()
			case TOKEN_COMMA:
				if err := p.next(); err != nil {
					return nil, err
				}
			default:
				return nil, p.errorf("expected ',' or '|'")
			}
		}
	}
	return out, nil
}

func (p *Parser) conditionalOp() (Node, error) {
	lhs, err := p.rangeOp(false)
	if err != nil {
		return nil, err
	}
	if p.cur.Type != TOKEN_CONDITIONAL {
		return lhs, nil
	}
	pos := p.cur.Pos
	if err := p.next(); err != nil {
		return nil, err
	}
	// inside the true branch, method arguments require parenthesis so the
	// ':' separator stays unambiguous
	trueExpr, err := p.rangeOp(true)
	if err != nil {
		return nil, err
	}
	if p.cur.Type != TOKEN_COLON {
		return nil, p.errorf("expected ':'")
	}
	if err := p.next(); err != nil {
		return nil, err
	}
	falseExpr, err := p.conditionalOp()
	if err != nil {
		return nil, err
	}
	return &Conditional{BaseNode: BaseNode{SrcPos: pos}, Cond: lhs, True: trueExpr, False: falseExpr}, nil
}

func (p *Parser) rangeOp(inCond bool) (Node, error) {
	lhs, err := p.logicalOrOp(inCond)
	if err != nil {
		return nil, err
	}
	if p.cur.Type != TOKEN_DOTDOT && p.cur.Type != TOKEN_DOTDOTDOT {
		return lhs, nil
	}
	exclusive := p.cur.Type == TOKEN_DOTDOTDOT
	pos := p.cur.Pos
	if err := p.next(); err != nil {
		return nil, err
	}
	rhs, err := p.logicalOrOp(inCond)
	if err != nil {
		return nil, err
	}
	return &RangeLit{BaseNode: BaseNode{SrcPos: pos}, Begin: lhs, End: rhs, Exclusive: exclusive}, nil
}

// binaryLevel parses one left-associative precedence level.
func (p *Parser) binaryLevel(inCond bool, ops map[TokenType]BinaryOpKind, operand func(bool) (Node, error)) (Node, error) {
	lhs, err := operand(inCond)
	if err != nil {
		return nil, err
	}
	for {
		op, ok := ops[p.cur.Type]
		if !ok {
			return lhs, nil
		}
		pos := p.cur.Pos
		if err := p.next(); err != nil {
			return nil, err
		}
		rhs, err := operand(inCond)
		if err != nil {
			return nil, err
		}
		lhs = &BinaryOp{BaseNode: BaseNode{SrcPos: pos}, Op: op, Left: lhs, Right: rhs}
	}
}

func (p *Parser) logicalOrOp(inCond bool) (Node, error) {
	return p.binaryLevel(inCond, map[TokenType]BinaryOpKind{
		TOKEN_LOGICAL_OR: OP_LOGICAL_OR,
	}, p.logicalAndOp)
}

func (p *Parser) logicalAndOp(inCond bool) (Node, error) {
	return p.binaryLevel(inCond, map[TokenType]BinaryOpKind{
		TOKEN_LOGICAL_AND: OP_LOGICAL_AND,
	}, p.equalityOp)
}

func (p *Parser) equalityOp(inCond bool) (Node, error) {
	return p.binaryLevel(inCond, map[TokenType]BinaryOpKind{
		TOKEN_CMP:    OP_CMP,
		TOKEN_CMP_EQ: OP_EQ,
		TOKEN_CMP_NE: OP_NE,
	}, p.cmpOp)
}

func (p *Parser) cmpOp(inCond bool) (Node, error) {
	return p.binaryLevel(inCond, map[TokenType]BinaryOpKind{
		TOKEN_CMP_LT: OP_LT,
		TOKEN_CMP_LE: OP_LE,
		TOKEN_CMP_GT: OP_GT,
		TOKEN_CMP_GE: OP_GE,
	}, p.bitOrOp)
}

func (p *Parser) bitOrOp(inCond bool) (Node, error) {
	return p.binaryLevel(inCond, map[TokenType]BinaryOpKind{
		TOKEN_OR:  OP_OR,
		TOKEN_XOR: OP_XOR,
	}, p.bitAndOp)
}

func (p *Parser) bitAndOp(inCond bool) (Node, error) {
	return p.binaryLevel(inCond, map[TokenType]BinaryOpKind{
		TOKEN_AND: OP_AND,
	}, p.bitShiftOp)
}

func (p *Parser) bitShiftOp(inCond bool) (Node, error) {
	return p.binaryLevel(inCond, map[TokenType]BinaryOpKind{
		TOKEN_LSHIFT: OP_LSHIFT,
		TOKEN_RSHIFT: OP_RSHIFT,
	}, p.addOp)
}

func (p *Parser) addOp(inCond bool) (Node, error) {
	return p.binaryLevel(inCond, map[TokenType]BinaryOpKind{
		TOKEN_PLUS:  OP_ADD,
		TOKEN_MINUS: OP_SUB,
	}, p.mulOp)
}

func (p *Parser) mulOp(inCond bool) (Node, error) {
	return p.binaryLevel(inCond, map[TokenType]BinaryOpKind{
		TOKEN_MUL: OP_MUL,
		TOKEN_DIV: OP_DIV,
		TOKEN_MOD: OP_MOD,
	}, p.unaryOp)
}

func (p *Parser) unaryOp(inCond bool) (Node, error) {
	pos := p.cur.Pos
	switch p.cur.Type {
	case TOKEN_PLUS:
		if err := p.next(); err != nil {
			return nil, err
		}
		return p.unaryOp(inCond)
	case TOKEN_MINUS:
		if err := p.next(); err != nil {
			return nil, err
		}
		rhs, err := p.unaryOp(inCond)
		if err != nil {
			return nil, err
		}
		return &UnaryOp{BaseNode: BaseNode{SrcPos: pos}, Op: OP_NEGATE, Expr: rhs}, nil
	case TOKEN_NOT:
		if err := p.next(); err != nil {
			return nil, err
		}
		rhs, err := p.unaryOp(inCond)
		if err != nil {
			return nil, err
		}
		return &UnaryOp{BaseNode: BaseNode{SrcPos: pos}, Op: OP_BNOT, Expr: rhs}, nil
	case TOKEN_LOGICAL_NOT:
		if err := p.next(); err != nil {
			return nil, err
		}
		rhs, err := p.unaryOp(inCond)
		if err != nil {
			return nil, err
		}
		return &UnaryOp{BaseNode: BaseNode{SrcPos: pos}, Op: OP_NOT, Expr: rhs}, nil
	default:
		return p.powOp(inCond)
	}
}

func (p *Parser) powOp(inCond bool) (Node, error) {
	lhs, err := p.memberFunc(inCond)
	if err != nil {
		return nil, err
	}
	if p.cur.Type != TOKEN_POW {
		return lhs, nil
	}
	pos := p.cur.Pos
	if err := p.next(); err != nil {
		return nil, err
	}
	// ** is right-associative
	rhs, err := p.unaryOp(inCond)
	if err != nil {
		return nil, err
	}
	return &BinaryOp{BaseNode: BaseNode{SrcPos: pos}, Op: OP_POW, Left: lhs, Right: rhs}, nil
}

func (p *Parser) memberFunc(inCond bool) (Node, error) {
	lhs, err := p.value(inCond)
	if err != nil {
		return nil, err
	}
	for {
		switch p.cur.Type {
		case TOKEN_DOT, TOKEN_SAFE_NAV:
			safe := p.cur.Type == TOKEN_SAFE_NAV
			pos := p.cur.Pos
			if err := p.next(); err != nil {
				return nil, err
			}
			if p.cur.Type != TOKEN_SYMBOL {
				return nil, p.errorf("expected method name")
			}
			name := p.cur.Str
			if err := p.next(); err != nil {
				return nil, err
			}
			args, block, err := p.funcArgs(inCond)
			if err != nil {
				return nil, err
			}
			if safe {
				lhs = &SafeMethodCall{BaseNode: BaseNode{SrcPos: pos}, Recv: lhs, Name: name, Args: args, Block: block}
			} else {
				lhs = &MethodCall{BaseNode: BaseNode{SrcPos: pos}, Recv: lhs, Name: name, Args: args, Block: block}
			}
		case TOKEN_CONST_NAV:
			pos := p.cur.Pos
			if err := p.next(); err != nil {
				return nil, err
			}
			if p.cur.Type != TOKEN_SYMBOL {
				return nil, p.errorf("expected constant name")
			}
			name := p.cur.Str
			if err := p.next(); err != nil {
				return nil, err
			}
			lhs = &ConstNav{BaseNode: BaseNode{SrcPos: pos}, Left: lhs, Name: name}
		case TOKEN_L_SQ_BRACKET:
			pos := p.cur.Pos
			if err := p.next(); err != nil {
				return nil, err
			}
			args, err := p.funcArgsInner()
			if err != nil {
				return nil, err
			}
			if p.cur.Type != TOKEN_R_SQ_BRACKET {
				return nil, p.errorf("expected ']'")
			}
			if err := p.next(); err != nil {
				return nil, err
			}
			lhs = &ElementRef{BaseNode: BaseNode{SrcPos: pos}, Recv: lhs, Args: args}
		default:
			return lhs, nil
		}
	}
}

// isFuncArgStart implements the bare-call rule: a bare identifier followed
// by one of these token types begins a parenthesis-free argument list.
func (p *Parser) isFuncArgStart() bool {
	switch p.cur.Type {
	case TOKEN_COLON, TOKEN_HASH_SYMBOL, TOKEN_NUMBER, TOKEN_STRING_DELIM, TOKEN_ATTR_NAME:
		return true
	case TOKEN_SYMBOL:
		return p.cur.Str != "do" && p.cur.Str != "end"
	default:
		return false
	}
}

func (p *Parser) value(inCond bool) (Node, error) {
	pos := p.cur.Pos
	switch p.cur.Type {
	case TOKEN_STRING_DELIM:
		return p.interpString()
	case TOKEN_DIV:
		return p.interpRegexp()
	case TOKEN_NUMBER:
		f, err := strconv.ParseFloat(p.cur.Str, 64)
		if err != nil {
			return nil, p.errorf("invalid number: " + p.cur.Str)
		}
		if err := p.next(); err != nil {
			return nil, err
		}
		return &Literal{BaseNode: BaseNode{SrcPos: pos}, Val: value.NewNumber(f)}, nil
	case TOKEN_SYMBOL:
		return p.symbolValue(inCond, pos)
	case TOKEN_ATTR_NAME:
		name := p.cur.Str
		if err := p.next(); err != nil {
			return nil, err
		}
		return &Attribute{BaseNode: BaseNode{SrcPos: pos}, Name: name}, nil
	case TOKEN_LPAREN:
		if err := p.next(); err != nil {
			return nil, err
		}
		inner, err := p.Expression()
		if err != nil {
			return nil, err
		}
		if p.cur.Type != TOKEN_RPAREN {
			return nil, p.errorf("expected ')'")
		}
		return inner, p.next()
	case TOKEN_L_SQ_BRACKET:
		return p.arrayLiteral(pos)
	case TOKEN_L_CURLY_BRACKET:
		return p.hashLiteral(pos)
	case TOKEN_COLON:
		if err := p.next(); err != nil {
			return nil, err
		}
		if p.cur.Type != TOKEN_SYMBOL {
			return nil, p.errorf("expected symbol name after ':'")
		}
		sym := value.Intern(p.cur.Str)
		if err := p.next(); err != nil {
			return nil, err
		}
		return &Literal{BaseNode: BaseNode{SrcPos: pos}, Val: sym}, nil
	default:
		return nil, p.errorf("expected value, got " + p.cur.Type.String())
	}
}

// symbolValue resolves a bare identifier: keyword literal, assignment
// target, method call, declared local variable, or constant.
func (p *Parser) symbolValue(inCond bool, pos int) (Node, error) {
	name := p.cur.Str
	switch name {
	case "true":
		return &Literal{BaseNode: BaseNode{SrcPos: pos}, Val: value.True}, p.next()
	case "false":
		return &Literal{BaseNode: BaseNode{SrcPos: pos}, Val: value.False}, p.next()
	case "nil":
		return &Literal{BaseNode: BaseNode{SrcPos: pos}, Val: value.NilValue}, p.next()
	case "do", "end":
		return nil, p.errorf("unexpected '" + name + "'")
	}
	if err := p.next(); err != nil {
		return nil, err
	}

	if p.cur.Type == TOKEN_ASSIGN {
		if err := p.next(); err != nil {
			return nil, err
		}
		rhs, err := p.Expression()
		if err != nil {
			return nil, err
		}
		p.vars.Add(name)
		return &Assign{BaseNode: BaseNode{SrcPos: pos}, Name: name, Expr: rhs}, nil
	}

	if p.cur.Type == TOKEN_LPAREN || p.cur.Type == TOKEN_L_CURLY_BRACKET ||
		(p.cur.Type == TOKEN_SYMBOL && p.cur.Str == "do") ||
		(!inCond && p.isFuncArgStart()) {
		// local variables are not callable, so this must be a method call
		args, block, err := p.funcArgs(inCond)
		if err != nil {
			return nil, err
		}
		return &GlobalCall{BaseNode: BaseNode{SrcPos: pos}, Name: name, Args: args, Block: block}, nil
	}
	if p.vars.Has(name) {
		// declared locals take priority over zero-argument methods
		return &Variable{BaseNode: BaseNode{SrcPos: pos}, Name: name}, nil
	}
	if name[0] >= 'A' && name[0] <= 'Z' {
		return &ConstantRef{BaseNode: BaseNode{SrcPos: pos}, Name: name}, nil
	}
	return &GlobalCall{BaseNode: BaseNode{SrcPos: pos}, Name: name}, nil
}

// funcArgs parses an argument list: parenthesized, or bare when the next
// token can start an argument, plus an optional trailing block. Inside the
// true branch of `?:` a bare list is a syntax error.
func (p *Parser) funcArgs(inCond bool) ([]Node, *Block, error) {
	var args []Node
	parens := false
	switch {
	case p.cur.Type == TOKEN_LPAREN:
		parens = true
		if err := p.next(); err != nil {
			return nil, nil, err
		}
		if p.cur.Type == TOKEN_RPAREN {
			if err := p.next(); err != nil {
				return nil, nil, err
			}
			return p.withBlockArg(nil)
		}
	case p.isFuncArgStart():
		if inCond {
			return nil, nil, p.errorf("method arguments inside a conditional's true branch require parenthesis")
		}
	default:
		return p.withBlockArg(nil)
	}

	args, err := p.funcArgsInner()
	if err != nil {
		return nil, nil, err
	}
	if parens {
		if p.cur.Type != TOKEN_RPAREN {
			return nil, nil, p.errorf("expected ')'")
		}
		if err := p.next(); err != nil {
			return nil, nil, err
		}
	}
	return p.withBlockArg(args)
}

// withBlockArg attaches a trailing `{ |…| … }` or `do |…| … end` block. In
// template-statement mode a `do |…|` header ending the fragment has no
// inline body; it is recorded for the template parser, which supplies the
// indented child block as the body.
func (p *Parser) withBlockArg(args []Node) ([]Node, *Block, error) {
	isDo := p.cur.Type == TOKEN_SYMBOL && p.cur.Str == "do"
	if p.cur.Type != TOKEN_L_CURLY_BRACKET && !isDo {
		return args, nil, nil
	}
	if isDo && p.allowTemplateBlock {
		if err := p.next(); err != nil {
			return nil, nil, err
		}
		params, err := p.paramList()
		if err != nil {
			return nil, nil, err
		}
		if p.cur.Type == TOKEN_END {
			p.hasTemplateBlock = true
			p.templateBlockParams = params
			return args, nil, nil
		}
		// a body follows after all: an ordinary do…end block
		return p.doBlockBody(args, params)
	}
	block, err := p.block()
	if err != nil {
		return nil, nil, err
	}
	return args, block, nil
}

// doBlockBody finishes parsing a `do |params| body end` block whose header
// has already been consumed.
func (p *Parser) doBlockBody(args []Node, params []string) ([]Node, *Block, error) {
	pos := p.cur.Pos
	snap := p.vars.Snapshot()
	for _, param := range params {
		p.vars.Add(param)
	}
	body, err := p.Expression()
	p.vars.Restore(snap)
	if err != nil {
		return nil, nil, err
	}
	if p.cur.Type != TOKEN_SYMBOL || p.cur.Str != "end" {
		return nil, nil, p.errorf("expected 'end'")
	}
	if err := p.next(); err != nil {
		return nil, nil, err
	}
	return args, &Block{BaseNode: BaseNode{SrcPos: pos}, Params: params, Body: body}, nil
}

// funcArgsInner parses comma-separated arguments, with the trailing
// keyword-hash sugar (`f a, k1: v1, k2: v2`).
func (p *Parser) funcArgsInner() ([]Node, error) {
	var args []Node
	for {
		if p.cur.Type == TOKEN_HASH_SYMBOL {
			key := &Literal{BaseNode: BaseNode{SrcPos: p.cur.Pos}, Val: value.Intern(p.cur.Str)}
			if err := p.next(); err != nil {
				return nil, err
			}
			trailing, err := p.funcHashArgs(key)
			if err != nil {
				return nil, err
			}
			return append(args, trailing), nil
		}
		arg, err := p.Expression()
		if err != nil {
			return nil, err
		}
		if p.cur.Type == TOKEN_HASH_KEY_VALUE_SEP {
			if err := p.next(); err != nil {
				return nil, err
			}
			trailing, err := p.funcHashArgs(arg)
			if err != nil {
				return nil, err
			}
			return append(args, trailing), nil
		}
		args = append(args, arg)
		if p.cur.Type != TOKEN_COMMA {
			return args, nil
		}
		if err := p.next(); err != nil {
			return nil, err
		}
	}
}

// funcHashArgs parses the remainder of a trailing keyword hash whose first
// key has already been read.
func (p *Parser) funcHashArgs(firstKey Node) (Node, error) {
	args := []Node{firstKey}
	val, err := p.Expression()
	if err != nil {
		return nil, err
	}
	args = append(args, val)
	for p.cur.Type == TOKEN_COMMA {
		if err := p.next(); err != nil {
			return nil, err
		}
		if p.cur.Type == TOKEN_HASH_SYMBOL {
			args = append(args, &Literal{BaseNode: BaseNode{SrcPos: p.cur.Pos}, Val: value.Intern(p.cur.Str)})
			if err := p.next(); err != nil {
				return nil, err
			}
		} else {
			key, err := p.Expression()
			if err != nil {
				return nil, err
			}
			if p.cur.Type != TOKEN_HASH_KEY_VALUE_SEP {
				return nil, p.errorf("expected '=>'")
			}
			if err := p.next(); err != nil {
				return nil, err
			}
			args = append(args, key)
		}
		val, err := p.Expression()
		if err != nil {
			return nil, err
		}
		args = append(args, val)
	}
	return &HashLit{BaseNode: BaseNode{SrcPos: firstKey.Pos()}, Args: args}, nil
}

// block parses `{ |params| body }` or `do |params| body end`. Parameters are
// visible only while the body is parsed (lexical lvar scoping).
func (p *Parser) block() (*Block, error) {
	pos := p.cur.Pos
	brace := p.cur.Type == TOKEN_L_CURLY_BRACKET
	if err := p.next(); err != nil {
		return nil, err
	}
	params, err := p.paramList()
	if err != nil {
		return nil, err
	}

	snap := p.vars.Snapshot()
	for _, param := range params {
		p.vars.Add(param)
	}
	body, err := p.Expression()
	p.vars.Restore(snap)
	if err != nil {
		return nil, err
	}

	if brace {
		if p.cur.Type != TOKEN_R_CURLY_BRACKET {
			return nil, p.errorf("expected '}'")
		}
	} else {
		if p.cur.Type != TOKEN_SYMBOL || p.cur.Str != "end" {
			return nil, p.errorf("expected 'end'")
		}
	}
	if err := p.next(); err != nil {
		return nil, err
	}
	return &Block{BaseNode: BaseNode{SrcPos: pos}, Params: params, Body: body}, nil
}

// arrayLiteral parses `[a, b, c]`.
func (p *Parser) arrayLiteral(pos int) (Node, error) {
	if err := p.next(); err != nil {
		return nil, err
	}
	if p.cur.Type == TOKEN_R_SQ_BRACKET {
		return &ArrayLit{BaseNode: BaseNode{SrcPos: pos}}, p.next()
	}
	var args []Node
	for {
		arg, err := p.Expression()
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
		switch p.cur.Type {
		case TOKEN_COMMA:
			if err := p.next(); err != nil {
				return nil, err
			}
		case TOKEN_R_SQ_BRACKET:
			return &ArrayLit{BaseNode: BaseNode{SrcPos: pos}, Args: args}, p.next()
		default:
			return nil, p.errorf("expected ']'")
		}
	}
}

// hashLiteral parses `{ k1: v, k2 => v2 }`; the two key syntaxes mix freely.
func (p *Parser) hashLiteral(pos int) (Node, error) {
	if err := p.next(); err != nil {
		return nil, err
	}
	if p.cur.Type == TOKEN_R_CURLY_BRACKET {
		return &HashLit{BaseNode: BaseNode{SrcPos: pos}}, p.next()
	}
	var args []Node
	for {
		if p.cur.Type == TOKEN_HASH_SYMBOL {
			args = append(args, &Literal{BaseNode: BaseNode{SrcPos: p.cur.Pos}, Val: value.Intern(p.cur.Str)})
			if err := p.next(); err != nil {
				return nil, err
			}
		} else {
			key, err := p.Expression()
			if err != nil {
				return nil, err
			}
			if p.cur.Type != TOKEN_HASH_KEY_VALUE_SEP {
				return nil, p.errorf("expected '=>'")
			}
			if err := p.next(); err != nil {
				return nil, err
			}
			args = append(args, key)
		}
		val, err := p.Expression()
		if err != nil {
			return nil, err
		}
		args = append(args, val)

		switch p.cur.Type {
		case TOKEN_COMMA:
			if err := p.next(); err != nil {
				return nil, err
			}
		case TOKEN_R_CURLY_BRACKET:
			return &HashLit{BaseNode: BaseNode{SrcPos: pos}, Args: args}, p.next()
		default:
			return nil, p.errorf("expected '}'")
		}
	}
}

// interpString parses a quoted string, collapsing to a plain literal when no
// interpolation appears.
func (p *Parser) interpString() (Node, error) {
	pos := p.cur.Pos
	delim := p.cur.Str[0]
	var parts []InterpPart
	interp := false
	for {
		t, err := p.lexer.NextInString(delim)
		if err != nil {
			return nil, err
		}
		switch t.Type {
		case TOKEN_STRING_DELIM:
			if err := p.next(); err != nil {
				return nil, err
			}
			if len(parts) == 0 {
				return &Literal{BaseNode: BaseNode{SrcPos: pos}, Val: value.NewString("")}, nil
			}
			if !interp && len(parts) == 1 {
				return &Literal{BaseNode: BaseNode{SrcPos: pos}, Val: value.NewString(parts[0].Text)}, nil
			}
			return &InterpString{BaseNode: BaseNode{SrcPos: pos}, Parts: parts}, nil
		case TOKEN_STRING_TEXT:
			parts = append(parts, InterpPart{Text: t.Str})
		case TOKEN_STRING_INTERP_START:
			interp = true
			if err := p.next(); err != nil {
				return nil, err
			}
			inner, err := p.Expression()
			if err != nil {
				return nil, err
			}
			if p.cur.Type != TOKEN_R_CURLY_BRACKET {
				return nil, p.errorf("expected '}'")
			}
			parts = append(parts, InterpPart{Expr: inner})
			// the closing } was consumed as a token; string lexing resumes
			// at the current lexer position
		default:
			return nil, p.errorf("unexpected token in string")
		}
	}
}

// interpRegexp parses `/pattern/flags` with #{} interpolation; the pattern
// compiles at eval time.
func (p *Parser) interpRegexp() (Node, error) {
	pos := p.cur.Pos
	var parts []InterpPart
	for {
		t, err := p.lexer.NextInRegexp()
		if err != nil {
			return nil, err
		}
		switch t.Type {
		case TOKEN_STRING_DELIM:
			flags, err := value.ParseRegexpFlags(p.lexer.RegexpFlags())
			if err != nil {
				return nil, p.errorf(err.Error())
			}
			if err := p.next(); err != nil {
				return nil, err
			}
			return &InterpRegexp{BaseNode: BaseNode{SrcPos: pos}, Parts: parts, Flags: flags}, nil
		case TOKEN_STRING_TEXT:
			parts = append(parts, InterpPart{Text: t.Str})
		case TOKEN_STRING_INTERP_START:
			if err := p.next(); err != nil {
				return nil, err
			}
			inner, err := p.Expression()
			if err != nil {
				return nil, err
			}
			if p.cur.Type != TOKEN_R_CURLY_BRACKET {
				return nil, p.errorf("expected '}'")
			}
			parts = append(parts, InterpPart{Expr: inner})
		default:
			return nil, p.errorf("unexpected token in regexp")
		}
	}
}
