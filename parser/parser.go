// Package parser turns template tokens into a tree of render nodes. Embedded
// code fragments (`=` lines, `-` lines, attribute values, `#{}` text
// interpolation) are parsed mid-stream by the expr package; the template
// lexer is then repositioned just after the last consumed character.
package parser

import (
	"strings"

	"github.com/codingersid/slim-template/expr"
	"github.com/codingersid/slim-template/lexer"
	"github.com/codingersid/slim-template/value"
)

// NodeType represents the type of render node
type NodeType int

const (
	NODE_PARTS_LIST NodeType = iota
	NODE_TEXT
	NODE_OUTPUT_EXPR
	NODE_DYNAMIC_ATTR
	NODE_FOR_EACH
	NODE_IF
	NODE_CODE
)

// Node represents a render-tree node
type Node interface {
	Type() NodeType
	Position() lexer.Position
}

// BaseNode contains common node fields
type BaseNode struct {
	NodeType NodeType
	Pos      lexer.Position
}

func (n *BaseNode) Type() NodeType           { return n.NodeType }
func (n *BaseNode) Position() lexer.Position { return n.Pos }

// PartsListNode concatenates its children in order.
type PartsListNode struct {
	BaseNode
	Children []Node
}

// TextNode appends literal bytes.
type TextNode struct {
	BaseNode
	Content string
}

// OutputExprNode evaluates an expression, HTML-escapes the result unless it
// is already an HtmlSafeString, and appends it.
type OutputExprNode struct {
	BaseNode
	Expr expr.Node
	// LeadingSpace/TrailingSpace implement the `=<`, `=>`, `=<>` whitespace
	// control sigils.
	LeadingSpace  bool
	TrailingSpace bool
}

// DynamicAttrNode emits one attribute whose value mixes static strings and
// evaluated expressions. Nil/false-only values suppress the attribute;
// true-only renders a bare boolean attribute.
type DynamicAttrNode struct {
	BaseNode
	Name         string
	StaticValues []string
	DynamicExprs []expr.Node
}

// ForEachNode evaluates Recv (which must yield a value responding to
// `each`), then iterates it with a synthesized Proc that renders Body with
// Params bound.
type ForEachNode struct {
	BaseNode
	Recv   expr.Node
	Params []string
	Body   Node
	// Output marks `= expr do |…|` lines: the iteration's return value is
	// written out the way an OutputExprNode would write it.
	Output bool
}

// CondBody is one `elsif` arm of an IfNode.
type CondBody struct {
	Cond expr.Node
	Body Node
}

// IfNode is a cascading `-if` / `-elsif` / `-else` chain.
type IfNode struct {
	BaseNode
	Cond    expr.Node
	Body    Node
	ElseIfs []CondBody
	Else    Node
}

// CodeNode evaluates an expression for its effect (typically assignment)
// and discards the result.
type CodeNode struct {
	BaseNode
	Expr expr.Node
}

// voidElements may not have content; their opening tag closes itself.
var voidElements = map[string]bool{
	"area": true, "base": true, "br": true, "col": true, "command": true,
	"embed": true, "hr": true, "img": true, "input": true, "keygen": true,
	"link": true, "meta": true, "param": true, "source": true, "track": true,
	"wbr": true,
}

const defaultTag = "div"

// outputFrame buffers raw text and completed render nodes for one block
// nesting. The inTag flag defers the `>` of an opening tag until the first
// content arrives, so attribute nodes can still be appended.
type outputFrame struct {
	text  strings.Builder
	parts []Node
	inTag bool
}

func (f *outputFrame) handleInTag() {
	if f.inTag {
		f.inTag = false
		f.text.WriteByte('>')
	}
}

func (f *outputFrame) writeText(s string) {
	f.handleInTag()
	f.text.WriteString(s)
}

func (f *outputFrame) writeByte(c byte) {
	f.handleInTag()
	f.text.WriteByte(c)
}

// writeAttr appends attribute text without closing the open tag.
func (f *outputFrame) writeAttr(s string) {
	f.text.WriteString(s)
}

func (f *outputFrame) push(n Node) {
	f.handleInTag()
	f.flushText()
	f.parts = append(f.parts, n)
}

// pushAttr appends a node without closing the open tag.
func (f *outputFrame) pushAttr(n Node) {
	f.flushText()
	f.parts = append(f.parts, n)
}

func (f *outputFrame) flushText() {
	if f.text.Len() > 0 {
		f.parts = append(f.parts, &TextNode{
			BaseNode: BaseNode{NodeType: NODE_TEXT},
			Content:  f.text.String(),
		})
		f.text.Reset()
	}
}

// makeNode collapses the frame: a lone part is returned directly, several
// become a PartsListNode, and an empty frame is an empty text node.
func (f *outputFrame) makeNode() Node {
	f.flushText()
	switch len(f.parts) {
	case 0:
		return &TextNode{BaseNode: BaseNode{NodeType: NODE_TEXT}}
	case 1:
		return f.parts[0]
	default:
		return &PartsListNode{
			BaseNode: BaseNode{NodeType: NODE_PARTS_LIST},
			Children: f.parts,
		}
	}
}

// Parser builds the render tree from template tokens
type Parser struct {
	lexer *lexer.Lexer
	vars  *expr.LocalVars
	cur   lexer.Token
}

// New creates a new Parser. Pre-declared local names become visible to the
// template's expressions (used for partials receiving locals).
func New(l *lexer.Lexer, locals ...string) *Parser {
	return &Parser{lexer: l, vars: expr.NewLocalVars(locals...)}
}

// Parse parses the whole template and returns the render-tree root.
func (p *Parser) Parse() (Node, error) {
	var root outputFrame
	var err error
	p.cur, err = p.lexer.NextIndent()
	if err != nil {
		return nil, err
	}
	if err := p.parseLines(-1, &root); err != nil {
		return nil, err
	}
	return root.makeNode(), nil
}

func (p *Parser) errorf(msg string) *lexer.TemplateSyntaxError {
	return &lexer.TemplateSyntaxError{Message: msg, Position: p.cur.Position}
}

// currentIndent reads the pending INDENT token's depth, or -1 at END.
func (p *Parser) currentIndent() int {
	if p.cur.Type == lexer.TOKEN_END {
		return -1
	}
	return len(p.cur.Value)
}

// parseLines consumes lines while they are indented deeper than baseIndent.
func (p *Parser) parseLines(baseIndent int, out *outputFrame) error {
	for p.cur.Type != lexer.TOKEN_END {
		myIndent := p.currentIndent()
		if myIndent <= baseIndent {
			return nil
		}

		var err error
		p.cur, err = p.lexer.NextLineStart()
		if err != nil {
			return err
		}
		switch p.cur.Type {
		case lexer.TOKEN_TEXT_LINE:
			text, err := p.parseTextLine(myIndent)
			if err != nil {
				return err
			}
			if err := p.emitInterpolated(out, text); err != nil {
				return err
			}
		case lexer.TOKEN_TEXT_LINE_WITH_TRAILING_SPACE:
			text, err := p.parseTextLine(myIndent)
			if err != nil {
				return err
			}
			if err := p.emitInterpolated(out, text); err != nil {
				return err
			}
			out.writeByte(' ')
		case lexer.TOKEN_HTML_LINE:
			text, err := p.parseTextLine(myIndent)
			if err != nil {
				return err
			}
			out.writeByte('<')
			if err := p.emitInterpolated(out, text); err != nil {
				return err
			}
		case lexer.TOKEN_COMMENT_LINE:
			// the comment text and any continuation lines are discarded
			if _, err := p.parseTextLine(myIndent); err != nil {
				return err
			}
		case lexer.TOKEN_HTML_COMMENT_LINE:
			text, err := p.parseTextLine(myIndent)
			if err != nil {
				return err
			}
			out.writeText("<!--" + text + "-->")
		case lexer.TOKEN_NAME, lexer.TOKEN_TAG_ID, lexer.TOKEN_TAG_CLASS:
			if err := p.parseTag(myIndent, out); err != nil {
				return err
			}
		case lexer.TOKEN_OUTPUT_LINE:
			if err := p.parseCodeOutput(myIndent, out); err != nil {
				return err
			}
		case lexer.TOKEN_CONTROL_LINE:
			if err := p.parseControlCode(myIndent, out); err != nil {
				return err
			}
		default:
			return p.errorf("unexpected " + p.cur.Type.String())
		}
	}
	return nil
}

// parseTextLine reads the rest of a text line plus any continuation lines
// indented deeper than baseIndent, preserving their relative indentation.
func (p *Parser) parseTextLine(baseIndent int) (string, error) {
	var buf strings.Builder
	leadingSpaces := 0
	for {
		t, err := p.lexer.NextTextContent()
		if err != nil {
			return "", err
		}
		for i := 0; i < leadingSpaces; i++ {
			buf.WriteByte(' ')
		}
		buf.WriteString(t.Value)

		p.cur, err = p.lexer.NextIndent()
		if err != nil {
			return "", err
		}
		if p.currentIndent() <= baseIndent {
			return buf.String(), nil
		}
		leadingSpaces = p.currentIndent() - baseIndent - 2
		if leadingSpaces < 0 {
			leadingSpaces = 0
		}
	}
}

// tagAttr collects one attribute's values while a tag line is parsed.
type tagAttr struct {
	name     string
	statics  []string
	dynamics []expr.Node
	// boolTrue marks a literal `true` sole value: a bare boolean attribute.
	boolTrue bool
}

// parseTag handles a tag line: name, #id, .classes, whitespace control,
// attributes (bare or wrapped), then inline content or children.
func (p *Parser) parseTag(baseIndent int, out *outputFrame) error {
	var attrs []*tagAttr
	attr := func(name string) *tagAttr {
		for _, a := range attrs {
			if a.name == name {
				return a
			}
		}
		a := &tagAttr{name: name}
		attrs = append(attrs, a)
		return a
	}

	tagName := defaultTag
	var err error
	if p.cur.Type == lexer.TOKEN_NAME {
		tagName = p.cur.Value
		if p.cur, err = p.lexer.NextTagContent(); err != nil {
			return err
		}
	}
	if p.cur.Type == lexer.TOKEN_TAG_ID {
		if p.cur, err = p.lexer.NextName(); err != nil {
			return err
		}
		attr("id").statics = append(attr("id").statics, p.cur.Value)
		if p.cur, err = p.lexer.NextTagContent(); err != nil {
			return err
		}
	}
	for p.cur.Type == lexer.TOKEN_TAG_CLASS {
		if p.cur, err = p.lexer.NextName(); err != nil {
			return err
		}
		attr("class").statics = append(attr("class").statics, p.cur.Value)
		if p.cur, err = p.lexer.NextTagContent(); err != nil {
			return err
		}
	}

	leadingSpace, trailingSpace := false, false
	switch p.cur.Type {
	case lexer.TOKEN_ADD_LEADING_WHITESPACE:
		leadingSpace = true
	case lexer.TOKEN_ADD_TRAILING_WHITESPACE:
		trailingSpace = true
	case lexer.TOKEN_ADD_LEADING_AND_TRAILING_WHITESPACE:
		leadingSpace, trailingSpace = true, true
	}
	if leadingSpace || trailingSpace {
		if p.cur, err = p.lexer.NextTagContent(); err != nil {
			return err
		}
	}

	if leadingSpace {
		out.writeByte(' ')
	}
	out.writeText("<" + tagName)

	// attributes
	for {
		if p.cur.Type == lexer.TOKEN_ATTR_NAME {
			if err := p.parseAttrValue(attr(p.cur.Value)); err != nil {
				return err
			}
			if p.cur, err = p.lexer.NextTagContent(); err != nil {
				return err
			}
			continue
		}
		if p.cur.Type == lexer.TOKEN_ATTRS_OPEN {
			close := matchingDelim(p.cur.Value[0])
			for {
				if p.cur, err = p.lexer.NextWrappedAttr(close); err != nil {
					return err
				}
				if p.cur.Type == lexer.TOKEN_ATTRS_CLOSE {
					break
				}
				if err := p.parseAttrValue(attr(p.cur.Value)); err != nil {
					return err
				}
			}
			if p.cur, err = p.lexer.NextTagContent(); err != nil {
				return err
			}
			continue
		}
		break
	}

	// static-only attributes first, in insertion order
	for _, a := range attrs {
		if len(a.dynamics) > 0 {
			continue
		}
		if a.boolTrue {
			out.writeAttr(" " + a.name)
		} else if len(a.statics) > 0 {
			out.writeAttr(attrString(a.name, a.statics))
		}
	}
	// then dynamic attributes, in insertion order
	for _, a := range attrs {
		if len(a.dynamics) == 0 {
			continue
		}
		out.pushAttr(&DynamicAttrNode{
			BaseNode:     BaseNode{NodeType: NODE_DYNAMIC_ATTR, Pos: p.cur.Position},
			Name:         a.name,
			StaticValues: a.statics,
			DynamicExprs: a.dynamics,
		})
	}

	// contents
	out.inTag = true
	switch p.cur.Type {
	case lexer.TOKEN_TEXT_CONTENT:
		text := p.cur.Value
		if err := p.emitInterpolated(out, text); err != nil {
			return err
		}
		if p.cur, err = p.lexer.NextIndent(); err != nil {
			return err
		}
		if err := p.parseLines(baseIndent, out); err != nil {
			return err
		}
	case lexer.TOKEN_EOL:
		if p.cur, err = p.lexer.NextIndent(); err != nil {
			return err
		}
		if err := p.parseLines(baseIndent, out); err != nil {
			return err
		}
	case lexer.TOKEN_OUTPUT_LINE:
		if err := p.parseCodeOutput(baseIndent, out); err != nil {
			return err
		}
	case lexer.TOKEN_END:
	default:
		return p.errorf("unexpected token after tag line")
	}

	voidEl := voidElements[tagName]
	switch {
	case out.inTag && voidEl:
		out.inTag = false
		out.writeAttr("/>")
	case !voidEl:
		out.writeText("</" + tagName + ">")
	default:
		return p.errorf("HTML void elements can not have content")
	}
	if trailingSpace {
		out.writeByte(' ')
	}
	return nil
}

// parseAttrValue parses `name=expr` mid-stream: the expression parser
// consumes characters from the template source and the template lexer
// resumes just after the last consumed one. Literal true/false/nil values
// resolve at parse time; literal strings and numbers become static values;
// everything else is a dynamic expression.
func (p *Parser) parseAttrValue(a *tagAttr) error {
	el := expr.NewAt(p.lexer.Source(), p.lexer.Pos())
	ep, err := expr.NewParser(el, p.vars)
	if err != nil {
		return err
	}
	node, err := ep.Expression()
	if err != nil {
		return err
	}
	p.lexer.SetPos(ep.CurrentToken().Pos)

	if lit, ok := node.(*expr.Literal); ok {
		switch v := lit.Val.(type) {
		case value.Bool:
			if bool(v) {
				a.boolTrue = true
			}
			// literal false drops the attribute
			return nil
		case value.Nil:
			return nil
		default:
			a.statics = append(a.statics, lit.Val.ToString())
			return nil
		}
	}
	a.dynamics = append(a.dynamics, node)
	return nil
}

// parseCodeOutput handles `=` output, both at line start and inline after a
// tag header, including the trailing-do iteration form.
func (p *Parser) parseCodeOutput(baseIndent int, out *outputFrame) error {
	ws := p.lexer.NextWhitespaceControl()
	leadingSpace := ws.Type == lexer.TOKEN_ADD_LEADING_WHITESPACE ||
		ws.Type == lexer.TOKEN_ADD_LEADING_AND_TRAILING_WHITESPACE
	trailingSpace := ws.Type == lexer.TOKEN_ADD_TRAILING_WHITESPACE ||
		ws.Type == lexer.TOKEN_ADD_LEADING_AND_TRAILING_WHITESPACE

	pos := p.cur.Position
	node, params, hasBlock, err := p.parseCodeLines()
	if err != nil {
		return err
	}

	if hasBlock {
		body, err := p.parseBlockBody(baseIndent, params)
		if err != nil {
			return err
		}
		out.push(&ForEachNode{
			BaseNode: BaseNode{NodeType: NODE_FOR_EACH, Pos: pos},
			Recv:     node,
			Params:   params,
			Body:     body,
			Output:   true,
		})
		return nil
	}

	out.push(&OutputExprNode{
		BaseNode:      BaseNode{NodeType: NODE_OUTPUT_EXPR, Pos: pos},
		Expr:          node,
		LeadingSpace:  leadingSpace,
		TrailingSpace: trailingSpace,
	})
	p.cur, err = p.lexer.NextIndent()
	return err
}

// parseControlCode handles `-` lines: the if/elsif/else chain, and general
// code including `receiver.each do |…|` iteration.
func (p *Parser) parseControlCode(baseIndent int, out *outputFrame) error {
	p.cur = p.lexer.ControlCodeStart()
	haveControlLine := true
	for haveControlLine {
		haveControlLine = false
		switch p.cur.Type {
		case lexer.TOKEN_IF:
			pos := p.cur.Position
			cond, _, hasBlock, err := p.parseCodeLines()
			if err != nil {
				return err
			}
			if hasBlock {
				return p.errorf("unexpected block on 'if'")
			}

			var ifBody outputFrame
			if p.cur, err = p.lexer.NextIndent(); err != nil {
				return err
			}
			if err := p.parseLines(baseIndent, &ifBody); err != nil {
				return err
			}

			var elseIfs []CondBody
			var elseBody Node
			for p.currentIndent() == baseIndent && p.lexer.TryControlLine() {
				p.cur = p.lexer.ControlCodeStart()
				if p.cur.Type == lexer.TOKEN_ELSIF {
					cond, _, hasBlock, err := p.parseCodeLines()
					if err != nil {
						return err
					}
					if hasBlock {
						return p.errorf("unexpected block on 'elsif'")
					}
					var frame outputFrame
					if p.cur, err = p.lexer.NextIndent(); err != nil {
						return err
					}
					if err := p.parseLines(baseIndent, &frame); err != nil {
						return err
					}
					elseIfs = append(elseIfs, CondBody{Cond: cond, Body: frame.makeNode()})
				} else if p.cur.Type == lexer.TOKEN_ELSE {
					t, err := p.lexer.NextTextContent()
					if err != nil {
						return err
					}
					if strings.TrimSpace(t.Value) != "" {
						return p.errorf("unexpected content after 'else'")
					}
					var frame outputFrame
					if p.cur, err = p.lexer.NextIndent(); err != nil {
						return err
					}
					if err := p.parseLines(baseIndent, &frame); err != nil {
						return err
					}
					elseBody = frame.makeNode()
					break // else is last in the chain
				} else {
					// a new control block starts at the same indent
					haveControlLine = true
					break
				}
			}

			out.push(&IfNode{
				BaseNode: BaseNode{NodeType: NODE_IF, Pos: pos},
				Cond:     cond,
				Body:     ifBody.makeNode(),
				ElseIfs:  elseIfs,
				Else:     elseBody,
			})

		case lexer.TOKEN_ELSIF, lexer.TOKEN_ELSE:
			return p.errorf("'elsif'/'else' without a matching 'if'")

		case lexer.TOKEN_CODE:
			pos := p.cur.Position
			node, params, hasBlock, err := p.parseCodeLines()
			if err != nil {
				return err
			}
			if hasBlock {
				body, err := p.parseBlockBody(baseIndent, params)
				if err != nil {
					return err
				}
				out.push(&ForEachNode{
					BaseNode: BaseNode{NodeType: NODE_FOR_EACH, Pos: pos},
					Recv:     node,
					Params:   params,
					Body:     body,
				})
			} else {
				out.push(&CodeNode{
					BaseNode: BaseNode{NodeType: NODE_CODE, Pos: pos},
					Expr:     node,
				})
				if p.cur, err = p.lexer.NextIndent(); err != nil {
					return err
				}
			}

		default:
			return p.errorf("unexpected control code start")
		}
	}
	return nil
}

// parseBlockBody parses the indented child block of a `do |params|` header,
// with the block parameters visible as locals inside it only.
func (p *Parser) parseBlockBody(baseIndent int, params []string) (Node, error) {
	snap := p.vars.Snapshot()
	for _, param := range params {
		p.vars.Add(param)
	}
	defer p.vars.Restore(snap)

	var frame outputFrame
	var err error
	if p.cur, err = p.lexer.NextIndent(); err != nil {
		return nil, err
	}
	if err := p.parseLines(baseIndent, &frame); err != nil {
		return nil, err
	}
	return frame.makeNode(), nil
}

// parseCodeLines gathers a code fragment, following `,` and `\` line
// continuations, and parses it as a template statement.
func (p *Parser) parseCodeLines() (expr.Node, []string, bool, error) {
	var src strings.Builder
	for {
		t, err := p.lexer.NextTextContent()
		if err != nil {
			return nil, nil, false, err
		}
		line := t.Value
		if strings.TrimSpace(line) == "" && src.Len() == 0 {
			return nil, nil, false, p.errorf("expected expression")
		}
		trimmed := strings.TrimRight(line, " ")
		switch {
		case strings.HasSuffix(trimmed, ","):
			src.WriteString(trimmed)
			src.WriteByte(' ')
		case strings.HasSuffix(trimmed, "\\"):
			src.WriteString(trimmed[:len(trimmed)-1])
			src.WriteByte(' ')
		default:
			src.WriteString(line)
			return p.parseStatement(src.String())
		}
		if err := p.lexer.NextLine(); err != nil {
			return nil, nil, false, err
		}
		// leading whitespace of the continuation line is insignificant
		if _, err := p.lexer.NextIndent(); err != nil {
			return nil, nil, false, err
		}
	}
}

func (p *Parser) parseStatement(src string) (expr.Node, []string, bool, error) {
	ep, err := expr.NewParser(expr.New(src), p.vars)
	if err != nil {
		return nil, nil, false, err
	}
	return ep.TemplateStatement()
}

// emitInterpolated splits text content on `#{…}` interpolation, emitting
// literal text and escaped output-expression parts. `\#{` escapes the
// interpolation start.
func (p *Parser) emitInterpolated(out *outputFrame, text string) error {
	for {
		i := findInterpStart(text)
		if i < 0 {
			out.writeText(unescapeInterp(text))
			return nil
		}
		out.writeText(unescapeInterp(text[:i]))

		el := expr.NewAt(text, i+2)
		ep, err := expr.NewParser(el, p.vars)
		if err != nil {
			return err
		}
		node, err := ep.Expression()
		if err != nil {
			return err
		}
		end := ep.CurrentToken()
		if end.Type != expr.TOKEN_R_CURLY_BRACKET {
			return p.errorf("expected '}' to close interpolation")
		}
		out.push(&OutputExprNode{
			BaseNode: BaseNode{NodeType: NODE_OUTPUT_EXPR, Pos: p.cur.Position},
			Expr:     node,
		})
		text = text[end.Pos+1:]
	}
}

// findInterpStart locates the first unescaped `#{`.
func findInterpStart(s string) int {
	for i := 0; i+1 < len(s); i++ {
		if s[i] == '#' && s[i+1] == '{' {
			if i > 0 && s[i-1] == '\\' {
				continue
			}
			return i
		}
	}
	return -1
}

// unescapeInterp rewrites `\#{` to `#{` in literal text.
func unescapeInterp(s string) string {
	return strings.ReplaceAll(s, "\\#{", "#{")
}

// matchingDelim maps a wrapped-attribute opener to its closer.
func matchingDelim(open byte) byte {
	switch open {
	case '(':
		return ')'
	case '[':
		return ']'
	default:
		return '}'
	}
}

// attrString renders a fully static attribute: values joined by single
// spaces inside a double-quoted value.
func attrString(name string, values []string) string {
	var b strings.Builder
	b.WriteByte(' ')
	b.WriteString(name)
	b.WriteString(`="`)
	for i, v := range values {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(value.EscapeHTML(v))
	}
	b.WriteByte('"')
	return b.String()
}
