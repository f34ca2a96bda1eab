package dsl

import (
	"fmt"
	"strconv"

	"github.com/feathr-ai/feathr-online/value"
)

// Parser is a hand-written recursive-descent parser for the pipeline DSL,
// grounded on the precedence table in : unary > `* / %` > `+ -` >
// comparisons > `not` > `and` > `or`.
type Parser struct {
	lex  *Lexer
	tok  Token
	peek *Token
}

// Parse parses a full script of semicolon-terminated pipeline declarations.
func Parse(src string) ([]*Pipeline, error) {
	p := &Parser{lex: NewLexer(src)}
	if err := p.next(); err != nil {
		return nil, err
	}
	var pipelines []*Pipeline
	for p.tok.Kind != TokEOF {
		pl, err := p.parsePipeline()
		if err != nil {
			return nil, err
		}
		pipelines = append(pipelines, pl)
	}
	return pipelines, nil
}

func (p *Parser) next() error {
	if p.peek != nil {
		p.tok = *p.peek
		p.peek = nil
		return nil
	}
	t, err := p.lex.Next()
	if err != nil {
		return fmt.Errorf("syntax error: %w", err)
	}
	p.tok = t
	return nil
}

func (p *Parser) peekTok() (Token, error) {
	if p.peek == nil {
		t, err := p.lex.Next()
		if err != nil {
			return Token{}, fmt.Errorf("syntax error: %w", err)
		}
		p.peek = &t
	}
	return *p.peek, nil
}

func (p *Parser) errf(format string, args ...any) error {
	return fmt.Errorf("syntax error at line %d: %s", p.tok.Line, fmt.Sprintf(format, args...))
}

func (p *Parser) expectPunct(text string) error {
	if p.tok.Kind != TokPunct || p.tok.Text != text {
		return p.errf("expected %q, got %q", text, p.tok.Text)
	}
	return p.next()
}

func (p *Parser) expectKeyword(text string) error {
	if p.tok.Kind != TokKeyword || p.tok.Text != text {
		return p.errf("expected keyword %q, got %q", text, p.tok.Text)
	}
	return p.next()
}

func (p *Parser) expectIdent() (string, error) {
	if p.tok.Kind != TokIdent {
		return "", p.errf("expected identifier, got %q", p.tok.Text)
	}
	name := p.tok.Text
	return name, p.next()
}

func (p *Parser) isPunct(text string) bool {
	return p.tok.Kind == TokPunct && p.tok.Text == text
}

func (p *Parser) isKeyword(text string) bool {
	return p.tok.Kind == TokKeyword && p.tok.Text == text
}

// parsePipeline parses `name(col as type, ...) | clause | clause ... ;`.
func (p *Parser) parsePipeline() (*Pipeline, error) {
	line := p.tok.Line
	name, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	if err := p.expectPunct("("); err != nil {
		return nil, err
	}
	var cols []value.Column
	for !p.isPunct(")") {
		colName, err := p.expectIdent()
		if err != nil {
			return nil, err
		}
		if err := p.expectKeyword("as"); err != nil {
			return nil, err
		}
		typTok := p.tok
		if typTok.Kind != TokKeyword {
			return nil, p.errf("expected declared type, got %q", typTok.Text)
		}
		tag := value.TypeTag(typTok.Text)
		if _, ok := tag.Kind(); !ok && tag != value.TDynamic {
			return nil, p.errf("unknown declared type %q", typTok.Text)
		}
		if err := p.next(); err != nil {
			return nil, err
		}
		cols = append(cols, value.Column{Name: colName, Type: tag})
		if p.isPunct(",") {
			if err := p.next(); err != nil {
				return nil, err
			}
		}
	}
	if err := p.expectPunct(")"); err != nil {
		return nil, err
	}

	var clauses []Clause
	for p.isPunct("|") {
		if err := p.next(); err != nil {
			return nil, err
		}
		c, err := p.parseClause()
		if err != nil {
			return nil, err
		}
		clauses = append(clauses, c)
	}
	if err := p.expectPunct(";"); err != nil {
		return nil, err
	}
	return &Pipeline{Name: name, InputSchema: value.Schema{Columns: cols}, Clauses: clauses, Line: line}, nil
}

func (p *Parser) parseClause() (Clause, error) {
	if p.tok.Kind != TokKeyword {
		return nil, p.errf("expected clause keyword, got %q", p.tok.Text)
	}
	kw := p.tok.Text
	switch kw {
	case "where":
		if err := p.next(); err != nil {
			return nil, err
		}
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		return WhereClause{Expr: e}, nil

	case "take":
		if err := p.next(); err != nil {
			return nil, err
		}
		n, err := p.expectIntLiteral()
		if err != nil {
			return nil, err
		}
		return TakeClause{N: n}, nil

	case "project":
		return p.parseProjectClause()

	case "project-remove":
		if err := p.next(); err != nil {
			return nil, err
		}
		names, err := p.parseIdentList()
		if err != nil {
			return nil, err
		}
		return ProjectRemoveClause{Names: names}, nil

	case "project-keep":
		if err := p.next(); err != nil {
			return nil, err
		}
		names, err := p.parseIdentList()
		if err != nil {
			return nil, err
		}
		return ProjectKeepClause{Names: names}, nil

	case "project-rename":
		if err := p.next(); err != nil {
			return nil, err
		}
		var assigns []RenameAssign
		for {
			newName, err := p.expectIdent()
			if err != nil {
				return nil, err
			}
			if err := p.expectPunct("="); err != nil {
				return nil, err
			}
			oldName, err := p.expectIdent()
			if err != nil {
				return nil, err
			}
			assigns = append(assigns, RenameAssign{New: newName, Old: oldName})
			if p.isPunct(",") {
				if err := p.next(); err != nil {
					return nil, err
				}
				continue
			}
			break
		}
		return ProjectRenameClause{Assigns: assigns}, nil

	case "top":
		return p.parseTopClause()

	case "summarize":
		return p.parseSummarizeClause()

	case "distinct":
		if err := p.next(); err != nil {
			return nil, err
		}
		return DistinctClause{}, nil

	case "explode":
		if err := p.next(); err != nil {
			return nil, err
		}
		col, err := p.expectIdent()
		if err != nil {
			return nil, err
		}
		var as value.TypeTag
		if p.isKeyword("as") {
			if err := p.next(); err != nil {
				return nil, err
			}
			if p.tok.Kind != TokKeyword {
				return nil, p.errf("expected type after 'as', got %q", p.tok.Text)
			}
			as = value.TypeTag(p.tok.Text)
			if err := p.next(); err != nil {
				return nil, err
			}
		}
		return ExplodeClause{Column: col, As: as}, nil

	case "ignore-errors":
		if err := p.next(); err != nil {
			return nil, err
		}
		return IgnoreErrorsClause{}, nil

	case "lookup":
		if err := p.next(); err != nil {
			return nil, err
		}
		fields, err := p.parseIdentList()
		if err != nil {
			return nil, err
		}
		if err := p.expectKeyword("from"); err != nil {
			return nil, err
		}
		src, err := p.expectIdent()
		if err != nil {
			return nil, err
		}
		if err := p.expectKeyword("on"); err != nil {
			return nil, err
		}
		key, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		return LookupClause{Fields: fields, Source: src, Key: key}, nil

	case "join":
		if err := p.next(); err != nil {
			return nil, err
		}
		if err := p.expectKeyword("kind"); err != nil {
			return nil, err
		}
		if err := p.expectPunct("="); err != nil {
			return nil, err
		}
		var jk JoinKind
		switch {
		case p.isKeyword(string(JoinLeftInner)):
			jk = JoinLeftInner
		case p.isKeyword(string(JoinLeftOuter)):
			jk = JoinLeftOuter
		default:
			return nil, p.errf("expected join kind, got %q", p.tok.Text)
		}
		if err := p.next(); err != nil {
			return nil, err
		}
		fields, err := p.parseIdentList()
		if err != nil {
			return nil, err
		}
		if err := p.expectKeyword("from"); err != nil {
			return nil, err
		}
		src, err := p.expectIdent()
		if err != nil {
			return nil, err
		}
		if err := p.expectKeyword("on"); err != nil {
			return nil, err
		}
		key, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		return JoinClause{Kind: jk, Fields: fields, Source: src, Key: key}, nil

	default:
		return nil, p.errf("unknown clause keyword %q", kw)
	}
}

func (p *Parser) parseProjectClause() (Clause, error) {
	if err := p.next(); err != nil {
		return nil, err
	}
	var assigns []ProjectAssign
	for {
		name, err := p.expectIdent()
		if err != nil {
			return nil, err
		}
		if err := p.expectPunct("="); err != nil {
			return nil, err
		}
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		assigns = append(assigns, ProjectAssign{Name: name, Expr: e})
		if p.isPunct(",") {
			if err := p.next(); err != nil {
				return nil, err
			}
			continue
		}
		break
	}
	return ProjectClause{Assigns: assigns}, nil
}

func (p *Parser) parseTopClause() (Clause, error) {
	if err := p.next(); err != nil {
		return nil, err
	}
	n, err := p.expectIntLiteral()
	if err != nil {
		return nil, err
	}
	if err := p.expectKeyword("by"); err != nil {
		return nil, err
	}
	var terms []SortTerm
	for {
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		desc := false
		if p.isKeyword("asc") {
			if err := p.next(); err != nil {
				return nil, err
			}
		} else if p.isKeyword("desc") {
			desc = true
			if err := p.next(); err != nil {
				return nil, err
			}
		}
		terms = append(terms, SortTerm{Expr: e, Desc: desc})
		if p.isPunct(",") {
			if err := p.next(); err != nil {
				return nil, err
			}
			continue
		}
		break
	}
	return TopClause{N: n, Terms: terms}, nil
}

func (p *Parser) parseSummarizeClause() (Clause, error) {
	if err := p.next(); err != nil {
		return nil, err
	}
	var assigns []SummarizeAssign
	for {
		name, err := p.expectIdent()
		if err != nil {
			return nil, err
		}
		if err := p.expectPunct("="); err != nil {
			return nil, err
		}
		funcName, err := p.expectIdent()
		if err != nil {
			return nil, err
		}
		if err := p.expectPunct("("); err != nil {
			return nil, err
		}
		var args []Expr
		for !p.isPunct(")") {
			a, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			args = append(args, a)
			if p.isPunct(",") {
				if err := p.next(); err != nil {
					return nil, err
				}
				continue
			}
			break
		}
		if err := p.expectPunct(")"); err != nil {
			return nil, err
		}
		assigns = append(assigns, SummarizeAssign{Name: name, Agg: AggExpr{Func: funcName, Args: args}})
		if p.isPunct(",") {
			if err := p.next(); err != nil {
				return nil, err
			}
			continue
		}
		break
	}
	var by []Expr
	if p.isKeyword("by") {
		if err := p.next(); err != nil {
			return nil, err
		}
		for {
			e, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			by = append(by, e)
			if p.isPunct(",") {
				if err := p.next(); err != nil {
					return nil, err
				}
				continue
			}
			break
		}
	}
	return SummarizeClause{Assigns: assigns, By: by}, nil
}

func (p *Parser) parseIdentList() ([]string, error) {
	var names []string
	for {
		n, err := p.expectIdent()
		if err != nil {
			return nil, err
		}
		names = append(names, n)
		if p.isPunct(",") {
			if err := p.next(); err != nil {
				return nil, err
			}
			continue
		}
		break
	}
	return names, nil
}

func (p *Parser) expectIntLiteral() (int64, error) {
	if p.tok.Kind != TokInt {
		return 0, p.errf("expected integer literal, got %q", p.tok.Text)
	}
	n, err := strconv.ParseInt(p.tok.Text, 10, 64)
	if err != nil {
		return 0, p.errf("invalid integer literal %q", p.tok.Text)
	}
	return n, p.next()
}

// Expression grammar, precedence low to high:
//   or  ->  and  ->  not  ->  comparison  ->  additive  ->  multiplicative  ->  unary  ->  postfix  ->  primary

func (p *Parser) parseExpr() (Expr, error) { return p.parseOr() }

func (p *Parser) parseOr() (Expr, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.isKeyword("or") {
		if err := p.next(); err != nil {
			return nil, err
		}
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = BinaryExpr{Op: OpOr, Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseAnd() (Expr, error) {
	left, err := p.parseNot()
	if err != nil {
		return nil, err
	}
	for p.isKeyword("and") {
		if err := p.next(); err != nil {
			return nil, err
		}
		right, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		left = BinaryExpr{Op: OpAnd, Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseNot() (Expr, error) {
	if p.isKeyword("not") {
		if err := p.next(); err != nil {
			return nil, err
		}
		operand, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		return UnaryExpr{Op: OpNot, Operand: operand}, nil
	}
	return p.parseComparison()
}

var comparisonOps = map[string]BinaryOp{
	"==": OpEq, "!=": OpNeq, "<": OpLt, "<=": OpLte, ">": OpGt, ">=": OpGte,
}

func (p *Parser) parseComparison() (Expr, error) {
	left, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	if p.tok.Kind == TokPunct {
		if op, ok := comparisonOps[p.tok.Text]; ok {
			if err := p.next(); err != nil {
				return nil, err
			}
			right, err := p.parseAdditive()
			if err != nil {
				return nil, err
			}
			return BinaryExpr{Op: op, Left: left, Right: right}, nil
		}
	}
	return left, nil
}

func (p *Parser) parseAdditive() (Expr, error) {
	left, err := p.parseMultiplicative()
	if err != nil {
		return nil, err
	}
	for p.tok.Kind == TokPunct && (p.tok.Text == "+" || p.tok.Text == "-") {
		op := BinaryOp(p.tok.Text)
		if err := p.next(); err != nil {
			return nil, err
		}
		right, err := p.parseMultiplicative()
		if err != nil {
			return nil, err
		}
		left = BinaryExpr{Op: op, Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseMultiplicative() (Expr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.tok.Kind == TokPunct && (p.tok.Text == "*" || p.tok.Text == "/" || p.tok.Text == "%") {
		op := BinaryOp(p.tok.Text)
		if err := p.next(); err != nil {
			return nil, err
		}
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = BinaryExpr{Op: op, Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseUnary() (Expr, error) {
	if p.tok.Kind == TokPunct && p.tok.Text == "-" {
		if err := p.next(); err != nil {
			return nil, err
		}
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return UnaryExpr{Op: OpNeg, Operand: operand}, nil
	}
	return p.parsePostfix()
}

func (p *Parser) parsePostfix() (Expr, error) {
	e, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for {
		switch {
		case p.isPunct("["):
			if err := p.next(); err != nil {
				return nil, err
			}
			idx, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			if err := p.expectPunct("]"); err != nil {
				return nil, err
			}
			e = IndexExpr{Target: e, Index: idx}
		case p.isPunct("."):
			if err := p.next(); err != nil {
				return nil, err
			}
			name, err := p.expectIdent()
			if err != nil {
				return nil, err
			}
			e = FieldExpr{Target: e, Name: name}
		default:
			return e, nil
		}
	}
}

func (p *Parser) parsePrimary() (Expr, error) {
	switch p.tok.Kind {
	case TokInt:
		n, err := strconv.ParseInt(p.tok.Text, 10, 64)
		if err != nil {
			return nil, p.errf("invalid integer literal %q", p.tok.Text)
		}
		if err := p.next(); err != nil {
			return nil, err
		}
		return LiteralExpr{Value: value.Int(n)}, nil

	case TokFloat:
		f, err := strconv.ParseFloat(p.tok.Text, 64)
		if err != nil {
			return nil, p.errf("invalid float literal %q", p.tok.Text)
		}
		if err := p.next(); err != nil {
			return nil, err
		}
		return LiteralExpr{Value: value.Double(f)}, nil

	case TokString:
		s := p.tok.Text
		if err := p.next(); err != nil {
			return nil, err
		}
		return LiteralExpr{Value: value.String(s)}, nil

	case TokKeyword:
		switch p.tok.Text {
		case "null":
			if err := p.next(); err != nil {
				return nil, err
			}
			return LiteralExpr{Value: value.Null()}, nil
		case "true":
			if err := p.next(); err != nil {
				return nil, err
			}
			return LiteralExpr{Value: value.Bool(true)}, nil
		case "false":
			if err := p.next(); err != nil {
				return nil, err
			}
			return LiteralExpr{Value: value.Bool(false)}, nil
		case "case":
			return p.parseCase()
		default:
			return nil, p.errf("unexpected keyword %q in expression", p.tok.Text)
		}

	case TokIdent:
		name := p.tok.Text
		if err := p.next(); err != nil {
			return nil, err
		}
		if p.isPunct("(") {
			if err := p.next(); err != nil {
				return nil, err
			}
			var args []Expr
			for !p.isPunct(")") {
				a, err := p.parseExpr()
				if err != nil {
					return nil, err
				}
				args = append(args, a)
				if p.isPunct(",") {
					if err := p.next(); err != nil {
						return nil, err
					}
					continue
				}
				break
			}
			if err := p.expectPunct(")"); err != nil {
				return nil, err
			}
			return CallExpr{Func: name, Args: args}, nil
		}
		return ColumnExpr{Name: name}, nil

	case TokPunct:
		if p.tok.Text == "(" {
			if err := p.next(); err != nil {
				return nil, err
			}
			e, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			if err := p.expectPunct(")"); err != nil {
				return nil, err
			}
			return e, nil
		}
		return nil, p.errf("unexpected token %q", p.tok.Text)

	default:
		return nil, p.errf("unexpected end of expression")
	}
}

func (p *Parser) parseCase() (Expr, error) {
	if err := p.next(); err != nil { // consume 'case'
		return nil, err
	}
	var whens []WhenClause
	for p.isKeyword("when") {
		if err := p.next(); err != nil {
			return nil, err
		}
		cond, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if err := p.expectKeyword("then"); err != nil {
			return nil, err
		}
		then, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		whens = append(whens, WhenClause{Cond: cond, Then: then})
	}
	if len(whens) == 0 {
		return nil, p.errf("case expression requires at least one 'when' branch")
	}
	var elseExpr Expr
	if p.isKeyword("else") {
		if err := p.next(); err != nil {
			return nil, err
		}
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		elseExpr = e
	}
	if err := p.expectKeyword("end"); err != nil {
		return nil, err
	}
	return CaseExpr{Whens: whens, Else: elseExpr}, nil
}
