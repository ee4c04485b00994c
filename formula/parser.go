package formula

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

const (
	_ int = iota
	LOWEST
	SUM     // + -
	PRODUCT // * /
	PREFIX  // -X
	POWER   // X^Y, right associative
)

var precedences = map[TokenType]int{
	PLUS:     SUM,
	MINUS:    SUM,
	ASTERISK: PRODUCT,
	SLASH:    PRODUCT,
	CARET:    POWER,
}

type (
	prefixParseFn func() Expression
	infixParseFn  func(Expression) Expression
)

type Parser struct {
	l *Lexer

	curToken  Token
	peekToken Token

	err   *ParseError
	names map[int]string

	prefixParseFns map[TokenType]prefixParseFn
	infixParseFns  map[TokenType]infixParseFn
}

func NewParser(l *Lexer) *Parser {
	p := &Parser{
		l:     l,
		names: map[int]string{},
	}

	p.prefixParseFns = map[TokenType]prefixParseFn{
		NUMBER: p.parseNumberLiteral,
		IDENT:  p.parseIdentifier,
		PARAM:  p.parseParamRef,
		MINUS:  p.parsePrefixExpression,
		PLUS:   p.parsePrefixExpression,
		LPAREN: p.parseGroupedExpression,
	}
	p.infixParseFns = map[TokenType]infixParseFn{
		PLUS:     p.parseInfixExpression,
		MINUS:    p.parseInfixExpression,
		ASTERISK: p.parseInfixExpression,
		SLASH:    p.parseInfixExpression,
		CARET:    p.parseInfixExpression,
	}

	p.nextToken()
	p.nextToken()
	return p
}

// ParseExpression parses the whole input as a single expression.
func (p *Parser) ParseExpression() (Expression, error) {
	if p.curTokenIs(EOF) {
		p.fail(p.curToken, "empty formula")
		return nil, p.err
	}
	root := p.parseExpression(LOWEST)
	if p.err == nil && !p.peekTokenIs(EOF) {
		p.fail(p.peekToken, fmt.Sprintf("unexpected %s", describeToken(p.peekToken)))
	}
	if p.err != nil {
		return nil, p.err
	}
	return root, nil
}

func (p *Parser) nextToken() {
	p.curToken = p.peekToken
	p.peekToken = p.l.NextToken()
}

func (p *Parser) curTokenIs(t TokenType) bool  { return p.curToken.Type == t }
func (p *Parser) peekTokenIs(t TokenType) bool { return p.peekToken.Type == t }

func (p *Parser) expectPeek(t TokenType) bool {
	if p.peekTokenIs(t) {
		p.nextToken()
		return true
	}
	p.fail(p.peekToken, fmt.Sprintf("expected %s, got %s", t, describeToken(p.peekToken)))
	return false
}

func (p *Parser) peekPrecedence() int {
	if prec, ok := precedences[p.peekToken.Type]; ok {
		return prec
	}
	return LOWEST
}

func (p *Parser) fail(tok Token, reason string) {
	if p.err != nil {
		return
	}
	p.err = &ParseError{Source: p.l.input, Position: tok.Position, Reason: reason}
}

func (p *Parser) parseExpression(precedence int) Expression {
	if p.err != nil {
		return nil
	}
	prefix := p.prefixParseFns[p.curToken.Type]
	if prefix == nil {
		p.fail(p.curToken, fmt.Sprintf("unexpected %s", describeToken(p.curToken)))
		return nil
	}
	left := prefix()

	for p.err == nil && precedence < p.peekPrecedence() {
		infix := p.infixParseFns[p.peekToken.Type]
		if infix == nil {
			return left
		}
		p.nextToken()
		left = infix(left)
	}
	return left
}

func (p *Parser) parseNumberLiteral() Expression {
	value, err := strconv.ParseFloat(p.curToken.Literal, 64)
	if err != nil {
		p.fail(p.curToken, fmt.Sprintf("could not parse %q as number", p.curToken.Literal))
		return nil
	}
	return &NumberLiteral{Value: value}
}

func (p *Parser) parseParamRef() Expression {
	index, err := strconv.Atoi(p.curToken.Literal)
	if err != nil {
		p.fail(p.curToken, fmt.Sprintf("could not parse parameter index %q", p.curToken.Literal))
		return nil
	}
	return &ParamRef{Index: index}
}

func (p *Parser) parsePrefixExpression() Expression {
	operator := p.curToken.Literal
	p.nextToken()
	right := p.parseExpression(PREFIX)
	if operator == "+" {
		return right
	}
	return &PrefixExpression{Operator: operator, Right: right}
}

func (p *Parser) parseInfixExpression(left Expression) Expression {
	tok := p.curToken
	operator := tok.Literal
	if tok.Type == CARET {
		operator = "^"
	}
	precedence := precedences[tok.Type]
	if tok.Type == CARET {
		precedence--
	}
	p.nextToken()
	right := p.parseExpression(precedence)
	return &InfixExpression{Left: left, Operator: operator, Right: right}
}

func (p *Parser) parseGroupedExpression() Expression {
	p.nextToken()
	exp := p.parseExpression(LOWEST)
	if !p.expectPeek(RPAREN) {
		return nil
	}
	return exp
}

func (p *Parser) parseIdentifier() Expression {
	tok := p.curToken
	name := canonicalName(tok.Literal)

	switch {
	case name == "x":
		return &Variable{}
	case name == "pi":
		p.skipEmptyCall()
		return &NumberLiteral{Value: math.Pi}
	}
	if shape, ok := lookupBuiltin(name); ok {
		offset := 0
		if p.peekTokenIs(LPAREN) {
			p.nextToken()
			if !p.expectPeek(NUMBER) {
				return nil
			}
			value, err := strconv.Atoi(p.curToken.Literal)
			if err != nil || value < 0 {
				p.fail(p.curToken, fmt.Sprintf("%s offset must be a non-negative integer, got %q", name, p.curToken.Literal))
				return nil
			}
			offset = value
			if !p.expectPeek(RPAREN) {
				return nil
			}
		}
		return shape.expand(offset, p.names)
	}
	if !p.peekTokenIs(LPAREN) {
		p.fail(tok, fmt.Sprintf("unknown identifier %q", tok.Literal))
		return nil
	}
	p.nextToken()
	return &CallExpression{Function: name, Arguments: p.parseCallArguments()}
}

func (p *Parser) parseCallArguments() []Expression {
	args := []Expression{}
	if p.peekTokenIs(RPAREN) {
		p.nextToken()
		return args
	}
	p.nextToken()
	args = append(args, p.parseExpression(LOWEST))
	for p.err == nil && p.peekTokenIs(COMMA) {
		p.nextToken()
		p.nextToken()
		args = append(args, p.parseExpression(LOWEST))
	}
	if !p.expectPeek(RPAREN) {
		return nil
	}
	return args
}

// skipEmptyCall accepts the "TMath::Pi()" spelling of constants.
func (p *Parser) skipEmptyCall() {
	if !p.peekTokenIs(LPAREN) {
		return
	}
	p.nextToken()
	p.expectPeek(RPAREN)
}

func canonicalName(literal string) string {
	name := strings.ToLower(literal)
	if idx := strings.LastIndex(name, "::"); idx >= 0 {
		name = name[idx+2:]
	}
	return name
}

func describeToken(tok Token) string {
	switch tok.Type {
	case EOF:
		return tok.Type.String()
	case ILLEGAL:
		return fmt.Sprintf("illegal token %q", tok.Literal)
	default:
		return fmt.Sprintf("%s %q", tok.Type, tok.Literal)
	}
}
