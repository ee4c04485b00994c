package formula

type TokenType int

const (
	ILLEGAL TokenType = iota
	EOF

	NUMBER // 1, 2.5, 1e-3
	IDENT  // x, exp, gaus, TMath::Exp
	PARAM  // [k]

	PLUS     // +
	MINUS    // -
	ASTERISK // *
	SLASH    // /
	CARET    // ^ or **

	LPAREN // (
	RPAREN // )
	COMMA  // ,
)

func (t TokenType) String() string {
	switch t {
	case EOF:
		return "end of formula"
	case NUMBER:
		return "number"
	case IDENT:
		return "identifier"
	case PARAM:
		return "parameter"
	case PLUS:
		return "+"
	case MINUS:
		return "-"
	case ASTERISK:
		return "*"
	case SLASH:
		return "/"
	case CARET:
		return "^"
	case LPAREN:
		return "("
	case RPAREN:
		return ")"
	case COMMA:
		return ","
	default:
		return "illegal token"
	}
}

type Token struct {
	Type     TokenType
	Literal  string
	Position int
}

type Lexer struct {
	input        string
	position     int  // current position in input (points to current char)
	readPosition int  // current reading position in input (after current char)
	ch           byte // current char under examination
}

func NewLexer(input string) *Lexer {
	l := &Lexer{input: input}
	l.readChar()
	return l
}

func (l *Lexer) readChar() {
	if l.readPosition >= len(l.input) {
		l.ch = 0
	} else {
		l.ch = l.input[l.readPosition]
	}
	l.position = l.readPosition
	l.readPosition++
}

func (l *Lexer) peekChar() byte {
	if l.readPosition >= len(l.input) {
		return 0
	}
	return l.input[l.readPosition]
}

func (l *Lexer) NextToken() Token {
	l.skipWhitespace()

	start := l.position
	var tok Token
	switch l.ch {
	case 0:
		return Token{Type: EOF, Position: start}
	case '+':
		tok = Token{Type: PLUS, Literal: "+", Position: start}
	case '-':
		tok = Token{Type: MINUS, Literal: "-", Position: start}
	case '/':
		tok = Token{Type: SLASH, Literal: "/", Position: start}
	case '^':
		tok = Token{Type: CARET, Literal: "^", Position: start}
	case '*':
		if l.peekChar() == '*' {
			l.readChar()
			tok = Token{Type: CARET, Literal: "**", Position: start}
		} else {
			tok = Token{Type: ASTERISK, Literal: "*", Position: start}
		}
	case '(':
		tok = Token{Type: LPAREN, Literal: "(", Position: start}
	case ')':
		tok = Token{Type: RPAREN, Literal: ")", Position: start}
	case ',':
		tok = Token{Type: COMMA, Literal: ",", Position: start}
	case '[':
		return l.readParam()
	default:
		if isLetter(l.ch) {
			return Token{Type: IDENT, Literal: l.readIdentifier(), Position: start}
		}
		if isDigit(l.ch) || l.ch == '.' {
			return l.readNumber()
		}
		tok = Token{Type: ILLEGAL, Literal: string(l.ch), Position: start}
	}
	l.readChar()
	return tok
}

func (l *Lexer) skipWhitespace() {
	for l.ch == ' ' || l.ch == '\t' || l.ch == '\n' || l.ch == '\r' {
		l.readChar()
	}
}

func (l *Lexer) readIdentifier() string {
	start := l.position
	for isLetter(l.ch) || isDigit(l.ch) || (l.ch == ':' && l.peekChar() == ':') {
		if l.ch == ':' {
			l.readChar()
		}
		l.readChar()
	}
	return l.input[start:l.position]
}

func (l *Lexer) readNumber() Token {
	start := l.position
	seenDot := false
	for isDigit(l.ch) || (l.ch == '.' && !seenDot) {
		if l.ch == '.' {
			seenDot = true
		}
		l.readChar()
	}
	if l.ch == 'e' || l.ch == 'E' {
		next := l.peekChar()
		if isDigit(next) || ((next == '+' || next == '-') && l.readPosition+1 < len(l.input) && isDigit(l.input[l.readPosition+1])) {
			l.readChar()
			if l.ch == '+' || l.ch == '-' {
				l.readChar()
			}
			for isDigit(l.ch) {
				l.readChar()
			}
		}
	}
	literal := l.input[start:l.position]
	if literal == "." {
		return Token{Type: ILLEGAL, Literal: literal, Position: start}
	}
	return Token{Type: NUMBER, Literal: literal, Position: start}
}

// readParam consumes "[k]"; anything but digits between the brackets is
// illegal.
func (l *Lexer) readParam() Token {
	start := l.position
	l.readChar()
	digits := l.position
	for isDigit(l.ch) {
		l.readChar()
	}
	index := l.input[digits:l.position]
	if l.ch != ']' || index == "" {
		for l.ch != 0 && l.ch != ']' {
			l.readChar()
		}
		if l.ch == ']' {
			l.readChar()
		}
		return Token{Type: ILLEGAL, Literal: l.input[start:l.position], Position: start}
	}
	l.readChar()
	return Token{Type: PARAM, Literal: index, Position: start}
}

func isLetter(ch byte) bool {
	return 'a' <= ch && ch <= 'z' || 'A' <= ch && ch <= 'Z' || ch == '_'
}

func isDigit(ch byte) bool {
	return '0' <= ch && ch <= '9'
}
