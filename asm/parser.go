package asm

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/db47h/isb/diag"
)

// scanner is a minimal whitespace/line-comment-skipping word scanner for
// assembly text, hand-rolled in the same style as the source lexer
// rather than built on text/scanner.
type scanner struct {
	src  string
	pos  int
	line int
	col  int
}

type word struct {
	text  string
	isStr bool
	isLbl bool // ends in ':'
	line  int
	col   int
}

func newScanner(src string) *scanner { return &scanner{src: src, col: 1} }

func (s *scanner) peek() (rune, int) {
	if s.pos >= len(s.src) {
		return 0, 0
	}
	return utf8.DecodeRuneInString(s.src[s.pos:])
}

func (s *scanner) advance() rune {
	r, sz := s.peek()
	if sz == 0 {
		return 0
	}
	s.pos += sz
	if r == '\n' {
		s.line++
		s.col = 1
	} else {
		s.col++
	}
	return r
}

// next returns the next word, or ok=false at end of input.
func (s *scanner) next(bag *diag.Bag) (word, bool) {
	for {
		r, sz := s.peek()
		if sz == 0 {
			return word{}, false
		}
		if unicode.IsSpace(r) {
			s.advance()
			continue
		}
		if r == ';' {
			for {
				r, sz := s.peek()
				if sz == 0 || r == '\n' {
					break
				}
				s.advance()
			}
			continue
		}
		break
	}

	line, col := s.line, s.col
	r, _ := s.peek()
	if r == '"' {
		s.advance()
		var sb strings.Builder
		for {
			r, sz := s.peek()
			if sz == 0 || r == '\n' {
				bag.Add(diag.UnexpectedToken, diag.Pos{Line: line, Col: col}, "unterminated string operand")
				break
			}
			if r == '"' {
				s.advance()
				break
			}
			if r == '\\' {
				s.advance()
				esc, sz2 := s.peek()
				if sz2 == 0 {
					break
				}
				switch esc {
				case '"':
					sb.WriteByte('"')
				case '\\':
					sb.WriteByte('\\')
				default:
					sb.WriteRune(esc)
				}
				s.advance()
				continue
			}
			sb.WriteRune(r)
			s.advance()
		}
		return word{text: sb.String(), isStr: true, line: line, col: col}, true
	}

	start := s.pos
	for {
		r, sz := s.peek()
		if sz == 0 || unicode.IsSpace(r) || r == ';' || r == '"' {
			break
		}
		s.advance()
	}
	text := s.src[start:s.pos]
	isLbl := len(text) > 1 && strings.HasSuffix(text, ":")
	if isLbl {
		text = strings.TrimSuffix(text, ":")
	}
	return word{text: text, isLbl: isLbl, line: line, col: col}, true
}

// Parse parses assembly text into a Program. Unknown opcodes, duplicate
// label definitions, and an operand missing at the end of input are
// recorded in bag. Operands are read as the next words without regard to
// line breaks, so a missing operand elsewhere takes the following word,
// and an extra operand is read as an (unknown) opcode;
// branch/call operands naming a label are accepted syntactically without
// being resolved here -- resolution happens at runtime against the
// engine's (append-only, incrementally growing) label table, so an
// undefined branch target is a runtime error, not a parse error.
func Parse(src string, bag *diag.Bag) *Program {
	prog := &Program{Labels: make(map[string]int)}
	s := newScanner(src)

	for {
		w, ok := s.next(bag)
		if !ok {
			break
		}
		pos := diag.Pos{Line: w.line, Col: w.col}

		if w.isLbl {
			if _, exists := prog.Labels[w.text]; exists {
				bag.Add(diag.DuplicateLabel, pos, "duplicate label definition %q", w.text)
				continue
			}
			prog.Labels[w.text] = len(prog.Instructions)
			continue
		}

		op, ok := LookupOp(w.text)
		if !ok {
			bag.Add(diag.UnknownOpcode, pos, "unknown opcode %q", w.text)
			continue
		}

		ar := operandArity[op]
		ins := Instruction{Op: op, Pos: &pos}
		if ar.n >= 1 {
			a, ok := s.next(bag)
			if !ok {
				bag.Add(diag.UnexpectedEndOfStream, pos, "%s: expected operand", op)
				break
			}
			ins.A = a.text
		}
		if ar.n >= 2 {
			b, ok := s.next(bag)
			if !ok {
				bag.Add(diag.UnexpectedEndOfStream, pos, "%s: expected second operand", op)
				break
			}
			ins.B = b.text
		}
		prog.Instructions = append(prog.Instructions, ins)
	}

	return prog
}
