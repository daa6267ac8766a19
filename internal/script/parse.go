package script

import (
	"strconv"
	"unicode/utf8"

	"go.uber.org/multierr"

	"github.com/tangzhangming/stackrv/internal/errors"
)

// ============================================================================
// 扫描器
// ============================================================================

type scanner struct {
	src  string
	off  int
	line int
	col  int
}

func newScanner(src string) *scanner {
	return &scanner{src: src, line: 1, col: 1}
}

func (s *scanner) peek() (rune, int) {
	if s.off >= len(s.src) {
		return -1, 0
	}
	return utf8.DecodeRuneInString(s.src[s.off:])
}

func (s *scanner) advance() rune {
	r, size := s.peek()
	if size == 0 {
		return -1
	}
	s.off += size
	if r == '\n' {
		s.line++
		s.col = 1
	} else {
		s.col++
	}
	return r
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n' || r == '\r' || r == '\f' || r == '\v'
}

// next 读取下一个空白分隔的词
func (s *scanner) next() (string, Pos, bool) {
	for {
		r, size := s.peek()
		if size == 0 {
			return "", Pos{}, false
		}
		if !isSpace(r) {
			break
		}
		s.advance()
	}
	pos := Pos{Line: s.line, Column: s.col}
	start := s.off
	for {
		r, size := s.peek()
		if size == 0 || isSpace(r) {
			break
		}
		s.advance()
	}
	pos.End = s.col
	return s.src[start:s.off], pos, true
}

// skipLine 跳过当前行剩余部分
func (s *scanner) skipLine() {
	for {
		r := s.advance()
		if r == -1 || r == '\n' {
			return
		}
	}
}

// skipPast 跳过直到并包括 end，没有找到时返回 false
func (s *scanner) skipPast(end rune) bool {
	for {
		r := s.advance()
		if r == -1 {
			return false
		}
		if r == end {
			return true
		}
	}
}

// ============================================================================
// 解析
// ============================================================================

// Parse 解析脚本。出错时仍返回已解析的部分，错误用 multierr 合并
func Parse(file, src string) (*Program, error) {
	p := &Program{File: file}
	s := newScanner(src)
	var errs error

	fail := func(d *errors.Diagnostic, pos Pos) {
		errs = multierr.Append(errs, d.At(file, pos.Line, pos.Column, pos.End))
	}

	for {
		text, pos, ok := s.next()
		if !ok {
			break
		}

		switch text {
		case "\\":
			s.skipLine()
			continue
		case "(":
			if !s.skipPast(')') {
				fail(errors.New(errors.S0003), pos)
			}
			continue
		case ":", "call":
			op := OpDefine
			if text == "call" {
				op = OpCall
			}
			name, npos, ok := s.next()
			if !ok {
				fail(errors.New(errors.S0002, text), pos)
				continue
			}
			if reserved(name) {
				fail(errors.New(errors.S0004, name), npos)
				continue
			}
			p.Words = append(p.Words, Word{Op: op, Text: text, Name: name, Pos: pos, NamePos: npos})
			continue
		}

		if b, ok := builtins[text]; ok {
			p.Words = append(p.Words, Word{Op: b.op, Text: text, Pos: pos})
			continue
		}

		if looksNumeric(text) {
			n, err := strconv.ParseInt(text, 0, 64)
			if err != nil {
				fail(errors.New(errors.S0001, text), pos)
				continue
			}
			p.Words = append(p.Words, Word{Op: OpLiteral, Text: text, Value: n, Pos: pos})
			continue
		}

		// 其他名字一律视为调用
		p.Words = append(p.Words, Word{Op: OpCall, Text: text, Name: text, Pos: pos, NamePos: pos})
	}
	return p, errs
}

// looksNumeric 以数字或带符号的数字开头
func looksNumeric(text string) bool {
	if text == "" {
		return false
	}
	c := text[0]
	if c == '+' || c == '-' {
		if len(text) == 1 {
			return false
		}
		c = text[1]
	}
	return c >= '0' && c <= '9'
}
