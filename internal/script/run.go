package script

import (
	"github.com/tangzhangming/stackrv/internal/codegen"
	"github.com/tangzhangming/stackrv/internal/errors"
	"github.com/tangzhangming/stackrv/internal/i18n"
)

// Run 按顺序把脚本中的词发给生成器，每个词之后做一次窥孔优化，最后结束会话。
// 返回的错误带有出错词的位置
func Run(p *Program, g *codegen.Generator) error {
	s := NewSession(p.File, g)
	if err := s.Exec(p.Words); err != nil {
		return err
	}
	return s.Finish()
}

// Compile 解析并生成，返回完成的生成器
func Compile(file, src string, opts codegen.Options) (*codegen.Generator, error) {
	p, err := Parse(file, src)
	if err != nil {
		return nil, err
	}
	g := codegen.New(opts)
	if err := Run(p, g); err != nil {
		return nil, err
	}
	return g, nil
}

// ============================================================================
// 会话
// ============================================================================

// Session 逐词驱动生成器，并跟踪尚未闭合的 if。
// 可以分多次 Exec，交互式使用时每次输入一行
type Session struct {
	file  string
	g     *codegen.Generator
	conds []openCond
	last  Pos
}

type openCond struct {
	cond *codegen.Cond
	word Word
}

// NewSession 创建驱动 g 的会话
func NewSession(file string, g *codegen.Generator) *Session {
	return &Session{file: file, g: g}
}

// Generator 返回被驱动的生成器
func (s *Session) Generator() *codegen.Generator {
	return s.g
}

// Open 尚未闭合的 if 数量
func (s *Session) Open() int {
	return len(s.conds)
}

// Exec 执行一批词，遇到第一个错误即停止
func (s *Session) Exec(words []Word) error {
	for _, w := range words {
		if err := s.step(w); err != nil {
			return err
		}
	}
	return nil
}

// Finish 结束会话：检查 if 是否全部闭合，然后提交
func (s *Session) Finish() error {
	if n := len(s.conds); n > 0 {
		return s.locate(errors.NewMsg(errors.G0002, i18n.ErrOpenConditionals, n), s.conds[n-1].word.Pos)
	}
	if err := s.g.Finish(); err != nil {
		return s.locate(err, s.last)
	}
	return nil
}

func (s *Session) step(w Word) error {
	g := s.g
	s.last = w.Pos

	switch w.Op {
	case OpLiteral:
		g.Literal(w.Value)
	case OpAdd:
		g.Add()
	case OpXor:
		g.Xor()
	case OpAnd:
		g.And()
	case OpFetch:
		g.Fetch()
	case OpStore:
		g.Store()
	case OpDup:
		g.Dup()
	case OpSwap:
		g.Swap()
	case OpOver:
		g.Over()
	case OpDrop:
		g.Drop()
	case OpNip:
		g.Nip()
	case OpPush:
		g.Push()
	case OpPop:
		g.Pop()
	case OpMul2:
		g.Mul2()
	case OpDiv2:
		g.Div2()
	case OpDefine:
		g.Subroutine(w.Name)
	case OpReturn:
		g.Return()
	case OpRecurse:
		g.Recurse()
	case OpCall:
		g.Call(w.Name)
	case OpIf:
		s.conds = append(s.conds, openCond{cond: g.If(), word: w})
	case OpThen:
		n := len(s.conds)
		if n == 0 {
			return s.locate(errors.NewMsg(errors.G0002, i18n.ErrThenWithoutIf), w.Pos)
		}
		s.conds[n-1].cond.Then()
		s.conds = s.conds[:n-1]
	}
	g.Optimize()

	if err := g.Err(); err != nil {
		return s.locate(err, w.Pos)
	}
	return nil
}

func (s *Session) locate(err error, pos Pos) error {
	d, ok := errors.As(err)
	if !ok {
		return err
	}
	if pos.Line == 0 {
		return d.At(s.file, 0, 0, 0)
	}
	return d.At(s.file, pos.Line, pos.Column, pos.End)
}
