// Package script 解析栈操作脚本（.srv）并驱动代码生成器。
//
// 脚本由空白分隔的词组成：
//
//	: name      开始子程序
//	;  exit     返回
//	if  then    条件块
//	recurse     调用当前子程序
//	call name   调用子程序（未知的名字同样视为调用）
//	\ ...       行注释
//	( ... )     行内注释
//
// 其余词是整数字面量或内建栈操作。
package script

import (
	"fmt"
	"sort"
)

// Op 词的种类
type Op int

const (
	OpLiteral Op = iota
	OpAdd
	OpXor
	OpAnd
	OpFetch
	OpStore
	OpDup
	OpSwap
	OpOver
	OpDrop
	OpNip
	OpPush
	OpPop
	OpMul2
	OpDiv2
	OpDefine
	OpReturn
	OpIf
	OpThen
	OpRecurse
	OpCall
)

var opNames = [...]string{
	OpLiteral: "literal",
	OpAdd:     "add",
	OpXor:     "xor",
	OpAnd:     "and",
	OpFetch:   "fetch",
	OpStore:   "store",
	OpDup:     "dup",
	OpSwap:    "swap",
	OpOver:    "over",
	OpDrop:    "drop",
	OpNip:     "nip",
	OpPush:    "push",
	OpPop:     "pop",
	OpMul2:    "mul2",
	OpDiv2:    "div2",
	OpDefine:  "define",
	OpReturn:  "return",
	OpIf:      "if",
	OpThen:    "then",
	OpRecurse: "recurse",
	OpCall:    "call",
}

func (op Op) String() string {
	if op >= 0 && int(op) < len(opNames) {
		return opNames[op]
	}
	return fmt.Sprintf("Op(%d)", int(op))
}

// Pos 词在源文件中的位置（行列从 1 开始，End 为结束列，不含）
type Pos struct {
	Line   int
	Column int
	End    int
}

// Word 一个已解析的词
type Word struct {
	Op    Op
	Text  string // 源文本
	Value int64  // OpLiteral 的值
	Name  string // OpDefine / OpCall 的目标名
	Pos   Pos
	// NamePos 名字的位置；`: name` 与 `call name` 中名字与关键字分开
	NamePos Pos
}

// Program 一个脚本文件
type Program struct {
	File  string
	Words []Word
}

// Definitions 返回全部子程序定义
func (p *Program) Definitions() []Word {
	var defs []Word
	for _, w := range p.Words {
		if w.Op == OpDefine {
			defs = append(defs, w)
		}
	}
	return defs
}

// WordAt 返回覆盖指定位置的词
func (p *Program) WordAt(line, column int) (Word, bool) {
	for _, w := range p.Words {
		for _, pos := range []Pos{w.Pos, w.NamePos} {
			if pos.Line == line && column >= pos.Column && column < pos.End {
				return w, true
			}
		}
	}
	return Word{}, false
}

// ============================================================================
// 内建词
// ============================================================================

// builtin 内建词及其栈效果
type builtin struct {
	op     Op
	effect string
}

var builtins = map[string]builtin{
	"+":       {OpAdd, "( a b -- a+b )"},
	"add":     {OpAdd, "( a b -- a+b )"},
	"xor":     {OpXor, "( a b -- a^b )"},
	"and":     {OpAnd, "( a b -- a&b )"},
	"@":       {OpFetch, "( addr -- x )"},
	"fetch":   {OpFetch, "( addr -- x )"},
	"!":       {OpStore, "( x addr -- )"},
	"store":   {OpStore, "( x addr -- )"},
	"dup":     {OpDup, "( a -- a a )"},
	"swap":    {OpSwap, "( a b -- b a )"},
	"over":    {OpOver, "( a b -- a b a )"},
	"drop":    {OpDrop, "( a -- )"},
	"nip":     {OpNip, "( a b -- b )"},
	">r":      {OpPush, "( a -- ) ( R: -- a )"},
	"push":    {OpPush, "( a -- ) ( R: -- a )"},
	"r>":      {OpPop, "( -- a ) ( R: a -- )"},
	"pop":     {OpPop, "( -- a ) ( R: a -- )"},
	"2*":      {OpMul2, "( a -- a*2 )"},
	"mul2":    {OpMul2, "( a -- a*2 )"},
	"2/":      {OpDiv2, "( a -- a/2 )"},
	"div2":    {OpDiv2, "( a -- a/2 )"},
	";":       {OpReturn, "( -- )"},
	"exit":    {OpReturn, "( -- )"},
	"if":      {OpIf, "( flag -- )"},
	"then":    {OpThen, "( -- )"},
	"recurse": {OpRecurse, "( -- )"},
}

// reserved 不能用作子程序名的词
func reserved(name string) bool {
	if _, ok := builtins[name]; ok {
		return true
	}
	switch name {
	case ":", "call", "(", ")", "\\":
		return true
	}
	return false
}

// Effect 返回内建词的栈效果说明
func Effect(text string) (string, bool) {
	b, ok := builtins[text]
	if !ok {
		return "", false
	}
	return b.effect, true
}

// Builtins 返回全部内建词，按字典序
func Builtins() []string {
	names := make([]string, 0, len(builtins))
	for name := range builtins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
