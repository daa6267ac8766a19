// repl.go - stackrv 交互式生成会话
//
// 每输入一行栈操作就立即发给生成器，并显示这一行让指令序列发生的变化：
// - 新增的指令以 + 标出，被窥孔优化改写掉的指令数以 - 标出
// - 未闭合的 ( 注释会继续读下一行
// - 特殊命令（:help, :quit, :reset, :load, :state, :listing, :commit, :finish）

package repl

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/tangzhangming/stackrv/internal/codegen"
	"github.com/tangzhangming/stackrv/internal/errors"
	"github.com/tangzhangming/stackrv/internal/isa"
	"github.com/tangzhangming/stackrv/internal/script"
)

const replFile = "<repl>"

// REPL 交互式生成会话
type REPL struct {
	opts    codegen.Options
	session *script.Session
	reader  *bufio.Reader
	writer  io.Writer
	history []string

	multiline bool
	buffer    strings.Builder

	promptPrimary  string
	promptContinue string
}

// Config REPL 配置
type Config struct {
	Optimize       bool
	Logger         *zap.Logger
	PromptPrimary  string
	PromptContinue string
}

// DefaultConfig 默认配置
func DefaultConfig() Config {
	return Config{
		Optimize:       true,
		PromptPrimary:  ">>> ",
		PromptContinue: "... ",
	}
}

// New 创建 REPL
func New(config Config, in io.Reader, out io.Writer) *REPL {
	r := &REPL{
		opts:           codegen.Options{Optimize: config.Optimize, Logger: config.Logger},
		reader:         bufio.NewReader(in),
		writer:         out,
		promptPrimary:  config.PromptPrimary,
		promptContinue: config.PromptContinue,
	}
	r.reset()
	return r
}

// Run 运行 REPL，直到输入结束或 :quit
func (r *REPL) Run() {
	r.printWelcome()

	for {
		prompt := r.promptPrimary
		if r.multiline {
			prompt = r.promptContinue
		}
		fmt.Fprint(r.writer, prompt)

		line, err := r.reader.ReadString('\n')
		if err != nil && line == "" {
			if err == io.EOF {
				fmt.Fprintln(r.writer, "\nBye!")
				return
			}
			fmt.Fprintf(r.writer, "Error reading input: %v\n", err)
			return
		}
		line = strings.TrimRight(line, "\r\n")

		if !r.multiline && isCommand(line) {
			if quit := r.handleCommand(line); quit {
				return
			}
			continue
		}

		if r.multiline {
			r.buffer.WriteString("\n")
		}
		r.buffer.WriteString(line)

		if needsMoreInput(r.buffer.String()) {
			r.multiline = true
			continue
		}

		input := r.buffer.String()
		r.buffer.Reset()
		r.multiline = false

		if strings.TrimSpace(input) == "" {
			continue
		}
		r.addHistory(input)
		r.execute(input)
	}
}

func (r *REPL) printWelcome() {
	mode := "on"
	if !r.opts.Optimize {
		mode = "off"
	}
	fmt.Fprintln(r.writer, "stackrv REPL")
	fmt.Fprintf(r.writer, "Peephole optimizer: %s. Type :help for help, :quit to exit\n", mode)
	fmt.Fprintln(r.writer)
}

// handleCommand 处理特殊命令，返回是否退出
func (r *REPL) handleCommand(line string) bool {
	parts := strings.Fields(line)
	if len(parts) == 0 {
		return false
	}
	cmd := strings.ToLower(parts[0])
	args := parts[1:]

	switch cmd {
	case ":help", ":h", ":?":
		r.printHelp()
	case ":quit", ":q", ":exit":
		fmt.Fprintln(r.writer, "Bye!")
		return true
	case ":reset", ":clear":
		r.reset()
		fmt.Fprintln(r.writer, "Session reset.")
	case ":load", ":l":
		if len(args) < 1 {
			fmt.Fprintln(r.writer, "Usage: :load <filename>")
			return false
		}
		r.loadFile(args[0])
	case ":history", ":hist":
		for i, h := range r.history {
			fmt.Fprintf(r.writer, "%4d  %s\n", i+1, h)
		}
	case ":state", ":s":
		r.printState()
	case ":listing", ":ls":
		r.session.Generator().Dump(r.writer)
	case ":commit":
		r.track(func() error {
			g := r.session.Generator()
			g.Commit()
			return g.Err()
		})
	case ":finish":
		r.track(r.session.Finish)
		if r.session.Generator().Err() == nil && r.session.Open() == 0 {
			r.session.Generator().Dump(r.writer)
			r.reset()
		}
	default:
		fmt.Fprintf(r.writer, "Unknown command: %s\n", cmd)
		fmt.Fprintln(r.writer, "Type :help for available commands.")
	}
	return false
}

func (r *REPL) printHelp() {
	fmt.Fprintln(r.writer, "Available commands:")
	fmt.Fprintln(r.writer, "  :help, :h, :?     Show this help message")
	fmt.Fprintln(r.writer, "  :quit, :q, :exit  Exit the REPL")
	fmt.Fprintln(r.writer, "  :reset, :clear    Start a new generation session")
	fmt.Fprintln(r.writer, "  :load <file>      Feed a script file into the session")
	fmt.Fprintln(r.writer, "  :history, :hist   Show input history")
	fmt.Fprintln(r.writer, "  :state, :s        Show cached registers and stack offsets")
	fmt.Fprintln(r.writer, "  :listing, :ls     Show the listing so far")
	fmt.Fprintln(r.writer, "  :commit           Bring the stacks to canonical form")
	fmt.Fprintln(r.writer, "  :finish           End the session, print the listing and reset")
	fmt.Fprintln(r.writer)
	fmt.Fprintln(r.writer, "Examples:")
	fmt.Fprintln(r.writer, "  >>> 6 7 +")
	fmt.Fprintln(r.writer, "  >>> : sq dup + ;")
	fmt.Fprintln(r.writer, "  >>> dup if 1 + then")
}

// reset 开始新的生成会话
func (r *REPL) reset() {
	r.session = script.NewSession(replFile, codegen.New(r.opts))
	r.buffer.Reset()
	r.multiline = false
}

func (r *REPL) loadFile(filename string) {
	source, err := os.ReadFile(filename)
	if err != nil {
		fmt.Fprintf(r.writer, "Error loading file: %v\n", err)
		return
	}
	p, err := script.Parse(filename, string(source))
	if err != nil {
		r.report(filename, string(source), err)
		return
	}
	before := snapshot(r.session.Generator())
	if err := r.session.Exec(p.Words); err != nil {
		r.report(filename, string(source), err)
	}
	r.printDiff(before)
	fmt.Fprintf(r.writer, "Loaded: %s\n", filename)
}

func (r *REPL) addHistory(input string) {
	if len(r.history) > 0 && r.history[len(r.history)-1] == input {
		return
	}
	r.history = append(r.history, input)
	if len(r.history) > 1000 {
		r.history = r.history[len(r.history)-1000:]
	}
}

// isCommand 以冒号开头的命令；单独的 : 是子程序定义
func isCommand(line string) bool {
	fields := strings.Fields(line)
	return len(fields) > 0 && len(fields[0]) > 1 && fields[0][0] == ':'
}

// needsMoreInput ( 注释未闭合时继续读
func needsMoreInput(input string) bool {
	depth := 0
	for _, line := range strings.Split(input, "\n") {
		for _, word := range strings.Fields(line) {
			if word == "\\" && depth == 0 {
				break
			}
			switch word {
			case "(":
				if depth == 0 {
					depth = 1
				}
			case ")":
				depth = 0
			}
		}
	}
	return depth > 0
}

// execute 解析并执行一行输入
func (r *REPL) execute(input string) {
	p, err := script.Parse(replFile, input)
	if err != nil {
		r.report(replFile, input, err)
		return
	}
	r.track(func() error { return r.session.Exec(p.Words) })
	if r.session.Generator().Err() != nil {
		fmt.Fprintln(r.writer, "Session aborted; use :reset to start over.")
	}
}

// track 执行 fn 并显示指令序列的变化
func (r *REPL) track(fn func() error) {
	before := snapshot(r.session.Generator())
	err := fn()
	r.printDiff(before)
	if err != nil {
		r.report(replFile, r.lastInput(), err)
	}
}

func (r *REPL) lastInput() string {
	if n := len(r.history); n > 0 {
		return r.history[n-1]
	}
	return ""
}

func (r *REPL) report(file, source string, err error) {
	rep := errors.NewReporter(r.writer)
	rep.SetSource(file, source)
	rep.Report(err)
}

// ============================================================================
// 输出
// ============================================================================

func snapshot(g *codegen.Generator) []string {
	insts := g.Instructions()
	out := make([]string, len(insts))
	for i, in := range insts {
		out[i] = in.String()
	}
	return out
}

// printDiff 以公共前缀为界，显示被改写掉的条数与新增的指令
func (r *REPL) printDiff(before []string) {
	after := snapshot(r.session.Generator())
	common := 0
	for common < len(before) && common < len(after) && before[common] == after[common] {
		common++
	}
	if removed := len(before) - common; removed > 0 {
		fmt.Fprintf(r.writer, "- %d rewritten\n", removed)
	}
	for _, s := range after[common:] {
		if strings.HasPrefix(s, "\n") {
			fmt.Fprintf(r.writer, "+ %s\n", strings.TrimPrefix(s, "\n"))
			continue
		}
		fmt.Fprintf(r.writer, "+ %s\n", strings.TrimSpace(strings.ReplaceAll(s, "\t", " ")))
	}
}

func (r *REPL) printState() {
	g := r.session.Generator()
	fmt.Fprintf(r.writer, "  data stack:    %s (offset %d)\n", regList(g.Cached()), g.Offset())
	fmt.Fprintf(r.writer, "  control stack: %s (offset %d)\n", regList(g.Control()), g.ControlOffset())
	fmt.Fprintf(r.writer, "  free:          %d\n", g.Free())
	if cur := g.Current(); cur != "" {
		fmt.Fprintf(r.writer, "  subroutine:    %s\n", cur)
	}
	fmt.Fprintf(r.writer, "  open if:       %d\n", r.session.Open())
	fmt.Fprintf(r.writer, "  pool:          %d\n", len(g.Pool()))
	fmt.Fprintf(r.writer, "  rewrites:      %d\n", g.Rewrites())
}

// regList 寄存器列表，如 [X6(d1) X3(dc)]
func regList(regs []isa.Reg) string {
	if len(regs) == 0 {
		return "[]"
	}
	names := make([]string, len(regs))
	for i, reg := range regs {
		names[i] = reg.String() + "(" + reg.Name() + ")"
	}
	return "[" + strings.Join(names, " ") + "]"
}
