package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/tangzhangming/stackrv/internal/cache"
	"github.com/tangzhangming/stackrv/internal/codegen"
	"github.com/tangzhangming/stackrv/internal/config"
	"github.com/tangzhangming/stackrv/internal/errors"
	"github.com/tangzhangming/stackrv/internal/logging"
	"github.com/tangzhangming/stackrv/internal/repl"
	"github.com/tangzhangming/stackrv/internal/script"
	"github.com/tangzhangming/stackrv/internal/sim"
)

const (
	Version = "0.1.0"

	// SourceFileExtension 脚本文件扩展名
	SourceFileExtension = ".srv"

	// maxShownStack check 输出的最大栈元素数
	maxShownStack = 16
)

// 全局参数
var (
	globalLang    string
	globalNoColor bool
)

// exit 进程退出，测试中替换
var (
	osExit = os.Exit
	exit   = osExit
)

func main() {
	// 预扫描全局参数 --lang 与 --no-color
	args := preprocessArgs(os.Args[1:])
	InitLanguage(globalLang, "")
	if globalNoColor {
		errors.SetColorsEnabled(false)
	}

	if len(args) < 1 {
		printUsage()
		os.Exit(0)
	}

	command := args[0]

	switch command {
	case "build":
		cmdBuild(args[1:])
	case "dump":
		cmdDump(args[1:])
	case "check":
		cmdCheck(args[1:])
	case "repl":
		cmdRepl(args[1:])
	case "config":
		cmdConfig(args[1:])
	case "cache":
		cmdCache(args[1:])
	case "version", "-v", "--version":
		cmdVersion()
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, Msg().ErrUnknownCmd+"\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

// preprocessArgs 预处理参数，提取全局 --lang 与 --no-color 参数
func preprocessArgs(args []string) []string {
	var result []string
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg == "--no-color" || arg == "-no-color" {
			globalNoColor = true
			continue
		}
		if arg == "--lang" || arg == "-lang" {
			if i+1 < len(args) {
				globalLang = args[i+1]
				i++
				continue
			}
		} else if strings.HasPrefix(arg, "--lang=") {
			globalLang = strings.TrimPrefix(arg, "--lang=")
			continue
		} else if strings.HasPrefix(arg, "-lang=") {
			globalLang = strings.TrimPrefix(arg, "-lang=")
			continue
		}
		result = append(result, arg)
	}
	return result
}

func printUsage() {
	m := Msg()
	fmt.Printf(m.VersionTitle+"\n\n", Version)
	fmt.Println(m.HelpUsage)
	fmt.Println("  stackrv [--lang en|zh] [--no-color] <command> [options] [arguments]")
	fmt.Println()
	fmt.Println(m.HelpCommands)
	fmt.Printf("  build <file>          %s\n", m.CmdBuild)
	fmt.Printf("  dump <file>           %s\n", m.CmdDump)
	fmt.Printf("  check <file>          %s\n", m.CmdCheck)
	fmt.Printf("  repl                  %s\n", m.CmdRepl)
	fmt.Printf("  config init           %s\n", m.CmdConfig)
	fmt.Printf("  cache stats|clear     %s\n", m.CmdCache)
	fmt.Printf("  version               %s\n", m.CmdVersion)
	fmt.Printf("  help                  %s\n", m.CmdHelp)
	fmt.Println()
	fmt.Println(m.HelpOptions)
	fmt.Printf("  -o <file>             %s\n", m.OptOutput)
	fmt.Printf("  -no-opt               %s\n", m.OptNoOpt)
	fmt.Printf("  -no-cache             %s\n", m.OptNoCache)
	fmt.Printf("  -config <file>        %s\n", m.OptConfig)
	fmt.Printf("  --lang <en|zh>        %s\n", m.OptLang)
	fmt.Printf("  --no-color            %s\n", m.OptNoColor)
	fmt.Println()
	fmt.Println(m.HelpExamples)
	fmt.Printf("  stackrv build mul2%s\n", SourceFileExtension)
	fmt.Printf("  stackrv dump -no-opt mul2%s\n", SourceFileExtension)
	fmt.Printf("  stackrv check -stack 6,7 -entry m mul2%s\n", SourceFileExtension)
	fmt.Printf("  stackrv --lang zh help\n")
}

// ============================================================================
// 公共流程
// ============================================================================

// session 一次命令执行所需的配置与日志
type session struct {
	cfg *config.Config
	log *zap.Logger
}

// setup 加载配置并创建日志；配置错误直接退出
func setup(configPath, start string) *session {
	cfg, err := config.Resolve(configPath, start)
	if err != nil {
		report("", "", err)
		os.Exit(1)
	}
	InitLanguage(globalLang, cfg.General.Lang)

	log, err := logging.New(cfg.LogLevel(), cfg.Log.File)
	if err != nil {
		fmt.Fprintf(os.Stderr, Msg().ErrWriteFile+"\n", err)
		log = zap.NewNop()
	}
	return &session{cfg: cfg, log: log}
}

// fail 刷新日志后以状态 1 退出
func (s *session) fail() {
	s.log.Sync()
	exit(1)
}

// readSource 读取脚本文件
func readSource(fs *flag.FlagSet) (string, []byte) {
	m := Msg()
	if fs.NArg() < 1 {
		fs.Usage()
		fmt.Fprintln(os.Stderr)
		fmt.Fprintln(os.Stderr, m.ErrNoInput)
		os.Exit(1)
	}
	filename := fs.Arg(0)
	source, err := os.ReadFile(filename)
	if err != nil {
		fmt.Fprintf(os.Stderr, m.ErrReadFile+"\n", err)
		os.Exit(1)
	}
	return filename, source
}

// fingerprint 影响生成结果的全部因素，用作缓存键的一部分
func fingerprint(optimize bool) string {
	return fmt.Sprintf("stackrv=%s codegen=%s optimize=%t", Version, codegen.Revision, optimize)
}

// compile 生成代码；失败时报告全部错误并返回 nil
func (s *session) compile(filename string, source []byte, optimize bool) *codegen.Generator {
	opts := codegen.Options{Optimize: optimize, Logger: s.log}
	g, err := script.Compile(filename, string(source), opts)
	if err != nil {
		report(filename, string(source), err)
		s.log.Debug("generation failed", zap.String("file", filename), zap.Error(err))
		return nil
	}
	s.log.Info("generated",
		zap.String("file", filename),
		zap.Int("instructions", len(g.Instructions())),
		zap.Int("pool", len(g.Pool())),
		zap.Int("rewrites", g.Rewrites()))
	return g
}

// report 以诊断格式输出错误
func report(filename, source string, err error) {
	r := errors.NewReporter(os.Stderr)
	if filename != "" {
		r.SetSource(filename, source)
	}
	r.Report(err)
	if n := r.ErrorCount(); n > 1 {
		fmt.Fprintf(os.Stderr, Msg().ErrFailed+"\n", n)
	}
}

func printStats(g *codegen.Generator) {
	m := Msg()
	fmt.Fprintf(os.Stderr, "  %s: %d\n", m.StatInstructions, len(g.Instructions()))
	fmt.Fprintf(os.Stderr, "  %s: %d\n", m.StatPool, len(g.Pool()))
	fmt.Fprintf(os.Stderr, "  %s: %d\n", m.StatRewrites, g.Rewrites())
}

// ============================================================================
// 命令
// ============================================================================

// cmdBuild 生成清单文件
func cmdBuild(args []string) {
	m := Msg()
	fs := flag.NewFlagSet("build", flag.ExitOnError)
	output := fs.String("o", "", m.OptOutput)
	noOpt := fs.Bool("no-opt", false, m.OptNoOpt)
	noCache := fs.Bool("no-cache", false, m.OptNoCache)
	configPath := fs.String("config", "", m.OptConfig)
	stats := fs.Bool("stats", false, m.OptStats)

	fs.Usage = func() {
		fmt.Println(m.HelpUsage + " stackrv build [options] <file>")
		fmt.Println()
		fmt.Println(m.HelpOptions)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	filename, source := readSource(fs)
	s := setup(*configPath, filename)
	defer s.log.Sync()
	m = Msg()

	out := *output
	if out == "" {
		out = strings.TrimSuffix(filename, filepath.Ext(filename)) + ".s"
	}
	optimize := s.cfg.Codegen.Optimize && !*noOpt

	var mgr *cache.Manager
	key := cache.Key(source, fingerprint(optimize))
	if s.cfg.Cache.Enabled && !*noCache {
		mgr = s.openCache(filename)
	}
	if mgr != nil {
		if listing, entry, ok := mgr.Get(absPath(filename), key); ok {
			s.log.Debug("cache hit", zap.String("file", filename), zap.Int("accesses", entry.AccessCount))
			s.writeOutput(out, listing)
			fmt.Printf(m.SuccessCached+"\n", out)
			return
		}
	}

	g := s.compile(filename, source, optimize)
	if g == nil {
		if mgr != nil {
			// 失败的源文件不应留下任何条目
			if _, err := mgr.Invalidate(absPath(filename)); err != nil {
				s.log.Warn("cache invalidate failed", zap.Error(err))
			}
		}
		s.fail()
		return
	}
	listing := g.Listing()
	s.writeOutput(out, listing)
	if mgr != nil {
		if err := mgr.Put(absPath(filename), key, listing, len(g.Instructions()), len(g.Pool())); err != nil {
			s.log.Warn("cache write failed", zap.Error(err))
		}
	}
	if *stats {
		printStats(g)
	}
	fmt.Printf(m.SuccessBuild+"\n", out)
}

// cmdDump 把清单输出到标准输出
func cmdDump(args []string) {
	m := Msg()
	fs := flag.NewFlagSet("dump", flag.ExitOnError)
	noOpt := fs.Bool("no-opt", false, m.OptNoOpt)
	configPath := fs.String("config", "", m.OptConfig)
	stats := fs.Bool("stats", false, m.OptStats)

	fs.Usage = func() {
		fmt.Println(m.HelpUsage + " stackrv dump [options] <file>")
		fmt.Println()
		fmt.Println(m.HelpOptions)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	filename, source := readSource(fs)
	s := setup(*configPath, filename)
	defer s.log.Sync()

	g := s.compile(filename, source, s.cfg.Codegen.Optimize && !*noOpt)
	if g == nil {
		s.fail()
		return
	}
	if err := g.Dump(os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, Msg().ErrWriteFile+"\n", err)
		s.fail()
	}
	if *stats {
		printStats(g)
	}
}

// cmdCheck 生成后在模拟器中运行
func cmdCheck(args []string) {
	m := Msg()
	fs := flag.NewFlagSet("check", flag.ExitOnError)
	noOpt := fs.Bool("no-opt", false, m.OptNoOpt)
	configPath := fs.String("config", "", m.OptConfig)
	entry := fs.String("entry", "", m.OptEntry)
	stack := fs.String("stack", "", m.OptStack)
	verbose := fs.Bool("v", false, m.OptStats)

	fs.Usage = func() {
		fmt.Println(m.HelpUsage + " stackrv check [options] <file>")
		fmt.Println()
		fmt.Println(m.HelpOptions)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	filename, source := readSource(fs)
	s := setup(*configPath, filename)
	defer s.log.Sync()
	m = Msg()

	initial, err := parseStack(*stack)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		s.fail()
		return
	}
	label := *entry
	if label == "" {
		label = s.cfg.Codegen.Entry
	}

	g := s.compile(filename, source, s.cfg.Codegen.Optimize && !*noOpt)
	if g == nil {
		s.fail()
		return
	}
	mach, err := sim.Load(g.Instructions(), g.Pool())
	if err == nil {
		mach.SetStack(initial...)
		err = mach.Run(label)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, m.ErrSimulate+"\n", err)
		s.fail()
		return
	}
	s.log.Debug("simulated", zap.String("entry", label), zap.Int("steps", mach.Steps))

	fmt.Printf(m.SuccessCheck+"\n", filename)
	n := len(initial) + mach.Depth()
	fmt.Printf("  %s: %d\n", m.StatDepth, mach.Depth())
	if n > maxShownStack {
		n = maxShownStack
	}
	if n > 0 {
		fmt.Printf("  %s: %v\n", m.StatStack, mach.Stack(n))
	}
	if *verbose {
		fmt.Printf("  %s: %d\n", m.StatSteps, mach.Steps)
		printStats(g)
	}
}

// cmdRepl 交互式生成会话
func cmdRepl(args []string) {
	m := Msg()
	fs := flag.NewFlagSet("repl", flag.ExitOnError)
	noOpt := fs.Bool("no-opt", false, m.OptNoOpt)
	configPath := fs.String("config", "", m.OptConfig)
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	s := setup(*configPath, ".")
	defer s.log.Sync()

	cfg := repl.DefaultConfig()
	cfg.Optimize = s.cfg.Codegen.Optimize && !*noOpt
	cfg.Logger = s.log
	repl.New(cfg, os.Stdin, os.Stdout).Run()
}

// cmdVersion 显示版本信息
func cmdVersion() {
	m := Msg()
	fmt.Printf(m.VersionTitle+"\n", Version)
	fmt.Println(m.VersionDesc)
}

// parseStack 解析逗号分隔的初始栈
func parseStack(s string) ([]int64, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	var values []int64
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		v, err := strconv.ParseInt(part, 0, 64)
		if err != nil {
			return nil, fmt.Errorf(Msg().ErrBadStack, part)
		}
		values = append(values, v)
	}
	return values, nil
}

func (s *session) writeOutput(path, listing string) {
	if err := os.WriteFile(path, []byte(listing), 0644); err != nil {
		fmt.Fprintf(os.Stderr, Msg().ErrWriteFile+"\n", err)
		s.fail()
	}
}

func absPath(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return path
}
