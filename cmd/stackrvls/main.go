package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/tangzhangming/stackrv/internal/codegen"
	"github.com/tangzhangming/stackrv/internal/config"
	"github.com/tangzhangming/stackrv/internal/i18n"
	"github.com/tangzhangming/stackrv/internal/logging"
	"github.com/tangzhangming/stackrv/internal/lsp"
)

func main() {
	showVersion := flag.Bool("version", false, "显示版本信息")
	showHelp := flag.Bool("help", false, "显示帮助信息")
	logFile := flag.String("log", "", "日志文件路径（默认不记录日志）")
	configPath := flag.String("config", "", "配置文件路径")
	noOpt := flag.Bool("no-opt", false, "分析时关闭窥孔优化")

	flag.Parse()

	if *showVersion {
		fmt.Printf("stackrv language server v%s\n", lsp.Version)
		os.Exit(0)
	}
	if *showHelp {
		printUsage()
		os.Exit(0)
	}

	cfg, err := config.Resolve(*configPath, ".")
	if err != nil {
		// 标准输出属于协议，错误只能写到标准错误
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		cfg = config.Default()
	}
	i18n.SetLanguageFromString(cfg.General.Lang)

	// 没有指定日志文件时不记录，避免干扰编辑器的标准错误面板
	log := zap.NewNop()
	if path := firstNonEmpty(*logFile, cfg.Log.File); path != "" {
		level := cfg.LogLevel()
		if *logFile != "" {
			level = zapcore.DebugLevel
		}
		log = logging.Must(level, path)
	}
	defer log.Sync()

	opts := codegen.DefaultOptions()
	opts.Optimize = cfg.Codegen.Optimize && !*noOpt

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	server := lsp.NewServer(os.Stdin, os.Stdout, log, opts)
	if err := server.Run(ctx); err != nil && err != context.Canceled {
		fmt.Fprintf(os.Stderr, "LSP server error: %v\n", err)
		os.Exit(1)
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func printUsage() {
	fmt.Println("stackrv language server - 栈操作脚本（.srv）的 LSP 服务器")
	fmt.Println()
	fmt.Println("用法:")
	fmt.Println("  stackrvls [options]")
	fmt.Println()
	fmt.Println("选项:")
	fmt.Println("  --version          显示版本信息")
	fmt.Println("  --help             显示帮助信息")
	fmt.Println("  --log <file>       日志文件路径（调试级别）")
	fmt.Println("  --config <file>    配置文件路径")
	fmt.Println("  --no-opt           分析时关闭窥孔优化")
	fmt.Println()
	fmt.Println("特性:")
	fmt.Println("  - 打开、修改、保存时发布诊断")
	fmt.Println("  - 悬停显示栈效果、立即数范围与子程序生成的指令")
	fmt.Println("  - 子程序符号、跳转定义与补全")
	fmt.Println()
	fmt.Println("LSP 服务器通过标准输入输出 (stdio) 与编辑器通信。")
}
