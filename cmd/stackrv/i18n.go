package main

import (
	"os"
	"strings"

	"github.com/tangzhangming/stackrv/internal/i18n"
)

// Messages 命令行消息
type Messages struct {
	// 版本信息
	VersionTitle string
	VersionDesc  string

	// 帮助信息
	HelpUsage    string
	HelpCommands string
	HelpOptions  string
	HelpExamples string

	// 命令描述
	CmdBuild   string
	CmdDump    string
	CmdCheck   string
	CmdRepl    string
	CmdConfig  string
	CmdCache   string
	CmdVersion string
	CmdHelp    string

	// 选项
	OptOutput  string
	OptNoOpt   string
	OptNoCache string
	OptConfig  string
	OptStats   string
	OptStack   string
	OptEntry   string
	OptForce   string
	OptLang    string
	OptNoColor string

	// 错误信息
	ErrNoInput       string
	ErrReadFile      string
	ErrWriteFile     string
	ErrUnknownCmd    string
	ErrUnknownSubCmd string
	ErrConfigExists  string
	ErrCreateConfig  string
	ErrCache         string
	ErrSimulate      string
	ErrBadStack      string
	ErrFailed        string

	// 成功信息
	SuccessBuild  string
	SuccessCached string
	SuccessCheck  string
	ConfigCreated string
	CacheCleared  string

	CacheInvalidated string
	CacheNotCached   string

	// 统计
	StatInstructions string
	StatPool         string
	StatRewrites     string
	StatSteps        string
	StatDepth        string
	StatStack        string
	StatEntries      string
	StatSize         string
	StatDir          string
}

// 英文消息
var messagesEN = Messages{
	VersionTitle: "stackrv v%s",
	VersionDesc:  "Stack-operation to RISC code generator with a peephole optimizer",

	HelpUsage:    "Usage:",
	HelpCommands: "Commands:",
	HelpOptions:  "Options:",
	HelpExamples: "Examples:",

	CmdBuild:   "Generate a listing file (cached)",
	CmdDump:    "Print the listing to stdout",
	CmdCheck:   "Generate and run the listing in the simulator",
	CmdRepl:    "Interactive generation session",
	CmdConfig:  "Write a default stackrv.toml",
	CmdCache:   "Show or clear the listing cache (clear takes optional files)",
	CmdVersion: "Show version information",
	CmdHelp:    "Show this help message",

	OptOutput:  "Output file path (default: <file>.s)",
	OptNoOpt:   "Disable the peephole optimizer",
	OptNoCache: "Do not read or write the listing cache",
	OptConfig:  "Config file path",
	OptStats:   "Print generation statistics to stderr",
	OptStack:   "Initial data stack, top first, comma separated",
	OptEntry:   "Entry label (default from config)",
	OptForce:   "Overwrite an existing file",
	OptLang:    "Set language (en/zh)",
	OptNoColor: "Disable colored diagnostics",

	ErrNoInput:       "Error: no input file specified",
	ErrReadFile:      "Error reading file: %v",
	ErrWriteFile:     "Error writing file: %v",
	ErrUnknownCmd:    "Unknown command: %s",
	ErrUnknownSubCmd: "Unknown subcommand: %s",
	ErrConfigExists:  "%s already exists (use -force to overwrite)",
	ErrCreateConfig:  "Error creating config: %v",
	ErrCache:         "Cache unavailable: %v",
	ErrSimulate:      "Simulation failed: %v",
	ErrBadStack:      "Invalid stack value: %s",
	ErrFailed:        "%d error(s)",

	SuccessBuild:  "Wrote %s",
	SuccessCached: "Wrote %s (cached)",
	SuccessCheck:  "%s: ok",
	ConfigCreated: "Created %s",
	CacheCleared:  "Cache cleared",

	CacheInvalidated: "Removed cache entry for %s",
	CacheNotCached:   "%s is not cached",

	StatInstructions: "instructions",
	StatPool:         "pool entries",
	StatRewrites:     "rewrites",
	StatSteps:        "steps",
	StatDepth:        "stack depth",
	StatStack:        "stack (top first)",
	StatEntries:      "entries",
	StatSize:         "size",
	StatDir:          "directory",
}

// 中文消息
var messagesZH = Messages{
	VersionTitle: "stackrv v%s",
	VersionDesc:  "栈操作到 RISC 指令的代码生成器，带窥孔优化",

	HelpUsage:    "用法:",
	HelpCommands: "命令:",
	HelpOptions:  "选项:",
	HelpExamples: "示例:",

	CmdBuild:   "生成清单文件（带缓存）",
	CmdDump:    "把清单输出到标准输出",
	CmdCheck:   "生成并在模拟器中运行",
	CmdRepl:    "交互式生成会话",
	CmdConfig:  "写出默认的 stackrv.toml",
	CmdCache:   "查看或清空清单缓存（clear 可指定文件）",
	CmdVersion: "显示版本信息",
	CmdHelp:    "显示帮助信息",

	OptOutput:  "输出文件路径（默认 <file>.s）",
	OptNoOpt:   "关闭窥孔优化",
	OptNoCache: "不读写清单缓存",
	OptConfig:  "配置文件路径",
	OptStats:   "在标准错误输出生成统计",
	OptStack:   "初始数据栈，栈顶在前，逗号分隔",
	OptEntry:   "入口标签（默认取配置）",
	OptForce:   "覆盖已有文件",
	OptLang:    "设置语言 (en/zh)",
	OptNoColor: "关闭诊断着色",

	ErrNoInput:       "错误: 未指定输入文件",
	ErrReadFile:      "读取文件失败: %v",
	ErrWriteFile:     "写入文件失败: %v",
	ErrUnknownCmd:    "未知命令: %s",
	ErrUnknownSubCmd: "未知子命令: %s",
	ErrConfigExists:  "%s 已存在（使用 -force 覆盖）",
	ErrCreateConfig:  "创建配置失败: %v",
	ErrCache:         "缓存不可用: %v",
	ErrSimulate:      "模拟执行失败: %v",
	ErrBadStack:      "无效的栈值: %s",
	ErrFailed:        "%d 个错误",

	SuccessBuild:  "已写入 %s",
	SuccessCached: "已写入 %s（缓存）",
	SuccessCheck:  "%s: 通过",
	ConfigCreated: "已创建 %s",
	CacheCleared:  "缓存已清空",

	CacheInvalidated: "已清除 %s 的缓存条目",
	CacheNotCached:   "%s 没有缓存条目",

	StatInstructions: "指令数",
	StatPool:         "常量池条目",
	StatRewrites:     "改写次数",
	StatSteps:        "执行步数",
	StatDepth:        "栈深度",
	StatStack:        "栈（栈顶在前）",
	StatEntries:      "条目",
	StatSize:         "大小",
	StatDir:          "目录",
}

// 当前消息
var msg = messagesEN

// InitLanguage 初始化语言设置
// 优先级: 命令行参数 > 环境变量 STACKRV_LANG > 配置文件 > 操作系统语言 > 默认英文
func InitLanguage(override, configured string) {
	lang := override
	if lang == "" {
		lang = os.Getenv("STACKRV_LANG")
	}
	if lang == "" {
		lang = configured
	}
	if lang == "" && detectChineseOS() {
		lang = "zh"
	}
	setLanguage(lang)
}

// setLanguage 设置命令行与内部模块的语言
func setLanguage(lang string) {
	l, _ := i18n.Parse(lang)
	i18n.SetLanguage(l)
	if l == i18n.LangChinese {
		msg = messagesZH
	} else {
		msg = messagesEN
	}
}

// detectChineseOS 检测操作系统是否为中文环境
func detectChineseOS() bool {
	if systemLocaleChinese() {
		return true
	}
	for _, v := range []string{"LC_ALL", "LC_MESSAGES", "LANGUAGE", "LANG"} {
		if val := strings.ToLower(os.Getenv(v)); val != "" {
			return strings.HasPrefix(val, "zh") || strings.Contains(val, "chinese")
		}
	}
	return false
}

// Msg 获取当前消息对象
func Msg() *Messages {
	return &msg
}
