package i18n

var messagesZH = map[string]string{
	// ========== 命令行 ==========
	MsgVersionTitle:  "stackrv v%s - 栈操作到 RISC-V 的代码生成器",
	MsgHelpUsage:     "用法:",
	MsgHelpCommands:  "命令:",
	MsgHelpOptions:   "选项:",
	MsgHelpExamples:  "示例:",
	MsgCmdBuild:      "由操作脚本生成汇编清单文件",
	MsgCmdDump:       "将生成的清单输出到标准输出",
	MsgCmdCheck:      "只检查脚本，不写出结果",
	MsgCmdConfig:     "写出默认的 stackrv.toml（config init）",
	MsgCmdVersion:    "显示版本信息",
	MsgCmdHelp:       "显示帮助信息",
	MsgOptOutput:     "输出文件（默认：输出目录下的 <输入>.s）",
	MsgOptNoOpt:      "关闭窥孔优化",
	MsgOptNoCache:    "不使用清单缓存",
	MsgOptConfig:     "配置文件路径",
	MsgOptLang:       "消息语言（en, zh）",
	MsgErrNoInput:    "没有输入文件",
	MsgErrReadFile:   "读取文件失败: %v",
	MsgErrUnknownCmd: "未知命令: %s",
	MsgBuildOK:       "已写出 %s（%d 条指令，%d 个常量池项）",
	MsgCheckOK:       "%s: 通过",
	MsgCacheHit:      "%s: 已是最新（缓存）",
	MsgConfigWritten: "已写出 %s",
	MsgConfigExists:  "%s 已存在",

	// ========== 代码生成 ==========
	ErrOutOfRegisters:   "寄存器耗尽：%d 个临时寄存器全部被占用",
	ErrThenWithoutIf:    "'then' 没有对应的 'if'",
	ErrCondClosed:       "条件块 %s 已经关闭",
	ErrCondNotInnermost: "条件块 %s 关闭时 %s 仍未关闭",
	ErrOpenConditionals: "会话结束时仍有 %d 个条件块未关闭",
	ErrCommitInvariant:  "控制转移前栈未提交（%s）",
	ErrRecurseOutside:   "'recurse' 不在子程序内",
	ErrPoolOutOfReach:   "常量池第 %d 项超出寻址范围（偏移 %d）",

	// ========== 操作脚本 ==========
	ErrInvalidNumber:       "无效的数字: %s",
	ErrMissingName:         "'%s' 后面需要名字",
	ErrUnterminatedComment: "未闭合的 '(' 注释",
	ErrReservedName:        "'%s' 是操作名，不能用作子程序名",

	// ========== 配置 ==========
	ErrConfigRead:  "读取配置文件失败: %v",
	ErrConfigParse: "解析配置文件失败: %v",
	ErrConfigLevel: "无效的日志级别: %s",
	ErrConfigLang:  "不支持的语言: %s",

	// ========== 修复建议 ==========
	HintOutOfRegisters: "拆分表达式，或插入子程序调用让栈提交到内存",
	HintUnbalanced:     "每个 'if' 必须由且仅由一个 'then' 关闭，先关闭最内层",
	HintCommit:         "在生成标签、调用、分支或返回之前先提交栈",
	HintRecurse:        "先用 ': name' 打开子程序再使用 'recurse'",
	HintPool:           "常量池通过 12 位偏移寻址，请把会话拆成更小的单元",
	HintInvalidNumber:  "数字为十进制或 0x 开头的十六进制，可带符号",
	HintMissingName:    "名字写在同一行，例如 ': square' 或 'call square'",
	HintConfig:         "运行 'stackrv config init' 写出有效的默认配置",
}
