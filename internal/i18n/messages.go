package i18n

// 消息 ID
const (
	// ========== 命令行 ==========
	MsgVersionTitle  = "cli.version_title"
	MsgHelpUsage     = "cli.usage"
	MsgHelpCommands  = "cli.commands"
	MsgHelpOptions   = "cli.options"
	MsgHelpExamples  = "cli.examples"
	MsgCmdBuild      = "cmd.build"
	MsgCmdDump       = "cmd.dump"
	MsgCmdCheck      = "cmd.check"
	MsgCmdConfig     = "cmd.config"
	MsgCmdVersion    = "cmd.version"
	MsgCmdHelp       = "cmd.help"
	MsgOptOutput     = "opt.output"
	MsgOptNoOpt      = "opt.no_opt"
	MsgOptNoCache    = "opt.no_cache"
	MsgOptConfig     = "opt.config"
	MsgOptLang       = "opt.lang"
	MsgErrNoInput    = "err.no_input"
	MsgErrReadFile   = "err.read_file"
	MsgErrUnknownCmd = "err.unknown_cmd"
	MsgBuildOK       = "msg.build_ok"
	MsgCheckOK       = "msg.check_ok"
	MsgCacheHit      = "msg.cache_hit"
	MsgConfigWritten = "msg.config_written"
	MsgConfigExists  = "msg.config_exists"

	// ========== 代码生成 ==========
	ErrOutOfRegisters   = "gen.out_of_registers"
	ErrThenWithoutIf    = "gen.then_without_if"
	ErrCondClosed       = "gen.cond_closed"
	ErrCondNotInnermost = "gen.cond_not_innermost"
	ErrOpenConditionals = "gen.open_conditionals"
	ErrCommitInvariant  = "gen.commit_invariant"
	ErrRecurseOutside   = "gen.recurse_outside"
	ErrPoolOutOfReach   = "gen.pool_out_of_reach"

	// ========== 操作脚本 ==========
	ErrInvalidNumber       = "script.invalid_number"
	ErrMissingName         = "script.missing_name"
	ErrUnterminatedComment = "script.unterminated_comment"
	ErrReservedName        = "script.reserved_name"

	// ========== 配置 ==========
	ErrConfigRead  = "config.read"
	ErrConfigParse = "config.parse"
	ErrConfigLevel = "config.invalid_level"
	ErrConfigLang  = "config.invalid_lang"

	// ========== 修复建议 ==========
	HintOutOfRegisters = "hint.out_of_registers"
	HintUnbalanced     = "hint.unbalanced"
	HintCommit         = "hint.commit"
	HintRecurse        = "hint.recurse"
	HintPool           = "hint.pool"
	HintInvalidNumber  = "hint.invalid_number"
	HintMissingName    = "hint.missing_name"
	HintConfig         = "hint.config"
)
