package i18n

var messagesEN = map[string]string{
	// ========== CLI ==========
	MsgVersionTitle:  "stackrv v%s - stack operations to RISC-V code generator",
	MsgHelpUsage:     "Usage:",
	MsgHelpCommands:  "Commands:",
	MsgHelpOptions:   "Options:",
	MsgHelpExamples:  "Examples:",
	MsgCmdBuild:      "Generate a listing file from an operation script",
	MsgCmdDump:       "Print the generated listing to stdout",
	MsgCmdCheck:      "Validate a script without writing output",
	MsgCmdConfig:     "Write a default stackrv.toml (config init)",
	MsgCmdVersion:    "Show version information",
	MsgCmdHelp:       "Show this help",
	MsgOptOutput:     "Output file (default: <input>.s in the output dir)",
	MsgOptNoOpt:      "Disable the peephole optimizer",
	MsgOptNoCache:    "Bypass the listing cache",
	MsgOptConfig:     "Path to the configuration file",
	MsgOptLang:       "Message language (en, zh)",
	MsgErrNoInput:    "no input file",
	MsgErrReadFile:   "error reading file: %v",
	MsgErrUnknownCmd: "unknown command: %s",
	MsgBuildOK:       "wrote %s (%d instructions, %d pool entries)",
	MsgCheckOK:       "%s: ok",
	MsgCacheHit:      "%s: up to date (cached)",
	MsgConfigWritten: "wrote %s",
	MsgConfigExists:  "%s already exists",

	// ========== Code generation ==========
	ErrOutOfRegisters:   "out of registers: all %d temporaries are in use",
	ErrThenWithoutIf:    "'then' without an open 'if'",
	ErrCondClosed:       "conditional %s is already closed",
	ErrCondNotInnermost: "conditional %s closed while %s is still open",
	ErrOpenConditionals: "%d conditional(s) left open at end of session",
	ErrCommitInvariant:  "stack not committed before control transfer (%s)",
	ErrRecurseOutside:   "'recurse' outside of a subroutine",
	ErrPoolOutOfReach:   "constant pool slot %d out of reach (displacement %d)",

	// ========== Script ==========
	ErrInvalidNumber:       "invalid number: %s",
	ErrMissingName:         "'%s' needs a name",
	ErrUnterminatedComment: "unterminated '(' comment",
	ErrReservedName:        "'%s' is an operation and cannot name a subroutine",

	// ========== Config ==========
	ErrConfigRead:  "failed to read config file: %v",
	ErrConfigParse: "failed to parse config file: %v",
	ErrConfigLevel: "invalid log level: %s",
	ErrConfigLang:  "unsupported language: %s",

	// ========== Hints ==========
	HintOutOfRegisters: "split the expression or insert a subroutine call so the stack is committed to memory",
	HintUnbalanced:     "every 'if' must be closed by exactly one 'then', innermost first",
	HintCommit:         "commit the stack before emitting a label, call, branch or return",
	HintRecurse:        "open a subroutine with ': name' before using 'recurse'",
	HintPool:           "the constant pool is addressed with a 12-bit displacement; split the session into smaller units",
	HintInvalidNumber:  "numbers are decimal or 0x-prefixed hexadecimal, with an optional sign",
	HintMissingName:    "write the name on the same line, e.g. ': square' or 'call square'",
	HintConfig:         "run 'stackrv config init' to write a valid default file",
}
