package errors

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/multierr"
)

// ============================================================================
// 错误报告器
// ============================================================================

// Reporter 把错误格式化输出到终端，并按文件缓存源代码
type Reporter struct {
	formatter   *Formatter
	out         io.Writer
	sourceCache map[string][]string
	errors      int
	warnings    int
}

// NewReporter 创建输出到 out 的报告器
func NewReporter(out io.Writer) *Reporter {
	return &Reporter{
		formatter:   NewFormatter(),
		out:         out,
		sourceCache: make(map[string][]string),
	}
}

// SetFormatter 设置格式化器
func (r *Reporter) SetFormatter(f *Formatter) {
	r.formatter = f
}

// SetSource 设置源代码（用于测试或内存中的源代码）
func (r *Reporter) SetSource(filename string, content string) {
	r.sourceCache[filename] = strings.Split(content, "\n")
}

// loadSource 加载源文件，失败时只是不显示源代码
func (r *Reporter) loadSource(filename string) []string {
	if lines, ok := r.sourceCache[filename]; ok {
		return lines
	}
	file, err := os.Open(filename)
	if err != nil {
		return nil
	}
	defer file.Close()

	var lines []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	r.sourceCache[filename] = lines
	return lines
}

// Report 报告错误；multierr 组合的错误逐条展开，非诊断错误原样输出
func (r *Reporter) Report(err error) {
	for _, e := range multierr.Errors(err) {
		d, ok := As(e)
		if !ok {
			r.errors++
			fmt.Fprintf(r.out, "%s: %v\n", r.formatter.colorize("error", ColorBoldRed), e)
			continue
		}
		withHints(d)
		if d.Level == LevelWarning {
			r.warnings++
		} else {
			r.errors++
		}
		var lines []string
		if d.File != "" {
			lines = r.loadSource(d.File)
		}
		fmt.Fprint(r.out, r.formatter.FormatDiagnostic(d, lines))
	}
}

// ErrorCount 已报告的错误数
func (r *Reporter) ErrorCount() int {
	return r.errors
}

// WarningCount 已报告的警告数
func (r *Reporter) WarningCount() int {
	return r.warnings
}
