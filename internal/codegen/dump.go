package codegen

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/tangzhangming/stackrv/internal/isa"
)

// Dump 输出汇编清单：先是常量池（最新在前），然后是指令
func (g *Generator) Dump(w io.Writer) error {
	bw := bufio.NewWriter(w)
	for _, v := range g.Pool() {
		fmt.Fprintf(bw, "\tDD\t%d\n", v)
	}
	bw.WriteString(isa.Format(g.insts))
	return bw.Flush()
}

// Listing 以字符串形式返回汇编清单
func (g *Generator) Listing() string {
	var sb strings.Builder
	g.Dump(&sb)
	return sb.String()
}
