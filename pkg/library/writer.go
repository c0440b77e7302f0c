package library

import (
	"bufio"
	"fmt"
	"io"
	"strconv"

	"github.com/OpenTraceLab/OpenTraceVLSI/pkg/bus"
	"github.com/OpenTraceLab/OpenTraceVLSI/pkg/circuit"
)

// Write emits libs in .vlib form. Only bus parameters and templates are
// written; other attributes have no textual representation.
func Write(w io.Writer, libs ...*circuit.Library) error {
	bw := bufio.NewWriter(w)
	for i, lib := range libs {
		if i > 0 {
			bw.WriteString("\n")
		}
		hidden := ""
		if lib.Hidden {
			hidden = " hidden"
		}
		fmt.Fprintf(bw, "library %s%s is\n", strconv.Quote(lib.Name), hidden)
		params, _ := lib.Var(bus.KeyLibraryParameters)
		for _, p := range params {
			fmt.Fprintf(bw, "  parameter %s;\n", strconv.Quote(p))
		}
		for _, cell := range lib.Cells {
			fmt.Fprintf(bw, "  cell %s is\n", strconv.Quote(cell.Name))
			for _, e := range cell.Elements {
				fmt.Fprintf(bw, "    %s %s", e.Kind, strconv.Quote(e.Name))
				if tmpl, ok := e.Var(bus.TemplateKey(e.Kind)); ok {
					fmt.Fprintf(bw, " template %s", strconv.Quote(tmpl))
				}
				bw.WriteString(";\n")
			}
			bw.WriteString("  end;\n")
		}
		bw.WriteString("end;\n")
	}
	return bw.Flush()
}
