package quad

import (
	"fmt"
	"io"
)

// Printer writes quads one per line in the textual IR form
type Printer struct {
	w io.Writer
}

// NewPrinter creates a new quad printer
func NewPrinter(w io.Writer) *Printer {
	return &Printer{w: w}
}

// PrintProgram prints every quad in order
func (p *Printer) PrintProgram(quads []Quad) {
	for _, q := range quads {
		fmt.Fprintln(p.w, q.String())
	}
}

// Function is the body of one func/endfunc pair
type Function struct {
	Name string
	Body []Quad // quads strictly between the markers
}

// SplitFunctions returns the data-segment quads that precede the first func
// marker and every function body in program order.
func SplitFunctions(quads []Quad) (globals []Quad, funcs []Function) {
	i := 0
	for i < len(quads) && quads[i].Op != OpFunc {
		globals = append(globals, quads[i])
		i++
	}
	for i < len(quads) {
		if quads[i].Op != OpFunc {
			i++
			continue
		}
		name := quads[i].Arg1.Name
		start := i + 1
		j := start
		for j < len(quads) && quads[j].Op != OpEndFunc {
			j++
		}
		funcs = append(funcs, Function{Name: name, Body: quads[start:j]})
		i = j + 1
	}
	return globals, funcs
}
