package asmgen

import (
	"fmt"

	"github.com/raymyers/ralph-sysy/pkg/mips"
	"github.com/raymyers/ralph-sysy/pkg/quad"
)

// collectGlobals turns the global segment into .word entries, one per
// global or static in declaration order. Unset words are zero.
func collectGlobals(globals []quad.Quad) []mips.Data {
	var order []quad.Operand
	values := make(map[quad.Operand][]int32)

	ensure := func(name quad.Operand, n int) {
		vals, ok := values[name]
		if !ok {
			order = append(order, name)
		}
		for len(vals) < n {
			vals = append(vals, 0)
		}
		values[name] = vals
	}

	for _, q := range globals {
		switch q.Op {
		case quad.OpGDecl:
			ensure(q.Arg1, max(1, int(q.Arg2.Value)))
		case quad.OpGInit:
			ensure(q.Res, 1)
			values[q.Res][0] = initValue(q)
		case quad.OpGInitArr:
			i := int(q.Arg2.Value)
			ensure(q.Res, i+1)
			values[q.Res][i] = initValue(q)
		default:
			panic(fmt.Sprintf("asmgen: unexpected quad %q in the global segment", q))
		}
	}

	data := make([]mips.Data, 0, len(order))
	for _, name := range order {
		data = append(data, mips.Word{Name: label(name), Values: values[name]})
	}
	return data
}

func initValue(q quad.Quad) int32 {
	if !q.Arg1.IsImm() {
		panic(fmt.Sprintf("asmgen: non-constant data initializer %q", q))
	}
	return q.Arg1.Value
}

// stringTable numbers print_str texts .str0, .str1, ... in first-use order
type stringTable struct {
	labels map[string]mips.Label
	order  []string
}

func newStringTable() *stringTable {
	return &stringTable{labels: make(map[string]mips.Label)}
}

func (t *stringTable) label(text string) mips.Label {
	if l, ok := t.labels[text]; ok {
		return l
	}
	l := mips.Label(fmt.Sprintf(".str%d", len(t.order)))
	t.labels[text] = l
	t.order = append(t.order, text)
	return l
}

func (t *stringTable) data() []mips.Data {
	data := make([]mips.Data, 0, len(t.order))
	for _, text := range t.order {
		data = append(data, mips.Asciiz{Name: t.labels[text], Text: text})
	}
	return data
}
