package quad

import "strings"

// Builder accumulates quads for one compilation. The global segment is kept
// apart from the body and is prepended by Quads.
type Builder struct {
	body    []Quad
	globals []Quad
	temps   int
	labels  int
}

// NewBuilder creates an empty builder with fresh temp and label counters
func NewBuilder() *Builder {
	return &Builder{}
}

// Emit appends a quad to the body
func (b *Builder) Emit(op Op, arg1, arg2, res Operand) {
	b.body = append(b.body, Quad{Op: op, Arg1: arg1, Arg2: arg2, Res: res})
}

// EmitGlobal appends a quad to the global segment
func (b *Builder) EmitGlobal(op Op, arg1, arg2, res Operand) {
	b.globals = append(b.globals, Quad{Op: op, Arg1: arg1, Arg2: arg2, Res: res})
}

// NewTemp returns a fresh temporary: t1, t2, ...
func (b *Builder) NewTemp() Operand {
	b.temps++
	return Temp(b.temps)
}

// NewLabel returns a fresh label L<n>_<name>. Characters outside
// [A-Za-z0-9_] in name are replaced by '_'; an empty name gives L<n>.
func (b *Builder) NewLabel(name string) Operand {
	b.labels++
	return Label(b.labels, sanitize(name))
}

func sanitize(name string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			return r
		}
		return '_'
	}, name)
}

// LastQuad returns the most recently emitted body quad
func (b *Builder) LastQuad() (Quad, bool) {
	if len(b.body) == 0 {
		return Quad{}, false
	}
	return b.body[len(b.body)-1], true
}

// Quads returns the global segment followed by the body
func (b *Builder) Quads() []Quad {
	out := make([]Quad, 0, len(b.globals)+len(b.body))
	out = append(out, b.globals...)
	out = append(out, b.body...)
	return out
}
