// Package symbol holds the resolved scope tree produced by semantic analysis.
// Scope ids are assigned in creation order starting with the global scope (1).
package symbol

import (
	"fmt"
	"io"
)

// GlobalScopeID is the id of the root scope
const GlobalScopeID = 1

// Kind classifies a symbol
type Kind int

const (
	Var    Kind = iota // ordinary variable or parameter
	Const              // const-qualified
	Static             // static local
	Func
)

// ParamKind is the shape of one formal parameter
type ParamKind int

const (
	Scalar ParamKind = iota
	Array
)

// Symbol is a declared name
type Symbol struct {
	Name    string
	Kind    Kind
	IsArray bool
	ScopeID int
	Param   bool
	Void    bool        // functions only
	Params  []ParamKind // functions only
	Builtin bool        // getint; resolvable but never dumped
	Line    int
}

// IsConst reports whether the symbol is a constant scalar or array
func (s *Symbol) IsConst() bool { return s.Kind == Const }

// IsStatic reports whether the symbol is a static local
func (s *Symbol) IsStatic() bool { return s.Kind == Static }

// IsFunc reports whether the symbol names a function
func (s *Symbol) IsFunc() bool { return s.Kind == Func }

// TypeName is the category name used in the symbol dump, e.g. ConstIntArray
func (s *Symbol) TypeName() string {
	switch s.Kind {
	case Func:
		if s.Void {
			return "VoidFunc"
		}
		return "IntFunc"
	case Const:
		if s.IsArray {
			return "ConstIntArray"
		}
		return "ConstInt"
	case Static:
		if s.IsArray {
			return "StaticIntArray"
		}
		return "StaticInt"
	default:
		if s.IsArray {
			return "IntArray"
		}
		return "Int"
	}
}

func (s *Symbol) String() string {
	return fmt.Sprintf("%d %s %s", s.ScopeID, s.Name, s.TypeName())
}

// Scope is one node of the scope tree
type Scope struct {
	ID       int
	Parent   *Scope
	Children []*Scope
	symbols  map[string]*Symbol
	order    []*Symbol
}

// Define adds sym to the scope. It returns false if the name already exists here.
func (s *Scope) Define(sym *Symbol) bool {
	if _, ok := s.symbols[sym.Name]; ok {
		return false
	}
	s.symbols[sym.Name] = sym
	s.order = append(s.order, sym)
	return true
}

// LookupLocal finds a name in this scope only
func (s *Scope) LookupLocal(name string) *Symbol {
	return s.symbols[name]
}

// Lookup finds a name in this scope or any enclosing one
func (s *Scope) Lookup(name string) *Symbol {
	for sc := s; sc != nil; sc = sc.Parent {
		if sym := sc.symbols[name]; sym != nil {
			return sym
		}
	}
	return nil
}

// Symbols returns the symbols of this scope in definition order
func (s *Scope) Symbols() []*Symbol {
	return s.order
}

// IsGlobal reports whether this is the root scope
func (s *Scope) IsGlobal() bool { return s.Parent == nil }

// Table owns the scope tree and hands out scope ids
type Table struct {
	Global *Scope
	nextID int
}

// NewTable creates a table containing only the global scope (id 1)
func NewTable() *Table {
	t := &Table{nextID: GlobalScopeID}
	t.Global = t.newScope(nil)
	return t
}

func (t *Table) newScope(parent *Scope) *Scope {
	s := &Scope{ID: t.nextID, Parent: parent, symbols: make(map[string]*Symbol)}
	t.nextID++
	if parent != nil {
		parent.Children = append(parent.Children, s)
	}
	return s
}

// Push creates a child scope of parent with the next id
func (t *Table) Push(parent *Scope) *Scope {
	return t.newScope(parent)
}

// All returns every symbol in preorder scope traversal, definition order within a scope
func (t *Table) All() []*Symbol {
	var out []*Symbol
	var walk func(*Scope)
	walk = func(s *Scope) {
		out = append(out, s.order...)
		for _, c := range s.Children {
			walk(c)
		}
	}
	walk(t.Global)
	return out
}

// Dump writes one "scope name Type" line per user symbol
func (t *Table) Dump(w io.Writer) {
	for _, s := range t.All() {
		if s.Builtin {
			continue
		}
		fmt.Fprintln(w, s.String())
	}
}
