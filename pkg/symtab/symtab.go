// Package symtab holds the function symbol table of the target binary and
// answers the address queries the unwinder depends on: which function
// contains a pc, where that function ends, and where its first source line
// ends when line information is available.
package symtab

import (
	"debug/elf"
	"fmt"
	"sort"

	"github.com/derekparker/trie"
	"github.com/sirupsen/logrus"
)

// Function describes a function in the target program.
type Function struct {
	Name       string
	Entry, End uint64
}

// LineFunc returns the address one past the last instruction of the first
// source line of the function containing pc. The second return value is
// false when no line information covers pc.
type LineFunc func(pc uint64) (uint64, bool)

// Table is a symbol table for one target binary.
type Table struct {
	funcs    []Function // sorted by entry address
	names    *trie.Trie
	lineInfo LineFunc
}

// New returns a Table for the given functions.
func New(funcs []Function) *Table {
	t := &Table{funcs: make([]Function, len(funcs))}
	copy(t.funcs, funcs)
	sort.Slice(t.funcs, func(i, j int) bool { return t.funcs[i].Entry < t.funcs[j].Entry })
	t.names = trie.New()
	for i := range t.funcs {
		t.names.Add(t.funcs[i].Name, i)
	}
	return t
}

// SetLineInfo installs the line table lookup used by PCToLineEnd.
func (t *Table) SetLineInfo(fn LineFunc) {
	t.lineInfo = fn
}

// PCToFunction returns the function containing pc, or nil if pc falls
// outside every known function.
func (t *Table) PCToFunction(pc uint64) *Function {
	i := sort.Search(len(t.funcs), func(i int) bool { return t.funcs[i].Entry > pc })
	if i == 0 {
		return nil
	}
	fn := &t.funcs[i-1]
	if fn.End != 0 && pc >= fn.End {
		return nil
	}
	return fn
}

// LookupFunc returns the function with the given name, or nil.
func (t *Table) LookupFunc(name string) *Function {
	node, ok := t.names.Find(name)
	if !ok {
		return nil
	}
	return &t.funcs[node.Meta().(int)]
}

// FindFunctions returns all functions whose name starts with prefix, in
// entry address order.
func (t *Table) FindFunctions(prefix string) []*Function {
	var r []*Function
	for _, name := range t.names.PrefixSearch(prefix) {
		if fn := t.LookupFunc(name); fn != nil {
			r = append(r, fn)
		}
	}
	sort.Slice(r, func(i, j int) bool { return r[i].Entry < r[j].Entry })
	return r
}

// Functions returns every known function in entry address order.
func (t *Table) Functions() []Function {
	return t.funcs
}

// PCToLineEnd returns the address of the end of the first source line of
// the function containing pc, when line information is available.
func (t *Table) PCToLineEnd(pc uint64) (uint64, bool) {
	if t.lineInfo == nil {
		return 0, false
	}
	return t.lineInfo(pc)
}

// LoadELF reads the function symbols of an ELF executable.
func LoadELF(path string, logger *logrus.Entry) (*Table, error) {
	f, err := elf.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if f.Machine != elf.EM_MICROBLAZE && f.Machine != elf.EM_NONE {
		return nil, fmt.Errorf("unsupported ELF machine: %s", f.Machine)
	}

	syms, err := f.Symbols()
	if err != nil {
		return nil, fmt.Errorf("could not read symbol table: %v", err)
	}

	funcs := make([]Function, 0, len(syms))
	for _, sym := range syms {
		if elf.ST_TYPE(sym.Info) != elf.STT_FUNC || sym.Value == 0 {
			continue
		}
		funcs = append(funcs, Function{Name: sym.Name, Entry: sym.Value, End: sym.Value + sym.Size})
	}
	if logger != nil {
		logger.Debugf("loaded %d functions from %s", len(funcs), path)
	}

	return New(funcs), nil
}
