package symtab

import (
	"testing"
)

func testTable() *Table {
	// Deliberately unsorted; New sorts by entry address.
	return New([]Function{
		{Name: "main.main", Entry: 0x2000, End: 0x2080},
		{Name: "runtime.start", Entry: 0x1000, End: 0x1040},
		{Name: "main.helper", Entry: 0x2080, End: 0x20c0},
		{Name: "openended", Entry: 0x3000, End: 0},
	})
}

func TestPCToFunction(t *testing.T) {
	tab := testTable()

	for _, tc := range []struct {
		pc   uint64
		want string
	}{
		{0x1000, "runtime.start"},
		{0x103c, "runtime.start"},
		{0x1040, ""}, // end addresses are exclusive
		{0x2000, "main.main"},
		{0x207f, "main.main"},
		{0x2080, "main.helper"},
		{0x0fff, ""}, // below the first function
		{0x3000, "openended"},
		{0x9000, "openended"}, // zero end means unknown extent
	} {
		fn := tab.PCToFunction(tc.pc)
		switch {
		case tc.want == "" && fn != nil:
			t.Errorf("pc %#x: got %q, want no function", tc.pc, fn.Name)
		case tc.want != "" && fn == nil:
			t.Errorf("pc %#x: got no function, want %q", tc.pc, tc.want)
		case fn != nil && fn.Name != tc.want:
			t.Errorf("pc %#x: got %q, want %q", tc.pc, fn.Name, tc.want)
		}
	}
}

func TestLookupFunc(t *testing.T) {
	tab := testTable()

	fn := tab.LookupFunc("main.helper")
	if fn == nil || fn.Entry != 0x2080 {
		t.Fatalf("got %+v, want main.helper at 0x2080", fn)
	}
	if tab.LookupFunc("main.missing") != nil {
		t.Error("lookup of an unknown name returned a function")
	}
	if tab.LookupFunc("main.") != nil {
		t.Error("lookup of a bare prefix returned a function")
	}
}

func TestFindFunctions(t *testing.T) {
	tab := testTable()

	fns := tab.FindFunctions("main.")
	if len(fns) != 2 {
		t.Fatalf("got %d functions, want 2", len(fns))
	}
	// Entry address order, not name order.
	if fns[0].Name != "main.main" || fns[1].Name != "main.helper" {
		t.Errorf("got %q, %q, want main.main then main.helper", fns[0].Name, fns[1].Name)
	}

	if fns := tab.FindFunctions("xyz"); len(fns) != 0 {
		t.Errorf("got %d functions for an unknown prefix", len(fns))
	}
}

func TestFunctionsSorted(t *testing.T) {
	fns := testTable().Functions()
	for i := 1; i < len(fns); i++ {
		if fns[i-1].Entry > fns[i].Entry {
			t.Fatalf("functions out of order: %#x after %#x", fns[i].Entry, fns[i-1].Entry)
		}
	}
}

func TestPCToLineEnd(t *testing.T) {
	tab := testTable()

	if _, ok := tab.PCToLineEnd(0x2000); ok {
		t.Error("line information reported with no line table installed")
	}

	tab.SetLineInfo(func(pc uint64) (uint64, bool) {
		if pc == 0x2000 {
			return 0x2010, true
		}
		return 0, false
	})
	if end, ok := tab.PCToLineEnd(0x2000); !ok || end != 0x2010 {
		t.Errorf("got (%#x, %v), want (0x2010, true)", end, ok)
	}
	if _, ok := tab.PCToLineEnd(0x1000); ok {
		t.Error("line information reported for an uncovered pc")
	}
}
