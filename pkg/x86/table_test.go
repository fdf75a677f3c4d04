package x86

import "testing"

// TestMnemonicTableCompleteness mirrors the catalog-completeness check the
// Z80 table carries: every entry must name a real Op and valid operand
// bounds.
func TestMnemonicTableCompleteness(t *testing.T) {
	for mnemonic, info := range mnemonicTable {
		if info.Op == OpInvalid {
			t.Errorf("mnemonic %q maps to OpInvalid", mnemonic)
		}
		if info.MinOperands > info.MaxOperands {
			t.Errorf("mnemonic %q: MinOperands %d > MaxOperands %d", mnemonic, info.MinOperands, info.MaxOperands)
		}
		if info.MaxOperands > MaxOperands {
			t.Errorf("mnemonic %q: MaxOperands %d exceeds MaxOperands cap %d", mnemonic, info.MaxOperands, MaxOperands)
		}
	}
}

func TestLookupMnemonic(t *testing.T) {
	info, ok := LookupMnemonic("add")
	if !ok {
		t.Fatalf("add should be in the mnemonic table")
	}
	if info.Op != OpAdd || info.MinOperands != 2 || info.MaxOperands != 2 {
		t.Errorf("add: got %+v", info)
	}
	if _, ok := LookupMnemonic("bogus"); ok {
		t.Errorf("bogus mnemonic should not resolve")
	}
}

func TestConditionalJccCarriesCCFlags(t *testing.T) {
	for _, mnemonic := range []string{"jz", "jnz", "jl", "jge", "jbe"} {
		info, ok := LookupMnemonic(mnemonic)
		if !ok {
			t.Fatalf("%s should be in the mnemonic table", mnemonic)
		}
		if !info.Flags.Has(FlagJMP) || !info.Flags.Has(FlagCJMP) || !info.Flags.Has(FlagCC) {
			t.Errorf("%s: got flags %#x, want JMP|CJMP|CC", mnemonic, info.Flags)
		}
	}
}

func TestInvertedConditionPairs(t *testing.T) {
	pairs := [][2]string{{"jz", "jnz"}, {"jl", "jge"}, {"jbe", "ja"}, {"jc", "jnc"}}
	for _, p := range pairs {
		a, _ := LookupMnemonic(p[0])
		b, _ := LookupMnemonic(p[1])
		if a.PFO != b.PFO {
			t.Errorf("%s/%s: PFO mismatch %v vs %v", p[0], p[1], a.PFO, b.PFO)
		}
		if a.PFOInv == b.PFOInv {
			t.Errorf("%s/%s: expected opposite PFOInv, got %v and %v", p[0], p[1], a.PFOInv, b.PFOInv)
		}
	}
}

func TestIsReadModifyWrite(t *testing.T) {
	rmw := []Op{OpAdd, OpSub, OpInc, OpDec, OpNeg, OpNot, OpPush}
	for _, op := range rmw {
		if !IsReadModifyWrite(op) {
			t.Errorf("op %v should be read-modify-write", op)
		}
	}
	notRMW := []Op{OpMov, OpLea, OpCmp, OpTest, OpCall, OpJmp}
	for _, op := range notRMW {
		if IsReadModifyWrite(op) {
			t.Errorf("op %v should not be read-modify-write", op)
		}
	}
}

func TestIsStringOp(t *testing.T) {
	for _, op := range []Op{OpLods, OpStos, OpMovs, OpCmps, OpScas} {
		if !IsStringOp(op) {
			t.Errorf("op %v should be a string op", op)
		}
	}
	if IsStringOp(OpMov) {
		t.Errorf("OpMov should not be a string op")
	}
}

func TestLookupPrefix(t *testing.T) {
	f, ok := LookupPrefix("repe")
	if !ok || !f.Has(FlagREP) || !f.Has(FlagREPZ) {
		t.Errorf("repe: got %#x, ok=%v", f, ok)
	}
	if _, ok := LookupPrefix("xyz"); ok {
		t.Errorf("xyz should not be a recognized prefix")
	}
}
