package catalog

import "testing"

func TestTotalUnits(t *testing.T) {
	if got := TotalUnits(); got != len(All()) {
		t.Errorf("TotalUnits() = %d, want %d", got, len(All()))
	}
	if TotalUnits() == 0 {
		t.Fatal("catalog is empty")
	}
}

func TestRegionInvariant(t *testing.T) {
	// Every unit's region must match its containing region code.
	for _, r := range Regions() {
		for _, u := range r.Units {
			if u.Region != r.Code {
				t.Errorf("unit %s has region %q inside region %q", u.ID, u.Region, r.Code)
			}
		}
	}
}

func TestByRegion(t *testing.T) {
	units := ByRegion("RJ")
	if len(units) == 0 {
		t.Fatal("ByRegion(RJ) returned no units")
	}
	for _, u := range units {
		if u.Region != "RJ" {
			t.Errorf("unit %s has region %q, want RJ", u.ID, u.Region)
		}
	}

	if got := ByRegion("XX"); len(got) != 0 {
		t.Errorf("ByRegion(XX) = %d units, want 0", len(got))
	}
}

func TestByID(t *testing.T) {
	u := ByID("rj-norte")
	if u == nil {
		t.Fatal("ByID(rj-norte) = nil")
	}
	if u.Name != "Norte Shopping" {
		t.Errorf("ByID(rj-norte).Name = %q, want Norte Shopping", u.Name)
	}

	if ByID("does-not-exist") != nil {
		t.Error("ByID(does-not-exist) != nil")
	}
}

func TestUniqueIDs(t *testing.T) {
	seen := map[string]bool{}
	for _, u := range All() {
		if seen[u.ID] {
			t.Errorf("duplicate unit id %q", u.ID)
		}
		seen[u.ID] = true
	}
}

func TestRegionName(t *testing.T) {
	if got := RegionName("NNE"); got != "Regional NNE" {
		t.Errorf("RegionName(NNE) = %q", got)
	}
	if got := RegionName("ZZ"); got != "ZZ" {
		t.Errorf("RegionName(ZZ) = %q, want code fallback", got)
	}
}

func TestColumns(t *testing.T) {
	for _, c := range StandardColumns {
		if !c.Required {
			t.Errorf("standard column %s not marked required", c.ID)
		}
	}
	for _, c := range ExtraColumns {
		if c.Required {
			t.Errorf("extra column %s marked required", c.ID)
		}
	}
	if len(AllColumns()) != len(StandardColumns)+len(ExtraColumns) {
		t.Error("AllColumns() length mismatch")
	}
}
