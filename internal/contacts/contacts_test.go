package contacts

import "testing"

func TestAllowed_OpenMode(t *testing.T) {
	a := NewAllowList(nil)

	if !a.Open() {
		t.Error("expected empty list to be open")
	}
	if !a.Allowed("+14155551234") {
		t.Error("open mode must allow any sender")
	}
	if !a.Allowed("") {
		t.Error("open mode must allow even an empty sender")
	}
}

func TestAllowed_ExactMatch(t *testing.T) {
	a := NewAllowList([]string{"+14155551234", "friend@icloud.com"})

	if !a.Allowed("+14155551234") {
		t.Error("expected configured number to be allowed")
	}
	if !a.Allowed("friend@icloud.com") {
		t.Error("expected configured email to be allowed")
	}
	if a.Allowed("+14155559999") {
		t.Error("unlisted number must be rejected")
	}
}

func TestAllowed_PlusEquivalence(t *testing.T) {
	a := NewAllowList([]string{"+14155551234"})
	if !a.Allowed("14155551234") {
		t.Error("sender without leading + must match entry with +")
	}

	b := NewAllowList([]string{"14155551234"})
	if !b.Allowed("+14155551234") {
		t.Error("sender with leading + must match entry without +")
	}
}

func TestAllowed_CaseAndWhitespace(t *testing.T) {
	a := NewAllowList([]string{" Friend@iCloud.com "})

	if !a.Allowed("friend@icloud.com") {
		t.Error("expected case-insensitive match")
	}
	if !a.Allowed("  FRIEND@ICLOUD.COM\n") {
		t.Error("expected whitespace-trimmed match")
	}
}

func TestAllowed_ReflexiveUnderNormalization(t *testing.T) {
	for _, id := range []string{"+14155551234", "friend@icloud.com", " Mixed@Case.Org "} {
		a := NewAllowList([]string{id})
		if !a.Allowed(id) {
			t.Errorf("Allowed(%q, [%q]) = false, want true", id, id)
		}
	}
}

func TestAllowed_EmptySenderRejected(t *testing.T) {
	a := NewAllowList([]string{"+14155551234"})

	if a.Allowed("") {
		t.Error("empty sender must be rejected with a non-empty list")
	}
	if a.Allowed("   ") {
		t.Error("blank sender must be rejected with a non-empty list")
	}
}

func TestNewAllowList_SkipsBlankEntries(t *testing.T) {
	a := NewAllowList([]string{"", "  ", "+14155551234"})

	if a.Open() {
		t.Error("list with one real entry must not be open")
	}
	if got := len(a.Entries()); got != 1 {
		t.Errorf("expected 1 entry, got %d", got)
	}
}

func TestAllowed_SingleLeadingPlusOnly(t *testing.T) {
	// Only one leading "+" is stripped; "++1415..." is a different identifier.
	a := NewAllowList([]string{"++14155551234"})

	if a.Allowed("14155551234") {
		t.Error("double-plus entry must not match bare number")
	}
	if !a.Allowed("++14155551234") {
		t.Error("double-plus entry must match itself")
	}
}
