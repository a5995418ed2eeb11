package warp

import (
	"errors"
	"testing"
)

func TestObjectAttributes(t *testing.T) {
	m, err := NewZoomMap(2, 1.3)
	if err != nil {
		t.Fatalf("NewZoomMap: %v", err)
	}
	defer m.Release()

	if got := m.ClassName(); got != "ZoomMap" {
		t.Errorf("ClassName = %q, want ZoomMap", got)
	}
	for _, name := range []string{"ID", "Ident", "UseDefs"} {
		if !m.HasAttribute(name) {
			t.Errorf("HasAttribute(%q) = false", name)
		}
	}
	if m.HasAttribute("NonExistentAttribute") {
		t.Error("HasAttribute(NonExistentAttribute) = true")
	}
	if got := m.ID(); got != "" {
		t.Errorf("default ID = %q, want empty", got)
	}
	if got := m.Ident(); got != "" {
		t.Errorf("default Ident = %q, want empty", got)
	}
	useDefs, err := m.GetBool("UseDefs")
	if err != nil {
		t.Fatalf("GetBool(UseDefs): %v", err)
	}
	if !useDefs {
		t.Error("default UseDefs = false, want true")
	}
}

func TestObjectUnknownAttribute(t *testing.T) {
	m, err := NewZoomMap(2, 1.3)
	if err != nil {
		t.Fatalf("NewZoomMap: %v", err)
	}
	defer m.Release()

	var attrErr *AttributeError
	if _, err := m.GetString("NonExistentAttribute"); !errors.As(err, &attrErr) {
		t.Errorf("GetString(unknown) error = %v, want AttributeError", err)
	}
	if err := m.SetFloat("NonExistentAttribute", 1); !errors.As(err, &attrErr) {
		t.Errorf("SetFloat(unknown) error = %v, want AttributeError", err)
	}
	if _, err := m.Test("NonExistentAttribute"); !errors.As(err, &attrErr) {
		t.Errorf("Test(unknown) error = %v, want AttributeError", err)
	}
	if err := m.Clear("NonExistentAttribute"); !errors.As(err, &attrErr) {
		t.Errorf("Clear(unknown) error = %v, want AttributeError", err)
	}
	// Wrong accessor type on a known attribute.
	if _, err := m.GetFloat("ID"); !errors.As(err, &attrErr) {
		t.Errorf("GetFloat(ID) error = %v, want AttributeError", err)
	}
	if err := m.SetInt("UseDefs", 1); !errors.As(err, &attrErr) {
		t.Errorf("SetInt(UseDefs) error = %v, want AttributeError", err)
	}
}

func TestObjectClearAndTest(t *testing.T) {
	m, err := NewZoomMap(2, 1.3)
	if err != nil {
		t.Fatalf("NewZoomMap: %v", err)
	}
	defer m.Release()

	set, err := m.Test("ID")
	if err != nil {
		t.Fatalf("Test(ID): %v", err)
	}
	if set {
		t.Error("Test(ID) = true before any assignment")
	}
	m.SetID("initial_id")
	if got := m.ID(); got != "initial_id" {
		t.Errorf("ID = %q after SetID", got)
	}
	if set, _ := m.Test("ID"); !set {
		t.Error("Test(ID) = false after SetID")
	}
	if err := m.Clear("ID"); err != nil {
		t.Fatalf("Clear(ID): %v", err)
	}
	if got := m.ID(); got != "" {
		t.Errorf("ID = %q after Clear, want empty", got)
	}
	if set, _ := m.Test("ID"); set {
		t.Error("Test(ID) = true after Clear")
	}
}

func TestObjectCopyAndSame(t *testing.T) {
	m, err := NewZoomMap(2, 1.3, "Ident=original")
	if err != nil {
		t.Fatalf("NewZoomMap: %v", err)
	}
	defer m.Release()

	nobj := NObject()
	cp, ok := m.Copy().(*ZoomMap)
	if !ok {
		t.Fatal("Copy did not return a *ZoomMap")
	}

	if cp.Show() != m.Show() {
		t.Errorf("copy Show differs:\n%s\nvs\n%s", cp.Show(), m.Show())
	}
	if cp.Same(m) || m.Same(cp) {
		t.Error("copy is Same as the original")
	}
	if !m.Same(m) {
		t.Error("object is not Same as itself")
	}
	if got := NObject(); got != nobj+1 {
		t.Errorf("NObject = %d after copy, want %d", got, nobj+1)
	}
	if got := cp.RefCount(); got != 1 {
		t.Errorf("copy RefCount = %d, want 1", got)
	}
	// A copy is a new object, not a new reference.
	if got := m.RefCount(); got != 1 {
		t.Errorf("original RefCount = %d after copy, want 1", got)
	}

	cp.SetIdent("copy")
	if got := m.Ident(); got != "original" {
		t.Errorf("original Ident = %q after mutating the copy", got)
	}

	cp.Release()
	if got := NObject(); got != nobj {
		t.Errorf("NObject = %d after releasing the copy, want %d", got, nobj)
	}
}

func TestObjectIDNotCopied(t *testing.T) {
	m, err := NewZoomMap(2, 1.3)
	if err != nil {
		t.Fatalf("NewZoomMap: %v", err)
	}
	defer m.Release()
	m.SetID("initial_id")
	m.SetIdent("initial_ident")

	cp := m.Copy()
	defer cp.Release()
	if got := cp.ID(); got != "" {
		t.Errorf("copy ID = %q, want empty", got)
	}
	if got := cp.Ident(); got != "initial_ident" {
		t.Errorf("copy Ident = %q, want initial_ident", got)
	}
}

func TestObjectOfRefCount(t *testing.T) {
	m, err := NewZoomMap(2, 1.3)
	if err != nil {
		t.Fatalf("NewZoomMap: %v", err)
	}
	defer m.Release()

	sm, err := m.Of(m)
	if err != nil {
		t.Fatalf("Of: %v", err)
	}
	// The compound holds two counted shares plus our own handle.
	if got := m.RefCount(); got != 3 {
		t.Errorf("RefCount = %d inside the composition, want 3", got)
	}
	sm.Release()
	if got := m.RefCount(); got != 1 {
		t.Errorf("RefCount = %d after releasing the composition, want 1", got)
	}
}

func TestConstructionOptions(t *testing.T) {
	m, err := NewZoomMap(2, 1.3, "Ident=frame b, ID=z1", "UseDefs=0")
	if err != nil {
		t.Fatalf("NewZoomMap with options: %v", err)
	}
	defer m.Release()
	if got := m.Ident(); got != "frame b" {
		t.Errorf("Ident = %q, want %q", got, "frame b")
	}
	if got := m.ID(); got != "z1" {
		t.Errorf("ID = %q, want z1", got)
	}
	useDefs, _ := m.GetBool("UseDefs")
	if useDefs {
		t.Error("UseDefs = true, want false")
	}
}

func TestConstructionOptionErrors(t *testing.T) {
	var cfgErr *ConfigurationError

	nobj := NObject()
	if _, err := NewZoomMap(2, 1.3, "NoSuchOption=1"); !errors.As(err, &cfgErr) {
		t.Errorf("unknown option error = %v, want ConfigurationError", err)
	}
	if _, err := NewZoomMap(2, 1.3, "Ident"); !errors.As(err, &cfgErr) {
		t.Errorf("malformed option error = %v, want ConfigurationError", err)
	}
	if _, err := NewZoomMap(2, 1.3, "UseDefs=maybe"); !errors.As(err, &cfgErr) {
		t.Errorf("bad bool option error = %v, want ConfigurationError", err)
	}
	if _, err := NewZoomMap(2, 0); !errors.As(err, &cfgErr) {
		t.Errorf("zero zoom error = %v, want ConfigurationError", err)
	}
	// No partial object survives a failed construction.
	if got := NObject(); got != nobj {
		t.Errorf("NObject = %d after failed constructions, want %d", got, nobj)
	}
}
