package tree

import (
	"errors"
	"testing"
)

const (
	kindRoot   Kind = "ROOT"
	kindFolder Kind = "FOLDER"
	kindItem   Kind = "ITEM"
	kindRef    Kind = "REF"
)

func TestNamedChildrenAreUniquePerKind(t *testing.T) {
	m := NewModel(kindRoot)
	root := m.Root()

	a, err := root.CreateNamedChild(kindFolder, "a")
	if err != nil {
		t.Fatalf("CreateNamedChild: %v", err)
	}
	if a.Name() != "a" || a.Kind() != kindFolder {
		t.Errorf("unexpected child: name=%q kind=%q", a.Name(), a.Kind())
	}

	if _, err := root.CreateNamedChild(kindFolder, "a"); !errors.Is(err, ErrDuplicateName) {
		t.Errorf("duplicate name error = %v, want ErrDuplicateName", err)
	}
	// Same name under a different kind is fine.
	if _, err := root.CreateNamedChild(kindItem, "a"); err != nil {
		t.Errorf("same name, different kind: %v", err)
	}
}

func TestGetOrCreateChildReturnsExisting(t *testing.T) {
	m := NewModel(kindRoot)
	root := m.Root()

	first, err := root.GetOrCreateChild(kindFolder)
	if err != nil {
		t.Fatalf("GetOrCreateChild: %v", err)
	}
	second, err := root.GetOrCreateChild(kindFolder)
	if err != nil {
		t.Fatalf("GetOrCreateChild: %v", err)
	}
	if first != second {
		t.Errorf("GetOrCreateChild created a second container")
	}
}

func TestScalarRoundTrips(t *testing.T) {
	m := NewModel(kindRoot)
	item, _ := m.Root().CreateChild(kindItem)

	if _, ok := item.Value(); ok {
		t.Errorf("fresh element reports a value")
	}
	if err := item.SetUint(4094); err != nil {
		t.Fatalf("SetUint: %v", err)
	}
	if v, ok := item.Uint(); !ok || v != 4094 {
		t.Errorf("Uint = (%v, %v), want (4094, true)", v, ok)
	}

	if err := item.SetBool(true); err != nil {
		t.Fatalf("SetBool: %v", err)
	}
	if v, ok := item.Bool(); !ok || !v {
		t.Errorf("Bool = (%v, %v), want (true, true)", v, ok)
	}
}

func TestReferencesAndReverseIndex(t *testing.T) {
	m := NewModel(kindRoot)
	target, _ := m.Root().CreateNamedChild(kindItem, "target")
	refA, _ := m.Root().CreateChild(kindRef)
	refB, _ := m.Root().CreateChild(kindRef)

	if err := refA.SetReference(target); err != nil {
		t.Fatalf("SetReference: %v", err)
	}
	if err := refB.SetReference(target); err != nil {
		t.Fatalf("SetReference: %v", err)
	}

	if got := refA.Reference(); got != target {
		t.Errorf("Reference = %v, want target", got)
	}
	if got := len(target.Referrers()); got != 2 {
		t.Errorf("Referrers = %d, want 2", got)
	}

	// Re-pointing a reference drops the old index entry.
	other, _ := m.Root().CreateNamedChild(kindItem, "other")
	if err := refB.SetReference(other); err != nil {
		t.Fatalf("SetReference: %v", err)
	}
	if got := len(target.Referrers()); got != 1 {
		t.Errorf("Referrers after re-point = %d, want 1", got)
	}
}

func TestRemovalDetachesSubtreeAndDanglesReferences(t *testing.T) {
	m := NewModel(kindRoot)
	folder, _ := m.Root().CreateNamedChild(kindFolder, "f")
	inner, _ := folder.CreateNamedChild(kindItem, "inner")
	outsideRef, _ := m.Root().CreateChild(kindRef)
	if err := outsideRef.SetReference(inner); err != nil {
		t.Fatalf("SetReference: %v", err)
	}

	if err := m.Root().RemoveChild(folder); err != nil {
		t.Fatalf("RemoveChild: %v", err)
	}

	if folder.Alive() || inner.Alive() {
		t.Errorf("removed subtree still alive")
	}
	if got := outsideRef.Reference(); got != nil {
		t.Errorf("reference into removed subtree resolves to %v, want nil", got)
	}
	if _, err := inner.CreateChild(kindItem); !errors.Is(err, ErrDetachedElement) {
		t.Errorf("create on detached element error = %v, want ErrDetachedElement", err)
	}
	if err := m.Root().RemoveChild(folder); !errors.Is(err, ErrNotAChild) {
		t.Errorf("second removal error = %v, want ErrNotAChild", err)
	}
}

func TestNamedParentSkipsUnnamedContainers(t *testing.T) {
	m := NewModel(kindRoot)
	owner, _ := m.Root().CreateNamedChild(kindFolder, "owner")
	container, _ := owner.CreateChild(kindFolder)
	leaf, _ := container.CreateChild(kindItem)

	if got := leaf.NamedParent(); got != owner {
		t.Errorf("NamedParent = %v, want owner", got)
	}
	if got := m.Root().NamedParent(); got != nil {
		t.Errorf("root NamedParent = %v, want nil", got)
	}
}
