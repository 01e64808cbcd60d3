package counters

import "testing"

func TestAddAndCount(t *testing.T) {
	cs := New()
	cs.Add(TypeDamage, 30)
	cs.Add(TypeDamage, 20)
	if got := cs.Count(TypeDamage); got != 50 {
		t.Fatalf("expected 50 damage, got %d", got)
	}
	cs.Add(TypeBurn, 0)
	if cs.Count(TypeBurn) != 0 {
		t.Fatalf("adding zero should be a no-op")
	}
	cs.Add(TypeBurn, -5)
	if _, ok := cs[TypeBurn]; ok {
		t.Fatalf("negative add must not create a key")
	}
}

func TestRemoveClampsAndDeletes(t *testing.T) {
	cs := New()
	cs.Add(TypeDamage, 30)

	cs.Remove(TypeDamage, 100)
	if _, ok := cs[TypeDamage]; ok {
		t.Fatalf("removing past zero must delete the key, got %v", cs)
	}

	cs.Add(TypePoison, 3)
	cs.Remove(TypePoison, 1)
	if got := cs.Count(TypePoison); got != 2 {
		t.Fatalf("expected 2 poison, got %d", got)
	}
}

func TestSetNonPositiveDeletes(t *testing.T) {
	cs := New()
	cs.Set(TypeEnergy, 2)
	if got := cs.Count(TypeEnergy); got != 2 {
		t.Fatalf("expected 2 energy, got %d", got)
	}
	cs.Set(TypeEnergy, 0)
	if _, ok := cs[TypeEnergy]; ok {
		t.Fatalf("setting zero must delete the key")
	}
	cs.Set(TypeEnergy, -1)
	if _, ok := cs[TypeEnergy]; ok {
		t.Fatalf("setting negative must delete the key")
	}
}

func TestDrainMovesEverything(t *testing.T) {
	src := New()
	src.Add(TypeDamage, 40)
	src.Add(TypeBurn, 1)
	dst := New()
	dst.Add(TypeDamage, 10)

	src.Drain(dst)

	if !src.Empty() {
		t.Fatalf("source should be empty after drain, got %v", src)
	}
	if got := dst.Count(TypeDamage); got != 50 {
		t.Fatalf("expected 50 damage after drain, got %d", got)
	}
	if got := dst.Count(TypeBurn); got != 1 {
		t.Fatalf("expected 1 burn after drain, got %d", got)
	}
}

func TestCopyIsIndependent(t *testing.T) {
	cs := New()
	cs.Add(TypeDamage, 20)
	cp := cs.Copy()
	cp.Add(TypeDamage, 10)
	if cs.Count(TypeDamage) != 20 {
		t.Fatalf("copy mutation leaked into original")
	}
	if cs.Total() != 20 || cp.Total() != 30 {
		t.Fatalf("unexpected totals: %d / %d", cs.Total(), cp.Total())
	}
}
