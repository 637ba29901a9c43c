package ranking

import "testing"

func TestRankCompetitionPositions(t *testing.T) {
	players := []Player{
		{Identity: "s4", Name: "Daler", Score: 60},
		{Identity: "s1", Name: "Umar", Score: 120},
		{Identity: "s3", Name: "Madina", Score: 80},
		{Identity: "s2", Name: "Ali", Score: 120},
		{Identity: "s5", Name: "Karim", Score: 60},
	}
	got := Rank(players)

	wantPositions := []int{1, 1, 3, 4, 4}
	wantNames := []string{"Ali", "Umar", "Madina", "Daler", "Karim"}
	for i, s := range got {
		if s.Position != wantPositions[i] || s.Name != wantNames[i] {
			t.Fatalf("standing %d: got %+v, want %s at %d", i, s, wantNames[i], wantPositions[i])
		}
	}
}

func TestRankIgnoresInputOrder(t *testing.T) {
	a := Rank([]Player{{Identity: "a", Name: "A", Score: 100}, {Identity: "b", Name: "B", Score: 100}, {Identity: "c", Name: "C", Score: 50}})
	b := Rank([]Player{{Identity: "c", Name: "C", Score: 50}, {Identity: "b", Name: "B", Score: 100}, {Identity: "a", Name: "A", Score: 100}})

	positions := func(ss []Standing) map[string]int {
		m := make(map[string]int, len(ss))
		for _, s := range ss {
			m[s.Name] = s.Position
		}
		return m
	}
	pa, pb := positions(a), positions(b)
	for name, pos := range pa {
		if pb[name] != pos {
			t.Fatalf("position of %s differs: %d vs %d", name, pos, pb[name])
		}
	}
	if pa["A"] != 1 || pa["B"] != 1 || pa["C"] != 3 {
		t.Fatalf("expected positions [1,1,3], got %v", pa)
	}
}

func TestRankDoesNotMutateInput(t *testing.T) {
	in := []Player{{Name: "B", Score: 1}, {Name: "A", Score: 2}}
	_ = Rank(in)
	if in[0].Name != "B" {
		t.Fatalf("input slice was reordered")
	}
}

func TestWinners(t *testing.T) {
	w := Winners([]Player{{Name: "Bob", Score: 20}, {Name: "Alice", Score: 40}, {Name: "Cara", Score: 40}})
	if len(w) != 2 || w[0].Name != "Alice" || w[1].Name != "Cara" {
		t.Fatalf("expected Alice and Cara, got %+v", w)
	}

	zero := Winners([]Player{{Name: "A"}, {Name: "B"}, {Name: "C"}})
	if len(zero) != 3 {
		t.Fatalf("all-zero scores should make everyone a winner, got %+v", zero)
	}

	if Winners(nil) != nil {
		t.Fatalf("expected no winners for empty input")
	}
}

func TestAward(t *testing.T) {
	if Award(true, PointsCorrect) != 20 || Award(false, PointsCorrect) != 0 {
		t.Fatalf("unexpected award values")
	}
}
