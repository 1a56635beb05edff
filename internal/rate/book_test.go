package rate

import "testing"

func floatEquals(a, b float64) bool {
	const eps = 1e-6
	d := a - b
	if d < 0 {
		d = -d
	}
	return d < eps
}

func TestFill_SingleLevel(t *testing.T) {
	book := Book{{Price: 100, Volume: 10}}
	avg, limit, out, ok := Fill(book, 5)
	if !ok {
		t.Fatal("expected ok=true")
	}
	if !floatEquals(avg, 100) || !floatEquals(limit, 100) || !floatEquals(out, 500) {
		t.Errorf("got avg=%v limit=%v out=%v", avg, limit, out)
	}
}

func TestFill_MultipleLevels(t *testing.T) {
	book := Book{
		{Price: 100, Volume: 10},
		{Price: 101, Volume: 20},
		{Price: 102, Volume: 30},
	}
	avg, limit, out, ok := Fill(book, 20)
	if !ok {
		t.Fatal("expected ok=true")
	}
	// 10@100 + 10@101 = 2010, /20 = 100.5
	if !floatEquals(avg, 100.5) {
		t.Errorf("avg = %v, want 100.5", avg)
	}
	if !floatEquals(limit, 101) {
		t.Errorf("limit = %v, want 101", limit)
	}
	if !floatEquals(out, 2010) {
		t.Errorf("out = %v, want 2010", out)
	}
}

func TestFill_InsufficientLiquidity(t *testing.T) {
	book := Book{{Price: 100, Volume: 5}}
	_, _, _, ok := Fill(book, 10)
	if ok {
		t.Error("expected ok=false for insufficient liquidity")
	}
}

func TestFill_ExactDepletion(t *testing.T) {
	book := Book{{Price: 100, Volume: 10}, {Price: 101, Volume: 10}}
	avg, limit, _, ok := Fill(book, 20)
	if !ok {
		t.Fatal("expected ok=true")
	}
	if !floatEquals(avg, 100.5) || !floatEquals(limit, 101) {
		t.Errorf("got avg=%v limit=%v", avg, limit)
	}
}

func TestFill_EmptyBook(t *testing.T) {
	_, _, _, ok := Fill(nil, 10)
	if ok {
		t.Error("expected ok=false for empty book")
	}
}

func TestFill_ZeroVolume(t *testing.T) {
	book := Book{{Price: 100, Volume: 10}}
	_, _, _, ok := Fill(book, 0)
	if ok {
		t.Error("expected ok=false for zero requested volume")
	}
}

func TestDeriveBooks(t *testing.T) {
	bids := []Entry{{Price: 100, Volume: 5}, {Price: 99, Volume: 10}}
	asks := []Entry{{Price: 101, Volume: 5}, {Price: 102, Volume: 10}}

	aToB, bToA := DeriveBooks(bids, asks)

	if len(aToB) != 2 || len(bToA) != 2 {
		t.Fatalf("expected 2 entries each, got %d/%d", len(aToB), len(bToA))
	}
	if !floatEquals(aToB[0].Price, 100) || !floatEquals(aToB[0].Volume, 5) {
		t.Errorf("aToB[0] = %+v", aToB[0])
	}
	// B->A is inverted ask: price = 1/101, volume = 101*5
	if !floatEquals(bToA[0].Price, 1.0/101) {
		t.Errorf("bToA[0].Price = %v, want %v", bToA[0].Price, 1.0/101)
	}
	if !floatEquals(bToA[0].Volume, 101*5) {
		t.Errorf("bToA[0].Volume = %v, want %v", bToA[0].Volume, 101*5)
	}
}

func TestDeriveBooks_DropsNonPositive(t *testing.T) {
	bids := []Entry{{Price: 0, Volume: 5}, {Price: 100, Volume: 0}, {Price: 99, Volume: 10}}
	asks := []Entry{{Price: -1, Volume: 5}}

	aToB, bToA := DeriveBooks(bids, asks)

	if len(aToB) != 1 {
		t.Errorf("expected 1 surviving bid entry, got %d", len(aToB))
	}
	if len(bToA) != 0 {
		t.Errorf("expected 0 surviving ask entries, got %d", len(bToA))
	}
}
