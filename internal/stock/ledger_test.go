package stock

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

func TestLedgerCheckAvailable(t *testing.T) {
	ctx := context.Background()
	db := newFakeDB()
	db.products["p1"] = 10
	db.variants["p1|120x180"] = 4
	db.colors["p1|walnut"] = 2
	ledger := NewLedger()

	tests := map[string]struct {
		sel     Selection
		want    int
		wantErr error
	}{
		"base pool":       {Selection{ProductID: "p1"}, 10, nil},
		"variant pool":    {Selection{ProductID: "p1", VariantLabel: "120x180"}, 4, nil},
		"color pool":      {Selection{ProductID: "p1", ColorName: "walnut"}, 2, nil},
		"missing product": {Selection{ProductID: "nope"}, 0, ErrNotFound},
		"missing variant": {Selection{ProductID: "p1", VariantLabel: "90x60"}, 0, ErrNotFound},
		"missing color":   {Selection{ProductID: "p1", ColorName: "teak"}, 0, ErrNotFound},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			got, err := ledger.CheckAvailable(ctx, db, tt.sel)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Fatalf("available = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestLedgerDecrement(t *testing.T) {
	ctx := context.Background()
	ledger := NewLedger()

	t.Run("base pool decrements", func(t *testing.T) {
		db := newFakeDB()
		db.products["p1"] = 5

		if err := ledger.Decrement(ctx, db, Selection{ProductID: "p1"}, 3); err != nil {
			t.Fatalf("decrement: %v", err)
		}
		if db.products["p1"] != 2 {
			t.Fatalf("stock = %d, want 2", db.products["p1"])
		}
	})

	t.Run("refuses to go negative", func(t *testing.T) {
		db := newFakeDB()
		db.products["p1"] = 1

		err := ledger.Decrement(ctx, db, Selection{ProductID: "p1"}, 2)
		if !errors.Is(err, ErrInsufficientStock) {
			t.Fatalf("err = %v, want ErrInsufficientStock", err)
		}
		if db.products["p1"] != 1 {
			t.Fatalf("stock mutated on refusal: %d", db.products["p1"])
		}
	})

	t.Run("variant pool moves aggregate too", func(t *testing.T) {
		db := newFakeDB()
		db.products["p1"] = 6
		db.variants["p1|120x180"] = 4

		sel := Selection{ProductID: "p1", VariantLabel: "120x180"}
		if err := ledger.Decrement(ctx, db, sel, 4); err != nil {
			t.Fatalf("decrement: %v", err)
		}
		if db.variants["p1|120x180"] != 0 {
			t.Fatalf("variant stock = %d, want 0", db.variants["p1|120x180"])
		}
		if db.products["p1"] != 2 {
			t.Fatalf("aggregate stock = %d, want 2", db.products["p1"])
		}
	})

	t.Run("short variant pool refused", func(t *testing.T) {
		db := newFakeDB()
		db.products["p1"] = 6
		db.variants["p1|120x180"] = 1

		sel := Selection{ProductID: "p1", VariantLabel: "120x180"}
		err := ledger.Decrement(ctx, db, sel, 2)
		if !errors.Is(err, ErrInsufficientStock) {
			t.Fatalf("err = %v, want ErrInsufficientStock", err)
		}
		if db.variants["p1|120x180"] != 1 || db.products["p1"] != 6 {
			t.Fatalf("pools mutated on refusal: %+v %+v", db.variants, db.products)
		}
	})

	t.Run("missing selection", func(t *testing.T) {
		db := newFakeDB()
		db.products["p1"] = 6

		err := ledger.Decrement(ctx, db, Selection{ProductID: "p1", ColorName: "teak"}, 1)
		if !errors.Is(err, ErrNotFound) {
			t.Fatalf("err = %v, want ErrNotFound", err)
		}
	})
}

func TestLedgerIncrement(t *testing.T) {
	ctx := context.Background()
	ledger := NewLedger()

	db := newFakeDB()
	db.products["p1"] = 0
	db.colors["p1|walnut"] = 0

	sel := Selection{ProductID: "p1", ColorName: "walnut"}
	if err := ledger.Increment(ctx, db, sel, 3); err != nil {
		t.Fatalf("increment: %v", err)
	}
	if db.colors["p1|walnut"] != 3 || db.products["p1"] != 3 {
		t.Fatalf("pools after increment: %+v %+v", db.colors, db.products)
	}

	if err := ledger.Increment(ctx, db, Selection{ProductID: "missing"}, 1); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown product, got %v", err)
	}
}

func TestLedgerSoldCount(t *testing.T) {
	ctx := context.Background()
	ledger := NewLedger()

	db := newFakeDB()
	db.products["p1"] = 10

	if err := ledger.RecordSale(ctx, db, "p1", 3); err != nil {
		t.Fatalf("record sale: %v", err)
	}
	if db.sold["p1"] != 3 {
		t.Fatalf("sold = %d, want 3", db.sold["p1"])
	}

	// Floors at zero, never negative.
	if err := ledger.UnrecordSale(ctx, db, "p1", 5); err != nil {
		t.Fatalf("unrecord sale: %v", err)
	}
	if db.sold["p1"] != 0 {
		t.Fatalf("sold = %d, want 0", db.sold["p1"])
	}
}

// fakeDB implements Querier over in-memory counters, dispatching on SQL shape
// the same way the real schema would.
type fakeDB struct {
	products map[string]int
	variants map[string]int // productID|label
	colors   map[string]int // productID|name
	sold     map[string]int
}

func newFakeDB() *fakeDB {
	return &fakeDB{
		products: map[string]int{},
		variants: map[string]int{},
		colors:   map[string]int{},
		sold:     map[string]int{},
	}
}

func (f *fakeDB) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	switch {
	case strings.Contains(sql, "product_variants"):
		key := args[0].(string) + "|" + args[1].(string)
		if v, ok := f.variants[key]; ok {
			return fakeRow{values: []any{v}}
		}
	case strings.Contains(sql, "product_colors"):
		key := args[0].(string) + "|" + args[1].(string)
		if v, ok := f.colors[key]; ok {
			return fakeRow{values: []any{v}}
		}
	default:
		if v, ok := f.products[args[0].(string)]; ok {
			return fakeRow{values: []any{v}}
		}
	}
	return fakeRow{err: pgx.ErrNoRows}
}

func (f *fakeDB) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	rows := 0
	switch {
	case strings.Contains(sql, "sold_count = sold_count +"):
		if _, ok := f.products[args[0].(string)]; ok {
			f.sold[args[0].(string)] += args[1].(int)
			rows = 1
		}
	case strings.Contains(sql, "GREATEST(sold_count"):
		if _, ok := f.products[args[0].(string)]; ok {
			f.sold[args[0].(string)] -= args[1].(int)
			if f.sold[args[0].(string)] < 0 {
				f.sold[args[0].(string)] = 0
			}
			rows = 1
		}
	case strings.Contains(sql, "product_variants SET stock = stock -"):
		key := args[0].(string) + "|" + args[1].(string)
		if v, ok := f.variants[key]; ok && v >= args[2].(int) {
			f.variants[key] = v - args[2].(int)
			rows = 1
		}
	case strings.Contains(sql, "product_colors SET stock = stock -"):
		key := args[0].(string) + "|" + args[1].(string)
		if v, ok := f.colors[key]; ok && v >= args[2].(int) {
			f.colors[key] = v - args[2].(int)
			rows = 1
		}
	case strings.Contains(sql, "products SET stock = stock -"):
		if v, ok := f.products[args[0].(string)]; ok && v >= args[1].(int) {
			f.products[args[0].(string)] = v - args[1].(int)
			rows = 1
		}
	case strings.Contains(sql, "product_variants SET stock = stock +"):
		key := args[0].(string) + "|" + args[1].(string)
		if _, ok := f.variants[key]; ok {
			f.variants[key] += args[2].(int)
			rows = 1
		}
	case strings.Contains(sql, "product_colors SET stock = stock +"):
		key := args[0].(string) + "|" + args[1].(string)
		if _, ok := f.colors[key]; ok {
			f.colors[key] += args[2].(int)
			rows = 1
		}
	case strings.Contains(sql, "products SET stock = stock +"):
		if _, ok := f.products[args[0].(string)]; ok {
			f.products[args[0].(string)] += args[1].(int)
			rows = 1
		}
	}

	if rows == 1 {
		return pgconn.NewCommandTag("UPDATE 1"), nil
	}
	return pgconn.NewCommandTag("UPDATE 0"), nil
}

type fakeRow struct {
	values []any
	err    error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	for i, v := range r.values {
		switch d := dest[i].(type) {
		case *string:
			*d = v.(string)
		case *int:
			*d = v.(int)
		default:
			return errors.New("unsupported scan dest")
		}
	}
	return nil
}
