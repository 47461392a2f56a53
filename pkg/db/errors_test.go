package db

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

func TestIsUniqueViolation(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "unrelated", err: errors.New("connection refused"), want: false},
		{
			name: "pgconn unique violation",
			err:  &pgconn.PgError{Code: "23505", ConstraintName: "products_sku_key"},
			want: true,
		},
		{
			name: "pgconn other code",
			err:  &pgconn.PgError{Code: "23503"},
			want: false,
		},
		{
			name: "pq unique violation",
			err:  &pq.Error{Code: "23505"},
			want: true,
		},
		{
			name: "wrapped pgconn error",
			err:  fmt.Errorf("create product: %w", &pgconn.PgError{Code: "23505"}),
			want: true,
		},
		{
			name: "sqlite message",
			err:  errors.New("UNIQUE constraint failed: customers.phone"),
			want: true,
		},
		{
			name: "postgres message fallback",
			err:  errors.New(`duplicate key value violates unique constraint "customers_phone_key"`),
			want: true,
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := IsUniqueViolation(tc.err); got != tc.want {
				t.Fatalf("IsUniqueViolation(%v) = %v, want %v", tc.err, got, tc.want)
			}
		})
	}
}
