package etl_test

import (
	"testing"

	"bitbucket.org/mmdatafocus/resto_backend/etl"
	"github.com/shopspring/decimal"
)

func TestQuantityPolicyFlagsOnlyImplausibleValues(t *testing.T) {
	policy := etl.DefaultQuantityPolicy()

	cases := []struct {
		quantity string
		unit     string
		flagged  bool
	}{
		{"5", "kg", false},
		{"9999", "g", false},
		{"10001", "g", true},
		{"100001", "ml", true},
		{"99999", "ml", false},
		{"100001", "", true},
		{"99999", "", false},
		{"1000001", "kg", true},
		{"0", "g", false},
		{"-50", "g", false},
	}
	for _, c := range cases {
		flagged, msg := policy.Check(decimal.RequireFromString(c.quantity), c.unit)
		if flagged != c.flagged {
			t.Errorf("Check(%s, %q) flagged = %v, want %v", c.quantity, c.unit, flagged, c.flagged)
		}
		if flagged && msg == "" {
			t.Errorf("Check(%s, %q) flagged without a message", c.quantity, c.unit)
		}
	}
}
