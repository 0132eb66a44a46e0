package services_test

import (
	"context"
	"testing"
	"time"

	"bitbucket.org/mmdatafocus/resto_backend/services"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestResolveLegacyNames(t *testing.T) {
	ctx := context.Background()
	// the legacy table needs neither DB nor cache
	resolver := services.NewConsolidationResolver(nil, nil)

	cases := []struct {
		in   string
		want string
	}{
		{"Poulet Cru (kg)", "Poulet (Entier)"},
		{"poulet cru (kg)", "Poulet (Entier)"},
		{"POULET (UNITÉ) (ENTIER)", "Poulet (Entier)"},
		{"Mayonnaise Armanti", "Sauce Mayo"},
		{"Huile de Tournesol", "Huile de Palme"},
	}
	for _, c := range cases {
		got, err := resolver.Resolve(ctx, c.in)
		if err != nil {
			t.Fatalf("Resolve(%q): %v", c.in, err)
		}
		if got.CanonicalName != c.want || !got.Consolidated {
			t.Errorf("Resolve(%q) = %+v, want %q (consolidated)", c.in, got, c.want)
		}
	}
}

func TestResolveIdentityAndRuleMap(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	cache := services.NewCache(client, "consolidation", time.Minute)

	// pre-warm the rule map so resolution needs no database
	cache.Set(ctx, "__rule_map", map[string]string{
		"vieux nom": "Nouveau Nom",
	})

	resolver := services.NewConsolidationResolver(nil, cache)

	got, err := resolver.Resolve(ctx, "Vieux Nom")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got.CanonicalName != "Nouveau Nom" || !got.Consolidated {
		t.Errorf("rule-map resolution = %+v", got)
	}

	got, err = resolver.Resolve(ctx, "Produit Inconnu")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got.CanonicalName != "Produit Inconnu" || got.Consolidated {
		t.Errorf("identity resolution = %+v", got)
	}

	// second lookup hits the per-name cache
	got, err = resolver.Resolve(ctx, "Vieux Nom")
	if err != nil {
		t.Fatalf("Resolve (cached): %v", err)
	}
	if got.CanonicalName != "Nouveau Nom" {
		t.Errorf("cached resolution = %+v", got)
	}
}

func TestResolveEmptyName(t *testing.T) {
	resolver := services.NewConsolidationResolver(nil, nil)
	got, err := resolver.Resolve(context.Background(), "   ")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got.CanonicalName != "" || got.Consolidated {
		t.Errorf("empty name resolution = %+v", got)
	}
}
