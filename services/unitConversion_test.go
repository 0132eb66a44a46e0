package services_test

import (
	"context"
	"testing"
	"time"

	"bitbucket.org/mmdatafocus/resto_backend/services"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

func TestFactorIdentityAndEmptyUnits(t *testing.T) {
	ctx := context.Background()
	resolver := services.NewUnitConversionResolver(nil, nil)

	factor, found, err := resolver.Factor(ctx, nil, "kg", "kg")
	if err != nil {
		t.Fatalf("Factor: %v", err)
	}
	if !found || !factor.Equal(decimal.NewFromInt(1)) {
		t.Errorf("identity factor = %s, found = %v", factor, found)
	}

	_, found, err = resolver.Factor(ctx, nil, "", "g")
	if err != nil {
		t.Fatalf("Factor: %v", err)
	}
	if found {
		t.Error("empty from-unit must miss")
	}
	_, found, err = resolver.Factor(ctx, nil, "kg", "")
	if err != nil {
		t.Fatalf("Factor: %v", err)
	}
	if found {
		t.Error("empty to-unit must miss")
	}
}

func TestFactorServedFromCache(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	cache := services.NewCache(client, "conversion", time.Minute)

	type factorResult struct {
		Factor decimal.Decimal `json:"factor"`
		Found  bool            `json:"found"`
	}

	// pre-warm one hit and one recorded miss so resolution needs no database
	cache.Set(ctx, "factor:0:tin:g", factorResult{Factor: decimal.NewFromInt(150), Found: true})
	cache.Set(ctx, "factor:0:tonneau:l", factorResult{Found: false})

	resolver := services.NewUnitConversionResolver(nil, cache)

	factor, found, err := resolver.Factor(ctx, nil, "tin", "g")
	if err != nil {
		t.Fatalf("Factor: %v", err)
	}
	if !found || !factor.Equal(decimal.NewFromInt(150)) {
		t.Errorf("cached factor = %s, found = %v", factor, found)
	}

	// a cached miss is still an answer, not a reason to hit the database
	_, found, err = resolver.Factor(ctx, nil, "tonneau", "l")
	if err != nil {
		t.Fatalf("Factor: %v", err)
	}
	if found {
		t.Error("cached miss must stay a miss")
	}
}
