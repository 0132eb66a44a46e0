package services

import (
	"context"
	"strings"

	"bitbucket.org/mmdatafocus/resto_backend/config"
	"bitbucket.org/mmdatafocus/resto_backend/models"
	"gorm.io/gorm"
)

// legacy consolidation table carried over from the first cleanup scripts;
// keys are lowercased raw names, values the canonical product name
var legacyConsolidations = map[string]string{
	"poulet cru (kg)":            "Poulet (Entier)",
	"poulet (unité) (entier)":    "Poulet (Entier)",
	"poulet (unité) (quartier)":  "Poulet (Entier)",
	"ailes de poulet cru (kg)":   "Ailes de Poulet au paprika",
	"filet de bœuf":              "FAUX FILET",
	"pomme de terre allumettes":  "Pommes de terre",
	"pommes de terre allumettes": "Pommes de terre",
	"mayonnaise armanti":         "Sauce Mayo",
	"mayonnaise calve 820ml":     "Sauce Mayo",
	"huile de tournesol":         "Huile de Palme",
}

// ConsolidationResolver maps raw product names onto their canonical
// product. Order: legacy table, persisted verified rules, identity.
type ConsolidationResolver struct {
	db    *gorm.DB
	cache *Cache
}

func NewConsolidationResolver(db *gorm.DB, cache *Cache) *ConsolidationResolver {
	return &ConsolidationResolver{db: db, cache: cache}
}

// Resolution is what downstream consumers key consolidated artifacts on.
type Resolution struct {
	CanonicalName string `json:"canonical_name"`
	Consolidated  bool   `json:"consolidated"`
}

// Resolve returns the canonical name for a raw product name. Unknown names
// resolve to themselves.
func (r *ConsolidationResolver) Resolve(ctx context.Context, name string) (Resolution, error) {
	trimmed := strings.TrimSpace(name)
	key := strings.ToLower(trimmed)
	if key == "" {
		return Resolution{CanonicalName: trimmed}, nil
	}

	var cached Resolution
	if r.cache.Get(ctx, key, &cached) {
		return cached, nil
	}

	resolution := Resolution{CanonicalName: trimmed}
	if canonical, ok := legacyConsolidations[key]; ok {
		resolution = Resolution{CanonicalName: canonical, Consolidated: true}
	} else {
		ruleMap, err := r.ruleMap(ctx)
		if err != nil {
			return Resolution{}, err
		}
		if canonical, ok := ruleMap[key]; ok {
			resolution = Resolution{CanonicalName: canonical, Consolidated: true}
		}
	}

	r.cache.Set(ctx, key, resolution)
	return resolution, nil
}

const ruleMapCacheKey = "__rule_map"

// ruleMap builds member-name -> primary-name from verified rules.
func (r *ConsolidationResolver) ruleMap(ctx context.Context) (map[string]string, error) {
	ruleMap := map[string]string{}
	if r.cache.Get(ctx, ruleMapCacheKey, &ruleMap) {
		return ruleMap, nil
	}

	rules, err := models.GetVerifiedConsolidationRules(ctx, r.db)
	if err != nil {
		return nil, err
	}
	for _, rule := range rules {
		if rule.PrimaryProduct == nil {
			continue
		}
		for _, member := range rule.ConsolidatedNames {
			ruleMap[strings.ToLower(strings.TrimSpace(member))] = rule.PrimaryProduct.Name
		}
	}
	r.cache.Set(ctx, ruleMapCacheKey, ruleMap)
	return ruleMap, nil
}

// CreateRule persists a consolidation rule (cycle-checked in the model
// layer) and invalidates the resolver cache.
func (r *ConsolidationResolver) CreateRule(ctx context.Context, input *models.NewProductConsolidation) (*models.ProductConsolidation, error) {
	rule, err := models.CreateConsolidationRule(ctx, r.db, input)
	if err != nil {
		return nil, err
	}
	if err := r.cache.Invalidate(ctx); err != nil {
		config.LogError(config.GetLogger(), "services", "CreateRule", "cache invalidation", rule.ID, err)
	}
	return rule, nil
}

// DeleteRule removes a rule and invalidates the resolver cache.
func (r *ConsolidationResolver) DeleteRule(ctx context.Context, id int) (*models.ProductConsolidation, error) {
	rule, err := models.DeleteConsolidationRule(ctx, r.db, id)
	if err != nil {
		return nil, err
	}
	if err := r.cache.Invalidate(ctx); err != nil {
		config.LogError(config.GetLogger(), "services", "DeleteRule", "cache invalidation", id, err)
	}
	return rule, nil
}
