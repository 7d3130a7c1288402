package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := LoadForTests(map[string]string{
		"RATES_BASE_URL":        "http://rates.local",
		"STORE_ID":              "store-1",
		"PORT":                  "",
		"RATES_CACHE_TTL":       "",
		"CALC_TAXES":            "",
		"PRICES_INCLUDE_TAX":    "",
		"TAX_ROUND_AT_SUBTOTAL": "",
		"TAX_DISPLAY_SHOP":      "",
		"TAX_DISPLAY_CART":      "",
	})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != "8080" {
		t.Fatalf("unexpected default port %q", cfg.Port)
	}
	if cfg.RatesCacheTTL != 5*time.Minute {
		t.Fatalf("unexpected cache ttl %v", cfg.RatesCacheTTL)
	}
	if !cfg.CalcTaxes {
		t.Fatal("expected tax calculation enabled by default")
	}
	if cfg.PricesIncludeTax || cfg.TaxRoundAtSubtotal {
		t.Fatal("expected inclusive pricing and subtotal rounding off by default")
	}
	if cfg.TaxDisplayShop != "excl" || cfg.TaxDisplayCart != "excl" {
		t.Fatalf("unexpected display defaults %q/%q", cfg.TaxDisplayShop, cfg.TaxDisplayCart)
	}
	if cfg.HTTPAddr() != ":8080" {
		t.Fatalf("unexpected addr %q", cfg.HTTPAddr())
	}
}

func TestLoadRequiresRatesBackend(t *testing.T) {
	if _, err := LoadForTests(map[string]string{
		"RATES_BASE_URL": "",
		"STORE_ID":       "store-1",
	}); err == nil {
		t.Fatal("expected missing RATES_BASE_URL to fail")
	}
	if _, err := LoadForTests(map[string]string{
		"RATES_BASE_URL": "http://rates.local",
		"STORE_ID":       "",
	}); err == nil {
		t.Fatal("expected missing STORE_ID to fail")
	}
}

func TestLoadSettings(t *testing.T) {
	cfg, err := LoadForTests(map[string]string{
		"RATES_BASE_URL":        "http://rates.local",
		"STORE_ID":              "store-1",
		"CALC_TAXES":            "false",
		"PRICES_INCLUDE_TAX":    "yes",
		"TAX_ROUND_AT_SUBTOTAL": "1",
		"SHIPPING_TAX_CLASS":    "reduced",
		"TAX_DISPLAY_SHOP":      "incl",
		"RATES_CACHE_TTL":       "90s",
	})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.CalcTaxes {
		t.Fatal("expected tax calculation disabled")
	}
	if !cfg.PricesIncludeTax || !cfg.TaxRoundAtSubtotal {
		t.Fatal("expected inclusive pricing and subtotal rounding enabled")
	}
	if cfg.ShippingTaxClass != "reduced" {
		t.Fatalf("unexpected shipping class %q", cfg.ShippingTaxClass)
	}
	if cfg.TaxDisplayShop != "incl" {
		t.Fatalf("unexpected shop display %q", cfg.TaxDisplayShop)
	}
	if cfg.RatesCacheTTL != 90*time.Second {
		t.Fatalf("unexpected ttl %v", cfg.RatesCacheTTL)
	}
}
