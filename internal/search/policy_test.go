package search

import (
	"context"
	"errors"
	"testing"
	"time"

	"curatordash/searchservice/internal/domain"
)

func newTierPair(t *testing.T, free, premium []Provider) *Selector {
	t.Helper()
	freeSvc := newTestService(t, free, WithTier("free"), WithSearchMethod("free-aggregation"))
	var premiumSvc *Service
	if premium != nil {
		premiumSvc = newTestService(t, premium, WithTier("premium"), WithMaxResults(100), WithSearchMethod("premium-api"))
	}
	return NewSelector(freeSvc, premiumSvc, nil)
}

func TestSelectorUsesPremiumWhenConfigured(t *testing.T) {
	free := &fakeProvider{name: "qiita", results: []domain.Result{result("https://example.com/free", time.Hour)}}
	premium := &gatedProvider{
		fakeProvider: fakeProvider{name: "google", results: []domain.Result{result("https://example.com/premium", time.Hour)}},
		enabled:      true,
	}

	selector := newTierPair(t, []Provider{free}, []Provider{premium})
	response, err := selector.Search(context.Background(), domain.SearchRequest{Keywords: []string{"go"}}, true)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if response.Source != "premium" {
		t.Errorf("Source = %q", response.Source)
	}
	if free.fetches != 0 {
		t.Errorf("free provider fetched %d times", free.fetches)
	}
	if !response.Metadata.AvailableAPIs["google"] {
		t.Errorf("AvailableAPIs = %v", response.Metadata.AvailableAPIs)
	}
}

func TestSelectorFallsBackWhenPremiumUnconfigured(t *testing.T) {
	free := &fakeProvider{name: "qiita", results: []domain.Result{result("https://example.com/free", time.Hour)}}
	premium := &gatedProvider{fakeProvider: fakeProvider{name: "google"}, enabled: false}

	selector := newTierPair(t, []Provider{free}, []Provider{premium})
	response, err := selector.Search(context.Background(), domain.SearchRequest{Keywords: []string{"go"}}, true)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if response.Source != "free" {
		t.Errorf("Source = %q", response.Source)
	}
	if response.Metadata.AvailableAPIs["google"] {
		t.Error("disabled premium provider reported as available")
	}
}

func TestSelectorFallsBackOnPremiumFailure(t *testing.T) {
	free := &fakeProvider{name: "qiita", results: []domain.Result{result("https://example.com/free", time.Hour)}}
	// All premium providers erroring still yields a successful empty
	// response, not an error, so the fallback here is the no-providers
	// case: a premium service with nothing registered.
	selector := newTierPair(t, []Provider{free}, []Provider{})

	response, err := selector.Search(context.Background(), domain.SearchRequest{Keywords: []string{"go"}}, true)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if response.Source != "free" || response.Count != 1 {
		t.Fatalf("expected free fallback, got source=%q count=%d", response.Source, response.Count)
	}
}

func TestSelectorIgnoresPremiumWhenNotRequested(t *testing.T) {
	free := &fakeProvider{name: "qiita", results: []domain.Result{result("https://example.com/free", time.Hour)}}
	premium := &gatedProvider{
		fakeProvider: fakeProvider{name: "google", results: []domain.Result{result("https://example.com/premium", time.Hour)}},
		enabled:      true,
	}

	selector := newTierPair(t, []Provider{free}, []Provider{premium})
	response, err := selector.Search(context.Background(), domain.SearchRequest{Keywords: []string{"go"}}, false)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if premium.fetches != 0 {
		t.Errorf("premium provider fetched %d times", premium.fetches)
	}
	if response.Source != "free" {
		t.Errorf("Source = %q", response.Source)
	}
}

func TestSelectorDropsForeignSourceNames(t *testing.T) {
	free := &fakeProvider{name: "qiita", results: []domain.Result{result("https://example.com/free", time.Hour)}}
	premium := &gatedProvider{
		fakeProvider: fakeProvider{name: "google", results: []domain.Result{result("https://example.com/premium", time.Hour)}},
		enabled:      true,
	}

	selector := newTierPair(t, []Provider{free}, []Provider{premium})
	// A tab configured with free sources opting into premium search must
	// not fail provider resolution on the premium tier.
	response, err := selector.Search(context.Background(), domain.SearchRequest{
		Keywords: []string{"go"},
		Sources:  []string{"qiita"},
	}, true)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if response.Source != "premium" {
		t.Errorf("Source = %q", response.Source)
	}
}

func TestSelectorKeywordErrorNotMasked(t *testing.T) {
	free := &fakeProvider{name: "qiita"}
	premium := &gatedProvider{fakeProvider: fakeProvider{name: "google"}, enabled: true}

	selector := newTierPair(t, []Provider{free}, []Provider{premium})
	_, err := selector.Search(context.Background(), domain.SearchRequest{}, true)
	if !errors.Is(err, ErrNoKeywords) {
		t.Fatalf("expected ErrNoKeywords, got %v", err)
	}
}
