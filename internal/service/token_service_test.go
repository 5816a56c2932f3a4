package service

import (
	"Herald/internal/pkg/mongo"
	"context"
	"errors"
	"testing"
	"time"
)

type fakeBundleRepo struct {
	bundles map[uint64]*mongo.TokenBundleModel
	getErr  error
	saveErr error
	saves   int
}

func newFakeBundleRepo() *fakeBundleRepo {
	return &fakeBundleRepo{bundles: make(map[uint64]*mongo.TokenBundleModel)}
}

func (f *fakeBundleRepo) Get(_ context.Context, userID uint64) (*mongo.TokenBundleModel, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	bundle, ok := f.bundles[userID]
	if !ok {
		return nil, nil
	}
	return bundle, nil
}

func (f *fakeBundleRepo) Save(_ context.Context, bundle *mongo.TokenBundleModel) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saves++
	f.bundles[bundle.UserID] = bundle
	return nil
}

func (f *fakeBundleRepo) ListStaleCandidates(_ context.Context, cutoff time.Time, _ int64) ([]*mongo.TokenBundleModel, error) {
	var list []*mongo.TokenBundleModel
	for _, b := range f.bundles {
		if b.UpdatedAt.Before(cutoff) {
			list = append(list, b)
		}
	}
	return list, nil
}

func newTestTokenService(repo *fakeBundleRepo, limit int) TokenService {
	return NewTokenService(repo, limit, 90)
}

func TestRegisterCreatesBundle(t *testing.T) {
	repo := newFakeBundleRepo()
	svc := newTestTokenService(repo, 5)

	bundle, err := svc.Register(context.Background(), 1, "t1", "android")
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if len(bundle.Tokens) != 1 {
		t.Fatalf("token count = %d, want 1", len(bundle.Tokens))
	}
	if bundle.Tokens[0].Token != "t1" || bundle.Tokens[0].Platform != "android" {
		t.Errorf("unexpected token: %+v", bundle.Tokens[0])
	}
	if bundle.Preferences == nil {
		t.Error("preferences map should be initialized")
	}
}

func TestRegisterIdempotent(t *testing.T) {
	repo := newFakeBundleRepo()
	svc := newTestTokenService(repo, 5)
	ctx := context.Background()

	if _, err := svc.Register(ctx, 1, "t1", "android"); err != nil {
		t.Fatal(err)
	}
	bundle, err := svc.Register(ctx, 1, "t1", "ios")
	if err != nil {
		t.Fatal(err)
	}
	if len(bundle.Tokens) != 1 {
		t.Fatalf("token count = %d, want 1", len(bundle.Tokens))
	}
	if bundle.Tokens[0].Platform != "ios" {
		t.Errorf("platform should be refreshed, got %s", bundle.Tokens[0].Platform)
	}
}

// 登出后重新注册同一令牌：最终只有一条且不带登出标记
func TestRegisterAfterLogout(t *testing.T) {
	repo := newFakeBundleRepo()
	svc := newTestTokenService(repo, 5)
	ctx := context.Background()

	if _, err := svc.Register(ctx, 1, "t1", "android"); err != nil {
		t.Fatal(err)
	}
	if err := svc.Logout(ctx, 1); err != nil {
		t.Fatal(err)
	}
	bundle, err := svc.Register(ctx, 1, "t1", "android")
	if err != nil {
		t.Fatal(err)
	}
	if len(bundle.Tokens) != 1 {
		t.Fatalf("token count = %d, want 1", len(bundle.Tokens))
	}
	if bundle.Tokens[0].LoggedOut {
		t.Error("token should not be logged out after re-register")
	}
}

func TestRegisterEvictsOldest(t *testing.T) {
	repo := newFakeBundleRepo()
	now := time.Now()
	repo.bundles[1] = &mongo.TokenBundleModel{
		UserID: 1,
		Tokens: []mongo.DeviceToken{
			{Token: "old", CreatedAt: now.Add(-2 * time.Hour), LastActiveAt: now},
			{Token: "mid", CreatedAt: now.Add(-1 * time.Hour), LastActiveAt: now},
		},
		Preferences: map[string]bool{},
	}
	svc := newTestTokenService(repo, 2)

	bundle, err := svc.Register(context.Background(), 1, "new", "android")
	if err != nil {
		t.Fatal(err)
	}
	if len(bundle.Tokens) != 2 {
		t.Fatalf("token count = %d, want 2", len(bundle.Tokens))
	}
	for _, tok := range bundle.Tokens {
		if tok.Token == "old" {
			t.Error("oldest token should be evicted")
		}
	}
}

// 注册时顺带清理：登出的和超过保留期不活跃的令牌被剔除
func TestRegisterCleansStale(t *testing.T) {
	repo := newFakeBundleRepo()
	now := time.Now()
	repo.bundles[1] = &mongo.TokenBundleModel{
		UserID: 1,
		Tokens: []mongo.DeviceToken{
			{Token: "loggedout", CreatedAt: now, LastActiveAt: now, LoggedOut: true},
			{Token: "expired", CreatedAt: now.AddDate(0, 0, -120), LastActiveAt: now.AddDate(0, 0, -120)},
			{Token: "fresh", CreatedAt: now, LastActiveAt: now},
		},
		Preferences: map[string]bool{},
	}
	svc := newTestTokenService(repo, 5)

	bundle, err := svc.Register(context.Background(), 1, "new", "android")
	if err != nil {
		t.Fatal(err)
	}
	if len(bundle.Tokens) != 2 {
		t.Fatalf("token count = %d, want 2 (fresh + new)", len(bundle.Tokens))
	}
	for _, tok := range bundle.Tokens {
		if tok.Token == "loggedout" || tok.Token == "expired" {
			t.Errorf("stale token %s should be removed", tok.Token)
		}
	}
}

func TestSetPreferences(t *testing.T) {
	repo := newFakeBundleRepo()
	svc := newTestTokenService(repo, 5)
	ctx := context.Background()

	err := svc.SetPreferences(ctx, 1, map[string]bool{"chat": false})
	if !errors.Is(err, ErrBundleNotFound) {
		t.Fatalf("error = %v, want ErrBundleNotFound", err)
	}

	if _, err = svc.Register(ctx, 1, "t1", "android"); err != nil {
		t.Fatal(err)
	}
	if err = svc.SetPreferences(ctx, 1, map[string]bool{"chat": false}); err != nil {
		t.Fatal(err)
	}
	if err = svc.SetPreferences(ctx, 1, map[string]bool{"social": false}); err != nil {
		t.Fatal(err)
	}

	prefs := repo.bundles[1].Preferences
	if prefs["chat"] != false || prefs["social"] != false {
		t.Errorf("preferences should merge, got %v", prefs)
	}
}

func TestRemoveToken(t *testing.T) {
	repo := newFakeBundleRepo()
	svc := newTestTokenService(repo, 5)
	ctx := context.Background()

	if err := svc.Remove(ctx, 1, "t1"); !errors.Is(err, ErrTokenNotFound) {
		t.Fatalf("error = %v, want ErrTokenNotFound", err)
	}

	if _, err := svc.Register(ctx, 1, "t1", "android"); err != nil {
		t.Fatal(err)
	}
	if err := svc.Remove(ctx, 1, "missing"); !errors.Is(err, ErrTokenNotFound) {
		t.Fatalf("error = %v, want ErrTokenNotFound", err)
	}
	if err := svc.Remove(ctx, 1, "t1"); err != nil {
		t.Fatal(err)
	}
	if len(repo.bundles[1].Tokens) != 0 {
		t.Error("token should be removed")
	}
}

func TestPruneFailed(t *testing.T) {
	repo := newFakeBundleRepo()
	svc := newTestTokenService(repo, 5)
	ctx := context.Background()

	for _, tok := range []string{"a", "b", "c"} {
		if _, err := svc.Register(ctx, 1, tok, "android"); err != nil {
			t.Fatal(err)
		}
	}

	bundle, err := svc.PruneFailed(ctx, 1, []string{"b"})
	if err != nil {
		t.Fatal(err)
	}
	if len(bundle.Tokens) != 2 {
		t.Fatalf("token count = %d, want 2", len(bundle.Tokens))
	}
	for _, tok := range bundle.Tokens {
		if tok.Token == "b" {
			t.Error("failed token should be pruned")
		}
	}

	// 空列表直接短路
	saves := repo.saves
	if _, err = svc.PruneFailed(ctx, 1, nil); err != nil {
		t.Fatal(err)
	}
	if repo.saves != saves {
		t.Error("empty prune should not write")
	}
}

func TestPreferenceEnabled(t *testing.T) {
	if !PreferenceEnabled(nil, "chat") {
		t.Error("nil bundle should default to enabled")
	}

	bundle := &mongo.TokenBundleModel{Preferences: map[string]bool{"chat": false, "social": true}}
	if PreferenceEnabled(bundle, "chat") {
		t.Error("explicitly disabled category should be off")
	}
	if !PreferenceEnabled(bundle, "social") {
		t.Error("explicitly enabled category should be on")
	}
	if !PreferenceEnabled(bundle, "market") {
		t.Error("missing key should default to enabled")
	}
}
