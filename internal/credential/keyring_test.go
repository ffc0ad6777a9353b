package credential

import (
	"context"
	"errors"
	"testing"
)

type fakeSelector struct {
	has      bool
	hasErr   error
	openings int
}

func (f *fakeSelector) HasSelectedKey(ctx context.Context) (bool, error) {
	return f.has, f.hasErr
}

func (f *fakeSelector) OpenSelectKey(ctx context.Context) error {
	f.openings++
	return nil
}

func TestKeyringResolve(t *testing.T) {
	t.Setenv("OC_TEST_KEY", "env-key")
	k := NewKeyring("OC_TEST_KEY")
	ctx := context.Background()

	key, err := k.Resolve(ctx)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if key != "env-key" {
		t.Errorf("Expected env-key, got %q", key)
	}

	t.Run("ReadsEnvironmentOnEveryCall", func(t *testing.T) {
		t.Setenv("OC_TEST_KEY", "rotated")
		key, _ := k.Resolve(ctx)
		if key != "rotated" {
			t.Errorf("Expected rotated key, got %q", key)
		}
	})

	t.Run("SelectedKeyWins", func(t *testing.T) {
		if err := k.Select("user-key"); err != nil {
			t.Fatalf("Select() error = %v", err)
		}
		key, _ := k.Resolve(ctx)
		if key != "user-key" {
			t.Errorf("Expected user-key, got %q", key)
		}
		if st := k.Status(); st.Source != "selected" || !st.Selected {
			t.Errorf("Unexpected status: %+v", st)
		}
	})

	t.Run("OpenSelectKeyClearsSelection", func(t *testing.T) {
		k.OpenSelectKey(ctx)
		key, _ := k.Resolve(ctx)
		if key == "user-key" {
			t.Error("Expected selected key to be dropped")
		}
		if !k.Status().SelectionRequested {
			t.Error("Expected selection to be requested")
		}
		k.Select("again")
		if k.Status().SelectionRequested {
			t.Error("Expected Select to clear the request flag")
		}
	})

	t.Run("RejectsEmptyKey", func(t *testing.T) {
		if err := k.Select("   "); err == nil {
			t.Error("Expected error for empty key")
		}
	})

	t.Run("CancelledContext", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		if _, err := k.Resolve(cctx); !errors.Is(err, context.Canceled) {
			t.Errorf("Expected context.Canceled, got %v", err)
		}
	})
}

func TestEnsure(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name         string
		selector     *fakeSelector
		wantOpenings int
	}{
		{name: "no host capability", selector: nil, wantOpenings: 0},
		{name: "key already selected", selector: &fakeSelector{has: true}, wantOpenings: 0},
		{name: "no key selected", selector: &fakeSelector{has: false}, wantOpenings: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var sel Selector
			if tt.selector != nil {
				sel = tt.selector
			}
			key, err := Ensure(ctx, Static("abc"), sel)
			if err != nil {
				t.Fatalf("Ensure() error = %v", err)
			}
			if key != "abc" {
				t.Errorf("Expected key abc, got %q", key)
			}
			if tt.selector != nil && tt.selector.openings != tt.wantOpenings {
				t.Errorf("Expected %d openings, got %d", tt.wantOpenings, tt.selector.openings)
			}
		})
	}

	t.Run("selector failure", func(t *testing.T) {
		_, err := Ensure(ctx, Static("abc"), &fakeSelector{hasErr: errors.New("boom")})
		if err == nil {
			t.Error("Expected error when selector fails")
		}
	})
}
