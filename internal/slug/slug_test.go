package slug

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMake(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Acme Dental", "acme-dental"},
		{"  Acme   Dental  ", "acme-dental"},
		{"Café Zürich & Co.", "cafe-zurich-co"},
		{"Smith_&_Sons -- Plumbing", "smith-sons-plumbing"},
		{"Dr. O'Neil's Clinic!", "dr-oneils-clinic"},
		{"---", ""},
		{"ÅÉÎÕÜ", "aeiou"},
		{"123 Main St", "123-main-st"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Make(tt.in))
		})
	}
}

func TestMakeOutputAlphabet(t *testing.T) {
	shape := regexp.MustCompile(`^([a-z0-9]+(-[a-z0-9]+)*)?$`)
	inputs := []string{
		"Über Café", "a__b", "-lead-", "tab\tseparated\nlines", "emoji 😀 shop", "ß straße", "  ",
	}
	for _, in := range inputs {
		got := Make(in)
		assert.Regexp(t, shape, got, "input %q", in)
	}
}

func TestValid(t *testing.T) {
	assert.True(t, Valid("acme-dental"))
	assert.True(t, Valid("acme-dental-2"))
	assert.False(t, Valid(""))
	assert.False(t, Valid("-acme"))
	assert.False(t, Valid("acme--dental"))
	assert.False(t, Valid("Acme"))
	assert.False(t, Valid("acme_dental"))
}

func takenSet(slugs ...string) (ExistsFunc, *int) {
	taken := map[string]bool{}
	for _, s := range slugs {
		taken[s] = true
	}
	calls := 0
	return func(_ context.Context, s string) (bool, error) {
		calls++
		return taken[s], nil
	}, &calls
}

func TestGenerateUnique(t *testing.T) {
	ctx := context.Background()

	t.Run("free base", func(t *testing.T) {
		exists, calls := takenSet()
		got, err := GenerateUnique(ctx, "acme", exists, 0)
		require.NoError(t, err)
		assert.Equal(t, "acme", got)
		assert.Equal(t, 1, *calls)
	})

	t.Run("first free suffix", func(t *testing.T) {
		exists, calls := takenSet("acme", "acme-2")
		got, err := GenerateUnique(ctx, "acme", exists, 0)
		require.NoError(t, err)
		assert.Equal(t, "acme-3", got)
		assert.Equal(t, 3, *calls)
	})

	t.Run("gap is filled", func(t *testing.T) {
		exists, _ := takenSet("acme", "acme-3")
		got, err := GenerateUnique(ctx, "acme", exists, 0)
		require.NoError(t, err)
		assert.Equal(t, "acme-2", got)
	})

	t.Run("exhausted", func(t *testing.T) {
		exists, calls := takenSet("acme", "acme-2", "acme-3")
		_, err := GenerateUnique(ctx, "acme", exists, 3)
		require.ErrorIs(t, err, ErrSlugExhausted)
		assert.Equal(t, 3, *calls)
	})

	t.Run("predicate error", func(t *testing.T) {
		boom := errors.New("store down")
		_, err := GenerateUnique(ctx, "acme", func(context.Context, string) (bool, error) {
			return false, boom
		}, 0)
		require.ErrorIs(t, err, boom)
	})

	t.Run("empty base", func(t *testing.T) {
		exists, _ := takenSet()
		_, err := GenerateUnique(ctx, "", exists, 0)
		assert.Error(t, err)
	})
}
