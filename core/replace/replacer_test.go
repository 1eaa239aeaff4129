package replace

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReplace_MirrorsCasing(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "upper", in: "YALE", want: "FALE"},
		{name: "lower", in: "yale", want: "fale"},
		{name: "title", in: "Yale", want: "Fale"},
		{name: "mixed", in: "yAlE", want: "fAlE"},
		{name: "mixed_upper_start", in: "YaLe", want: "FaLe"},
		{name: "in_sentence", in: "Welcome to Yale University", want: "Welcome to Fale University"},
		{name: "several", in: "Yale Yale yale", want: "Fale Fale fale"},
		{name: "inside_word", in: "Yalesville", want: "Falesville"},
		{name: "adjacent", in: "YaleYALE", want: "FaleFALE"},
		{name: "punctuation_around", in: "(Yale), 'yale'.", want: "(Fale), 'fale'."},
		{name: "multibyte_neighbours", in: "café Yale — naïve", want: "café Fale — naïve"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Replace(tt.in, "Yale", "Fale"))
		})
	}
}

func TestReplace_Identity(t *testing.T) {
	for _, in := range []string{"", "no match here", "Yal e", "Ya le", "https://example.com"} {
		assert.Equal(t, in, Replace(in, "Yale", "Fale"), "input %q", in)
	}
}

func TestReplace_InvisibleAndCompatibilityCharacters(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "soft_hyphen_between_matches", in: "yale\u00adYale", want: "fale\u00adFale"},
		{name: "soft_hyphen_before_match", in: "Ca\u00adyale", want: "Ca\u00adfale"},
		{name: "soft_hyphen_after_match", in: "Yale\u00adNews", want: "Fale\u00adNews"},
		{name: "zero_width_space_before", in: "Go\u200byale", want: "Go\u200bfale"},
		{name: "zero_width_space_between", in: "y1\u200bYALE", want: "y1\u200bFALE"},
		{name: "soft_hyphen_inside_is_no_match", in: "Ya\u00adle", want: "Ya\u00adle"},
		{name: "combining_mark_after", in: "Yale\u0301", want: "Fale\u0301"},
		{name: "fullwidth_is_no_match", in: "\uff39\uff21\uff2c\uff25", want: "\uff39\uff21\uff2c\uff25"},
		{name: "circled_is_no_match", in: "\u24e8\u24d0\u24db\u24d4", want: "\u24e8\u24d0\u24db\u24d4"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Replace(tt.in, "Yale", "Fale"))
		})
	}

	t.Run("ligature_is_no_match", func(t *testing.T) {
		assert.Equal(t, "\ufb01le", Replace("\ufb01le", "file", "pile"))
	})
	t.Run("target_with_pattern_characters", func(t *testing.T) {
		assert.Equal(t, "x+Y and aXb", Replace("a.B and aXb", "a.b", "x+y"))
	})
}

func TestReplace_EmptyTarget(t *testing.T) {
	assert.Equal(t, "Yale", Replace("Yale", "", "Fale"))
}

func TestReplace_Idempotent(t *testing.T) {
	r := New(Pair{Target: "Yale", Replacement: "Fale"})
	for _, in := range []string{"Yale", "yAlE and YALE", "Visit Yale, then yale.edu"} {
		once := r.Replace(in)
		assert.Equal(t, once, r.Replace(once), "input %q", in)
	}
}

func TestReplace_LengthMismatch(t *testing.T) {
	t.Run("longer_replacement", func(t *testing.T) {
		assert.Equal(t, "Fale University", Replace("Yale", "Yale", "Fale University"))
		assert.Equal(t, "FALE University", Replace("YALE", "Yale", "Fale University"))
		assert.Equal(t, "fale University", Replace("yale", "Yale", "Fale University"))
	})
	t.Run("shorter_replacement", func(t *testing.T) {
		assert.Equal(t, "FU is here", Replace("FALE is here", "Fale", "fu"))
		assert.Equal(t, "fu is here", Replace("fale is here", "Fale", "FU"))
	})
	t.Run("uncased_positions_keep_replacement_case", func(t *testing.T) {
		assert.Equal(t, "Ab9x", Replace("4x2y", "4X2y", "Ab9x"))
	})
}

func TestReplacer_ReplaceCount(t *testing.T) {
	r := New(Pair{Target: "Yale", Replacement: "Fale"})

	out, n := r.ReplaceCount("Yale Yale yale")
	assert.Equal(t, "Fale Fale fale", out)
	assert.Equal(t, 3, n)

	out, n = r.ReplaceCount("nothing")
	assert.Equal(t, "nothing", out)
	assert.Zero(t, n)
}

func TestReplacer_NonOverlapping(t *testing.T) {
	out, n := New(Pair{Target: "aa", Replacement: "b"}).ReplaceCount("aaaaa")
	assert.Equal(t, "bba", out)
	assert.Equal(t, 2, n)
}

func TestReplacer_Concurrent(t *testing.T) {
	r := New(Pair{Target: "Yale", Replacement: "Fale"})
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				assert.Equal(t, "FALE fale", r.Replace("YALE yale"))
			}
		}()
	}
	wg.Wait()
}

func TestPair_Validate(t *testing.T) {
	require.NoError(t, Pair{Target: "Yale", Replacement: "Fale"}.Validate())
	require.ErrorIs(t, Pair{Replacement: "Fale"}.Validate(), ErrEmptyTarget)
}
