package tokenizer

import (
	"errors"
	"io"
	"reflect"
	"strings"
	"testing"
	"testing/iotest"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"boundary", "Hello, World! 123 foo", []string{"hello", "world", "foo"}},
		{"empty", "", nil},
		{"no letters", "123 ,.;\n\t 456", nil},
		{"single letter", "a", []string{"a"}},
		{"mixed case", "AbC aBc", []string{"abc", "abc"}},
		{"digits split words", "abc123def", []string{"abc", "def"}},
		{"non ascii bytes split", "caf\xc3\xa9 ok", []string{"caf", "ok"}},
		{"trailing letters at eof", "  end", []string{"end"}},
		{"apostrophe", "don't", []string{"don", "t"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Tokenize(tt.input)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Tokenize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestExactCapEmittedWhole(t *testing.T) {
	word := strings.Repeat("x", DefaultMaxLen)
	got := Tokenize(word + " y")
	want := []string{word, "y"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestOverflowSplit(t *testing.T) {
	run := strings.Repeat("ab", 20)
	got := Tokenize(run + " z")
	if len(got) != 3 {
		t.Fatalf("got %d words %q, want 3", len(got), got)
	}
	if len(got[0]) != DefaultMaxLen {
		t.Errorf("first word has length %d, want %d", len(got[0]), DefaultMaxLen)
	}
	if got[0]+got[1] != run {
		t.Errorf("split words %q + %q do not rebuild the run", got[0], got[1])
	}
	if len(got[1]) != 9 {
		t.Errorf("spillover length = %d, want 9", len(got[1]))
	}
	if got[2] != "z" {
		t.Errorf("last word = %q, want z", got[2])
	}
}

func TestOverflowDrop(t *testing.T) {
	run := strings.Repeat("ab", 20)
	got := Tokenize(run+" z", WithOverflow(OverflowDrop))
	want := []string{run[:DefaultMaxLen], "z"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestOverflowDropAtEOF(t *testing.T) {
	got := Tokenize(strings.Repeat("q", 40), WithOverflow(OverflowDrop))
	if len(got) != 1 || len(got[0]) != DefaultMaxLen {
		t.Errorf("got %q, want one word of length %d", got, DefaultMaxLen)
	}
}

func TestWithMaxLen(t *testing.T) {
	got := Tokenize("abcdefg hi", WithMaxLen(3))
	want := []string{"abc", "def", "g", "hi"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %q, want %q", got, want)
	}

	tok := New(strings.NewReader(""), WithMaxLen(0))
	if tok.MaxLen() != DefaultMaxLen {
		t.Errorf("MaxLen() = %d, want default for invalid cap", tok.MaxLen())
	}
}

func TestNextAfterEnd(t *testing.T) {
	tok := New(strings.NewReader("one"))
	if w, ok, err := tok.Next(); !ok || err != nil || w != "one" {
		t.Fatalf("Next() = %q, %v, %v", w, ok, err)
	}
	for i := 0; i < 2; i++ {
		if w, ok, err := tok.Next(); ok || err != nil || w != "" {
			t.Fatalf("Next() after end = %q, %v, %v", w, ok, err)
		}
	}
	if tok.BytesRead() != 3 {
		t.Errorf("BytesRead() = %d, want 3", tok.BytesRead())
	}
}

func TestReadError(t *testing.T) {
	boom := errors.New("disk gone")
	r := io.MultiReader(strings.NewReader("good "), iotest.ErrReader(boom))
	tok := New(r)

	var words []string
	for w := range tok.All() {
		words = append(words, w)
	}
	if !reflect.DeepEqual(words, []string{"good"}) {
		t.Errorf("words = %q", words)
	}
	if !errors.Is(tok.Err(), boom) {
		t.Errorf("Err() = %v, want %v", tok.Err(), boom)
	}
	if _, ok, err := tok.Next(); ok || !errors.Is(err, boom) {
		t.Errorf("Next() after error = %v, %v", ok, err)
	}
}

func TestAllStopsEarly(t *testing.T) {
	tok := New(strings.NewReader("a b c d"))
	var got []string
	for w := range tok.All() {
		got = append(got, w)
		if len(got) == 2 {
			break
		}
	}
	rest, ok, _ := tok.Next()
	if !ok || rest != "c" {
		t.Errorf("Next() after break = %q, %v, want c", rest, ok)
	}
}

func TestParseOverflow(t *testing.T) {
	tests := []struct {
		in      string
		want    Overflow
		wantErr bool
	}{
		{"split", OverflowSplit, false},
		{"", OverflowSplit, false},
		{"DROP", OverflowDrop, false},
		{"wrap", OverflowSplit, true},
	}
	for _, tt := range tests {
		got, err := ParseOverflow(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseOverflow(%q) = %v, %v", tt.in, got, err)
		}
	}
	if OverflowDrop.String() != "drop" {
		t.Errorf("String() = %q", OverflowDrop.String())
	}
}
