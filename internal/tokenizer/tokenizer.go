// Package tokenizer turns a byte stream into lower-cased words made of
// ASCII letters. Words are capped at a maximum length; what happens to the
// rest of an over-long run is chosen by the Overflow policy.
package tokenizer

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"iter"
	"strings"
)

// DefaultMaxLen is the default word length cap.
const DefaultMaxLen = 31

// Overflow selects how letters past the length cap are treated.
type Overflow int

const (
	// OverflowSplit stops reading at the cap; the rest of the run starts
	// the next word.
	OverflowSplit Overflow = iota
	// OverflowDrop consumes and discards the rest of the run.
	OverflowDrop
)

func (o Overflow) String() string {
	switch o {
	case OverflowSplit:
		return "split"
	case OverflowDrop:
		return "drop"
	default:
		return fmt.Sprintf("Overflow(%d)", int(o))
	}
}

// ParseOverflow maps "split" or "drop" to an Overflow.
func ParseOverflow(s string) (Overflow, error) {
	switch strings.ToLower(s) {
	case "split", "":
		return OverflowSplit, nil
	case "drop":
		return OverflowDrop, nil
	default:
		return OverflowSplit, fmt.Errorf("unknown overflow policy %q", s)
	}
}

type Option func(*Tokenizer)

// WithMaxLen sets the word length cap. Values below 1 are ignored.
func WithMaxLen(n int) Option {
	return func(t *Tokenizer) {
		if n >= 1 {
			t.maxLen = n
		}
	}
}

func WithOverflow(o Overflow) Option {
	return func(t *Tokenizer) {
		t.overflow = o
	}
}

// Tokenizer reads words lazily from an underlying reader. It is not
// restartable and not safe for concurrent use.
type Tokenizer struct {
	r         *bufio.Reader
	maxLen    int
	overflow  Overflow
	buf       []byte
	bytesRead int64
	err       error
}

func New(r io.Reader, opts ...Option) *Tokenizer {
	t := &Tokenizer{
		r:        bufio.NewReader(r),
		maxLen:   DefaultMaxLen,
		overflow: OverflowSplit,
	}
	for _, opt := range opts {
		opt(t)
	}
	t.buf = make([]byte, 0, t.maxLen)
	return t
}

func isLetter(b byte) bool {
	return ('a' <= b && b <= 'z') || ('A' <= b && b <= 'Z')
}

func toLower(b byte) byte {
	if 'A' <= b && b <= 'Z' {
		return b + ('a' - 'A')
	}
	return b
}

// readByte returns io.EOF at end of stream and wraps any other read error.
func (t *Tokenizer) readByte() (byte, error) {
	b, err := t.r.ReadByte()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return 0, io.EOF
		}
		return 0, fmt.Errorf("reading input: %w", err)
	}
	t.bytesRead++
	return b, nil
}

// Next returns the next word. ok is false once the stream holds no more
// letters or a read error occurred.
func (t *Tokenizer) Next() (word string, ok bool, err error) {
	if t.err != nil {
		return "", false, t.err
	}
	b, err := t.skipToLetter()
	if err != nil {
		return t.finish(err)
	}

	t.buf = append(t.buf[:0], toLower(b))
	for len(t.buf) < t.maxLen {
		b, err := t.readByte()
		if err == io.EOF {
			return string(t.buf), true, nil
		}
		if err != nil {
			return t.finish(err)
		}
		if !isLetter(b) {
			return string(t.buf), true, nil
		}
		t.buf = append(t.buf, toLower(b))
	}

	if t.overflow == OverflowDrop {
		if err := t.discardRun(); err != nil {
			t.err = err
		}
	}
	return string(t.buf), true, nil
}

func (t *Tokenizer) skipToLetter() (byte, error) {
	for {
		b, err := t.readByte()
		if err != nil {
			return 0, err
		}
		if isLetter(b) {
			return b, nil
		}
	}
}

// discardRun consumes letters up to and including the next non-letter.
func (t *Tokenizer) discardRun() error {
	for {
		b, err := t.readByte()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if !isLetter(b) {
			return nil
		}
	}
}

func (t *Tokenizer) finish(err error) (string, bool, error) {
	if err == io.EOF {
		return "", false, nil
	}
	t.err = err
	return "", false, err
}

// All yields every remaining word. Check Err after the loop.
func (t *Tokenizer) All() iter.Seq[string] {
	return func(yield func(string) bool) {
		for {
			word, ok, err := t.Next()
			if err != nil || !ok {
				return
			}
			if !yield(word) {
				return
			}
		}
	}
}

// Err returns the first read error encountered, if any.
func (t *Tokenizer) Err() error {
	return t.err
}

// BytesRead returns the number of bytes consumed from the stream so far.
func (t *Tokenizer) BytesRead() int64 {
	return t.bytesRead
}

// MaxLen returns the effective word length cap.
func (t *Tokenizer) MaxLen() int {
	return t.maxLen
}

// Tokenize reads all words from text. It is a convenience for callers that
// already hold the whole input in memory.
func Tokenize(text string, opts ...Option) []string {
	t := New(strings.NewReader(text), opts...)
	var words []string
	for word := range t.All() {
		words = append(words, word)
	}
	return words
}
