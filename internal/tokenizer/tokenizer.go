package tokenizer

import (
	"fmt"
	"strings"

	"github.com/shapestone/shape-core/pkg/tokenizer"
)

// NewTokenizer creates a tokenizer for cookie lines.
// Matchers, in priority order:
// 1. ';' record separator
// 2. whitespace between records
// 3. record text (everything up to the next ';')
//
// The default whitespace skipper is not used: spaces inside a record
// ("Expires=Sun, 4 Jan 1970 ...") are part of its value.
func NewTokenizer() tokenizer.Tokenizer {
	return tokenizer.NewTokenizerWithoutWhitespace(
		tokenizer.StringMatcherFunc(TokenSeparator, ";"),
		SPMatcher(),
		RecordMatcher(),
	)
}

// NewTokenizerWithStream creates a cookie tokenizer using a pre-configured stream.
func NewTokenizerWithStream(stream tokenizer.Stream) tokenizer.Tokenizer {
	tok := NewTokenizer()
	tok.InitializeFromStream(stream)
	return tok
}

// SPMatcher matches a run of spaces and tabs.
func SPMatcher() tokenizer.Matcher {
	return func(stream tokenizer.Stream) *tokenizer.Token {
		var value []rune
		for {
			r, ok := stream.PeekChar()
			if !ok || (r != ' ' && r != '\t') {
				break
			}
			stream.NextChar()
			value = append(value, r)
		}
		if len(value) == 0 {
			return nil
		}
		return tokenizer.NewToken(TokenSP, value)
	}
}

// RecordMatcher matches everything up to the next ';' or end of stream.
func RecordMatcher() tokenizer.Matcher {
	return func(stream tokenizer.Stream) *tokenizer.Token {
		var value []rune
		for {
			r, ok := stream.PeekChar()
			if !ok || r == ';' {
				break
			}
			stream.NextChar()
			value = append(value, r)
		}
		if len(value) == 0 {
			return nil
		}
		return tokenizer.NewToken(TokenRecord, value)
	}
}

// Records tokenizes line and returns its records with surrounding
// whitespace removed. Empty records (";;") are skipped. An error is returned
// if the matchers stop before the end of line.
func Records(line string) ([]string, error) {
	tok := NewTokenizer()
	tok.Initialize(line)
	tokens, eos := tok.Tokenize()
	if !eos {
		return nil, fmt.Errorf("tokenizer: cookie line %q not fully consumed", line)
	}

	records := make([]string, 0, len(tokens)/2+1)
	for _, t := range tokens {
		if t.Kind() != TokenRecord {
			continue
		}
		if rec := strings.TrimRight(t.ValueString(), " \t"); rec != "" {
			records = append(records, rec)
		}
	}
	return records, nil
}

// SplitRecord splits a record at its first '=' and trims the spaces around
// it. A bare attribute has no value and ok is false.
func SplitRecord(record string) (name, value string, ok bool) {
	name, value, ok = strings.Cut(record, "=")
	name = strings.TrimRight(name, " \t")
	value = strings.TrimLeft(value, " \t")
	return name, value, ok
}
