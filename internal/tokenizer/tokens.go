// Package tokenizer splits Cookie and Set-Cookie lines using Shape's
// tokenizer framework.
package tokenizer

// Token type constants for cookie lines.
// A line is a sequence of records separated by ';'. Each record is either
// "name=value" or a bare flag such as "HttpOnly".
const (
	TokenRecord    = "Record"    // name=value pair or bare attribute
	TokenSeparator = "Separator" // ;
	TokenSP        = "SP"        // run of spaces or tabs between records
)
