// Package markup converts the constrained markdown dialect produced by the
// analysis tool into HTML block markup.
//
// [Render] runs a fixed sequence of stages over a line-indexed document:
// escaping, fenced code blocks, headings, inline code and emphasis, flat
// bullet lists and finally paragraph wrapping. Each stage only sees lines
// that earlier stages left as plain text, so fenced code is never touched
// after it has been turned into a <pre> block.
//
// The dialect is deliberately small. Unrecognized syntax degenerates to
// paragraph text and Render never fails.
package markup
