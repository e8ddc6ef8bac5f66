// Package textutil provides filename sanitization for titles and tokens used
// in output paths.
package textutil
