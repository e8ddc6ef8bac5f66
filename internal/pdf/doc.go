// Package pdf lays sampled frames out as a captioned PDF, one frame per page.
//
// Documents are rendered with go-pdf/fpdf into a temporary file, the page
// count is verified with pdfcpu, and only then is the file renamed into the
// output folder.
package pdf
