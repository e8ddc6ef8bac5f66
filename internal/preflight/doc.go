// Package preflight provides readiness checks for the filesystem and the
// external tools a FrameScribe run depends on.
//
// These checks run in two contexts:
//   - The session calls RunAll before prompting for a URL. If a check fails
//     the run stops before anything is downloaded.
//   - The CLI "framescribe deps" command renders the same results as a table.
package preflight
