// Package report writes run reports.
//
// Three writers share the Writer interface:
//   - SimpleWriter: plain text for the terminal
//   - JSONWriter: JSON for other tools
//   - MarkdownWriter: Markdown with a mermaid chart, for sharing
//
// MultiWriter fans one report out to several writers.
package report
