// Package htmlreport renders conversion error reports as standalone HTML.
//
// A report is first written as Markdown: one heading per source, a table
// of errors with their paths, and the raw JSON report in a fenced block.
// The Markdown is converted with goldmark, the JSON block is highlighted
// with chroma classes, and a single <style> element carrying the base and
// highlighting CSS is added to <head>.
package htmlreport
