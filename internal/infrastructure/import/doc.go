// Package fileimport turns uploaded tabular files (CSV, XLSX, XLS) into ordered
// header/value rows and maps those rows onto canonical catalog fields.
//
// Parsing is format plumbing only: it never validates values. Type coercion and
// business validation happen during reconciliation, row by row.
package fileimport
