// Package sanitizer normalizes operator input before validation and storage.
//
// All functions are idempotent and never return errors: input that cannot be
// normalized becomes an empty string, which the validators then reject.
//
// Normalization includes:
//   - Phone numbers: E.164 (+[country][number]), national numbers resolved against the supported regions
//   - Emails: trimmed and lowercased
//   - Text: whitespace collapsed, leading/trailing spaces trimmed
//   - Skills: trimmed, blanks and case-insensitive duplicates dropped, first spelling kept
package sanitizer
