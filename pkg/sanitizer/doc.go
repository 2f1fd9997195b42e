// Package sanitizer normalizes free-text input before validation and storage.
//
// All functions are idempotent: applying them twice gives the same result.
// Invalid input is handled by returning empty values rather than errors.
//
// Normalization includes:
//   - Strings: collapse whitespace, trim leading/trailing spaces
//   - Names: the same, plus a lowercased form used for uniqueness checks
//   - Emails: trimmed and lowercased
//   - Optional text: blank values become nil
package sanitizer
