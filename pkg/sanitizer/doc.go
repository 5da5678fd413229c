// Package sanitizer cleans HTML with bluemonday policies. It backs the
// "strip_tags" and "markdown" template filters.
package sanitizer
