// Package slug turns titles into URL slugs. It backs the "urlslug" template
// filter.
//
//	slug.Make("Café & Restaurant")               // "cafe-restaurant"
//	slug.Make("Hello World", slug.Separator("_")) // "hello_world"
//	slug.Make("A long title", slug.MaxLength(6))  // "a-long"
//
// Latin diacritics are folded to ASCII with Unicode decomposition; any other
// non-alphanumeric run becomes a single separator.
package slug
