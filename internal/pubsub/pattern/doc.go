// Package pattern compiles and matches published channel patterns.
//
// # Wildcards
//
// A single wildcard character ('*' by default) matches any run of zero or
// more characters. Every other character, including '.', '/', '?' and '[',
// matches only itself. Matching is anchored to the whole subject and is
// character based: a wildcard crosses '/' and '.' freely.
//
//	/hover/*      matches /hover/body/reviewStars/ (not /bad/hover/body/)
//	*nav.click.*  matches nav.click.tops (not click.header.publishing)
//	*             matches everything, including the empty string
//
// Wildcards are only special in the pattern. A subject that contains the
// wildcard character is plain text: "bad.*.hover" is matched by the pattern
// "bad.*.hover" because '*' in the pattern also matches a literal '*'.
//
// # Usage
//
//	p := pattern.Compile("/click/header/*", pattern.DefaultWildcard)
//	p.Match("/click/header/logo") // true
//
// Compiled patterns are immutable and safe to share. Cache keeps the most
// recently used ones keyed by their source string.
package pattern
