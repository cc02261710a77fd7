package gorules

import "github.com/quasilyte/go-ruleguard/dsl"

func smells(m dsl.Matcher) {
	// Two consecutive guard clauses returning the same value are mergeable.
	m.Match(`if $c1 { return $ret }; if $c2 { return $ret }`).
		Report(`two consecutive guards return the same value; consider merging conditions with ||`).
		Suggest(`if $c1 || $c2 { return $ret }`)

	m.Match(`if $c1 { continue }; if $c2 { continue }`).
		Report(`two consecutive continues; consider merging conditions with ||`).
		Suggest(`if $c1 || $c2 { continue }`)

	// Bare time.Sleep in request-path code defeats context cancellation;
	// retry loops must select on ctx.Done().
	m.Match(`time.Sleep($d)`).
		Report(`prefer select { case <-ctx.Done(): ...; case <-time.After($d): } so waits are cancellable`)
}
