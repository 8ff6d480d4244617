// rewrite.go splices a compiled function's declaration out of the source
// text and replaces it with a thin alias binding, an in-situ source
// rewrite so that interpreted call sites referring to the function by name
// transparently start calling the compiled stub instead, with no change
// to the surrounding source's control flow.
package host

import (
	"fmt"
	"sort"
	"strings"
)

type rewriteSpan struct {
	from, to int
	name     string
}

// Rewrite returns src with every span in spans replaced by a one-line
// binding of the function's name to its compiled alias, followed by the
// fixed comment "/* compiled from native stub */"; the replaced
// declaration's source text is not kept in the output. spans are applied
// back-to-front by offset so earlier replacements don't invalidate later
// spans' byte offsets.
func Rewrite(src string, spans []rewriteSpan) string {
	sorted := append([]rewriteSpan(nil), spans...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].from > sorted[j].from })

	out := src
	for _, s := range sorted {
		if s.from < 0 || s.to > len(out) || s.from > s.to {
			continue
		}
		replacement := fmt.Sprintf("var %s = %s; /* compiled from native stub */", s.name, aliasName(s.name))
		out = out[:s.from] + replacement + out[s.to:]
	}
	return out
}

// aliasName returns the host-binding symbol a compiled function is
// installed under (install.go), kept as a single source of truth so
// Rewrite and Install agree on the naming scheme.
func aliasName(fn string) string {
	return "__jac_aot_func_" + strings.ReplaceAll(fn, "$", "_")
}
