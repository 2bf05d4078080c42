package catalogue

// Combination is one valid assignment of values to a subset of fields. A
// request is satisfiable when some combination covers it.
type Combination map[string][]string

// compatible reports whether c agrees with every selected field other than
// skip: a selected field that c constrains must share at least one value.
func (c Combination) compatible(selection Selection, skip string) bool {
	for name, picked := range selection {
		if name == skip {
			continue
		}
		values, constrained := c[name]
		if !constrained {
			continue
		}
		if !intersects(values, picked) {
			return false
		}
	}
	return true
}

// allowedFromCombinations computes, for every field named by at least one
// combination, the union of its values over the combinations compatible with
// the rest of the selection. Fields no combination names are left out so the
// response stays sparse.
func allowedFromCombinations(combos []Combination, selection Selection, order func(string, []string) []string) Constraints {
	fields := make([]string, 0)
	seen := make(map[string]struct{})
	for _, c := range combos {
		for name := range c {
			if _, ok := seen[name]; ok {
				continue
			}
			seen[name] = struct{}{}
			fields = append(fields, name)
		}
	}

	out := make(Constraints, len(fields))
	for _, name := range fields {
		var union []string
		inUnion := make(map[string]struct{})
		for _, c := range combos {
			values, ok := c[name]
			if !ok || !c.compatible(selection, name) {
				continue
			}
			for _, v := range values {
				if _, dup := inUnion[v]; dup {
					continue
				}
				inUnion[v] = struct{}{}
				union = append(union, v)
			}
		}
		out[name] = order(name, union)
	}
	return out
}

func intersects(a, b []string) bool {
	if len(a) == 0 || len(b) == 0 {
		return false
	}
	set := make(map[string]struct{}, len(a))
	for _, v := range a {
		set[v] = struct{}{}
	}
	for _, v := range b {
		if _, ok := set[v]; ok {
			return true
		}
	}
	return false
}

// orderByUniverse sorts values by their position in universe; values the
// universe does not list follow in input order.
func orderByUniverse(universe, values []string) []string {
	out := make([]string, 0, len(values))
	present := make(map[string]struct{}, len(values))
	for _, v := range values {
		present[v] = struct{}{}
	}
	placed := make(map[string]struct{}, len(values))
	for _, v := range universe {
		if _, ok := present[v]; !ok {
			continue
		}
		if _, dup := placed[v]; dup {
			continue
		}
		placed[v] = struct{}{}
		out = append(out, v)
	}
	for _, v := range values {
		if _, ok := placed[v]; ok {
			continue
		}
		placed[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
