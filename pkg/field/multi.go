package field

// MultiSelect keeps any number of values, ordered as they appear in the
// allowed list.
type MultiSelect struct {
	base
}

var _ Controller = (*MultiSelect)(nil)

func (c *MultiSelect) SetValue(values ...string) {
	chosen := make(map[string]struct{}, len(values))
	for _, v := range c.allowedSubset(values) {
		chosen[v] = struct{}{}
	}
	out := make([]string, 0, len(chosen))
	for _, v := range c.allowed {
		if _, ok := chosen[v]; ok {
			out = append(out, v)
		}
	}
	if len(out) == 0 {
		out = nil
	}
	c.selection = out
}
