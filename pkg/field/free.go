package field

// FreeMulti is a toggle group: values are switched on and off individually and
// the selection keeps the order in which they were switched on.
type FreeMulti struct {
	base
}

var _ Controller = (*FreeMulti)(nil)

func (c *FreeMulti) SetValue(values ...string) {
	out := c.allowedSubset(values)
	if len(out) == 0 {
		out = nil
	}
	c.selection = out
}

// Toggle flips one value. Disallowed values are ignored. It reports whether
// the value is selected afterwards.
func (c *FreeMulti) Toggle(value string) bool {
	for i, v := range c.selection {
		if v == value {
			c.selection = append(c.selection[:i:i], c.selection[i+1:]...)
			if len(c.selection) == 0 {
				c.selection = nil
			}
			return false
		}
	}
	if !c.isAllowed(value) {
		return false
	}
	c.selection = append(c.selection, value)
	return true
}
