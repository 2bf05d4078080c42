package field

// SingleSelect holds at most one value. Setting a value replaces the previous
// one; when the held value stops being allowed the field becomes empty rather
// than picking another value.
type SingleSelect struct {
	base
}

var _ Controller = (*SingleSelect)(nil)

// SetValue keeps the last allowed value among values. Passing no allowed
// value clears the field.
func (c *SingleSelect) SetValue(values ...string) {
	c.selection = nil
	for i := len(values) - 1; i >= 0; i-- {
		if c.isAllowed(values[i]) {
			c.selection = []string{values[i]}
			return
		}
	}
}

// Selected returns the held value and whether there is one.
func (c *SingleSelect) Selected() (string, bool) {
	if len(c.selection) == 0 {
		return "", false
	}
	return c.selection[0], true
}
