// Package schema normalizes the loosely typed field records a collection
// serves into an ordered set of FieldDefinitions.
//
// Raw records carry a name, a raw widget kind (for example StringListWidget or
// StringChoiceWidget), an optional label and a details block holding either a
// flat {labels, values, columns, default} record or a list of groups. Decoding
// tolerates loose input: missing keys default to empty and numbers are read as text.
// Normalization drops excluded names and kinds, merges groups, keeps the first
// of any duplicated name and maps raw kinds onto the three normalized kinds.
// Problems never abort a build; they surface as Diagnostics.
package schema
