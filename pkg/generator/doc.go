// Package generator produces sample values for resource fields.
//
// Each FieldSpec type has a default shape (a word for string, an integer for
// number, an RFC 3339 timestamp for date and so on). A field's generator hint
// narrows that shape to something realistic: "firstName", "company",
// "price", "ipv4" and the other names returned by Hints.
//
// Relation fields draw an id from the records already generated for the
// resource named by relationTo. Nothing is generated when that resource has no
// records, so the field is left null.
//
// A Generator built with WithSeed is fully deterministic, which is what the
// CLI's --seed flag and the tests rely on.
package generator
