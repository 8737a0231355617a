// Package query implements list semantics for resource collections.
//
// A list request runs a fixed pipeline over the full collection:
//
//	filter -> search -> sort -> paginate -> embed/expand
//
// Query parameters:
//
//	_page, _limit       1-based page and page size (defaults 1 and 10)
//	_sort, _order       comma-separated fields and aligned asc/desc
//	_search             case-insensitive match against any scalar field
//	_embed=posts        attach child records whose <parent>Id is the item id
//	_expand=users       attach the record whose id is item[<user>Id]
//	field=value         equality/contains filter
//	field_gte=value     also _lte, _gt, _lt and _ne
//
// Singular names drop the last character of the resource name, so "users"
// becomes "user" and "categories" becomes "categorie".
package query
