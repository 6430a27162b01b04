// Package pagination walks page-numbered WooCommerce collection endpoints.
//
// WooCommerce reports the number of pages of a collection in the
// X-WP-TotalPages response header. A Pager requests page 1 (without a page
// parameter), then page 2, 3, ... for as long as the header reports more pages
// than the one just fetched. A missing or malformed header ends the walk.
//
// Example usage:
//
//	pager := pagination.NewPager(wooClient, "/orders", &cursor, pagination.DefaultConfig())
//	for pager.Next(ctx) {
//		rec := pager.Record()
//		// ...
//	}
//	if err := pager.Err(); err != nil {
//		return err
//	}
//
// The pager:
//   - Fetches pages strictly in order, one at a time
//   - Sends per_page=100 and order=asc on every request
//   - Sends modified_after, after and date_query_column=post_modified when a cursor is set
//   - Replaces empty-string field values with null before yielding a record
//   - Fails with ErrPaginationLoop if the next page token does not advance
//
// Pages are never fetched concurrently: the reported page count only holds
// for the response it came with.
package pagination
