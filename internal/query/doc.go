// Package query classifies parsed RQL terms into clauses and resolves them
// against a schema.Catalog.
//
// A Query is built per request:
//
//	q, err := query.New(catalog, "orders", backend)
//	err = q.WithRQL(`eq(orderID,1234),sort(-orderDate),limit(10)`)
//
// Each top-level term is routed to the first clause whose vocabulary
// contains its function name, in the order From, Where, Page, Order,
// Group, Select. Column references are resolved when a term is accepted,
// and every Where value is cast and appended to the Query's bind lists in
// encounter order. Backends turn the classified Query into executable
// text; see package dialect.
//
// A Query is not safe for concurrent use. Catalogs and Backends are.
package query
