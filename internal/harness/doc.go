// Package harness runs RQL fixture suites.
//
// A suite is a YAML file naming a CUE schema directory, a default
// dialect and a list of cases. Each case compiles one query and checks
// the statement text, bind values or error category; cases with row
// expectations also execute against an in-memory SQLite database seeded
// from the suite's data script.
//
// # Suite Format
//
//	name: northwind
//	description: "Relational compile fixtures"
//	schema: ../schema
//	dialect: sqlite
//	data: northwind.sql
//	cases:
//	  - name: equality
//	    collection: orders
//	    rql: eq(orderID,1234),eq(shipCountry,"France")
//	    expect:
//	      text: SELECT "orders".* FROM "orders" WHERE ...
//	      values: [1234, France]
//	  - name: contains on cosmos
//	    dialect: cosmos
//	    collection: orders
//	    rql: like(shipName,*text*)
//	    expect:
//	      error: unsupported
//	  - name: french orders
//	    collection: orders
//	    rql: eq(shipCountry,France),includes(orderID)
//	    expect:
//	      found: 3
//	      rows:
//	        - {orderID: 10248}
//
// Paths are relative to the suite file. Unknown fields are rejected.
//
// # Golden Files
//
// RunWithGolden snapshots every compiled statement as canonical JSON and
// compares it with testdata/golden/<suite>.golden. Regenerate with
//
//	go test ./internal/harness -update
package harness
