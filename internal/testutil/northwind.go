// Package testutil holds fixtures shared by package tests: a Northwind
// catalog in Go, the matching SQLite DDL and a handful of rows.
package testutil

import (
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"

	"github.com/inversion-api/inversion-engine-sub011/internal/schema"
)

// Northwind returns the catalog used throughout the test suites.
//
// Logical names are lower camel case; physical columns keep the
// upper-case ID suffix (orderId -> orderID).
func Northwind() *schema.Catalog {
	return schema.MustCatalog(
		schema.Collection{
			Name: "orders",
			Properties: []schema.Property{
				{Name: "orderId", Column: "orderID", Type: schema.TypeInt},
				{Name: "customerId", Column: "customerID"},
				{Name: "employeeId", Column: "employeeID", Type: schema.TypeInt},
				{Name: "orderDate", Type: schema.TypeDateTime},
				{Name: "requiredDate", Type: schema.TypeDateTime},
				{Name: "shippedDate", Type: schema.TypeDateTime, Nullable: true},
				{Name: "shipVia", Type: schema.TypeInt},
				{Name: "freight", Type: schema.TypeDecimal},
				{Name: "shipName"},
				{Name: "shipAddress"},
				{Name: "shipCity"},
				{Name: "shipRegion", Nullable: true},
				{Name: "shipPostalCode"},
				{Name: "shipCountry"},
			},
			Indexes: []schema.Index{
				{Name: "pk", Kind: schema.IndexPrimary, Properties: []string{"orderId"}},
				{Name: "fkCustomer", Kind: schema.IndexForeignKey, Properties: []string{"customerId"}},
				{Name: "fkEmployee", Kind: schema.IndexForeignKey, Properties: []string{"employeeId"}},
			},
			Relationships: []schema.Relationship{
				{Name: "customer", Kind: schema.ManyToOne, Related: "customers", Index: "fkCustomer"},
				{Name: "employee", Kind: schema.ManyToOne, Related: "employees", Index: "fkEmployee"},
				{Name: "orderDetails", Kind: schema.OneToMany, Related: "orderDetails", Index: "fkOrder"},
			},
		},
		schema.Collection{
			Name: "customers",
			Properties: []schema.Property{
				{Name: "customerId", Column: "customerID"},
				{Name: "companyName"},
				{Name: "contactName"},
				{Name: "city"},
				{Name: "country"},
			},
			Indexes: []schema.Index{
				{Name: "pk", Kind: schema.IndexPrimary, Properties: []string{"customerId"}},
			},
			Relationships: []schema.Relationship{
				{Name: "orders", Kind: schema.OneToMany, Related: "orders", Index: "fkCustomer"},
			},
		},
		schema.Collection{
			Name: "employees",
			Properties: []schema.Property{
				{Name: "employeeId", Column: "employeeID", Type: schema.TypeInt},
				{Name: "lastName"},
				{Name: "firstName"},
				{Name: "title"},
				{Name: "reportsTo", Type: schema.TypeInt, Nullable: true},
			},
			Indexes: []schema.Index{
				{Name: "pk", Kind: schema.IndexPrimary, Properties: []string{"employeeId"}},
			},
			Relationships: []schema.Relationship{
				{Name: "orders", Kind: schema.OneToMany, Related: "orders", Index: "fkEmployee"},
				{Name: "territories", Kind: schema.ManyToMany, Related: "territories",
					Linker: "employeeTerritories", Index: "fkEmployee", RelatedIndex: "fkTerritory"},
			},
		},
		schema.Collection{
			Name: "orderDetails",
			Properties: []schema.Property{
				{Name: "orderId", Column: "orderID", Type: schema.TypeInt},
				{Name: "productId", Column: "productID", Type: schema.TypeInt},
				{Name: "unitPrice", Type: schema.TypeDecimal},
				{Name: "quantity", Type: schema.TypeInt},
				{Name: "discount", Type: schema.TypeFloat},
			},
			Indexes: []schema.Index{
				{Name: "pk", Kind: schema.IndexPrimary, Properties: []string{"orderId", "productId"}},
				{Name: "fkOrder", Kind: schema.IndexForeignKey, Properties: []string{"orderId"}},
			},
			Relationships: []schema.Relationship{
				{Name: "order", Kind: schema.ManyToOne, Related: "orders", Index: "fkOrder"},
			},
		},
		schema.Collection{
			Name: "employeeTerritories",
			Properties: []schema.Property{
				{Name: "employeeId", Column: "employeeID", Type: schema.TypeInt},
				{Name: "territoryId", Column: "territoryID"},
			},
			Indexes: []schema.Index{
				{Name: "pk", Kind: schema.IndexPrimary, Properties: []string{"employeeId", "territoryId"}},
				{Name: "fkEmployee", Kind: schema.IndexForeignKey, Properties: []string{"employeeId"}},
				{Name: "fkTerritory", Kind: schema.IndexForeignKey, Properties: []string{"territoryId"}},
			},
		},
		schema.Collection{
			Name: "territories",
			Properties: []schema.Property{
				{Name: "territoryId", Column: "territoryID"},
				{Name: "territoryDescription"},
				{Name: "regionId", Column: "regionID", Type: schema.TypeInt},
			},
			Indexes: []schema.Index{
				{Name: "pk", Kind: schema.IndexPrimary, Properties: []string{"territoryId"}},
			},
		},
	)
}

// NorthwindDDL creates the Northwind tables in SQLite and loads a few rows.
const NorthwindDDL = `
CREATE TABLE customers (
	customerID  TEXT PRIMARY KEY,
	companyName TEXT NOT NULL,
	contactName TEXT,
	city        TEXT,
	country     TEXT
);
CREATE TABLE employees (
	employeeID INTEGER PRIMARY KEY,
	lastName   TEXT NOT NULL,
	firstName  TEXT NOT NULL,
	title      TEXT,
	reportsTo  INTEGER
);
CREATE TABLE orders (
	orderID        INTEGER PRIMARY KEY,
	customerID     TEXT,
	employeeID     INTEGER,
	orderDate      TEXT,
	requiredDate   TEXT,
	shippedDate    TEXT,
	shipVia        INTEGER,
	freight        REAL,
	shipName       TEXT,
	shipAddress    TEXT,
	shipCity       TEXT,
	shipRegion     TEXT,
	shipPostalCode TEXT,
	shipCountry    TEXT
);
CREATE TABLE orderDetails (
	orderID   INTEGER NOT NULL,
	productID INTEGER NOT NULL,
	unitPrice REAL,
	quantity  INTEGER,
	discount  REAL,
	PRIMARY KEY (orderID, productID)
);
CREATE TABLE employeeTerritories (
	employeeID  INTEGER NOT NULL,
	territoryID TEXT NOT NULL,
	PRIMARY KEY (employeeID, territoryID)
);
CREATE TABLE territories (
	territoryID          TEXT PRIMARY KEY,
	territoryDescription TEXT,
	regionID             INTEGER
);

INSERT INTO customers VALUES
	('VINET', 'Vins et alcools Chevalier', 'Paul Henriot', 'Reims', 'France'),
	('TOMSP', 'Toms Spezialitaten', 'Karin Josephs', 'Munster', 'Germany'),
	('HANAR', 'Hanari Carnes', 'Mario Pontes', 'Rio de Janeiro', 'Brazil'),
	('VICTE', 'Victuailles en stock', 'Mary Saveley', 'Lyon', 'France');

INSERT INTO employees VALUES
	(4, 'Peacock', 'Margaret', 'Sales Representative', 2),
	(5, 'Buchanan', 'Steven', 'Sales Manager', 2),
	(6, 'Suyama', 'Michael', 'Sales Representative', 5);

INSERT INTO orders VALUES
	(10248, 'VINET', 5, '1996-07-04T00:00:00Z', '1996-08-01T00:00:00Z', '1996-07-16T00:00:00Z', 3, 32.38, 'Vins et alcools Chevalier', '59 rue de l''Abbaye', 'Reims', NULL, '51100', 'France'),
	(10249, 'TOMSP', 6, '1996-07-05T00:00:00Z', '1996-08-16T00:00:00Z', '1996-07-10T00:00:00Z', 1, 11.61, 'Toms Spezialitaten', 'Luisenstr. 48', 'Munster', NULL, '44087', 'Germany'),
	(10250, 'HANAR', 4, '1996-07-08T00:00:00Z', '1996-08-05T00:00:00Z', '1996-07-12T00:00:00Z', 2, 65.83, 'Hanari Carnes', 'Rua do Paco, 67', 'Rio de Janeiro', 'RJ', '05454-876', 'Brazil'),
	(10251, 'VICTE', 4, '1996-07-08T00:00:00Z', '1996-08-05T00:00:00Z', '1996-07-15T00:00:00Z', 1, 41.34, 'Victuailles en stock', '2, rue du Commerce', 'Lyon', NULL, '69004', 'France'),
	(10252, 'VINET', 4, '1996-07-09T00:00:00Z', '1996-08-06T00:00:00Z', NULL, 2, 51.30, 'Vins et alcools Chevalier', '59 rue de l''Abbaye', 'Reims', NULL, '51100', 'France');

INSERT INTO orderDetails VALUES
	(10248, 11, 14.0, 12, 0),
	(10248, 42, 9.8, 10, 0),
	(10249, 14, 18.6, 9, 0),
	(10250, 41, 7.7, 10, 0),
	(10250, 51, 42.4, 35, 0.15),
	(10251, 22, 16.8, 6, 0.05);

INSERT INTO territories VALUES
	('06897', 'Wilton', 1),
	('19713', 'Neward', 1),
	('48075', 'Southfield', 3);

INSERT INTO employeeTerritories VALUES
	(4, '06897'),
	(5, '19713'),
	(6, '48075');
`

// NorthwindDB opens a fresh in-memory SQLite database loaded with
// NorthwindDDL. It is closed when the test ends.
func NorthwindDB(t testing.TB) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(NorthwindDDL)
	require.NoError(t, err)
	return db
}
