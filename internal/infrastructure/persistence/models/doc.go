// Package models holds the GORM rows behind the catalog repositories.
// Domain types carry no ORM tags; each model converts to and from its
// domain type, and repositories only ever hand domain types back.
//
//   - catalog.go: products, brands and categories
//   - import_job.go: upload and ERP sync runs, with row errors stored as JSON
//   - erp_connection.go: ERP connection settings with an encoded config blob
package models
