package catalog

import (
	"testing"

	"gorm.io/gorm"

	"github.com/angelmondragon/pricesync/pkg/db"
	"github.com/angelmondragon/pricesync/pkg/db/models"
	"github.com/angelmondragon/pricesync/pkg/enums"
	"github.com/angelmondragon/pricesync/pkg/migrate/migratetest"
)

func newTestService(t *testing.T) (Service, *gorm.DB) {
	t.Helper()
	conn := migratetest.NewSQLite(t)
	svc, err := NewService(NewRepository(conn), db.NewFromConn(conn))
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc, conn
}

func seedProduct(t *testing.T, conn *gorm.DB, id int64, name string, price *string) {
	t.Helper()
	row := models.CatalogProduct{ID: id, Name: name, Status: enums.ProductStatusPublish, RegularPrice: price}
	if err := conn.Create(&row).Error; err != nil {
		t.Fatalf("seed product %d: %v", id, err)
	}
}

func strPtr(s string) *string { return &s }

func int64Ptr(v int64) *int64 { return &v }
