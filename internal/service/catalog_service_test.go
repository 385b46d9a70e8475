package service_test

import (
	"context"
	"errors"
	"testing"

	"inventory-service/internal/service"

	"github.com/google/uuid"
)

func TestCatalog_CreateAndDuplicateSKU(t *testing.T) {
	e := setupEnv(t, true, nil)

	item, err := e.catalog.CreateItem(adminCtx(), service.ItemInput{SKU: "CAT-1", Name: "first", IsActive: true})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if item.ID == uuid.Nil {
		t.Fatal("expected generated id")
	}

	// SKU сравнивается без учёта регистра
	_, err = e.catalog.CreateItem(adminCtx(), service.ItemInput{SKU: "cat-1", Name: "second", IsActive: true})
	if !errors.Is(err, service.ErrSKUAlreadyExists) {
		t.Fatalf("expected ErrSKUAlreadyExists, got %v", err)
	}
}

func TestCatalog_UpdateItem(t *testing.T) {
	e := setupEnv(t, true, nil)

	item, err := e.catalog.CreateItem(adminCtx(), service.ItemInput{SKU: "CAT-UPD", Name: "before", IsActive: true})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	name := "after"
	threshold := int64(3)
	updated, err := e.catalog.UpdateItem(adminCtx(), item.ID, service.ItemPatch{Name: &name, LowStockThreshold: &threshold})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Name != "after" || updated.LowStockThreshold != 3 {
		t.Fatalf("update mismatch: %+v", updated)
	}
	if updated.SKU != "CAT-UPD" {
		t.Fatalf("sku must not change: %+v", updated)
	}

	bad := int64(-1)
	if _, err := e.catalog.UpdateItem(adminCtx(), item.ID, service.ItemPatch{LowStockThreshold: &bad}); !errors.Is(err, service.ErrInvalidQuantity) {
		t.Fatalf("expected ErrInvalidQuantity, got %v", err)
	}

	if _, err := e.catalog.UpdateItem(adminCtx(), uuid.New(), service.ItemPatch{Name: &name}); !errors.Is(err, service.ErrItemNotFound) {
		t.Fatalf("expected ErrItemNotFound, got %v", err)
	}
}

func TestCatalog_DeleteGuardedByHeldStock(t *testing.T) {
	e := setupEnv(t, true, nil)
	itemID := e.newItem(t, "CAT-DEL", 5)

	if _, err := e.engine.Reserve(orderCtx(), "hold-1", []service.ReserveLine{{ItemID: itemID, Quantity: 2}}, 0); err != nil {
		t.Fatalf("reserve: %v", err)
	}

	// пока есть удержание, позицию удалить нельзя
	if _, err := e.catalog.DeleteItem(adminCtx(), itemID); !errors.Is(err, service.ErrHeldStock) {
		t.Fatalf("expected ErrHeldStock, got %v", err)
	}

	if err := e.engine.Release(orderCtx(), "hold-1"); err != nil {
		t.Fatalf("release: %v", err)
	}
	// история резерваций не мешает удалению
	deleted, err := e.catalog.DeleteItem(adminCtx(), itemID)
	if err != nil {
		t.Fatalf("delete after release: %v", err)
	}
	if !deleted {
		t.Fatal("expected deleted=true")
	}

	// журнал — система записи истории, переживает удаление позиции
	entries, err := e.repo.Audit.ListByItem(context.Background(), itemID)
	if err != nil {
		t.Fatalf("ListByItem after delete: %v", err)
	}
	if len(entries) != 3 { // INITIALIZE + RESERVE + RELEASE
		t.Fatalf("expected 3 audit entries, got %d", len(entries))
	}
}

func TestCatalog_DeleteItemWithCommittedHistory(t *testing.T) {
	e := setupEnv(t, true, nil)
	itemID := e.newItem(t, "CAT-HIST", 5)

	if _, err := e.engine.Reserve(orderCtx(), "hist-1", []service.ReserveLine{{ItemID: itemID, Quantity: 2}}, 0); err != nil {
		t.Fatalf("reserve: %v", err)
	}
	if err := e.engine.Commit(orderCtx(), "hist-1"); err != nil {
		t.Fatalf("commit: %v", err)
	}

	deleted, err := e.catalog.DeleteItem(adminCtx(), itemID)
	if err != nil {
		t.Fatalf("delete with committed history: %v", err)
	}
	if !deleted {
		t.Fatal("expected deleted=true")
	}
}

func TestCatalog_ListLowStockItems(t *testing.T) {
	e := setupEnv(t, true, nil)

	lowItem, err := e.catalog.CreateItem(adminCtx(), service.ItemInput{SKU: "LOW-1", Name: "low", LowStockThreshold: 5, IsActive: true})
	if err != nil {
		t.Fatalf("create low item: %v", err)
	}
	if _, err := e.engine.InitializeStock(adminCtx(), lowItem.ID, 6); err != nil {
		t.Fatalf("initialize low item: %v", err)
	}

	okItem, err := e.catalog.CreateItem(adminCtx(), service.ItemInput{SKU: "LOW-2", Name: "fine", LowStockThreshold: 5, IsActive: true})
	if err != nil {
		t.Fatalf("create ok item: %v", err)
	}
	if _, err := e.engine.InitializeStock(adminCtx(), okItem.ID, 50); err != nil {
		t.Fatalf("initialize ok item: %v", err)
	}

	// пока available=6 >= порога 5 — отчёт пуст
	list, err := e.catalog.ListLowStockItems(adminCtx())
	if err != nil {
		t.Fatalf("list low stock: %v", err)
	}
	if len(list) != 0 {
		t.Fatalf("expected empty report, got %+v", list)
	}

	// удержание роняет available ниже порога
	if _, err := e.engine.Reserve(orderCtx(), "low-hold", []service.ReserveLine{{ItemID: lowItem.ID, Quantity: 3}}, 0); err != nil {
		t.Fatalf("reserve: %v", err)
	}

	list, err = e.catalog.ListLowStockItems(adminCtx())
	if err != nil {
		t.Fatalf("list low stock after reserve: %v", err)
	}
	if len(list) != 1 || list[0].ItemID != lowItem.ID {
		t.Fatalf("report mismatch: %+v", list)
	}
	if list[0].Available != 3 || list[0].OnHand != 6 || list[0].Reserved != 3 {
		t.Fatalf("row mismatch: %+v", list[0])
	}
}

func TestCatalog_AdminOnlyWrites(t *testing.T) {
	e := setupEnv(t, true, nil)

	if _, err := e.catalog.CreateItem(orderCtx(), service.ItemInput{SKU: "CAT-FORB", Name: "x", IsActive: true}); !errors.Is(err, service.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if _, err := e.catalog.CreateItem(context.Background(), service.ItemInput{SKU: "CAT-ANON", Name: "x", IsActive: true}); !errors.Is(err, service.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestCatalog_CategoriesUnitsVendors(t *testing.T) {
	e := setupEnv(t, true, nil)
	ctx := adminCtx()

	cat, err := e.catalog.CreateCategory(ctx, "Hardware", "bolts and nuts")
	if err != nil {
		t.Fatalf("create category: %v", err)
	}
	if _, err := e.catalog.CreateCategory(ctx, "Hardware", ""); !errors.Is(err, service.ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}

	unit, err := e.catalog.CreateUnit(ctx, "Kilogram", "kg", "")
	if err != nil {
		t.Fatalf("create unit: %v", err)
	}
	vendor, err := e.catalog.CreateVendor(ctx, "Acme", "")
	if err != nil {
		t.Fatalf("create vendor: %v", err)
	}

	item, err := e.catalog.CreateItem(ctx, service.ItemInput{
		SKU:        "CAT-REF",
		Name:       "referenced",
		CategoryID: &cat.ID,
		UnitID:     &unit.ID,
		VendorID:   &vendor.ID,
		IsActive:   true,
	})
	if err != nil {
		t.Fatalf("create item with refs: %v", err)
	}

	items, total, err := e.catalog.ListItems(ctx, service.ItemListFilter{CategoryID: &cat.ID})
	if err != nil {
		t.Fatalf("list by category: %v", err)
	}
	if total != 1 || len(items) != 1 || items[0].ID != item.ID {
		t.Fatalf("list by category mismatch: total=%d len=%d", total, len(items))
	}

	cats, err := e.catalog.ListCategories(ctx)
	if err != nil || len(cats) != 1 {
		t.Fatalf("list categories: %v, len=%d", err, len(cats))
	}
	units, err := e.catalog.ListUnits(ctx)
	if err != nil || len(units) != 1 {
		t.Fatalf("list units: %v, len=%d", err, len(units))
	}
	vendors, err := e.catalog.ListVendors(ctx)
	if err != nil || len(vendors) != 1 {
		t.Fatalf("list vendors: %v, len=%d", err, len(vendors))
	}
}
