package catalog

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestAddPublicationAssignsID(t *testing.T) {
	store, _ := newTestStore(t)
	cat := mustAddCategory(t, store, Books, "Programming", nil)

	year := 2015
	pub := &Publication{
		Title:        "The Go Programming Language",
		Author:       "Donovan, Kernighan",
		Year:         &year,
		CategoryID:   cat,
		CategoryType: Books,
	}
	if err := store.AddPublication(pub); err != nil {
		t.Fatalf("Failed to add publication: %v", err)
	}
	if pub.ID == "" {
		t.Fatal("Expected an assigned publication id")
	}

	got, err := store.GetPublication(pub.ID)
	if err != nil {
		t.Fatalf("Failed to get publication: %v", err)
	}
	if got.Title != pub.Title || got.Author != pub.Author {
		t.Errorf("Round-trip mismatch: %+v", got)
	}
	if got.Year == nil || *got.Year != 2015 {
		t.Errorf("Expected year 2015, got %v", got.Year)
	}
}

func TestAddPublicationValidation(t *testing.T) {
	store, _ := newTestStore(t)
	cat := mustAddCategory(t, store, Books, "Programming", nil)

	if err := store.AddPublication(&Publication{CategoryID: cat, CategoryType: Books}); err == nil {
		t.Error("Expected error for empty title")
	}

	err := store.AddPublication(&Publication{Title: "Orphan", CategoryID: 999, CategoryType: Books})
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Errorf("Expected ValidationError for missing category, got %v", err)
	}
}

func TestUpdatePublication(t *testing.T) {
	store, _ := newTestStore(t)
	cat := mustAddCategory(t, store, Books, "Programming", nil)

	pub := &Publication{Title: "Draft", CategoryID: cat, CategoryType: Books}
	if err := store.AddPublication(pub); err != nil {
		t.Fatalf("Failed to add publication: %v", err)
	}

	pub.Title = "Final"
	pub.Author = "Someone"
	if err := store.UpdatePublication(pub); err != nil {
		t.Fatalf("Failed to update publication: %v", err)
	}

	got, err := store.GetPublication(pub.ID)
	if err != nil {
		t.Fatalf("Failed to get publication: %v", err)
	}
	if got.Title != "Final" || got.Author != "Someone" {
		t.Errorf("Update not persisted: %+v", got)
	}

	var nferr *NotFoundError
	missing := &Publication{ID: "missing", Title: "X", CategoryID: cat, CategoryType: Books}
	if err := store.UpdatePublication(missing); !errors.As(err, &nferr) {
		t.Errorf("Expected NotFoundError, got %v", err)
	}
}

func TestMovePublicationAcrossTypes(t *testing.T) {
	store, _ := newTestStore(t)
	src := mustAddCategory(t, store, Books, "Misfiled", nil)
	dst := mustAddCategory(t, store, Datasheets, "Microcontrollers", nil)

	pub := &Publication{Title: "STM32F4 Reference Manual", CategoryID: src, CategoryType: Books}
	if err := store.AddPublication(pub); err != nil {
		t.Fatalf("Failed to add publication: %v", err)
	}

	if err := store.MovePublication(pub.ID, Datasheets, dst); err != nil {
		t.Fatalf("Failed to move publication: %v", err)
	}

	got, err := store.GetPublication(pub.ID)
	if err != nil {
		t.Fatalf("Failed to get publication: %v", err)
	}
	if got.CategoryType != Datasheets || got.CategoryID != dst {
		t.Errorf("Expected datasheets/%d, got %s/%d", dst, got.CategoryType, got.CategoryID)
	}
}

func TestDeletePublicationRemovesAssets(t *testing.T) {
	store, _ := newTestStore(t)
	cat := mustAddCategory(t, store, Books, "Programming", nil)
	assetsDir := t.TempDir()

	pub := &Publication{Title: "Disposable", CategoryID: cat, CategoryType: Books}
	if err := store.AddPublication(pub); err != nil {
		t.Fatalf("Failed to add publication: %v", err)
	}
	if err := WriteDescription(assetsDir, pub.ID, "some text"); err != nil {
		t.Fatalf("Failed to write description: %v", err)
	}

	if err := store.DeletePublication(pub.ID, assetsDir); err != nil {
		t.Fatalf("Failed to delete publication: %v", err)
	}

	var nferr *NotFoundError
	if _, err := store.GetPublication(pub.ID); !errors.As(err, &nferr) {
		t.Errorf("Expected publication row to be gone, got %v", err)
	}
	if _, err := os.Stat(PublicationDir(assetsDir, pub.ID)); !os.IsNotExist(err) {
		t.Errorf("Expected asset directory to be removed, got %v", err)
	}
}

func TestPublicationsInCategorySortedByTitle(t *testing.T) {
	store, _ := newTestStore(t)
	cat := mustAddCategory(t, store, Books, "Programming", nil)

	for _, title := range []string{"Zebra", "Alpha", "Middle"} {
		if err := store.AddPublication(&Publication{Title: title, CategoryID: cat, CategoryType: Books}); err != nil {
			t.Fatalf("Failed to add %q: %v", title, err)
		}
	}

	pubs, err := store.PublicationsInCategory(Books, cat)
	if err != nil {
		t.Fatalf("Failed to list publications: %v", err)
	}
	want := []string{"Alpha", "Middle", "Zebra"}
	if len(pubs) != len(want) {
		t.Fatalf("Expected %d publications, got %d", len(want), len(pubs))
	}
	for i := range want {
		if pubs[i].Title != want[i] {
			t.Errorf("Expected %q at position %d, got %q", want[i], i, pubs[i].Title)
		}
	}
}

func TestImportAsset(t *testing.T) {
	assetsDir := t.TempDir()
	srcDir := t.TempDir()

	cover := filepath.Join(srcDir, "front.jpg")
	if err := os.WriteFile(cover, []byte("jpeg bytes"), 0644); err != nil {
		t.Fatalf("Failed to write source file: %v", err)
	}
	pdf := filepath.Join(srcDir, "manual.pdf")
	if err := os.WriteFile(pdf, []byte("pdf bytes"), 0644); err != nil {
		t.Fatalf("Failed to write source file: %v", err)
	}

	dest, err := ImportAsset(assetsDir, "pub-1", cover)
	if err != nil {
		t.Fatalf("Failed to import cover: %v", err)
	}
	if filepath.Base(dest) != "cover.jpg" {
		t.Errorf("Expected cover to be renamed to cover.jpg, got %q", filepath.Base(dest))
	}
	if CoverPath(assetsDir, "pub-1") != dest {
		t.Errorf("CoverPath did not resolve the imported cover")
	}

	dest, err = ImportAsset(assetsDir, "pub-1", pdf)
	if err != nil {
		t.Fatalf("Failed to import PDF: %v", err)
	}
	if filepath.Base(dest) != "manual.pdf" {
		t.Errorf("Expected PDF to keep its name, got %q", filepath.Base(dest))
	}
	if PdfPath(assetsDir, "pub-1") != dest {
		t.Errorf("PdfPath did not resolve the imported PDF")
	}

	if _, err := ImportAsset(assetsDir, "pub-1", filepath.Join(srcDir, "notes.txt")); err == nil {
		t.Error("Expected error for unsupported asset type")
	}
}
