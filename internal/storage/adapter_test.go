package storage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"
)

// testAdapter runs the behaviour every backend must share
func testAdapter(t *testing.T, adapter Adapter) {
	t.Helper()
	ctx := context.Background()
	testPath := "products/list.json"
	testData := []byte(`[{"id":"p1"}]`)

	t.Run("Put", func(t *testing.T) {
		if err := adapter.Put(ctx, testPath, bytes.NewReader(testData)); err != nil {
			t.Fatalf("Failed to put data: %v", err)
		}
	})

	t.Run("Exists", func(t *testing.T) {
		exists, err := adapter.Exists(ctx, testPath)
		if err != nil {
			t.Fatalf("Failed to check existence: %v", err)
		}
		if !exists {
			t.Error("Value should exist after Put")
		}

		exists, err = adapter.Exists(ctx, "products/missing.json")
		if err != nil {
			t.Fatalf("Failed to check existence: %v", err)
		}
		if exists {
			t.Error("Missing key reported as existing")
		}
	})

	t.Run("Overwrite", func(t *testing.T) {
		replacement := []byte(`[]`)
		if err := adapter.Put(ctx, testPath, bytes.NewReader(replacement)); err != nil {
			t.Fatalf("Failed to overwrite data: %v", err)
		}
		reader, err := adapter.Get(ctx, testPath)
		if err != nil {
			t.Fatalf("Failed to get data: %v", err)
		}
		defer reader.Close()
		data, _ := io.ReadAll(reader)
		if !bytes.Equal(data, replacement) {
			t.Errorf("Expected %s, got %s", replacement, data)
		}
	})

	t.Run("GetNonExistent", func(t *testing.T) {
		_, err := adapter.Get(ctx, "non-existent.json")
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("Expected ErrNotFound, got %v", err)
		}
	})
}
