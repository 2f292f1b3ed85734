package main

import (
	"testing"

	"mailexport/pkg/filter"
)

func resetFilterFlags() {
	filterUnread = false
	filterAll = false
	filterRecent = 0
	filterFolder = ""
	filterSearch = ""
}

func TestBuildFilter(t *testing.T) {
	t.Run("DefaultsToUnread", func(t *testing.T) {
		resetFilterFlags()
		spec, err := buildFilter()
		if err != nil {
			t.Fatalf("buildFilter failed: %v", err)
		}
		if spec.Kind != filter.KindUnread {
			t.Errorf("Expected unread default, got %s", spec.Kind)
		}
	})

	t.Run("SingleFilter", func(t *testing.T) {
		resetFilterFlags()
		filterRecent = 7
		spec, err := buildFilter()
		if err != nil {
			t.Fatalf("buildFilter failed: %v", err)
		}
		if spec.Kind != filter.KindRecent || spec.Days != 7 {
			t.Errorf("Expected recent/7, got %+v", spec)
		}
	})

	t.Run("FolderFilter", func(t *testing.T) {
		resetFilterFlags()
		filterFolder = "sent"
		spec, err := buildFilter()
		if err != nil {
			t.Fatalf("buildFilter failed: %v", err)
		}
		if spec.Kind != filter.KindFolder || spec.Folder != "sent" {
			t.Errorf("Expected folder/sent, got %+v", spec)
		}
	})

	t.Run("ConflictingFilters", func(t *testing.T) {
		resetFilterFlags()
		filterAll = true
		filterSearch = "invoice"
		if _, err := buildFilter(); err == nil {
			t.Error("Expected error for conflicting filters")
		}
	})
}
