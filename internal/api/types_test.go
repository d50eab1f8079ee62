package api

import (
	"encoding/json"
	"testing"
)

func TestTask_IDNormalization(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		wantID string
	}{
		{"canonical id", `{"id":"t1","title":"a"}`, "t1"},
		{"alternate key only", `{"_id":"alt-9","title":"a"}`, "alt-9"},
		{"both keys prefers canonical", `{"id":"t1","_id":"alt-9","title":"a"}`, "t1"},
		{"empty canonical falls back", `{"id":"","_id":"alt-9","title":"a"}`, "alt-9"},
		{"neither key", `{"title":"a"}`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var task Task
			if err := json.Unmarshal([]byte(tt.body), &task); err != nil {
				t.Fatalf("Unmarshal() error = %v", err)
			}
			if task.ID != tt.wantID {
				t.Errorf("ID = %q, want %q", task.ID, tt.wantID)
			}
		})
	}
}

func TestUser_IDNormalization(t *testing.T) {
	var user User
	if err := json.Unmarshal([]byte(`{"_id":"u-7","name":"n","email":"e"}`), &user); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if user.ID != "u-7" {
		t.Errorf("ID = %q, want u-7", user.ID)
	}
}

func TestIDNormalization_AppliesToCollections(t *testing.T) {
	var tasks []Task
	body := `[{"id":"t1"},{"_id":"t2"},{"title":"no id"}]`
	if err := json.Unmarshal([]byte(body), &tasks); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	want := []string{"t1", "t2", ""}
	for i, w := range want {
		if tasks[i].ID != w {
			t.Errorf("tasks[%d].ID = %q, want %q", i, tasks[i].ID, w)
		}
	}
}

func TestListParams_Values(t *testing.T) {
	var nilParams *ListParams
	if got := nilParams.Values().Encode(); got != "" {
		t.Errorf("nil params encode = %q, want empty", got)
	}

	params := &ListParams{Search: "alice", Page: 2, PageSize: 25}
	got := params.Values()
	if got.Get("search") != "alice" || got.Get("page") != "2" || got.Get("page_size") != "25" {
		t.Errorf("Values() = %v", got)
	}

	partial := &ListParams{Search: "x"}
	if v := partial.Values(); v.Get("page") != "" || v.Get("page_size") != "" {
		t.Errorf("zero params should be omitted, got %v", v)
	}
}
