package handlers

import (
	"net/http"
	"testing"
)

func TestCategoryCreateAndAttach(t *testing.T) {
	env := setupTestEnv(t)
	_, token := createTestUser(t, env.db, "owner@test.com", "password123")

	resp := performJSONRequest(t, env.app, http.MethodPost, "/api/categories/",
		map[string]string{"name": "Finance", "description": "money things"}, authHeaders(token))
	assertStatus(t, resp, http.StatusCreated)
	category := dataField(t, decodeJSONMap(t, resp))
	categoryID, _ := category["id"].(string)

	resp = performJSONRequest(t, env.app, http.MethodPost, "/api/categories/",
		map[string]string{"name": "Finance"}, authHeaders(token))
	assertStatus(t, resp, http.StatusConflict)
	_ = resp.Body.Close()

	resp = performUpload(t, env.app, http.MethodPost, "/api/files/upload", "invoice.bin", "invoice data", nil, authHeaders(token))
	file := dataField(t, decodeJSONMap(t, resp))
	fileID, _ := file["id"].(string)

	resp = performRequest(t, env.app, http.MethodPut, "/api/files/"+fileID+"/categories/"+categoryID, nil, authHeaders(token))
	assertStatus(t, resp, http.StatusOK)
	_ = resp.Body.Close()

	resp = performRequest(t, env.app, http.MethodGet, "/api/files/"+fileID+"/categories", nil, authHeaders(token))
	categories := dataList(t, decodeJSONMap(t, resp))
	// The classifier assigned one on upload, the manual attach adds Finance.
	if len(categories) != 2 {
		t.Fatalf("expected 2 categories, got %d", len(categories))
	}

	resp = performRequest(t, env.app, http.MethodDelete, "/api/files/"+fileID+"/categories/"+categoryID, nil, authHeaders(token))
	assertStatus(t, resp, http.StatusOK)
	_ = resp.Body.Close()

	resp = performRequest(t, env.app, http.MethodGet, "/api/files/"+fileID+"/categories", nil, authHeaders(token))
	if categories := dataList(t, decodeJSONMap(t, resp)); len(categories) != 1 {
		t.Fatalf("expected only the classifier category left, got %d", len(categories))
	}
}

func TestListCategoriesIncludesSystemOnes(t *testing.T) {
	env := setupTestEnv(t)
	_, token := createTestUser(t, env.db, "owner@test.com", "password123")

	resp := performUpload(t, env.app, http.MethodPost, "/api/files/upload", "photo.png", "pixels", nil, authHeaders(token))
	assertStatus(t, resp, http.StatusCreated)
	_ = resp.Body.Close()

	resp = performRequest(t, env.app, http.MethodGet, "/api/categories/", nil, authHeaders(token))
	categories := dataList(t, decodeJSONMap(t, resp))

	var sawImages bool
	for _, raw := range categories {
		c, _ := raw.(map[string]any)
		if c["name"] == "Images" {
			sawImages = true
		}
	}
	if !sawImages {
		t.Fatalf("expected the classifier's Images category in the listing, got %+v", categories)
	}
}

func TestTagLifecycle(t *testing.T) {
	env := setupTestEnv(t)
	_, token := createTestUser(t, env.db, "owner@test.com", "password123")

	resp := performJSONRequest(t, env.app, http.MethodPost, "/api/tags/",
		map[string]string{"name": "urgent"}, authHeaders(token))
	assertStatus(t, resp, http.StatusCreated)
	tag := dataField(t, decodeJSONMap(t, resp))
	tagID, _ := tag["id"].(string)

	resp = performUpload(t, env.app, http.MethodPost, "/api/files/upload", "todo.bin", "todo data", nil, authHeaders(token))
	file := dataField(t, decodeJSONMap(t, resp))
	fileID, _ := file["id"].(string)

	resp = performRequest(t, env.app, http.MethodPut, "/api/files/"+fileID+"/tags/"+tagID, nil, authHeaders(token))
	assertStatus(t, resp, http.StatusOK)
	_ = resp.Body.Close()
	// Repeat attach is idempotent.
	resp = performRequest(t, env.app, http.MethodPut, "/api/files/"+fileID+"/tags/"+tagID, nil, authHeaders(token))
	assertStatus(t, resp, http.StatusOK)
	_ = resp.Body.Close()

	resp = performRequest(t, env.app, http.MethodGet, "/api/files/"+fileID+"/tags", nil, authHeaders(token))
	if tags := dataList(t, decodeJSONMap(t, resp)); len(tags) != 1 {
		t.Fatalf("expected 1 tag, got %d", len(tags))
	}

	resp = performRequest(t, env.app, http.MethodDelete, "/api/files/"+fileID+"/tags/"+tagID, nil, authHeaders(token))
	assertStatus(t, resp, http.StatusOK)
	_ = resp.Body.Close()

	resp = performRequest(t, env.app, http.MethodGet, "/api/files/"+fileID+"/tags", nil, authHeaders(token))
	if tags := dataList(t, decodeJSONMap(t, resp)); len(tags) != 0 {
		t.Fatalf("expected no tags after detach, got %d", len(tags))
	}
}

func TestForeignTaxonomyNotDisclosed(t *testing.T) {
	env := setupTestEnv(t)
	_, ownerToken := createTestUser(t, env.db, "owner@test.com", "password123")
	_, strangerToken := createTestUser(t, env.db, "stranger@test.com", "password123")

	resp := performJSONRequest(t, env.app, http.MethodPost, "/api/tags/",
		map[string]string{"name": "theirs"}, authHeaders(strangerToken))
	tag := dataField(t, decodeJSONMap(t, resp))
	tagID, _ := tag["id"].(string)

	resp = performUpload(t, env.app, http.MethodPost, "/api/files/upload", "mine.bin", "mine", nil, authHeaders(ownerToken))
	file := dataField(t, decodeJSONMap(t, resp))
	fileID, _ := file["id"].(string)

	resp = performRequest(t, env.app, http.MethodPut, "/api/files/"+fileID+"/tags/"+tagID, nil, authHeaders(ownerToken))
	assertStatus(t, resp, http.StatusNotFound)
	_ = resp.Body.Close()

	resp = performRequest(t, env.app, http.MethodGet, "/api/files/"+fileID+"/tags", nil, authHeaders(strangerToken))
	assertStatus(t, resp, http.StatusNotFound)
	_ = resp.Body.Close()
}
