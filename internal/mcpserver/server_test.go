package mcpserver

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/aoyagi/manabi/internal/logservice"
	"github.com/aoyagi/manabi/internal/models"
	"github.com/aoyagi/manabi/internal/profileservice"
	"github.com/aoyagi/manabi/internal/testutil"
)

func testServer(t *testing.T) *Server {
	t.Helper()

	dataDir, st := testutil.TestStore(t)
	db := testutil.TestDB(t)

	logs := logservice.NewService(st, nil)
	profiles := profileservice.NewService(st)
	return New(logs, profiles, db, dataDir)
}

func callTool(t *testing.T, srv *Server, name string, args map[string]interface{}) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	// mcp-go doesn't expose a direct "call tool" test helper, so we call
	// the handler functions directly.
	var result *mcp.CallToolResult
	var err error

	switch name {
	case "list_logs":
		result, err = srv.listLogs(ctx, req)
	case "create_log":
		result, err = srv.createLog(ctx, req)
	case "search_logs":
		result, err = srv.searchLogs(ctx, req)
	case "add_reflection":
		result, err = srv.addReflection(ctx, req)
	case "get_portfolio":
		result, err = srv.getPortfolio(ctx, req)
	case "get_log_contract":
		result, err = srv.getLogContract(ctx, req)
	case "upload_avatar":
		result, err = srv.uploadAvatar(ctx, req)
	default:
		t.Fatalf("unknown tool: %s", name)
	}

	if err != nil {
		t.Fatalf("tool %s error: %v", name, err)
	}
	return result
}

func resultText(r *mcp.CallToolResult) string {
	if len(r.Content) > 0 {
		if tc, ok := r.Content[0].(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func TestCreateAndListLogs(t *testing.T) {
	srv := testServer(t)

	r := callTool(t, srv, "create_log", map[string]interface{}{
		"title":       "Go の学習",
		"description": "goroutine を試した",
		"category":    "プログラミング",
	})
	if r.IsError {
		t.Fatalf("create error: %s", resultText(r))
	}
	var created models.LearningLog
	if err := json.Unmarshal([]byte(resultText(r)), &created); err != nil {
		t.Fatalf("create result not JSON: %v", err)
	}
	if created.Title != "Go の学習" || created.Category != models.CategoryProgramming {
		t.Errorf("created = %+v", created)
	}

	r = callTool(t, srv, "list_logs", map[string]interface{}{})
	if !strings.Contains(resultText(r), "Go の学習") {
		t.Errorf("list missing created log: %s", resultText(r))
	}
}

func TestCreateLog_UnknownCategory(t *testing.T) {
	srv := testServer(t)

	r := callTool(t, srv, "create_log", map[string]interface{}{
		"title":       "t",
		"description": "d",
		"category":    "未知",
	})
	if !r.IsError {
		t.Error("expected error for unknown category")
	}
}

func TestSearchLogs(t *testing.T) {
	srv := testServer(t)

	callTool(t, srv, "create_log", map[string]interface{}{
		"title":       "Rust 入門",
		"description": "所有権の学習",
		"category":    "プログラミング",
	})

	r := callTool(t, srv, "search_logs", map[string]interface{}{"query": "Rust"})
	if r.IsError {
		t.Fatalf("search error: %s", resultText(r))
	}
	if !strings.Contains(resultText(r), "Rust 入門") {
		t.Errorf("search missing hit: %s", resultText(r))
	}
}

func TestAddReflection(t *testing.T) {
	srv := testServer(t)

	r := callTool(t, srv, "create_log", map[string]interface{}{
		"title":       "t",
		"description": "d",
		"category":    "語学",
	})
	var created models.LearningLog
	_ = json.Unmarshal([]byte(resultText(r)), &created)

	r = callTool(t, srv, "add_reflection", map[string]interface{}{
		"log_id":  created.ID.String(),
		"content": "単語帳を作った",
		"type":    "学んだこと",
	})
	if r.IsError {
		t.Fatalf("add_reflection error: %s", resultText(r))
	}
	var updated models.LearningLog
	_ = json.Unmarshal([]byte(resultText(r)), &updated)
	if len(updated.Reflections) != 1 || updated.Reflections[0].Type != models.ReflectionLearning {
		t.Errorf("reflections = %+v", updated.Reflections)
	}
}

func TestAddReflection_BadArgs(t *testing.T) {
	srv := testServer(t)

	r := callTool(t, srv, "add_reflection", map[string]interface{}{
		"log_id":  "not-a-uuid",
		"content": "c",
		"type":    "学んだこと",
	})
	if !r.IsError {
		t.Error("expected error for bad uuid")
	}

	r = callTool(t, srv, "add_reflection", map[string]interface{}{
		"log_id":  "b2c4a1de-0000-4000-8000-000000000000",
		"content": "c",
		"type":    "感想",
	})
	if !r.IsError {
		t.Error("expected error for unknown reflection type")
	}
}

func TestGetPortfolio(t *testing.T) {
	srv := testServer(t)

	callTool(t, srv, "create_log", map[string]interface{}{
		"title":       "公開ログ",
		"description": "d",
		"category":    "デザイン",
		"is_public":   true,
	})

	r := callTool(t, srv, "get_portfolio", map[string]interface{}{})
	if r.IsError {
		t.Fatalf("portfolio error: %s", resultText(r))
	}
	var stats struct {
		PublicLogs []models.LearningLog `json:"public_logs"`
	}
	_ = json.Unmarshal([]byte(resultText(r)), &stats)
	if len(stats.PublicLogs) != 1 {
		t.Errorf("public logs = %d, want 1", len(stats.PublicLogs))
	}
}

func TestGetLogContract(t *testing.T) {
	srv := testServer(t)
	r := callTool(t, srv, "get_log_contract", map[string]interface{}{})
	text := resultText(r)
	for _, want := range []string{"プログラミング", "初級", "学んだこと"} {
		if !strings.Contains(text, want) {
			t.Errorf("contract missing %q", want)
		}
	}
}

func TestUploadAvatar_DataURI(t *testing.T) {
	srv := testServer(t)

	// Minimal valid PNG header so content sniffing matches the extension.
	png := append([]byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}, make([]byte, 64)...)
	uri := "data:image/png;base64," + base64.StdEncoding.EncodeToString(png)

	r := callTool(t, srv, "upload_avatar", map[string]interface{}{
		"url":      uri,
		"filename": "me.png",
	})
	if r.IsError {
		t.Fatalf("upload error: %s", resultText(r))
	}
	if !strings.Contains(resultText(r), "/avatars/me.png") {
		t.Errorf("result = %s", resultText(r))
	}

	profile, err := srv.profiles.Load(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if profile.AvatarURL != "/avatars/me.png" {
		t.Errorf("avatar_url = %q", profile.AvatarURL)
	}
}

func TestUploadAvatar_BadExtension(t *testing.T) {
	srv := testServer(t)

	uri := "data:image/png;base64," + base64.StdEncoding.EncodeToString([]byte("x"))
	r := callTool(t, srv, "upload_avatar", map[string]interface{}{
		"url":      uri,
		"filename": "evil.exe",
	})
	if !r.IsError {
		t.Error("expected error for disallowed extension")
	}
}
