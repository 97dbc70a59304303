package parity

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hazyhaar/paritycheck/parity/feature"
)

var testMCPImpl = &mcp.Implementation{Name: "paritycheck-test", Version: "0.1.0"}

func mcpSession(t *testing.T, c *Checker) *mcp.ClientSession {
	t.Helper()
	srv := mcp.NewServer(testMCPImpl, nil)
	c.RegisterMCP(srv)

	serverT, clientT := mcp.NewInMemoryTransports()
	ctx := context.Background()
	go func() { _ = srv.Run(ctx, serverT) }()

	client := mcp.NewClient(testMCPImpl, nil)
	session, err := client.Connect(ctx, clientT, nil)
	if err != nil {
		t.Fatalf("client connect: %v", err)
	}
	t.Cleanup(func() { session.Close() })
	return session
}

func mcpCall(t *testing.T, session *mcp.ClientSession, name string, args any) (string, bool) {
	t.Helper()
	result, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      name,
		Arguments: args,
	})
	if err != nil {
		t.Fatalf("CallTool(%s): %v", name, err)
	}
	tc, ok := result.Content[0].(*mcp.TextContent)
	if !ok {
		t.Fatalf("CallTool(%s): expected TextContent", name)
	}
	return tc.Text, result.IsError
}

func TestMCP_Features(t *testing.T) {
	session := mcpSession(t, newChecker(t, newSite()))
	text, isErr := mcpCall(t, session, "parity_features", map[string]any{})
	if isErr {
		t.Fatal(text)
	}
	var resp struct {
		Features []FeatureInfo `json:"features"`
	}
	if err := json.Unmarshal([]byte(text), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(resp.Features) != 8 {
		t.Errorf("features = %d", len(resp.Features))
	}
}

func TestMCP_CheckAndRuns(t *testing.T) {
	session := mcpSession(t, historyChecker(t))

	text, isErr := mcpCall(t, session, "parity_check", map[string]any{})
	if isErr {
		t.Fatal(text)
	}
	var run feature.Run
	if err := json.Unmarshal([]byte(text), &run); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !run.Report.BothAccessible || len(run.Recommendations) != 2 {
		t.Errorf("run = %+v", run.Recommendations)
	}

	text, isErr = mcpCall(t, session, "parity_runs", map[string]any{})
	if isErr {
		t.Fatal(text)
	}
	var list struct {
		Runs []RunSummary `json:"runs"`
	}
	if err := json.Unmarshal([]byte(text), &list); err != nil {
		t.Fatal(err)
	}
	if len(list.Runs) != 1 || list.Runs[0].ID != run.ID {
		t.Fatalf("runs = %+v", list.Runs)
	}

	text, isErr = mcpCall(t, session, "parity_runs", map[string]any{"id": run.ID})
	if isErr || !strings.Contains(text, run.ID) {
		t.Errorf("get run: %s", text)
	}
}

func TestMCP_CheckNeedsBothTargets(t *testing.T) {
	session := mcpSession(t, newChecker(t, newSite()))
	text, isErr := mcpCall(t, session, "parity_check", map[string]any{
		"left": map[string]string{"url": t1.URL},
	})
	if !isErr || !strings.Contains(text, "both left and right") {
		t.Errorf("isErr=%v text=%q", isErr, text)
	}
}
