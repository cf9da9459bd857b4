package assistant_tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/draftgate/draftgate/internal/assistant"
	"github.com/draftgate/draftgate/internal/draft"
	"github.com/draftgate/draftgate/internal/instrumentation"
)

// RegisterAssistantTools registers the assistant tools with the MCP
// server.
func RegisterAssistantTools(s *mcpserver.MCPServer, a *assistant.Assistant, metrics *instrumentation.Metrics) error {
	processTool := mcp.NewTool("assistant_process_request",
		mcp.WithDescription("Process a natural language email or scheduling request: plan, execute, draft and gate the result"),
		mcp.WithString("request",
			mcp.Required(),
			mcp.Description("Natural language request (e.g., 'email bob@example.com about the launch')"),
		),
		mcp.WithBoolean("autoSend",
			mcp.Description("Send the draft automatically when the validation gate approves it (default: false)"),
		),
	)
	s.AddTool(processTool, instrumented("assistant_process_request", metrics,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleProcessRequest(ctx, request, a)
		}))

	scanTool := mcp.NewTool("assistant_scan_text",
		mcp.WithDescription("Scan text for PII and report finding categories and spans"),
		mcp.WithString("text",
			mcp.Required(),
			mcp.Description("Text to scan"),
		),
	)
	s.AddTool(scanTool, instrumented("assistant_scan_text", metrics,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleScanText(ctx, request, a)
		}))

	validateTool := mcp.NewTool("assistant_validate_draft",
		mcp.WithDescription("Run a draft through the validation gate and return the decision and sanitized draft"),
		mcp.WithString("to",
			mcp.Required(),
			mcp.Description("Comma-separated recipient addresses"),
		),
		mcp.WithString("subject",
			mcp.Required(),
			mcp.Description("Draft subject"),
		),
		mcp.WithString("body",
			mcp.Required(),
			mcp.Description("Draft body"),
		),
	)
	s.AddTool(validateTool, instrumented("assistant_validate_draft", metrics,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleValidateDraft(ctx, request, a)
		}))

	return nil
}

// instrumented wraps a tool handler with invocation metrics.
func instrumented(
	tool string,
	metrics *instrumentation.Metrics,
	handler func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error),
) func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		result, err := handler(ctx, request)

		status := instrumentation.StatusSuccess
		if err != nil || (result != nil && result.IsError) {
			status = instrumentation.StatusError
		}
		metrics.RecordToolInvocation(ctx, tool, status)

		return result, err
	}
}

func handleProcessRequest(ctx context.Context, request mcp.CallToolRequest, a *assistant.Assistant) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	userRequest, ok := args["request"].(string)
	if !ok || userRequest == "" {
		return mcp.NewToolResultError("request is required"), nil
	}

	autoSend := false
	if v, ok := args["autoSend"].(bool); ok {
		autoSend = v
	}

	result, err := a.ProcessRequest(ctx, userRequest, autoSend)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to process request: %v", err)), nil
	}

	out := map[string]any{
		"outcome": string(result.Execution.Outcome),
		"actions": len(result.Plan.Actions),
		"sent":    result.Sent,
	}
	if result.Verdict != nil {
		out["decision"] = string(result.Verdict.Decision)
	}
	if result.Draft != nil {
		out["draft"] = map[string]any{
			"to":      result.Draft.To,
			"subject": result.Draft.Subject,
			"body":    result.Draft.Body,
		}
	}
	if result.SentID != "" {
		out["messageId"] = result.SentID
	}

	return jsonResult(out)
}

func handleScanText(_ context.Context, request mcp.CallToolRequest, a *assistant.Assistant) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	text, ok := args["text"].(string)
	if !ok || text == "" {
		return mcp.NewToolResultError("text is required"), nil
	}

	report, err := a.ScanText(text)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("scan failed: %v", err)), nil
	}

	findings := make([]map[string]any, 0, len(report.Findings))
	for _, f := range report.Findings {
		// Matched text stays out of the response; spans are enough for
		// callers to locate it.
		findings = append(findings, map[string]any{
			"category": f.Category.String(),
			"start":    f.Start,
			"end":      f.End,
		})
	}

	return jsonResult(map[string]any{
		"clean":    report.Empty(),
		"findings": findings,
	})
}

func handleValidateDraft(_ context.Context, request mcp.CallToolRequest, a *assistant.Assistant) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	to, _ := args["to"].(string)
	subject, _ := args["subject"].(string)
	body, _ := args["body"].(string)
	if to == "" || subject == "" || body == "" {
		return mcp.NewToolResultError("to, subject and body are required"), nil
	}

	artifact := draft.Artifact{
		To:      splitRecipients(to),
		Subject: subject,
		Body:    body,
	}
	if err := artifact.Wellformed(); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("malformed draft: %v", err)), nil
	}

	verdict, err := a.ValidateDraft(artifact)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("validation failed: %v", err)), nil
	}

	out := map[string]any{
		"decision": string(verdict.Decision),
	}
	if len(verdict.Blocking) > 0 {
		categories := make([]string, 0, len(verdict.Blocking))
		for _, f := range verdict.Blocking {
			categories = append(categories, f.Category.String())
		}
		out["blockingCategories"] = categories
	} else {
		out["draft"] = map[string]any{
			"to":      verdict.Artifact.To,
			"subject": verdict.Artifact.Subject,
			"body":    verdict.Artifact.Body,
		}
	}

	return jsonResult(out)
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to encode result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func splitRecipients(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
