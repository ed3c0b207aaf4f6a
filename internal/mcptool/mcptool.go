// Package mcptool exposes outline extraction as MCP tools.
package mcptool

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"

	"github.com/dgallion1/docoutline/internal/archetype"
	"github.com/dgallion1/docoutline/internal/parser"
	"github.com/dgallion1/docoutline/internal/pipeline"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Register adds the outline tools to srv.
func Register(srv *mcp.Server, runner *pipeline.Runner) {
	t := &tools{runner: runner}
	addTool(srv, &mcp.Tool{
		Name:        "outline_extract",
		Description: "Extract the title and H1-H4 outline of a PDF, Markdown, HTML or DOCX file. Pages are 1-based.",
		InputSchema: inputSchema(map[string]any{
			"path":      map[string]any{"type": "string", "description": "File path to extract"},
			"archetype": map[string]any{"type": "string", "description": "Force a strategy for PDFs: form, rfp, poster, invitation, structured_document"},
		}, []string{"path"}),
	}, t.extract)
	addTool(srv, &mcp.Tool{
		Name:        "outline_archetype",
		Description: "Classify a PDF as form, rfp, poster, invitation or structured_document from its first pages.",
		InputSchema: inputSchema(map[string]any{
			"path": map[string]any{"type": "string", "description": "PDF file path"},
		}, []string{"path"}),
	}, t.detect)
	addTool(srv, &mcp.Tool{
		Name:        "outline_formats",
		Description: "List the file extensions outline_extract accepts.",
		InputSchema: inputSchema(map[string]any{}, nil),
	}, t.formats)
}

func inputSchema(properties map[string]any, required []string) map[string]any {
	s := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		s["required"] = required
	}
	return s
}

type handler func(ctx context.Context, args json.RawMessage) (any, error)

// addTool wraps h so errors come back as tool results, not protocol errors,
// and successful responses as one JSON text block.
func addTool(srv *mcp.Server, tool *mcp.Tool, h handler) {
	srv.AddTool(tool, func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		resp, err := h(ctx, req.Params.Arguments)
		if err != nil {
			var res mcp.CallToolResult
			res.SetError(err)
			return &res, nil
		}
		data, err := json.Marshal(resp)
		if err != nil {
			var res mcp.CallToolResult
			res.SetError(fmt.Errorf("marshal: %w", err))
			return &res, nil
		}
		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: string(data)}},
		}, nil
	})
}

type tools struct {
	runner *pipeline.Runner
}

type extractReq struct {
	Path      string `json:"path"`
	Archetype string `json:"archetype"`
}

func decode(args json.RawMessage, v any) error {
	if len(args) == 0 {
		return errors.New("invalid arguments: empty")
	}
	if err := json.Unmarshal(args, v); err != nil {
		return fmt.Errorf("invalid arguments: %w", err)
	}
	return nil
}

func readInput(path string, native bool) ([]byte, error) {
	if path == "" {
		return nil, errors.New("path is required")
	}
	if !parser.IsSupportedExtension(path, native) {
		return nil, fmt.Errorf("%w: %s", parser.ErrUnsupported, filepath.Ext(path))
	}
	return os.ReadFile(path)
}

func (t *tools) extract(ctx context.Context, args json.RawMessage) (any, error) {
	var r extractReq
	if err := decode(args, &r); err != nil {
		return nil, err
	}
	var kind archetype.Archetype
	if r.Archetype != "" {
		k, ok := archetype.Parse(r.Archetype)
		if !ok {
			return nil, fmt.Errorf("unknown archetype: %s", r.Archetype)
		}
		kind = k
	}
	data, err := readInput(r.Path, true)
	if err != nil {
		return nil, err
	}

	job := t.runner.ExtractUpload(ctx, r.Path, data, kind)
	snap := job.Snapshot()
	if snap.Status != pipeline.StatusCompleted {
		return nil, fmt.Errorf("%s: %s", snap.Status, lastError(snap.Errors))
	}
	return map[string]any{
		"archetype": snap.Archetype,
		"pages":     snap.Pages,
		"result":    job.Result(),
	}, nil
}

func lastError(errs []string) string {
	if len(errs) == 0 {
		return "no detail"
	}
	return errs[len(errs)-1]
}

func (t *tools) detect(ctx context.Context, args json.RawMessage) (any, error) {
	var r struct {
		Path string `json:"path"`
	}
	if err := decode(args, &r); err != nil {
		return nil, err
	}
	data, err := readInput(r.Path, false)
	if err != nil {
		return nil, err
	}
	kind, err := t.runner.Detect(ctx, data)
	if err != nil {
		return nil, err
	}
	return map[string]string{"archetype": string(kind)}, nil
}

func (t *tools) formats(_ context.Context, _ json.RawMessage) (any, error) {
	return map[string]any{
		"formats": append([]string{".pdf"}, slices.Sorted(maps.Keys(parser.NativeExtensions))...),
	}, nil
}
