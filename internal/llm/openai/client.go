package openai

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tanjoen/forenaide/internal/common"
	"github.com/tanjoen/forenaide/internal/llm"
	"github.com/tanjoen/forenaide/internal/pipeline"
	"github.com/tanjoen/forenaide/internal/schema"
)

const extractPrompt = "extract the relevant content using the provided tool"

// CallTool implements pipeline.ToolCaller over chat/completions with a forced
// function call. The response must contain exactly the contract's tool.
func (c *Client) CallTool(ctx context.Context, contract schema.ToolContract, unit pipeline.ContentUnit) ([]byte, error) {
	rid := uuid.New().String()
	start := time.Now()

	c.logger.Debug("llm.tool_call.start",
		"req_id", rid,
		"model", c.cfg.Model,
		"tool", contract.Name,
		"has_image", len(unit.Image) > 0,
		"text_len", len(unit.Text),
	)

	body := map[string]any{
		"model":       c.cfg.Model,
		"temperature": c.cfg.Temperature,
		"messages": []map[string]any{
			{"role": "user", "content": messageContent(unit)},
		},
		"tools": []map[string]any{
			{
				"type": "function",
				"function": map[string]any{
					"name":        contract.Name,
					"description": contract.Description,
					"strict":      contract.Strict,
					"parameters":  contract.Parameters,
				},
			},
		},
		"tool_choice": map[string]any{
			"type":     "function",
			"function": map[string]any{"name": contract.Name},
		},
	}

	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/chat/completions"
	headers := map[string]string{}
	if c.cfg.APIKey != "" {
		headers["Authorization"] = "Bearer " + c.cfg.APIKey
	}
	raw, _, err := llm.SendJSON(ctx, c.http, endpoint, body, headers, c.logger)
	if err != nil {
		c.logger.Error("llm.tool_call.http_error",
			"req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return nil, err
	}

	var cc struct {
		Choices []struct {
			Message struct {
				ToolCalls []struct {
					Function struct {
						Name      string `json:"name"`
						Arguments string `json:"arguments"`
					} `json:"function"`
				} `json:"tool_calls"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(raw, &cc); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if len(cc.Choices) == 0 || len(cc.Choices[0].Message.ToolCalls) == 0 {
		c.logger.Error("llm.tool_call.none_made", "req_id", rid, "elapsed_ms", time.Since(start).Milliseconds())
		return nil, common.ErrNoToolCallMade
	}
	call := cc.Choices[0].Message.ToolCalls[0].Function
	if call.Name != contract.Name {
		c.logger.Error("llm.tool_call.name_mismatch",
			"req_id", rid, "want", contract.Name, "got", call.Name,
		)
		return nil, fmt.Errorf("%w: want %q, got %q", common.ErrToolNameMismatch, contract.Name, call.Name)
	}

	c.logger.Debug("llm.tool_call.ok",
		"req_id", rid,
		"arg_bytes", len(call.Arguments),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return []byte(call.Arguments), nil
}

// messageContent renders the unit as chat content: plain text, or a
// text-plus-image part list for the vision path.
func messageContent(unit pipeline.ContentUnit) any {
	if len(unit.Image) == 0 {
		return unit.Text
	}
	imageType := strings.ToLower(unit.ImageType)
	if imageType == "" {
		imageType = "jpeg"
	}
	encoded := base64.StdEncoding.EncodeToString(unit.Image)
	return []map[string]any{
		{"type": "text", "text": extractPrompt},
		{
			"type": "image_url",
			"image_url": map[string]any{
				"url": fmt.Sprintf("data:image/%s;base64,%s", imageType, encoded),
			},
		},
	}
}
