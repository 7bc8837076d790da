package mcp

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"time"

	"mcph/crate-api/internal/crate"
	"mcph/crate-api/model"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

var toolDefs = []gin.H{
	{
		"name":        "crates_get",
		"description": "Fetch a crate's metadata and content by ID. Text crates return plain UTF-8, images return base64. Password-protected crates need the password argument.",
		"inputSchema": gin.H{
			"type": "object",
			"properties": gin.H{
				"id":       gin.H{"type": "string", "description": "Crate ID"},
				"password": gin.H{"type": "string", "description": "Password for protected crates"},
			},
			"required": []string{"id"},
		},
	},
	{
		"name":        "crates_get_download_link",
		"description": "Generate a time-limited signed download URL for a crate. Works for any category including binaries.",
		"inputSchema": gin.H{
			"type": "object",
			"properties": gin.H{
				"id":         gin.H{"type": "string", "description": "Crate ID"},
				"password":   gin.H{"type": "string", "description": "Password for protected crates"},
				"expires_in": gin.H{"type": "integer", "description": "Link lifetime in seconds, capped at 24 hours"},
			},
			"required": []string{"id"},
		},
	},
	{
		"name":        "crates_upload",
		"description": "Upload a new crate. Provide data for text content or data_base64 for binary content. Binary uploads may return an upload_url to PUT the bytes through instead.",
		"inputSchema": gin.H{
			"type": "object",
			"properties": gin.H{
				"file_name":    gin.H{"type": "string", "description": "File name, used for category detection"},
				"content_type": gin.H{"type": "string", "description": "MIME type, detected from the bytes when omitted"},
				"data":         gin.H{"type": "string", "description": "UTF-8 content"},
				"data_base64":  gin.H{"type": "string", "description": "Base64 content for binary files"},
				"title":        gin.H{"type": "string"},
				"description":  gin.H{"type": "string"},
				"category":     gin.H{"type": "string", "description": "One of text, code, json, markdown, image, binary"},
				"tags":         gin.H{"type": "array", "items": gin.H{"type": "string"}},
				"metadata":     gin.H{"type": "object"},
				"public":       gin.H{"type": "boolean", "description": "Share publicly right away"},
				"password":     gin.H{"type": "string", "description": "Share behind a password instead of publicly"},
				"expires_in":   gin.H{"type": "string", "description": "Expiry duration such as 24h or 72h, authenticated users only"},
			},
		},
	},
	{
		"name":        "crates_share",
		"description": "Make a crate publicly accessible, optionally behind a password. Owner only.",
		"inputSchema": gin.H{
			"type": "object",
			"properties": gin.H{
				"id":       gin.H{"type": "string", "description": "Crate ID"},
				"public":   gin.H{"type": "boolean", "description": "Open the crate without a password gate"},
				"password": gin.H{"type": "string", "description": "Require this password on the shared link"},
			},
			"required": []string{"id"},
		},
	},
	{
		"name":        "crates_unshare",
		"description": "Make a crate private again. Owner only.",
		"inputSchema": gin.H{
			"type": "object",
			"properties": gin.H{
				"id": gin.H{"type": "string", "description": "Crate ID"},
			},
			"required": []string{"id"},
		},
	},
	{
		"name":        "crates_delete",
		"description": "Permanently delete a crate and its stored bytes. Owner only.",
		"inputSchema": gin.H{
			"type": "object",
			"properties": gin.H{
				"id": gin.H{"type": "string", "description": "Crate ID"},
			},
			"required": []string{"id"},
		},
	},
	{
		"name":        "crates_list",
		"description": "List your crates, newest first. Requires authentication.",
		"inputSchema": gin.H{
			"type": "object",
			"properties": gin.H{
				"limit":       gin.H{"type": "integer", "description": "Page size, at most 100"},
				"start_after": gin.H{"type": "string", "description": "Crate ID to continue after"},
			},
		},
	},
	{
		"name":        "crates_search",
		"description": "Search your crates by title, description, tags and metadata. Requires authentication.",
		"inputSchema": gin.H{
			"type": "object",
			"properties": gin.H{
				"query": gin.H{"type": "string"},
				"limit": gin.H{"type": "integer", "description": "At most 100 results"},
			},
			"required": []string{"query"},
		},
	},
}

func (s *Server) callTool(c *gin.Context, id crate.Identity, params callParams) toolResult {
	ctx := c.Request.Context()

	var res any
	var err error

	switch params.Name {
	case "crates_get":
		res, err = s.toolGet(ctx, id, params.Arguments)
	case "crates_get_download_link":
		res, err = s.toolDownloadLink(ctx, id, params.Arguments)
	case "crates_upload":
		res, err = s.toolUpload(ctx, id, params.Arguments)
	case "crates_share":
		res, err = s.toolShare(ctx, id, params.Arguments)
	case "crates_unshare":
		res, err = s.toolUnshare(ctx, id, params.Arguments)
	case "crates_delete":
		res, err = s.toolDelete(ctx, id, params.Arguments)
	case "crates_list":
		res, err = s.toolList(ctx, id, params.Arguments)
	case "crates_search":
		res, err = s.toolSearch(ctx, id, params.Arguments)
	default:
		return errorResult("unknown tool: " + params.Name)
	}
	if err != nil {
		return toolError(c, err)
	}

	return textResult(res)
}

// toolError turns service errors into isError tool results. Expected
// denials keep their message, backend failures are masked and logged.
func toolError(c *gin.Context, err error) toolResult {
	switch {
	case errors.Is(err, crate.ErrNotFound):
		return errorResult("crate not found")
	case errors.Is(err, crate.ErrPasswordRequired):
		return errorResult("password required")
	case errors.Is(err, crate.ErrInvalidPassword):
		return errorResult("invalid password")
	case errors.Is(err, crate.ErrNotPermitted):
		return errorResult("not permitted")
	case errors.Is(err, crate.ErrBinaryInline), crate.IsValidation(err):
		return errorResult(err.Error())
	default:
		requestID := c.MustGet("requestID").(string)
		zap.L().Error("Tool call failed",
			zap.Error(err),
			zap.String("requestID", requestID),
		)
		return errorResult("internal error")
	}
}

func decodeArgs(raw json.RawMessage, v any) error {
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, v)
}

func (s *Server) toolGet(ctx context.Context, id crate.Identity, raw json.RawMessage) (any, error) {
	var args struct {
		ID       string `json:"id"`
		Password string `json:"password"`
	}
	if err := decodeArgs(raw, &args); err != nil {
		return nil, crate.Validation("invalid arguments")
	}

	content, err := s.Crates.GetContent(ctx, id, args.ID, args.Password)
	if err != nil {
		return nil, err
	}

	return gin.H{
		"crate":     content.Crate,
		"data":      content.Data,
		"base64":    content.Base64,
		"mime_type": content.MimeType,
	}, nil
}

func (s *Server) toolDownloadLink(ctx context.Context, id crate.Identity, raw json.RawMessage) (any, error) {
	var args struct {
		ID        string `json:"id"`
		Password  string `json:"password"`
		ExpiresIn int    `json:"expires_in"`
	}
	if err := decodeArgs(raw, &args); err != nil {
		return nil, crate.Validation("invalid arguments")
	}

	ttl := crate.DefaultLinkTTL
	if args.ExpiresIn > 0 {
		ttl = time.Duration(args.ExpiresIn) * time.Second
	}

	url, expiresAt, err := s.Crates.GetDownloadLink(ctx, id, args.ID, args.Password, ttl)
	if err != nil {
		return nil, err
	}

	return gin.H{
		"url":        url,
		"expires_at": expiresAt.UTC().Format(time.RFC3339),
	}, nil
}

func (s *Server) toolUpload(ctx context.Context, id crate.Identity, raw json.RawMessage) (any, error) {
	var args struct {
		FileName    string            `json:"file_name"`
		ContentType string            `json:"content_type"`
		Data        string            `json:"data"`
		DataBase64  string            `json:"data_base64"`
		Title       string            `json:"title"`
		Description string            `json:"description"`
		Category    string            `json:"category"`
		Tags        []string          `json:"tags"`
		Metadata    map[string]string `json:"metadata"`
		Public      bool              `json:"public"`
		Password    string            `json:"password"`
		ExpiresIn   string            `json:"expires_in"`
	}
	if err := decodeArgs(raw, &args); err != nil {
		return nil, crate.Validation("invalid arguments")
	}

	var data []byte
	switch {
	case args.DataBase64 != "":
		var err error
		data, err = base64.StdEncoding.DecodeString(args.DataBase64)
		if err != nil {
			return nil, crate.ErrNoContent
		}
	case args.Data != "":
		data = []byte(args.Data)
	}

	var ttl time.Duration
	if args.ExpiresIn != "" {
		var err error
		ttl, err = time.ParseDuration(args.ExpiresIn)
		if err != nil {
			return nil, crate.Validation("invalid expires_in duration")
		}
	}

	return s.Crates.Upload(ctx, id, crate.UploadInput{
		FileName:    args.FileName,
		ContentType: args.ContentType,
		Data:        data,
		Title:       args.Title,
		Description: args.Description,
		Category:    args.Category,
		Tags:        args.Tags,
		Metadata:    args.Metadata,
		Public:      args.Public,
		Password:    args.Password,
		TTL:         ttl,
	})
}

func (s *Server) toolShare(ctx context.Context, id crate.Identity, raw json.RawMessage) (any, error) {
	var args struct {
		ID       string `json:"id"`
		Public   *bool  `json:"public"`
		Password string `json:"password"`
	}
	if err := decodeArgs(raw, &args); err != nil {
		return nil, crate.Validation("invalid arguments")
	}

	// With no arguments at all, sharing means plainly public
	public := args.Password == ""
	if args.Public != nil {
		public = *args.Public
	}

	c, err := s.Crates.Share(ctx, id, args.ID, public, args.Password)
	if err != nil {
		return nil, err
	}

	return gin.H{"crate": c}, nil
}

func (s *Server) toolUnshare(ctx context.Context, id crate.Identity, raw json.RawMessage) (any, error) {
	var args struct {
		ID string `json:"id"`
	}
	if err := decodeArgs(raw, &args); err != nil {
		return nil, crate.Validation("invalid arguments")
	}

	c, err := s.Crates.Unshare(ctx, id, args.ID)
	if err != nil {
		return nil, err
	}

	return gin.H{"crate": c}, nil
}

func (s *Server) toolDelete(ctx context.Context, id crate.Identity, raw json.RawMessage) (any, error) {
	var args struct {
		ID string `json:"id"`
	}
	if err := decodeArgs(raw, &args); err != nil {
		return nil, crate.Validation("invalid arguments")
	}

	if err := s.Crates.Delete(ctx, id, args.ID); err != nil {
		return nil, err
	}

	return gin.H{"deleted": args.ID}, nil
}

func (s *Server) toolList(ctx context.Context, id crate.Identity, raw json.RawMessage) (any, error) {
	var args struct {
		Limit      int    `json:"limit"`
		StartAfter string `json:"start_after"`
	}
	if err := decodeArgs(raw, &args); err != nil {
		return nil, crate.Validation("invalid arguments")
	}

	crates, err := s.Crates.List(ctx, id, args.Limit, args.StartAfter)
	if err != nil {
		return nil, err
	}
	if crates == nil {
		crates = []model.Crate{}
	}

	return gin.H{"crates": crates}, nil
}

func (s *Server) toolSearch(ctx context.Context, id crate.Identity, raw json.RawMessage) (any, error) {
	var args struct {
		Query string `json:"query"`
		Limit int    `json:"limit"`
	}
	if err := decodeArgs(raw, &args); err != nil {
		return nil, crate.Validation("invalid arguments")
	}

	crates, err := s.Crates.Search(ctx, id, args.Query, args.Limit)
	if err != nil {
		return nil, err
	}
	if crates == nil {
		crates = []model.Crate{}
	}

	return gin.H{"crates": crates}, nil
}
