package rest

import (
	"context"
	"encoding/json"
	"fmt"
	"menuo/pkg/httperror"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Resource names a collection of the menu API.
type Resource string

const (
	Categories Resource = "categories"
	Products   Resource = "products"
	Settings   Resource = "settings"
)

// MethodOverrideParam is the query marker the backend reads to treat a POST
// as another verb. Multipart bodies are only parsed on POST there, so
// multipart updates travel as POST /{resource}/{id}?_method=PUT.
const MethodOverrideParam = "_method"

// Payload is a request body understood by the client.
type Payload interface {
	apply(agent *fiber.Agent) error
	multipart() bool
}

// JSONBody sends Value encoded as JSON.
type JSONBody struct {
	Value any
}

func (b JSONBody) apply(agent *fiber.Agent) error {
	agent.JSON(b.Value)
	return nil
}

func (JSONBody) multipart() bool { return false }

type Field struct {
	Name  string
	Value string
}

type File struct {
	FieldName string
	FileName  string
	Content   []byte
}

// Multipart sends text fields in order plus at most one file part.
type Multipart struct {
	Fields []Field
	File   *File
}

func (m Multipart) apply(agent *fiber.Agent) error {
	if m.File != nil {
		if m.File.FieldName == "" {
			return fmt.Errorf("multipart file is missing its field name")
		}
		// FileData must be registered before MultipartForm writes the body.
		agent.FileData(&fiber.FormFile{
			Fieldname: m.File.FieldName,
			Name:      m.File.FileName,
			Content:   m.File.Content,
		})
	}

	args := fiber.AcquireArgs()
	defer fiber.ReleaseArgs(args)
	for _, f := range m.Fields {
		args.Add(f.Name, f.Value)
	}
	agent.MultipartForm(args)
	return nil
}

func (Multipart) multipart() bool { return true }

// Client issues CRUD calls against the menu API. It never retries; every
// failure is returned as a *httperror.Error.
type Client struct {
	baseURL         string
	timeout         time.Duration
	nativeMultipart bool
	http            *fiber.Client
}

type ClientConfig struct {
	BaseURL string
	// Timeout bounds each request; zero means no client-side timeout.
	Timeout time.Duration
	// NativeMultipartUpdate sends multipart updates as a real PUT instead of
	// tunnelling them through POST with MethodOverrideParam.
	NativeMultipartUpdate bool
}

func NewClient(cfg ClientConfig) *Client {
	return &Client{
		baseURL:         strings.TrimRight(cfg.BaseURL, "/"),
		timeout:         cfg.Timeout,
		nativeMultipart: cfg.NativeMultipartUpdate,
		http:            fiber.AcquireClient(),
	}
}

// List fetches GET /{resource} into out.
func (c *Client) List(ctx context.Context, resource Resource, out any) error {
	agent := c.http.Get(c.url(string(resource)))
	return c.do(ctx, agent, string(resource)+".list", out)
}

// ListScoped fetches the child collection of a category:
// GET /categories/{parentID}/{child}.
func (c *Client) ListScoped(ctx context.Context, parentID int64, child Resource, out any) error {
	agent := c.http.Get(c.url(string(Categories), id(parentID), string(child)))
	return c.do(ctx, agent, string(child)+".list_scoped", out)
}

// Create sends POST /{resource}.
func (c *Client) Create(ctx context.Context, resource Resource, payload Payload, out any) error {
	agent := c.http.Post(c.url(string(resource)))
	if err := payload.apply(agent); err != nil {
		fiber.ReleaseAgent(agent)
		return httperror.Transport(string(resource)+".create", "invalid payload", err)
	}
	return c.do(ctx, agent, string(resource)+".create", out)
}

// Update sends PUT /{resource}/{id}. Multipart payloads go through POST with
// the method override marker unless the client was built for native
// multipart updates.
func (c *Client) Update(ctx context.Context, resource Resource, entityID int64, payload Payload, out any) error {
	target := c.url(string(resource), id(entityID))

	var agent *fiber.Agent
	if payload.multipart() && !c.nativeMultipart {
		agent = c.http.Post(target + "?" + MethodOverrideParam + "=" + http.MethodPut)
	} else {
		agent = c.http.Put(target)
	}

	if err := payload.apply(agent); err != nil {
		fiber.ReleaseAgent(agent)
		return httperror.Transport(string(resource)+".update", "invalid payload", err)
	}
	return c.do(ctx, agent, string(resource)+".update", out)
}

// Remove sends DELETE /{resource}/{id}.
func (c *Client) Remove(ctx context.Context, resource Resource, entityID int64) error {
	agent := c.http.Delete(c.url(string(resource), id(entityID)))
	return c.do(ctx, agent, string(resource)+".remove", nil)
}

func (c *Client) url(segments ...string) string {
	return c.baseURL + "/" + strings.Join(segments, "/")
}

func (c *Client) do(ctx context.Context, agent *fiber.Agent, code string, out any) error {
	if err := ctx.Err(); err != nil {
		fiber.ReleaseAgent(agent)
		return httperror.Transport(code, "request not sent", err)
	}

	requestID := uuid.New().String()
	agent.Set(fiber.HeaderAccept, fiber.MIMEApplicationJSON)
	agent.Set(fiber.HeaderXRequestID, requestID)

	if timeout := c.requestTimeout(ctx); timeout > 0 {
		agent.Timeout(timeout)
	}

	started := time.Now()
	// Bytes releases the agent.
	status, body, errs := agent.Bytes()
	if len(errs) > 0 {
		zap.L().Warn("Menu API request failed",
			zap.String("code", code),
			zap.String("requestId", requestID),
			zap.Errors("errors", errs),
		)
		return httperror.Transport(code, "request failed", errs[0])
	}

	zap.L().Debug("Menu API response",
		zap.String("code", code),
		zap.String("requestId", requestID),
		zap.Int("status", status),
		zap.Duration("elapsed", time.Since(started)),
	)

	if status < http.StatusOK || status >= http.StatusMultipleChoices {
		return httperror.FromResponse(status, body, code)
	}

	if out == nil || status == http.StatusNoContent || len(body) == 0 {
		return nil
	}

	if err := json.Unmarshal(body, out); err != nil {
		return httperror.Transport(code, "malformed response body", err)
	}
	return nil
}

// requestTimeout is the tighter of the configured timeout and the context
// deadline.
func (c *Client) requestTimeout(ctx context.Context) time.Duration {
	timeout := c.timeout
	if deadline, ok := ctx.Deadline(); ok {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			remaining = time.Millisecond
		}
		if timeout == 0 || remaining < timeout {
			timeout = remaining
		}
	}
	return timeout
}

func id(v int64) string {
	return strconv.FormatInt(v, 10)
}
