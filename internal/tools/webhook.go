package tools

import (
	"context"

	"github.com/ghlink/ghlink/internal/core/gateway"
)

func webhookTools(d Deps) []*Tool {
	return []*Tool{
		{
			Name:        "list_webhooks",
			Description: "List repository webhooks",
			Params:      withRepo(pagingParams()...),
			ReadOnly:    true,
			Failure:     "Failed to list webhooks",
			Handler: func(ctx context.Context, args Args) (*Result, error) {
				endpoint, err := repoEndpoint(args)
				if err != nil {
					return nil, err
				}
				var hooks []any
				if err := d.GitHub.Get(ctx, endpoint+"/hooks", &gateway.CallOptions{Query: query(args)}, &hooks); err != nil {
					return nil, err
				}
				return listResult("webhooks", hooks, "Webhooks listed successfully"), nil
			},
		},
		{
			Name:        "create_webhook",
			Description: "Create a repository webhook. Either config or url is required",
			Params: withRepo(
				Param{Name: "config", Type: TypeObject, Description: "Hook config {url, content_type, secret, insecure_ssl}"},
				Param{Name: "url", Type: TypeString, Description: "Payload URL, used when config is not given"},
				Param{Name: "content_type", Type: TypeString, Description: "Payload format (default json)", Enum: []string{"json", "form"}},
				Param{Name: "secret", Type: TypeString, Description: "Signing secret"},
				Param{Name: "events", Type: TypeArray, Description: "Events to deliver (default push)"},
				Param{Name: "active", Type: TypeBoolean, Description: "Deliver events (default true)"},
			),
			Failure: "Failed to create webhook",
			Handler: func(ctx context.Context, args Args) (*Result, error) {
				endpoint, err := repoEndpoint(args)
				if err != nil {
					return nil, err
				}

				config := args.Object("config")
				if config == nil {
					if !args.Has("url") {
						return nil, invalid("config", "config or url is required")
					}
					contentType := args.Str("content_type")
					if contentType == "" {
						contentType = "json"
					}
					config = Payload{"url": args.Str("url"), "content_type": contentType}.
						SetString("secret", args.RawStr("secret"))
				}
				events := args.Strings("events")
				if len(events) == 0 {
					events = []string{"push"}
				}
				body := Payload{
					"name":   "web",
					"config": config,
					"events": events,
					"active": args.Bool("active", true),
				}

				var hook map[string]any
				if err := d.GitHub.Post(ctx, endpoint+"/hooks", &gateway.CallOptions{Body: body}, &hook); err != nil {
					return nil, err
				}
				return OK("webhook", hook, "Webhook created successfully"), nil
			},
		},
		{
			Name:        "delete_webhook",
			Description: "Delete a repository webhook",
			Params:      withRepo(Param{Name: "hook_id", Type: TypeInteger, Required: true, Description: "Webhook ID"}),
			Destructive: true,
			Failure:     "Failed to delete webhook",
			Handler: func(ctx context.Context, args Args) (*Result, error) {
				endpoint, err := repoEndpoint(args)
				if err != nil {
					return nil, err
				}
				id, err := positiveID(args, "hook_id")
				if err != nil {
					return nil, err
				}
				if err := expectDeleted(d.GitHub.Delete(ctx, join(endpoint, "hooks", id), nil)); err != nil {
					return nil, err
				}
				return OK("", nil, "Webhook deleted successfully"), nil
			},
		},
	}
}
