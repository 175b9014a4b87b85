package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"ewsclient/ews"
	"ewsclient/internal/pkg/cleanup"
	"ewsclient/internal/pkg/config"
	"ewsclient/internal/pkg/db/redis"
	"ewsclient/internal/pkg/downstream"
	"ewsclient/internal/pkg/log_messages"
	"ewsclient/internal/pkg/logger"
	"ewsclient/internal/pkg/otel"
	"ewsclient/internal/pkg/store"
	"ewsclient/soap"

	goredis "github.com/redis/go-redis/v9"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
)

// session holds what the commands share once Before has run.
type session struct {
	client          downstream.EWSAPI
	redis           *goredis.Client
	shutdownTracing func(context.Context) error
}

var p session

func main() {
	app := &cli.App{
		Name:  "ews-cli",
		Usage: "Send single EWS operations and print the decoded response",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Usage:   "path to the YAML configuration",
				EnvVars: []string{"CONFIG_PATH"},
			},
			&cli.StringFlag{
				Name:    "url",
				Usage:   "EWS endpoint, overrides the configuration",
				EnvVars: []string{"EWS_URL"},
			},
		},
		Before: setup,
		After:  teardown,
		Commands: []*cli.Command{
			{
				Name:  "get-folder",
				Usage: "Fetch a distinguished folder",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "folder", Value: "inbox"},
					&cli.StringFlag{Name: "shape", Value: string(ews.BaseShapeDefault)},
				},
				Action: getFolder,
			},
			{
				Name:      "get-item",
				Usage:     "Fetch an item by identifier",
				ArgsUsage: "ITEM_ID",
				Action:    getItem,
			},
			{
				Name:      "move-item",
				Usage:     "Move an item to a distinguished folder",
				ArgsUsage: "ITEM_ID",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "to", Value: "deleteditems"},
				},
				Action: moveItem,
			},
			{
				Name:      "delete-folder",
				Usage:     "Delete a folder by identifier",
				ArgsUsage: "FOLDER_ID",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "delete-type", Value: string(ews.DeleteTypeMoveToDeletedItems)},
				},
				Action: deleteFolder,
			},
			{
				Name:  "sync-folder-items",
				Usage: "List item changes of a distinguished folder since a sync state",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "folder", Value: "inbox"},
					&cli.StringFlag{Name: "state", Usage: "sync state from a previous run, empty for a full sync"},
					&cli.UintFlag{Name: "max-changes", Value: 100},
				},
				Action: syncFolderItems,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

func setup(c *cli.Context) error {
	var (
		cfg *config.AppConfig
		err error
	)
	if path := c.String("config"); path != "" {
		cfg, err = config.LoadFromConfigFilePath(path)
	} else {
		cfg, err = config.LoadFromConfig()
	}
	if err != nil {
		logger.Error(log_messages.FailedLoadingConfiguration, err)
		return err
	}
	logger.Init(cfg.Logging.LogLevel)

	shutdownTracing, err := otel.Setup(c.Context, cfg.Server.ServiceName, cfg.Server.OtelCollectorURL)
	if err != nil {
		logger.Error("Error setting up OTLP", err)
	} else {
		p.shutdownTracing = shutdownTracing
	}

	if url := c.String("url"); url != "" {
		cfg.EWS.URL = url
	}
	if cfg.EWS.URL == "" {
		return errors.New("no EWS endpoint configured")
	}

	// A nil *BackOffStore must not reach the client as a non-nil interface.
	var tracker downstream.BackOffTracker
	if cfg.BackOff.Enabled {
		rdb, err := redis.Connect(c.Context, cfg.Redis, goredis.NewClient)
		if err != nil {
			return err
		}
		p.redis = rdb
		tracker = store.NewBackOffStore(rdb, cfg.BackOff.KeyPrefix)
	}

	p.client = downstream.NewClient(cfg.EWS, tracker)
	return nil
}

func teardown(c *cli.Context) error {
	if p.redis != nil {
		cleanup.CleanupResources(c.Context, p.redis, nil)
	}
	if p.shutdownTracing != nil {
		if err := p.shutdownTracing(c.Context); err != nil {
			logger.Error("Failed to flush traces", err)
		}
	}
	_ = logger.Sync()
	return nil
}

func getFolder(c *cli.Context) error {
	resp, err := p.client.GetFolder(c.Context, ews.GetFolder{
		FolderShape: ews.FolderShape{BaseShape: ews.BaseShape(c.String("shape"))},
		FolderIDs:   []ews.BaseFolderID{ews.DistinguishedFolder(c.String("folder"))},
	})
	return report(c.Context, resp, err)
}

func getItem(c *cli.Context) error {
	id, err := firstArg(c, "item id")
	if err != nil {
		return err
	}
	resp, err := p.client.GetItem(c.Context, ews.GetItem{
		ItemIDs: []ews.BaseItemID{ews.ItemByID(id, "")},
	})
	return report(c.Context, resp, err)
}

func moveItem(c *cli.Context) error {
	id, err := firstArg(c, "item id")
	if err != nil {
		return err
	}
	resp, err := p.client.MoveItem(c.Context, ews.MoveItem{
		ToFolderID: ews.DistinguishedFolder(c.String("to")),
		ItemIDs:    []ews.BaseItemID{ews.ItemByID(id, "")},
	})
	return report(c.Context, resp, err)
}

func deleteFolder(c *cli.Context) error {
	id, err := firstArg(c, "folder id")
	if err != nil {
		return err
	}
	resp, err := p.client.DeleteFolder(c.Context, ews.DeleteFolder{
		DeleteType: ews.DeleteType(c.String("delete-type")),
		FolderIDs:  []ews.BaseFolderID{ews.FolderByID(id, "")},
	})
	return report(c.Context, resp, err)
}

func syncFolderItems(c *cli.Context) error {
	maxChanges := c.Uint("max-changes")
	if maxChanges < 1 || maxChanges > 512 {
		return fmt.Errorf("max-changes must be between 1 and 512, got %d", maxChanges)
	}
	resp, err := p.client.SyncFolderItems(c.Context, ews.SyncFolderItems{
		ItemShape:          ews.ItemShape{BaseShape: ews.BaseShapeIDOnly},
		SyncFolderID:       ews.DistinguishedFolder(c.String("folder")),
		SyncState:          c.String("state"),
		MaxChangesReturned: uint16(maxChanges),
	})
	return report(c.Context, resp, err)
}

func firstArg(c *cli.Context, what string) (string, error) {
	if c.Args().Len() < 1 {
		return "", fmt.Errorf("missing %s", what)
	}
	return c.Args().First(), nil
}

func report[R ews.OperationResponse](ctx context.Context, resp *R, err error) error {
	if err != nil {
		if fault, ok := soap.AsFault(err); ok {
			logger.CtxWarn(ctx, "operation failed with a SOAP fault",
				zap.String("response_code", fault.ResponseCode()),
				zap.String("fault_string", fault.FaultString),
			)
		}
		return err
	}
	out, err := json.MarshalIndent(resp, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}
